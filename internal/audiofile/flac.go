package audiofile

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// ReadFLAC decodes a FLAC file into a mono clip at its native sample rate.
// Multi-channel files are downmixed by averaging channels.
func ReadFLAC(path string) (Clip, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return Clip{}, fmt.Errorf("audiofile: parse %s: %w", path, err)
	}
	defer stream.Close()

	info := stream.Info
	if info.NChannels == 0 {
		return Clip{}, fmt.Errorf("audiofile: %s: no channels", path)
	}

	channels := int(info.NChannels)
	divisor := float64(int64(1) << (info.BitsPerSample - 1))

	samples := make([]float64, 0, info.NSamples)

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Clip{}, fmt.Errorf("audiofile: decode %s: %w", path, err)
		}

		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			samples = append(samples, sum/float64(channels)/divisor)
		}
	}

	return NewClip(samples, int(info.SampleRate))
}
