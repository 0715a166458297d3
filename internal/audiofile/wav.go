package audiofile

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV decodes a PCM WAV file into a mono clip at its native sample
// rate. Multi-channel files are downmixed by averaging channels.
func ReadWAV(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("audiofile: open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return Clip{}, fmt.Errorf("audiofile: %s: invalid WAV file", path)
	}
	if decoder.BitDepth != 8 && decoder.BitDepth != 16 && decoder.BitDepth != 24 && decoder.BitDepth != 32 {
		return Clip{}, fmt.Errorf("audiofile: %s: unsupported bit depth %d", path, decoder.BitDepth)
	}
	if decoder.NumChans == 0 {
		return Clip{}, fmt.Errorf("audiofile: %s: no channels", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("audiofile: decode %s: %w", path, err)
	}

	channels := int(decoder.NumChans)
	divisor := float64(int64(1) << (decoder.BitDepth - 1))

	samples := make([]float64, len(buf.Data)/channels)
	for i := range samples {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / divisor
	}

	return NewClip(samples, int(decoder.SampleRate))
}

// WriteWAV encodes a clip as 16-bit mono PCM.
func WriteWAV(path string, clip Clip) error {
	if clip.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, clip.SampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audiofile: create %s: %w", path, err)
	}

	const bitDepth = 16

	enc := wav.NewEncoder(f, clip.SampleRate, bitDepth, 1, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: clip.SampleRate},
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(clip.Samples)),
	}
	for i, v := range clip.Samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		buf.Data[i] = int(v * 32767)
	}

	if err := enc.Write(buf); err != nil {
		closeErr := enc.Close()
		f.Close()
		return errors.Join(fmt.Errorf("audiofile: encode %s: %w", path, err), closeErr)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("audiofile: finalize %s: %w", path, err)
	}

	return f.Close()
}
