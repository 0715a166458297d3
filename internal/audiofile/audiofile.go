package audiofile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ReadClip loads an audio file, selecting the decoder by file extension.
// The clip keeps the file's native sample rate; no resampling happens here.
func ReadClip(path string) (Clip, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return ReadWAV(path)
	case ".flac":
		return ReadFLAC(path)
	default:
		return Clip{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
