// Package audiofile loads and stores audio clips, preserving each file's
// native sample rate.
package audiofile

import (
	"errors"
	"fmt"
	"time"
)

// Errors returned by clip construction and file loading.
var (
	ErrInvalidSampleRate = errors.New("audiofile: sample rate must be positive")
	ErrUnsupportedFormat = errors.New("audiofile: unsupported file format")
)

// Clip is an ordered sequence of mono samples plus the sample rate they
// were recorded at. Clips are not mutated after creation.
type Clip struct {
	Samples    []float64
	SampleRate int
}

// NewClip validates and wraps samples recorded at sampleRate.
func NewClip(samples []float64, sampleRate int) (Clip, error) {
	if sampleRate <= 0 {
		return Clip{}, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	return Clip{Samples: samples, SampleRate: sampleRate}, nil
}

// Len returns the sample count.
func (c Clip) Len() int { return len(c.Samples) }

// Duration returns the clip length in time.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}
