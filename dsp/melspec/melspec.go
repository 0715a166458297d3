// Package melspec computes mel-scaled power spectrograms and their
// logarithmic (dB) representation.
package melspec

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/chirplab/dsp/core"
	"github.com/cwbudde/chirplab/dsp/window"
)

const (
	// aminPower is the silence floor applied before log conversion so the
	// dB output is always finite.
	aminPower = 1e-10

	// DefaultTopDB is the default dynamic range clamp below the peak.
	DefaultTopDB = 80.0
)

// Errors returned by spectrogram computation.
var (
	ErrEmptyInput        = errors.New("melspec: input signal is empty")
	ErrInvalidSampleRate = errors.New("melspec: sample rate must be positive")
	ErrInvalidFMax       = errors.New("melspec: fmax must be positive")
	ErrInvalidFMin       = errors.New("melspec: fmin must be >= 0 and below fmax")
	ErrInvalidWindowSize = errors.New("melspec: window size must be positive")
	ErrInvalidHopSize    = errors.New("melspec: hop size must be positive")
	ErrInvalidNumMels    = errors.New("melspec: mel band count must be positive")
	ErrInvalidTopDB      = errors.New("melspec: top dB must be positive")
)

// Params configures spectrogram computation.
//
// FMax zero means "use Nyquist". FMax above Nyquist is clamped to Nyquist;
// the effective bound is reported in the result so callers can detect the
// clamp and warn.
type Params struct {
	WindowSize int
	HopSize    int
	NumMels    int
	FMin       float64
	FMax       float64
	WindowType window.Type
}

// DefaultParams returns parameters suitable for short low-rate test clips.
func DefaultParams() Params {
	return Params{
		WindowSize: 256,
		HopSize:    64,
		NumMels:    64,
		FMin:       0,
		FMax:       0,
		WindowType: window.TypeHann,
	}
}

func (p Params) validate(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if p.WindowSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWindowSize, p.WindowSize)
	}
	if p.HopSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHopSize, p.HopSize)
	}
	if p.NumMels <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidNumMels, p.NumMels)
	}
	if p.FMax < 0 {
		return fmt.Errorf("%w: %f", ErrInvalidFMax, p.FMax)
	}
	if p.FMin < 0 {
		return fmt.Errorf("%w: %f", ErrInvalidFMin, p.FMin)
	}
	return nil
}

// Spectrogram holds mel-scaled values indexed by [mel band][time frame].
//
// Values are linear power after Compute and decibels after PowerToDB. dB
// values are relative to the spectrogram's own peak; comparing dB values
// across spectrograms computed from different clips is meaningless.
type Spectrogram struct {
	Data       [][]float64
	SampleRate int
	FMin       float64
	FMax       float64 // effective upper bound after any Nyquist clamp
	InDB       bool
}

// NumBands returns the mel band count.
func (s *Spectrogram) NumBands() int { return len(s.Data) }

// NumFrames returns the time frame count.
func (s *Spectrogram) NumFrames() int {
	if len(s.Data) == 0 {
		return 0
	}
	return len(s.Data[0])
}

// Clamped reports whether the requested fmax exceeded Nyquist.
func Clamped(requested float64, sampleRate int) bool {
	return requested > float64(sampleRate)/2
}

// FrameCount returns the number of STFT frames produced for n samples.
func FrameCount(n, windowSize, hopSize int) int {
	if n <= 0 || windowSize <= 0 || hopSize <= 0 {
		return 0
	}
	if n < windowSize {
		return 1
	}
	return 1 + (n-windowSize)/hopSize
}

// Compute returns the mel-scaled power spectrogram of samples.
//
// The signal is framed with p.WindowSize and p.HopSize, windowed, and
// transformed with an FFT sized to the next power of two of the window.
// Power bins up to the effective fmax are aggregated through a triangular
// mel filterbank.
func Compute(samples []float64, sampleRate int, p Params) (*Spectrogram, error) {
	if err := p.validate(sampleRate); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrEmptyInput
	}

	nyquist := float64(sampleRate) / 2

	fmax := p.FMax
	switch {
	case fmax == 0:
		fmax = nyquist
	case fmax > nyquist:
		fmax = nyquist
	}

	if p.FMin >= fmax {
		return nil, fmt.Errorf("%w: fmin %f, fmax %f", ErrInvalidFMin, p.FMin, fmax)
	}

	fftSize := core.NextPowerOfTwo(p.WindowSize)
	numBins := fftSize/2 + 1
	numFrames := FrameCount(len(samples), p.WindowSize, p.HopSize)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("melspec: failed to create FFT plan: %w", err)
	}

	coeffs := window.Generate(p.WindowType, p.WindowSize, window.WithPeriodic())

	fb := filterBank(p.NumMels, numBins, fftSize, sampleRate, p.FMin, fmax)

	timeFrame := make([]complex128, fftSize)
	freqFrame := make([]complex128, fftSize)
	frame := make([]float64, p.WindowSize)
	re := make([]float64, numBins)
	im := make([]float64, numBins)
	power := make([]float64, numBins)

	out := make([][]float64, p.NumMels)
	for m := range out {
		out[m] = make([]float64, numFrames)
	}

	for t := 0; t < numFrames; t++ {
		start := t * p.HopSize

		for i := range frame {
			if idx := start + i; idx < len(samples) {
				frame[i] = samples[idx]
			} else {
				frame[i] = 0
			}
		}

		if err := window.ApplyCoefficientsInPlace(frame, coeffs); err != nil {
			return nil, fmt.Errorf("melspec: windowing failed: %w", err)
		}

		for i := range timeFrame {
			if i < len(frame) {
				timeFrame[i] = complex(frame[i], 0)
			} else {
				timeFrame[i] = 0
			}
		}

		if err := plan.Forward(freqFrame, timeFrame); err != nil {
			return nil, fmt.Errorf("melspec: forward FFT failed: %w", err)
		}

		for i := 0; i < numBins; i++ {
			re[i] = real(freqFrame[i])
			im[i] = imag(freqFrame[i])
		}
		vecmath.Power(power, re, im)

		for m := range fb {
			var sum float64
			for _, tap := range fb[m] {
				sum += tap.weight * power[tap.bin]
			}
			out[m][t] = sum
		}
	}

	return &Spectrogram{
		Data:       out,
		SampleRate: sampleRate,
		FMin:       p.FMin,
		FMax:       fmax,
	}, nil
}

// PowerToDB converts a linear-power spectrogram to decibels relative to its
// own peak. The loudest cell is exactly 0 dB and every other cell is
// negative. Values more than topDB below the peak are clamped; all output
// values are finite.
func PowerToDB(s *Spectrogram, topDB float64) (*Spectrogram, error) {
	if s == nil || len(s.Data) == 0 {
		return nil, ErrEmptyInput
	}
	if topDB <= 0 {
		return nil, fmt.Errorf("%w: %f", ErrInvalidTopDB, topDB)
	}

	ref := aminPower
	for _, row := range s.Data {
		for _, v := range row {
			if v > ref {
				ref = v
			}
		}
	}
	logRef := 10 * math.Log10(ref)

	out := make([][]float64, len(s.Data))
	for m, row := range s.Data {
		out[m] = make([]float64, len(row))
		for t, v := range row {
			db := 10*math.Log10(math.Max(aminPower, v)) - logRef
			if db < -topDB {
				db = -topDB
			}
			out[m][t] = db
		}
	}

	return &Spectrogram{
		Data:       out,
		SampleRate: s.SampleRate,
		FMin:       s.FMin,
		FMax:       s.FMax,
		InDB:       true,
	}, nil
}

// MelFrequencies returns the center frequency in Hz of each mel band for a
// spectrogram spanning [fmin, fmax].
func MelFrequencies(numMels int, fmin, fmax float64) []float64 {
	if numMels <= 0 {
		return nil
	}
	pts := melPoints(numMels, fmin, fmax)
	out := make([]float64, numMels)
	for i := range out {
		out[i] = pts[i+1]
	}
	return out
}

// hzToMel converts Hz to mel using the HTK formula.
func hzToMel(hz float64) float64 {
	return 1127.0 * math.Log(1.0+hz/700.0)
}

// melToHz converts mel to Hz using the HTK formula.
func melToHz(mel float64) float64 {
	return 700.0 * (math.Exp(mel/1127.0) - 1.0)
}

// melPoints returns numMels+2 frequencies in Hz spaced uniformly on the mel
// scale between fmin and fmax, inclusive.
func melPoints(numMels int, fmin, fmax float64) []float64 {
	lo := hzToMel(fmin)
	hi := hzToMel(fmax)
	out := make([]float64, numMels+2)
	for i := range out {
		out[i] = melToHz(lo + (hi-lo)*float64(i)/float64(numMels+1))
	}
	return out
}

type filterTap struct {
	bin    int
	weight float64
}

// filterBank builds triangular mel filters over FFT power bins. Each filter
// is area-normalized so broadband energy is comparable across bands.
func filterBank(numMels, numBins, fftSize, sampleRate int, fmin, fmax float64) [][]filterTap {
	pts := melPoints(numMels, fmin, fmax)
	binHz := float64(sampleRate) / float64(fftSize)

	fb := make([][]filterTap, numMels)
	for m := 0; m < numMels; m++ {
		lo, center, hi := pts[m], pts[m+1], pts[m+2]

		norm := 2 / (hi - lo)

		for k := 0; k < numBins; k++ {
			f := float64(k) * binHz
			if f <= lo || f >= hi {
				continue
			}

			var w float64
			if f <= center {
				w = (f - lo) / (center - lo)
			} else {
				w = (hi - f) / (hi - center)
			}

			fb[m] = append(fb[m], filterTap{bin: k, weight: w * norm})
		}

		// Narrow filters at low rates can fall between bins entirely; take
		// the nearest bin so the band is never silent by construction.
		if len(fb[m]) == 0 {
			k := int(math.Round(center / binHz))
			if k >= numBins {
				k = numBins - 1
			}
			fb[m] = []filterTap{{bin: k, weight: 1}}
		}
	}

	return fb
}
