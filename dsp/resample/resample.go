package resample

import (
	"errors"
	"math"
)

var (
	// ErrInvalidRate indicates an invalid input/output sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

// Quality selects the interpolation policy.
type Quality int

const (
	// QualityFast uses linear interpolation. It trades stopband rejection
	// for speed and is intended for preview output, not further analysis.
	QualityFast Quality = iota
	// QualityBest uses Kaiser-windowed sinc interpolation.
	QualityBest
)

// Profile exposes filter parameters for each quality mode.
type Profile struct {
	TapsPerSide int
	CutoffScale float64
	KaiserBeta  float64
}

// QualityProfile returns the parameters used by quality mode q.
func QualityProfile(q Quality) Profile {
	if q == QualityBest {
		return Profile{TapsPerSide: 32, CutoffScale: 0.94, KaiserBeta: 8.6}
	}
	return Profile{TapsPerSide: 1, CutoffScale: 1, KaiserBeta: 0}
}

type config struct {
	quality     Quality
	tapsPerSide int
	cutoffScale float64
	kaiserBeta  float64
}

// Option configures the resampler.
type Option func(*config)

// WithQuality selects a predefined interpolation quality mode.
func WithQuality(q Quality) Option {
	return func(cfg *config) {
		cfg.quality = q
	}
}

// WithTapsPerSide overrides sinc taps on each side of the interpolation point.
// Only meaningful for QualityBest.
func WithTapsPerSide(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.tapsPerSide = n
		}
	}
}

// WithCutoffScale overrides normalized cutoff scaling in range (0, 1].
func WithCutoffScale(v float64) Option {
	return func(cfg *config) {
		if v > 0 && v <= 1 {
			cfg.cutoffScale = v
		}
	}
}

// WithKaiserBeta overrides the Kaiser window beta parameter.
func WithKaiserBeta(beta float64) Option {
	return func(cfg *config) {
		if beta >= 0 {
			cfg.kaiserBeta = beta
		}
	}
}

func finalizedConfig(opts []Option) config {
	cfg := config{quality: QualityFast}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	p := QualityProfile(cfg.quality)
	if cfg.tapsPerSide <= 0 {
		cfg.tapsPerSide = p.TapsPerSide
	}
	if cfg.cutoffScale <= 0 || cfg.cutoffScale > 1 {
		cfg.cutoffScale = p.CutoffScale
	}
	if cfg.kaiserBeta <= 0 {
		cfg.kaiserBeta = p.KaiserBeta
	}

	return cfg
}

// OutputLen returns the output length for converting inputLen samples
// from inRate to outRate.
func OutputLen(inputLen int, inRate, outRate float64) int {
	if inputLen <= 0 || inRate <= 0 || outRate <= 0 {
		return 0
	}
	return int(math.Round(float64(inputLen) * outRate / inRate))
}

// Resample converts input from inRate to outRate as a one-shot operation.
//
// When inRate equals outRate the input is copied unchanged. The output
// length is OutputLen(len(input), inRate, outRate); callers should expect
// it to scale proportionally to outRate/inRate.
func Resample(input []float64, inRate, outRate float64, opts ...Option) ([]float64, error) {
	if inRate <= 0 || outRate <= 0 || math.IsNaN(inRate) || math.IsNaN(outRate) ||
		math.IsInf(inRate, 0) || math.IsInf(outRate, 0) {
		return nil, ErrInvalidRate
	}

	if len(input) == 0 {
		return nil, nil
	}

	if inRate == outRate {
		out := make([]float64, len(input))
		copy(out, input)
		return out, nil
	}

	cfg := finalizedConfig(opts)

	if cfg.quality == QualityBest {
		return sincResample(input, inRate, outRate, cfg), nil
	}

	return linearResample(input, inRate, outRate), nil
}

// linearResample interpolates linearly between neighboring input samples.
func linearResample(input []float64, inRate, outRate float64) []float64 {
	ratio := outRate / inRate
	n := OutputLen(len(input), inRate, outRate)
	out := make([]float64, n)

	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		frac := pos - float64(idx)

		switch {
		case idx+1 < len(input):
			out[i] = input[idx]*(1-frac) + input[idx+1]*frac
		case idx < len(input):
			out[i] = input[idx]
		default:
			out[i] = input[len(input)-1]
		}
	}

	return out
}

// sincResample evaluates a Kaiser-windowed sinc kernel at each fractional
// output position. For downsampling the kernel cutoff is lowered to the
// output Nyquist to suppress aliasing.
func sincResample(input []float64, inRate, outRate float64, cfg config) []float64 {
	ratio := outRate / inRate
	n := OutputLen(len(input), inRate, outRate)
	out := make([]float64, n)

	cutoff := cfg.cutoffScale
	if ratio < 1 {
		cutoff *= ratio
	}

	halfWidth := float64(cfg.tapsPerSide)
	if ratio < 1 {
		// Stretch the kernel so the lowered cutoff keeps enough zero crossings.
		halfWidth /= ratio
	}

	i0Beta := besselI0(cfg.kaiserBeta)

	for i := range out {
		pos := float64(i) / ratio
		lo := int(math.Ceil(pos - halfWidth))
		hi := int(math.Floor(pos + halfWidth))

		if lo < 0 {
			lo = 0
		}
		if hi > len(input)-1 {
			hi = len(input) - 1
		}

		// Normalizing by the kernel sum keeps DC gain exact and compensates
		// for the truncated kernel near the signal edges.
		var acc, wsum float64
		for j := lo; j <= hi; j++ {
			x := pos - float64(j)
			w := kaiserAt(x/halfWidth, cfg.kaiserBeta, i0Beta) * sinc(cutoff*x)
			acc += input[j] * w
			wsum += w
		}

		if wsum != 0 {
			out[i] = acc / wsum
		}
	}

	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// kaiserAt evaluates the Kaiser window at u in [-1, 1].
func kaiserAt(u, beta, i0Beta float64) float64 {
	if u < -1 || u > 1 {
		return 0
	}
	return besselI0(beta*math.Sqrt(1-u*u)) / i0Beta
}

// besselI0 computes the zeroth-order modified Bessel function of the first
// kind via its power series.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	half := x / 2

	for k := 1; k < 32; k++ {
		term *= (half / float64(k)) * (half / float64(k))
		sum += term
		if term < sum*1e-16 {
			break
		}
	}

	return sum
}
