// Package config loads and validates runtime settings from defaults, an
// optional YAML config file, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cwbudde/chirplab/dsp/melspec"
	"github.com/cwbudde/chirplab/dsp/resample"
	"github.com/cwbudde/chirplab/dsp/window"
)

// Errors returned by settings validation.
var (
	ErrInvalidTargetRate = errors.New("config: preview target rate must be positive")
	ErrInvalidQuality    = errors.New("config: unknown resample quality")
	ErrInvalidFMax       = errors.New("config: fmax must be >= 0")
	ErrInvalidTopDB      = errors.New("config: top dB must be positive")
)

// InputSettings locates the recordings to analyze.
type InputSettings struct {
	Dir      string `mapstructure:"dir"`
	Manifest string `mapstructure:"manifest"`
}

// OutputSettings locates rendered artifacts.
type OutputSettings struct {
	Dir string `mapstructure:"dir"`
}

// PreviewSettings controls the playback-preview resample.
type PreviewSettings struct {
	TargetRate int    `mapstructure:"target_rate"`
	Quality    string `mapstructure:"quality"`
}

// SpectrogramSettings controls mel spectrogram computation.
type SpectrogramSettings struct {
	WindowSize int     `mapstructure:"window_size"`
	HopSize    int     `mapstructure:"hop_size"`
	NumMels    int     `mapstructure:"num_mels"`
	FMax       float64 `mapstructure:"fmax"` // 0 = per-clip Nyquist
	TopDB      float64 `mapstructure:"top_db"`
	Window     string  `mapstructure:"window"`
}

// Settings is the full runtime configuration.
type Settings struct {
	Input       InputSettings       `mapstructure:"input"`
	Output      OutputSettings      `mapstructure:"output"`
	Preview     PreviewSettings     `mapstructure:"preview"`
	Spectrogram SpectrogramSettings `mapstructure:"spectrogram"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.dir", ".")
	v.SetDefault("input.manifest", "")
	v.SetDefault("output.dir", "out")
	v.SetDefault("preview.target_rate", 22050)
	v.SetDefault("preview.quality", "fast")
	v.SetDefault("spectrogram.window_size", 256)
	v.SetDefault("spectrogram.hop_size", 64)
	v.SetDefault("spectrogram.num_mels", 64)
	v.SetDefault("spectrogram.fmax", 0.0)
	v.SetDefault("spectrogram.top_db", melspec.DefaultTopDB)
	v.SetDefault("spectrogram.window", "hann")
}

// Load builds settings from defaults and an optional config file. An empty
// path searches for chirplab.yaml in the working directory; a missing
// explicit path is an error.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("chirplab")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Default returns the built-in settings without touching the filesystem.
func Default() *Settings {
	v := viper.New()
	setDefaults(v)

	var s Settings
	// Unmarshal of pure defaults cannot fail.
	_ = v.Unmarshal(&s)
	return &s
}

// Validate checks settings ranges before any analysis starts.
func (s *Settings) Validate() error {
	if s.Preview.TargetRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTargetRate, s.Preview.TargetRate)
	}
	if _, err := s.ResampleQuality(); err != nil {
		return err
	}
	if s.Spectrogram.FMax < 0 {
		return fmt.Errorf("%w: %f", ErrInvalidFMax, s.Spectrogram.FMax)
	}
	if s.Spectrogram.TopDB <= 0 {
		return fmt.Errorf("%w: %f", ErrInvalidTopDB, s.Spectrogram.TopDB)
	}
	if _, err := s.SpectrogramParams(); err != nil {
		return err
	}
	return nil
}

// ResampleQuality maps the configured quality name to a resample mode.
func (s *Settings) ResampleQuality() (resample.Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s.Preview.Quality)) {
	case "fast", "":
		return resample.QualityFast, nil
	case "best":
		return resample.QualityBest, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s.Preview.Quality)
	}
}

// SpectrogramParams builds melspec parameters from the settings. The
// returned params still validate per-clip values (sample rate, fmax).
func (s *Settings) SpectrogramParams() (melspec.Params, error) {
	winType, err := window.Parse(s.Spectrogram.Window)
	if err != nil {
		return melspec.Params{}, err
	}

	p := melspec.Params{
		WindowSize: s.Spectrogram.WindowSize,
		HopSize:    s.Spectrogram.HopSize,
		NumMels:    s.Spectrogram.NumMels,
		FMax:       s.Spectrogram.FMax,
		WindowType: winType,
	}
	if p.WindowSize <= 0 || p.HopSize <= 0 || p.NumMels <= 0 {
		return melspec.Params{}, fmt.Errorf("config: spectrogram sizes must be positive: window %d, hop %d, mels %d",
			p.WindowSize, p.HopSize, p.NumMels)
	}
	return p, nil
}
