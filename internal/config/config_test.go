package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/chirplab/dsp/resample"
)

func TestDefaultSettings(t *testing.T) {
	s := Default()

	assert.Equal(t, 22050, s.Preview.TargetRate)
	assert.Equal(t, "fast", s.Preview.Quality)
	assert.Equal(t, 256, s.Spectrogram.WindowSize)
	assert.Equal(t, 64, s.Spectrogram.HopSize)
	assert.Equal(t, 64, s.Spectrogram.NumMels)
	assert.Equal(t, 0.0, s.Spectrogram.FMax)

	require.NoError(t, s.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chirplab.yaml")
	content := `
input:
  dir: recordings
preview:
  target_rate: 16000
  quality: best
spectrogram:
  fmax: 5000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "recordings", s.Input.Dir)
	assert.Equal(t, 16000, s.Preview.TargetRate)
	assert.Equal(t, 5000.0, s.Spectrogram.FMax)
	// Unset keys keep their defaults.
	assert.Equal(t, 64, s.Spectrogram.HopSize)

	q, err := s.ResampleQuality()
	require.NoError(t, err)
	assert.Equal(t, resample.QualityBest, q)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   error
	}{
		{"zero target rate", func(s *Settings) { s.Preview.TargetRate = 0 }, ErrInvalidTargetRate},
		{"unknown quality", func(s *Settings) { s.Preview.Quality = "turbo" }, ErrInvalidQuality},
		{"negative fmax", func(s *Settings) { s.Spectrogram.FMax = -1 }, ErrInvalidFMax},
		{"zero top dB", func(s *Settings) { s.Spectrogram.TopDB = 0 }, ErrInvalidTopDB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSpectrogramParamsRejectsBadWindowName(t *testing.T) {
	s := Default()
	s.Spectrogram.Window = "triangle"
	_, err := s.SpectrogramParams()
	require.Error(t, err)
}
