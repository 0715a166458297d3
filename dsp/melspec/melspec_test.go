package melspec

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/chirplab/internal/testutil"
)

func TestComputeValidation(t *testing.T) {
	sig := testutil.DeterministicSine(400, 5000, 1.0, 5000)

	tests := []struct {
		name   string
		rate   int
		mutate func(*Params)
		want   error
	}{
		{"zero sample rate", 0, func(p *Params) {}, ErrInvalidSampleRate},
		{"negative fmax", 5000, func(p *Params) { p.FMax = -1 }, ErrInvalidFMax},
		{"negative fmin", 5000, func(p *Params) { p.FMin = -1 }, ErrInvalidFMin},
		{"zero window", 5000, func(p *Params) { p.WindowSize = 0 }, ErrInvalidWindowSize},
		{"zero hop", 5000, func(p *Params) { p.HopSize = 0 }, ErrInvalidHopSize},
		{"zero mels", 5000, func(p *Params) { p.NumMels = 0 }, ErrInvalidNumMels},
		{"fmin above fmax", 5000, func(p *Params) { p.FMin = 900; p.FMax = 800 }, ErrInvalidFMin},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.mutate(&p)
			_, err := Compute(sig, tc.rate, p)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestComputeEmptyInput(t *testing.T) {
	if _, err := Compute(nil, 5000, DefaultParams()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("error = %v, want %v", err, ErrEmptyInput)
	}
}

func TestComputeShape(t *testing.T) {
	sig := testutil.DeterministicSine(400, 5000, 1.0, 5000)
	p := DefaultParams()

	s, err := Compute(sig, 5000, p)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if s.NumBands() != p.NumMels {
		t.Fatalf("bands = %d, want %d", s.NumBands(), p.NumMels)
	}
	if want := FrameCount(len(sig), p.WindowSize, p.HopSize); s.NumFrames() != want {
		t.Fatalf("frames = %d, want %d", s.NumFrames(), want)
	}
	if s.InDB {
		t.Fatal("Compute() output flagged as dB")
	}
}

func TestComputeShortInputYieldsOneFrame(t *testing.T) {
	sig := testutil.DeterministicSine(400, 5000, 1.0, 100)
	p := DefaultParams()

	s, err := Compute(sig, 5000, p)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if s.NumFrames() != 1 {
		t.Fatalf("frames = %d, want 1", s.NumFrames())
	}
}

func TestFMaxClampedToNyquist(t *testing.T) {
	// The background captures were analyzed with fmax equal to their sample
	// rate; the analyzer clamps that to Nyquist instead of failing.
	sig := testutil.DeterministicNoise(1, 0.5, 5000)
	p := DefaultParams()
	p.FMax = 5000

	s, err := Compute(sig, 5000, p)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if s.FMax != 2500 {
		t.Fatalf("effective fmax = %v, want 2500", s.FMax)
	}
	if !Clamped(p.FMax, 5000) {
		t.Fatal("Clamped() = false, want true")
	}
	if Clamped(2000, 5000) {
		t.Fatal("Clamped() = true for in-range fmax")
	}
}

func TestFMaxDefaultsToNyquist(t *testing.T) {
	sig := testutil.DeterministicSine(400, 1000, 1.0, 2000)
	p := DefaultParams()
	p.FMax = 0

	s, err := Compute(sig, 1000, p)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if s.FMax != 500 {
		t.Fatalf("effective fmax = %v, want 500", s.FMax)
	}
}

func TestPowerToDBPeakIsZero(t *testing.T) {
	sig := testutil.DeterministicSine(400, 5000, 1.0, 5000)

	s, err := Compute(sig, 5000, DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	db, err := PowerToDB(s, DefaultTopDB)
	if err != nil {
		t.Fatalf("PowerToDB() error = %v", err)
	}
	if !db.InDB {
		t.Fatal("output not flagged as dB")
	}

	peak := math.Inf(-1)
	for _, row := range db.Data {
		testutil.RequireFinite(t, row)
		for _, v := range row {
			if v > peak {
				peak = v
			}
			if v < -DefaultTopDB {
				t.Fatalf("value %v below -topDB clamp", v)
			}
		}
	}
	if peak != 0 {
		t.Fatalf("peak = %v dB, want 0", peak)
	}

	// Source spectrogram must stay linear.
	if s.InDB {
		t.Fatal("input spectrogram mutated")
	}
}

func TestPowerToDBSilence(t *testing.T) {
	s, err := Compute(make([]float64, 4096), 5000, DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	db, err := PowerToDB(s, DefaultTopDB)
	if err != nil {
		t.Fatalf("PowerToDB() error = %v", err)
	}
	for _, row := range db.Data {
		testutil.RequireFinite(t, row)
	}
}

func TestPowerToDBValidation(t *testing.T) {
	if _, err := PowerToDB(nil, DefaultTopDB); err == nil {
		t.Fatal("expected error for nil spectrogram")
	}

	sig := testutil.DeterministicSine(400, 5000, 1.0, 2048)
	s, err := Compute(sig, 5000, DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if _, err := PowerToDB(s, 0); !errors.Is(err, ErrInvalidTopDB) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidTopDB)
	}
}

func TestToneEnergyConcentration(t *testing.T) {
	// A 400 Hz tone at 5 kHz: the strongest mel band's center frequency
	// should land near 400 Hz.
	sig := testutil.DeterministicSine(400, 5000, 1.0, 10000)
	p := DefaultParams()
	p.WindowSize = 512
	p.HopSize = 128

	s, err := Compute(sig, 5000, p)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	totals := make([]float64, s.NumBands())
	for m, row := range s.Data {
		for _, v := range row {
			totals[m] += v
		}
	}
	best := 0
	for m := range totals {
		if totals[m] > totals[best] {
			best = m
		}
	}

	centers := MelFrequencies(p.NumMels, s.FMin, s.FMax)
	if got := centers[best]; math.Abs(got-400) > 100 {
		t.Fatalf("strongest band center = %v Hz, want within 100 Hz of 400", got)
	}
}

func TestMelFrequenciesMonotonic(t *testing.T) {
	centers := MelFrequencies(32, 0, 2500)
	if len(centers) != 32 {
		t.Fatalf("len = %d, want 32", len(centers))
	}
	for i := 1; i < len(centers); i++ {
		if centers[i] <= centers[i-1] {
			t.Fatalf("centers not strictly increasing at %d: %v <= %v", i, centers[i], centers[i-1])
		}
	}
	if centers[0] <= 0 || centers[len(centers)-1] >= 2500 {
		t.Fatalf("centers out of range: first %v, last %v", centers[0], centers[len(centers)-1])
	}
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		n, win, hop, want int
	}{
		{0, 256, 64, 0},
		{100, 256, 64, 1},
		{256, 256, 64, 1},
		{257, 256, 64, 1},
		{320, 256, 64, 2},
		{5000, 256, 64, 75},
	}
	for _, tc := range tests {
		if got := FrameCount(tc.n, tc.win, tc.hop); got != tc.want {
			t.Fatalf("FrameCount(%d,%d,%d) = %d, want %d", tc.n, tc.win, tc.hop, got, tc.want)
		}
	}
}
