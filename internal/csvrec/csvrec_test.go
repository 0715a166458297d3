package csvrec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCapture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mic_diff_1000Hz_20250618_113300.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadCapture(t *testing.T) {
	path := writeCapture(t, "Timestamp_s,Voltage_V\n0.000,1.65\n0.001,3.3\n0.002,0.0\n")

	c, err := ReadCapture(path)
	require.NoError(t, err)
	require.Len(t, c.Timestamps, 3)
	assert.Equal(t, 1.65, c.Voltages[0])
}

func TestReadCaptureColumnOrderIndependent(t *testing.T) {
	path := writeCapture(t, "Voltage_V,Extra,Timestamp_s\n1.65,x,0.0\n3.3,y,0.001\n")

	c, err := ReadCapture(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.0, 0.001}, c.Timestamps)
	assert.Equal(t, []float64{1.65, 3.3}, c.Voltages)
}

func TestReadCaptureMissingColumn(t *testing.T) {
	path := writeCapture(t, "Time,Voltage_V\n0,1.65\n")
	_, err := ReadCapture(path)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCaptureBadRow(t *testing.T) {
	path := writeCapture(t, "Timestamp_s,Voltage_V\n0.0,not-a-number\n")
	_, err := ReadCapture(path)
	require.ErrorIs(t, err, ErrInvalidCapture)
}

func TestReadCaptureMalformedMidFile(t *testing.T) {
	// A bare quote mid-file is a CSV syntax error; the capture must be
	// rejected, not silently truncated at the bad row.
	path := writeCapture(t, "Timestamp_s,Voltage_V\n0.000,1.65\n0.001,1.70\n0.002,\"1.75\n0.003,1.80\n0.004,1.85\n")
	_, err := ReadCapture(path)
	require.ErrorIs(t, err, ErrInvalidCapture)
}

func TestReadCaptureEmpty(t *testing.T) {
	path := writeCapture(t, "Timestamp_s,Voltage_V\n")
	_, err := ReadCapture(path)
	require.ErrorIs(t, err, ErrEmptyCaptureCSV)
}

func TestEstimateRate(t *testing.T) {
	// 1 kHz nominal sampling: 1 ms spacing.
	var b strings.Builder
	b.WriteString("Timestamp_s,Voltage_V\n")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&b, "%.6f,%.3f\n", float64(i)*0.001, 1.65)
	}

	c, err := ReadCapture(writeCapture(t, b.String()))
	require.NoError(t, err)

	est, err := c.EstimateRate()
	require.NoError(t, err)
	assert.InDelta(t, 0.001, est.MeanInterval, 1e-9)
	assert.InDelta(t, 1000.0, est.Frequency, 0.01)
	assert.InDelta(t, 0.0, est.StdDev, 1e-9)
}

func TestEstimateRateTooFewSamples(t *testing.T) {
	c := &Capture{Timestamps: []float64{0}, Voltages: []float64{1.65}}
	_, err := c.EstimateRate()
	require.ErrorIs(t, err, ErrTooFewSamples)
}

func TestClipNormalization(t *testing.T) {
	c := &Capture{
		Timestamps: []float64{0, 0.001, 0.002, 0.003},
		Voltages:   []float64{0.0, 1.65, 3.3, 5.0},
	}

	clip, err := c.Clip(DefaultVref, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, clip.SampleRate)

	assert.InDelta(t, -1.0, clip.Samples[0], 1e-12, "0 V maps to -1")
	assert.InDelta(t, 0.0, clip.Samples[1], 1e-12, "Vref/2 maps to 0")
	assert.InDelta(t, 1.0, clip.Samples[2], 1e-12, "Vref maps to +1")
	assert.Equal(t, 1.0, clip.Samples[3], "overrange voltages are clamped")
}

func TestClipInvalidVref(t *testing.T) {
	c := &Capture{Voltages: []float64{1.65}}
	_, err := c.Clip(0, 1000)
	require.ErrorIs(t, err, ErrInvalidVref)
}

func TestRateFromName(t *testing.T) {
	rate, err := RateFromName("mic_diff_1000Hz_20250618_113300.csv")
	require.NoError(t, err)
	assert.Equal(t, 1000, rate)

	rate, err = RateFromName("background_mic_diff_5000Hz_001.csv")
	require.NoError(t, err)
	assert.Equal(t, 5000, rate)

	_, err = RateFromName("capture.csv")
	require.ErrorIs(t, err, ErrNoRateInName)
}
