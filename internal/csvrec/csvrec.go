// Package csvrec reads raw ADC captures from the contact-microphone rig:
// CSV files of timestamped voltages. It converts captures into audio clips
// and estimates the effective sample rate from the timestamp spacing.
package csvrec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"

	"github.com/cwbudde/chirplab/dsp/core"
	"github.com/cwbudde/chirplab/internal/audiofile"
)

// DefaultVref is the ADC reference voltage of the recording rig. Voltages
// swing around Vref/2.
const DefaultVref = 3.3

// Errors returned while reading and converting captures.
var (
	ErrMissingColumn   = errors.New("csvrec: capture is missing a required column")
	ErrTooFewSamples   = errors.New("csvrec: capture needs at least two samples")
	ErrInvalidVref     = errors.New("csvrec: vref must be positive")
	ErrNoRateInName    = errors.New("csvrec: filename carries no sample-rate marker")
	ErrInvalidCapture  = errors.New("csvrec: invalid capture row")
	ErrEmptyCaptureCSV = errors.New("csvrec: capture contains no data rows")
)

const (
	timestampColumn = "Timestamp_s"
	voltageColumn   = "Voltage_V"
)

// Capture is one raw recording: per-sample timestamps (seconds) and ADC
// voltages (volts).
type Capture struct {
	Timestamps []float64
	Voltages   []float64
}

// ReadCapture parses a capture CSV. The header must name the Timestamp_s
// and Voltage_V columns; their order does not matter and extra columns are
// ignored.
func ReadCapture(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvrec: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csvrec: read header of %s: %w", path, err)
	}

	tsCol, vCol := -1, -1
	for i, name := range header {
		switch name {
		case timestampColumn:
			tsCol = i
		case voltageColumn:
			vCol = i
		}
	}
	if tsCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, timestampColumn)
	}
	if vCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, voltageColumn)
	}

	capture := &Capture{}
	row := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCapture, err)
		}
		row++

		if len(record) <= tsCol || len(record) <= vCol {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrInvalidCapture, row, len(record))
		}

		ts, err := strconv.ParseFloat(record[tsCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d timestamp %q", ErrInvalidCapture, row, record[tsCol])
		}
		v, err := strconv.ParseFloat(record[vCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d voltage %q", ErrInvalidCapture, row, record[vCol])
		}

		capture.Timestamps = append(capture.Timestamps, ts)
		capture.Voltages = append(capture.Voltages, v)
	}

	if len(capture.Timestamps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCaptureCSV, path)
	}

	return capture, nil
}

// RateEstimate summarizes the effective sampling behavior of a capture.
type RateEstimate struct {
	MeanInterval float64 // seconds between samples
	StdDev       float64 // interval jitter
	Frequency    float64 // 1 / MeanInterval, Hz
}

// EstimateRate computes the effective sample rate from timestamp spacing.
func (c *Capture) EstimateRate() (RateEstimate, error) {
	if len(c.Timestamps) < 2 {
		return RateEstimate{}, ErrTooFewSamples
	}

	n := len(c.Timestamps) - 1

	var sum float64
	for i := 1; i < len(c.Timestamps); i++ {
		sum += c.Timestamps[i] - c.Timestamps[i-1]
	}
	mean := sum / float64(n)
	if mean <= 0 {
		return RateEstimate{}, fmt.Errorf("%w: non-increasing timestamps", ErrInvalidCapture)
	}

	var sq float64
	for i := 1; i < len(c.Timestamps); i++ {
		d := (c.Timestamps[i] - c.Timestamps[i-1]) - mean
		sq += d * d
	}
	variance := 0.0
	if n > 1 {
		variance = sq / float64(n-1)
	}

	return RateEstimate{
		MeanInterval: mean,
		StdDev:       math.Sqrt(variance),
		Frequency:    1 / mean,
	}, nil
}

// Clip converts the capture's voltages into an audio clip at sampleRate.
// Voltages are centered around vref/2 and normalized into [-1, 1], the
// same mapping the rig's CSV-to-WAV conversion used.
func (c *Capture) Clip(vref float64, sampleRate int) (audiofile.Clip, error) {
	if vref <= 0 {
		return audiofile.Clip{}, fmt.Errorf("%w: %f", ErrInvalidVref, vref)
	}

	half := vref / 2
	samples := make([]float64, len(c.Voltages))
	for i, v := range c.Voltages {
		samples[i] = core.Clamp((v-half)/half, -1, 1)
	}

	return audiofile.NewClip(samples, sampleRate)
}

var rateMarker = regexp.MustCompile(`(\d+)Hz`)

// RateFromName extracts the nominal sample rate from a capture filename
// such as mic_diff_1000Hz_20250618_113300.csv.
func RateFromName(name string) (int, error) {
	m := rateMarker.FindStringSubmatch(name)
	if m == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoRateInName, name)
	}
	rate, err := strconv.Atoi(m[1])
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoRateInName, name)
	}
	return rate, nil
}
