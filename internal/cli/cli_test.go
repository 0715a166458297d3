package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/chirplab/internal/audiofile"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSynthTone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone_1000Hz.wav")

	out, err := runCommand(t, "synth", path, "--kind", "tone", "--freq", "1000",
		"--rate", "32000", "--duration", "0.25")
	require.NoError(t, err)
	assert.Contains(t, out, "8000 samples at 32000 Hz")

	clip, err := audiofile.ReadClip(path)
	require.NoError(t, err)
	assert.Equal(t, 32000, clip.SampleRate)
	assert.Equal(t, 8000, clip.Len())
}

func TestSynthRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	_, err := runCommand(t, "synth", path, "--kind", "square")
	require.Error(t, err)
}

func TestCatalogListsAndSelects(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"tone_300Hz.wav",
		"chirp_1000Hz.wav",
		"background_mic_diff_5000Hz_001.wav",
		"background_mic_diff_5000Hz_002.wav",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	out, err := runCommand(t, "catalog", "--input", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "selected tone: tone_300Hz.wav")
	assert.Contains(t, out, "selected chirp: chirp_1000Hz.wav")
	// The background category keeps the last matching file.
	assert.Contains(t, out, "selected background: background_mic_diff_5000Hz_002.wav")
}

func TestAnalyzeEndToEnd(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	tonePath := filepath.Join(inDir, "tone_1000Hz.wav")
	_, err := runCommand(t, "synth", tonePath, "--freq", "1000", "--rate", "32000", "--duration", "0.25")
	require.NoError(t, err)

	out, err := runCommand(t, "analyze", "--input", inDir, "--output", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "tone_1000Hz.wav")

	for _, suffix := range []string{"_preview.wav", "_waveform.png", "_melspec.png"} {
		_, err := os.Stat(filepath.Join(outDir, "tone_1000Hz"+suffix))
		require.NoError(t, err, "missing artifact %s", suffix)
	}
}

func TestAnalyzeReportsRowWhenRenderFails(t *testing.T) {
	inDir := t.TempDir()

	tonePath := filepath.Join(inDir, "tone_1000Hz.wav")
	_, err := runCommand(t, "synth", tonePath, "--freq", "1000", "--rate", "32000", "--duration", "0.25")
	require.NoError(t, err)

	// A regular file in place of the output directory fails every write.
	blocked := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	out, err := runCommand(t, "analyze", "--input", inDir, "--output", blocked)
	require.Error(t, err)
	assert.Contains(t, out, "tone_1000Hz.wav")
	assert.Contains(t, out, "failed")
}

func TestConvertCapture(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "capture_8000Hz.csv")

	var buf bytes.Buffer
	buf.WriteString("Timestamp_s,Voltage_V\n")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&buf, "%.6f,%.4f\n", float64(i)/8000.0, 1.65)
	}
	require.NoError(t, os.WriteFile(csvPath, buf.Bytes(), 0o644))

	out, err := runCommand(t, "convert", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "100 samples at 8000 Hz")

	clip, err := audiofile.ReadClip(filepath.Join(dir, "capture_8000Hz.wav"))
	require.NoError(t, err)
	assert.Equal(t, 8000, clip.SampleRate)
	assert.Equal(t, 100, clip.Len())
	// vref/2 maps to silence.
	for _, v := range clip.Samples {
		assert.InDelta(t, 0.0, v, 1e-3)
	}
}
