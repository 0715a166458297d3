// Package pipeline runs the per-recording analysis chain: load, preview
// resample, mel spectrogram, and plot rendering.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/chirplab/dsp/melspec"
	"github.com/cwbudde/chirplab/dsp/resample"
	"github.com/cwbudde/chirplab/internal/audiofile"
	"github.com/cwbudde/chirplab/internal/catalog"
	"github.com/cwbudde/chirplab/internal/config"
	"github.com/cwbudde/chirplab/internal/render"
)

// Result records what the pipeline produced for one catalog entry.
type Result struct {
	Entry catalog.Entry

	// Source clip as decoded, at its native sample rate.
	SampleRate int
	Samples    int

	// Preview clip after resampling to the configured target rate.
	PreviewRate    int
	PreviewSamples int

	// Spectrogram shape and the effective upper frequency bound.
	MelBands    int
	Frames      int
	FMaxHz      float64
	FMaxClamped bool

	// Paths of written artifacts, empty when rendering is disabled.
	PreviewPath  string
	WaveformPath string
	HeatmapPath  string

	// RenderErr records an artifact write failure. The analysis fields
	// above stay valid when it is set; only the artifacts are incomplete.
	RenderErr error
}

// Pipeline applies one configuration to many recordings.
type Pipeline struct {
	settings *config.Settings
	quality  resample.Quality
	params   melspec.Params
	log      *slog.Logger
}

// New builds a pipeline from validated settings. A nil logger falls back
// to slog.Default.
func New(settings *config.Settings, log *slog.Logger) (*Pipeline, error) {
	if log == nil {
		log = slog.Default()
	}

	quality, err := settings.ResampleQuality()
	if err != nil {
		return nil, err
	}
	params, err := settings.SpectrogramParams()
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		settings: settings,
		quality:  quality,
		params:   params,
		log:      log,
	}, nil
}

// Run analyzes a single catalog entry and writes its artifacts to the
// output directory.
func (p *Pipeline) Run(entry catalog.Entry) (*Result, error) {
	path := filepath.Join(p.settings.Input.Dir, entry.Name)
	clip, err := audiofile.ReadClip(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: load %s: %w", entry.Name, err)
	}

	result := &Result{
		Entry:      entry,
		SampleRate: clip.SampleRate,
		Samples:    clip.Len(),
	}

	preview, err := p.preview(clip)
	if err != nil {
		return nil, fmt.Errorf("pipeline: preview %s: %w", entry.Name, err)
	}
	result.PreviewRate = preview.SampleRate
	result.PreviewSamples = preview.Len()

	spec, err := p.spectrogram(entry, clip)
	if err != nil {
		return nil, fmt.Errorf("pipeline: spectrogram %s: %w", entry.Name, err)
	}
	result.MelBands = spec.NumBands()
	result.Frames = spec.NumFrames()
	result.FMaxHz = spec.FMax
	result.FMaxClamped = melspec.Clamped(p.entryFMax(entry), clip.SampleRate)

	// Rendering is presentation-only; a failed plot or preview write is
	// reported on the result without discarding the computed analysis.
	if err := p.render(entry, clip, preview, spec, result); err != nil {
		result.RenderErr = fmt.Errorf("pipeline: render %s: %w", entry.Name, err)
		p.log.Warn("render failed", "file", entry.Name, "error", err)
	}

	return result, nil
}

// RunAll analyzes the given entries. Failures are logged and skipped so one
// bad recording does not abort the batch; entries whose analysis succeeded
// but whose artifacts failed to write keep their result row. The error
// reports how many entries failed either way.
func (p *Pipeline) RunAll(entries []catalog.Entry) ([]*Result, error) {
	results := make([]*Result, 0, len(entries))
	failed := 0

	for _, entry := range entries {
		result, err := p.Run(entry)
		if err != nil {
			p.log.Warn("analysis failed", "file", entry.Name, "error", err)
			failed++
			continue
		}
		if result.RenderErr != nil {
			failed++
		}
		results = append(results, result)
	}

	if failed > 0 {
		return results, fmt.Errorf("pipeline: %d of %d entries failed", failed, len(entries))
	}
	return results, nil
}

func (p *Pipeline) preview(clip audiofile.Clip) (audiofile.Clip, error) {
	samples, err := resample.Resample(clip.Samples, float64(clip.SampleRate),
		float64(p.settings.Preview.TargetRate), resample.WithQuality(p.quality))
	if err != nil {
		return audiofile.Clip{}, err
	}
	return audiofile.NewClip(samples, p.settings.Preview.TargetRate)
}

// entryFMax picks the spectrogram bound for one entry: a manifest override
// wins over the configured default.
func (p *Pipeline) entryFMax(entry catalog.Entry) float64 {
	if entry.FMaxHz > 0 {
		return entry.FMaxHz
	}
	return p.params.FMax
}

func (p *Pipeline) spectrogram(entry catalog.Entry, clip audiofile.Clip) (*melspec.Spectrogram, error) {
	params := p.params
	params.FMax = p.entryFMax(entry)

	if melspec.Clamped(params.FMax, clip.SampleRate) {
		p.log.Warn("fmax above Nyquist, clamping",
			"file", entry.Name,
			"fmax", params.FMax,
			"nyquist", float64(clip.SampleRate)/2)
	}

	spec, err := melspec.Compute(clip.Samples, clip.SampleRate, params)
	if err != nil {
		return nil, err
	}
	return melspec.PowerToDB(spec, p.settings.Spectrogram.TopDB)
}

func (p *Pipeline) render(entry catalog.Entry, clip, preview audiofile.Clip, spec *melspec.Spectrogram, result *Result) error {
	outDir := p.settings.Output.Dir
	if outDir == "" {
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	stem := strings.TrimSuffix(entry.Name, filepath.Ext(entry.Name))

	result.PreviewPath = filepath.Join(outDir, stem+"_preview.wav")
	if err := audiofile.WriteWAV(result.PreviewPath, preview); err != nil {
		return err
	}

	result.WaveformPath = filepath.Join(outDir, stem+"_waveform.png")
	title := fmt.Sprintf("%s @ %d Hz", entry.Name, clip.SampleRate)
	if err := render.Waveform(clip, title, result.WaveformPath); err != nil {
		return err
	}

	result.HeatmapPath = filepath.Join(outDir, stem+"_melspec.png")
	title = fmt.Sprintf("%s mel power (dB)", entry.Name)
	return render.Heatmap(spec, title, result.HeatmapPath)
}
