// Package render draws waveform and spectrogram images to PNG files.
//
// Rendering is presentation-only: a render failure never invalidates the
// analysis results that produced the input.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/cwbudde/chirplab/dsp/core"
	"github.com/cwbudde/chirplab/dsp/melspec"
	"github.com/cwbudde/chirplab/internal/audiofile"
)

// ErrEmptyInput indicates there is nothing to draw.
var ErrEmptyInput = errors.New("render: empty input")

const (
	waveformWidth  = 960
	waveformHeight = 240
	titleStrip     = 16
	minHeatmapSize = 128
)

var (
	background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	waveColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	axisColor  = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	titleColor = color.RGBA{R: 16, G: 16, B: 16, A: 255}
)

// Waveform renders amplitude against time for a clip and writes a PNG.
func Waveform(clip audiofile.Clip, title, path string) error {
	if clip.Len() == 0 {
		return ErrEmptyInput
	}

	img := image.NewRGBA(image.Rect(0, 0, waveformWidth, waveformHeight+titleStrip))
	fill(img, background)

	mid := titleStrip + waveformHeight/2
	for x := 0; x < waveformWidth; x++ {
		img.SetRGBA(x, mid, axisColor)
	}

	// Per-column min/max envelope over the samples mapped to that column.
	half := float64(waveformHeight) / 2
	for x := 0; x < waveformWidth; x++ {
		lo := x * clip.Len() / waveformWidth
		hi := (x + 1) * clip.Len() / waveformWidth
		if hi <= lo {
			hi = lo + 1
		}

		minV, maxV := math.Inf(1), math.Inf(-1)
		for i := lo; i < hi && i < clip.Len(); i++ {
			v := core.Clamp(clip.Samples[i], -1, 1)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}

		yTop := mid - int(maxV*half)
		yBot := mid - int(minV*half)
		for y := yTop; y <= yBot; y++ {
			img.SetRGBA(x, y, waveColor)
		}
	}

	drawTitle(img, title)

	return writePNG(path, img)
}

// Heatmap renders a spectrogram as a mel-band against time-frame heatmap
// and writes a PNG. Low mel bands are drawn at the bottom.
func Heatmap(spec *melspec.Spectrogram, title, path string) error {
	if spec == nil || spec.NumBands() == 0 || spec.NumFrames() == 0 {
		return ErrEmptyInput
	}

	bands := spec.NumBands()
	frames := spec.NumFrames()

	// Integer upscale so tiny spectrograms stay legible.
	scaleX := scaleFor(frames)
	scaleY := scaleFor(bands)

	width := frames * scaleX
	height := bands * scaleY

	img := image.NewRGBA(image.Rect(0, 0, width, height+titleStrip))
	fill(img, background)

	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, row := range spec.Data {
		for _, v := range row {
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
	}
	span := maxV - minV
	if span == 0 {
		span = 1
	}

	for m := 0; m < bands; m++ {
		for t := 0; t < frames; t++ {
			c := heatColor((spec.Data[m][t] - minV) / span)
			for dy := 0; dy < scaleY; dy++ {
				y := titleStrip + (bands-m-1)*scaleY + dy
				for dx := 0; dx < scaleX; dx++ {
					img.SetRGBA(t*scaleX+dx, y, c)
				}
			}
		}
	}

	drawTitle(img, title)

	return writePNG(path, img)
}

func scaleFor(n int) int {
	s := 1
	for n*s < minHeatmapSize {
		s++
	}
	return s
}

// heatColor maps t in [0, 1] onto a dark-to-bright gradient.
func heatColor(t float64) color.RGBA {
	t = core.Clamp(t, 0, 1)

	// Three-stop gradient: near-black, warm orange, white.
	switch {
	case t < 0.5:
		u := t / 0.5
		return lerpColor(color.RGBA{10, 8, 40, 255}, color.RGBA{221, 90, 30, 255}, u)
	default:
		u := (t - 0.5) / 0.5
		return lerpColor(color.RGBA{221, 90, 30, 255}, color.RGBA{252, 250, 200, 255}, u)
	}
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: 255,
	}
}

func fill(img *image.RGBA, c color.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawTitle(img *image.RGBA, title string) {
	if title == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(titleColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 12),
	}
	d.DrawString(title)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("render: encode %s: %w", path, err)
	}

	return f.Close()
}
