// Command chirplab analyzes speaker test recordings: it catalogs tone,
// chirp, and background captures, renders waveform and mel spectrogram
// plots, synthesizes test signals, and converts logged voltage captures
// to WAV.
package main

import (
	"os"

	"github.com/cwbudde/chirplab/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
