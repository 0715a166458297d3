package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/chirplab/dsp/signal"
	"github.com/cwbudde/chirplab/internal/audiofile"
)

func synthCommand() *cobra.Command {
	var (
		kind       string
		freq       float64
		startFreq  float64
		endFreq    float64
		amplitude  float64
		sampleRate int
		duration   float64
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "synth [output.wav]",
		Short: "Synthesize a test signal",
		Long: `Synth writes a test signal to a WAV file: a pure tone, white noise, or a
linear frequency sweep. These match the stimuli played during speaker tests.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return fmt.Errorf("duration must be positive, got %f", duration)
			}
			samples := int(duration * float64(sampleRate))

			gen, err := signal.NewGenerator(float64(sampleRate), signal.WithSeed(seed))
			if err != nil {
				return err
			}

			var data []float64
			switch strings.ToLower(kind) {
			case "tone":
				data, err = gen.Sine(freq, amplitude, samples)
			case "noise":
				data, err = gen.WhiteNoise(amplitude, samples)
			case "sweep":
				data, err = gen.Sweep(startFreq, endFreq, amplitude, samples)
			default:
				return fmt.Errorf("unknown signal kind %q (want tone, noise, or sweep)", kind)
			}
			if err != nil {
				return err
			}

			clip, err := audiofile.NewClip(data, sampleRate)
			if err != nil {
				return err
			}
			if err := audiofile.WriteWAV(args[0], clip); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s, %d samples at %d Hz\n",
				args[0], kind, samples, sampleRate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "tone", "signal kind: tone, noise, sweep")
	cmd.Flags().Float64VarP(&freq, "freq", "f", 1000, "tone frequency in Hz")
	cmd.Flags().Float64Var(&startFreq, "start", 300, "sweep start frequency in Hz")
	cmd.Flags().Float64Var(&endFreq, "end", 500, "sweep end frequency in Hz")
	cmd.Flags().Float64VarP(&amplitude, "amplitude", "a", 0.8, "peak amplitude in [0, 1]")
	cmd.Flags().IntVarP(&sampleRate, "rate", "r", 44100, "sample rate in Hz")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 2.0, "duration in seconds")
	cmd.Flags().Int64Var(&seed, "seed", 1, "noise generator seed")

	return cmd
}
