package cli

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/chirplab/internal/audiofile"
	"github.com/cwbudde/chirplab/internal/csvrec"
)

func convertCommand() *cobra.Command {
	var (
		output     string
		vref       float64
		sampleRate int
		estimate   bool
	)

	cmd := &cobra.Command{
		Use:   "convert [capture.csv]",
		Short: "Convert a logged voltage capture to WAV",
		Long: `Convert reads a CSV capture with Timestamp_s and Voltage_V columns, centers
the voltages around vref/2, and writes a mono WAV file. The sample rate is
taken from a flag, a NNNHz marker in the filename, or estimated from the
timestamps, in that order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capture, err := csvrec.ReadCapture(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			rate := sampleRate
			if rate == 0 {
				if rate, err = csvrec.RateFromName(filepath.Base(args[0])); err != nil {
					if !errors.Is(err, csvrec.ErrNoRateInName) {
						return err
					}
					est, err := capture.EstimateRate()
					if err != nil {
						return err
					}
					rate = int(math.Round(est.Frequency))
					fmt.Fprintf(out, "estimated rate: %.1f Hz (interval %.2g s ± %.2g s)\n",
						est.Frequency, est.MeanInterval, est.StdDev)
				}
			}

			if estimate {
				est, err := capture.EstimateRate()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "timestamp rate: %.1f Hz, mean interval %.3g s, std dev %.3g s\n",
					est.Frequency, est.MeanInterval, est.StdDev)
			}

			clip, err := capture.Clip(vref, rate)
			if err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".wav"
			}
			if err := audiofile.WriteWAV(output, clip); err != nil {
				return err
			}

			fmt.Fprintf(out, "wrote %s: %d samples at %d Hz\n", output, clip.Len(), rate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output WAV path (default: capture name with .wav)")
	cmd.Flags().Float64Var(&vref, "vref", csvrec.DefaultVref, "ADC reference voltage")
	cmd.Flags().IntVarP(&sampleRate, "rate", "r", 0, "sample rate in Hz (0 = from filename or timestamps)")
	cmd.Flags().BoolVar(&estimate, "estimate", false, "print the timestamp-derived rate even when not used")

	return cmd
}
