package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/chirplab/internal/catalog"
	"github.com/cwbudde/chirplab/internal/config"
	"github.com/cwbudde/chirplab/internal/pipeline"
)

func analyzeCommand(root *rootOptions) *cobra.Command {
	var (
		inputDir  string
		outputDir string
		manifest  string
		category  string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the analysis pipeline over cataloged recordings",
		Long: `Analyze catalogs the recordings in the input directory, then loads each one,
writes a preview resampled to the configured target rate, and renders a
waveform plot and a mel power spectrogram heatmap.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(root, func(s *config.Settings) {
				if inputDir != "" {
					s.Input.Dir = inputDir
				}
				if outputDir != "" {
					s.Output.Dir = outputDir
				}
				if manifest != "" {
					s.Input.Manifest = manifest
				}
			})
			if err != nil {
				return err
			}

			c, err := catalog.Load(settings.Input.Dir, settings.Input.Manifest)
			if err != nil {
				return err
			}
			entries := c.Entries
			if category != "" {
				entries = c.ByCategory(catalog.Category(strings.ToLower(category)))
				if len(entries) == 0 {
					return fmt.Errorf("no files in category %q under %s", category, settings.Input.Dir)
				}
			}

			p, err := pipeline.New(settings, slog.Default())
			if err != nil {
				return err
			}

			results, err := p.RunAll(entries)
			printResults(cmd, results)
			return err
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "directory with recordings")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for rendered artifacts")
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "catalog manifest file")
	cmd.Flags().StringVar(&category, "category", "", "only analyze one category (tone, chirp, background)")

	return cmd
}

func printResults(cmd *cobra.Command, results []*pipeline.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tRATE\tSAMPLES\tPREVIEW\tMELS\tFRAMES\tFMAX\tPLOTS")
	for _, r := range results {
		fmax := fmt.Sprintf("%.0f Hz", r.FMaxHz)
		if r.FMaxClamped {
			fmax += " (clamped)"
		}
		plots := "ok"
		if r.RenderErr != nil {
			plots = "failed"
		}
		fmt.Fprintf(w, "%s\t%d Hz\t%d\t%d @ %d Hz\t%d\t%d\t%s\t%s\n",
			r.Entry.Name, r.SampleRate, r.Samples,
			r.PreviewSamples, r.PreviewRate,
			r.MelBands, r.Frames, fmax, plots)
	}
	w.Flush()
}
