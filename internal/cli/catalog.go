package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/chirplab/internal/catalog"
	"github.com/cwbudde/chirplab/internal/config"
)

func catalogCommand(root *rootOptions) *cobra.Command {
	var (
		inputDir string
		manifest string
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List recordings by category",
		Long: `Catalog scans the input directory, classifies each file by its name (or a
manifest when given), and prints the per-category selections used by analyze.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(root, func(s *config.Settings) {
				if inputDir != "" {
					s.Input.Dir = inputDir
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

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tCATEGORIES\tFREQ")
			for _, e := range c.Entries {
				cats := make([]string, len(e.Categories))
				for i, cat := range e.Categories {
					cats[i] = string(cat)
				}
				freq := "-"
				if e.FrequencyHz > 0 {
					freq = fmt.Sprintf("%d Hz", e.FrequencyHz)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, strings.Join(cats, ","), freq)
			}
			w.Flush()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			for _, cat := range []catalog.Category{catalog.CategoryTone, catalog.CategoryChirp, catalog.CategoryBackground} {
				entry, err := c.Select(cat)
				if err != nil {
					fmt.Fprintf(out, "selected %s: %v\n", cat, err)
					continue
				}
				fmt.Fprintf(out, "selected %s: %s\n", cat, entry.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "directory with recordings")
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "catalog manifest file")

	return cmd
}
