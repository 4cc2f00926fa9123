package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/draftlink-cli/internal/export"
	"github.com/KaramelBytes/draftlink-cli/internal/manifest"
	"github.com/KaramelBytes/draftlink-cli/internal/report"
	"github.com/KaramelBytes/draftlink-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	mergeSrc      sourceFlags
	mergeOutput   string
	mergeFormat   string
	mergeReport   string
	mergeManifest string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Link draft picks to combine results and write the merged table",
	Long: `Run the full pipeline: load both sources, normalize team labels and heights,
copy draft schools onto matching combine rows, then left-join on
(name, school, year) keeping the first row per key.

Without --output the table is written to stdout, as a table on a terminal
and CSV otherwise.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := mergeFormat
		if format == "" && cfg != nil {
			format = cfg.OutputFormat
		}
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}

		res, err := runPipeline(cmd, &mergeSrc)
		if err != nil {
			return err
		}
		man := manifest.New(res)

		if mergeOutput == "" {
			if err := export.Write(cmd.OutOrStdout(), export.DetectFormat(f), res.Table); err != nil {
				return fmt.Errorf("write merged table: %w", err)
			}
		} else {
			if f == "" {
				f = export.FormatForPath(mergeOutput)
			}
			if dir := filepath.Dir(mergeOutput); dir != "." {
				if err := utils.EnsureDir(dir); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
			if err := export.WriteFile(mergeOutput, f, res.Table); err != nil {
				return fmt.Errorf("write merged table: %w", err)
			}
			man.AddOutput("table", mergeOutput)
			statusf(cmd, "✓ Wrote %d rows to %s (%s)\n", res.Table.Len(), mergeOutput, f)
		}

		if mergeReport != "" {
			md, err := report.Linkage(res)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(mergeReport, []byte(md)); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			man.AddOutput("report", mergeReport)
			statusf(cmd, "✓ Wrote linkage report to %s\n", mergeReport)
		}
		if p := mergeSrc.metricsPath(); p != "" {
			man.AddOutput("metrics", p)
		}
		if mergeManifest != "" {
			if err := man.Save(mergeManifest); err != nil {
				return err
			}
			statusf(cmd, "✓ Wrote manifest to %s\n", mergeManifest)
		}

		if n := len(res.Collisions); n > 0 {
			statusf(cmd, "⚠ Dropped %d duplicate rows (see --report for details)\n", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeSrc.register(mergeCmd)
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "write the merged table to this path (format from extension)")
	mergeCmd.Flags().StringVar(&mergeFormat, "format", "", "output format: csv|json|yaml|table")
	mergeCmd.Flags().StringVar(&mergeReport, "report", "", "write a Markdown linkage report to this path")
	mergeCmd.Flags().StringVar(&mergeManifest, "manifest", "", "write a JSON run manifest to this path")
}
