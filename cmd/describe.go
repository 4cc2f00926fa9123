package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/draftlink-cli/internal/analysis"
	"github.com/KaramelBytes/draftlink-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	descSrc        sourceFlags
	descOutputPath string
	descSampleRows int
	descGroupBy    []string
	descCorr       bool
	descOutliers   bool
	descOutlierThr float64
	descWhere      []string
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Summarize the merged table: columns, missing values, groups, correlations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := analysis.DefaultOptions()
		if descSampleRows >= 0 {
			opt.SampleRows = descSampleRows
		}
		if cmd.Flags().Changed("group-by") {
			opt.GroupBy = descGroupBy
		}
		opt.Correlations = descCorr
		opt.Outliers = descOutliers
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}
		f, err := parseWhere(descWhere)
		if err != nil {
			return err
		}
		opt.Filter = f

		res, err := runPipeline(cmd, &descSrc)
		if err != nil {
			return err
		}
		rep, err := analysis.Describe(res.Table, filepath.Base(res.DraftPath)+" + "+filepath.Base(res.CombinePath), opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()

		if descOutputPath != "" {
			if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			statusf(cmd, "✓ Wrote summary to %s\n", descOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	descSrc.register(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include")
	describeCmd.Flags().StringSliceVar(&descGroupBy, "group-by", nil, "comma-separated column names to group by (default Position)")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().StringArrayVar(&descWhere, "where", nil, "keep rows where column=value (repeatable, ANDed)")
}

// parseWhere turns col=value pairs into a filter.
func parseWhere(conds []string) (analysis.Filter, error) {
	f := analysis.All
	for _, c := range conds {
		col, val, ok := strings.Cut(c, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return f, fmt.Errorf("invalid --where %q (use column=value)", c)
		}
		f = f.And(col, strings.TrimSpace(val))
	}
	return f, nil
}
