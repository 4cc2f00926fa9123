package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/draftlink-cli/internal/analysis"
	"github.com/KaramelBytes/draftlink-cli/internal/logging"
	"github.com/KaramelBytes/draftlink-cli/internal/record"
	"github.com/KaramelBytes/draftlink-cli/internal/report"
	"github.com/KaramelBytes/draftlink-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaSrc        sourceFlags
	anaOutputPath string
	anaTopSchools int
	anaFeatures   []string
	anaNoDescribe bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the draft analyses over the merged table and print a Markdown report",
	Long: `Run the pipeline, then compute:
  - average overall pick by position, overall and in the first round
  - first-round picks by position
  - average overall pick by year and position
  - the schools with the most selections
  - positions drafted by each team cohort (config team_cohorts)
  - OLS of overall pick on combine measurements, for all picks and for QBs on height`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		top := cfg.TopSchools
		if cmd.Flags().Changed("top-schools") {
			top = anaTopSchools
		}
		features := cfg.RegressionFeatures
		if cmd.Flags().Changed("features") {
			features = anaFeatures
		}

		res, err := runPipeline(cmd, &anaSrc)
		if err != nil {
			return err
		}
		a, err := runAnalyses(cmd, res.Table, top, features)
		if err != nil {
			return err
		}
		if !anaNoDescribe {
			name := filepath.Base(res.DraftPath) + " + " + filepath.Base(res.CombinePath)
			if a.Describe, err = analysis.Describe(res.Table, name, analysis.DefaultOptions()); err != nil {
				return err
			}
		}
		md, err := report.Analyses(a)
		if err != nil {
			return err
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			statusf(cmd, "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaSrc.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report (Markdown)")
	analyzeCmd.Flags().IntVar(&anaTopSchools, "top-schools", 20, "number of schools to list (0 = all)")
	analyzeCmd.Flags().StringSliceVar(&anaFeatures, "features", nil, "measurement columns for the overall-pick regression")
	analyzeCmd.Flags().BoolVar(&anaNoDescribe, "no-describe", false, "omit the dataset summary section")
}

func runAnalyses(cmd *cobra.Command, t *record.Table, top int, features []string) (*report.Analysis, error) {
	log := logging.Default()
	firstRound := analysis.Where(record.ColRound, "1")
	a := &report.Analysis{TopSchools: analysis.TopSchools(t, top)}
	var err error

	if a.PositionMeans, err = analysis.MeanBy(t, []string{record.ColPosition}, record.ColOverall, analysis.All); err != nil {
		return nil, err
	}
	if a.FirstRoundMeans, err = analysis.MeanBy(t, []string{record.ColPosition}, record.ColOverall, firstRound); err != nil {
		return nil, err
	}
	if a.FirstRound, err = analysis.CountBy(t, record.ColPosition, firstRound); err != nil {
		return nil, err
	}
	if a.YearlyMeans, err = analysis.MeanBy(t, []string{record.ColYear, record.ColPosition}, record.ColOverall, analysis.All); err != nil {
		return nil, err
	}
	if a.Cohorts, err = analysis.CohortPositions(t, cfg.TeamCohorts); err != nil {
		return nil, err
	}

	fits := []struct {
		xs []string
		f  analysis.Filter
	}{
		{features, analysis.All},
		{[]string{record.ColHeight}, analysis.Where(record.ColPosition, "QB")},
	}
	for _, fit := range fits {
		if len(fit.xs) == 0 {
			continue
		}
		reg, err := analysis.OLS(t, record.ColOverall, fit.xs, fit.f)
		switch {
		case errors.Is(err, analysis.ErrTooFewRows), errors.Is(err, analysis.ErrSingular):
			// Small or sparse inputs cannot support every fit; skip it.
			log.Warn().Err(err).Strs("features", fit.xs).Str("filter", fit.f.String()).Msg("regression skipped")
			statusf(cmd, "⚠ Skipped regression on %v: %v\n", fit.xs, err)
			continue
		case err != nil:
			return nil, err
		}
		a.Regressions = append(a.Regressions, reg)
	}
	return a, nil
}
