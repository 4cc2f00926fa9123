package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/draftlink-cli/internal/logging"
	"github.com/KaramelBytes/draftlink-cli/internal/merge"
	"github.com/KaramelBytes/draftlink-cli/internal/metrics"
	"github.com/KaramelBytes/draftlink-cli/internal/pipeline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// sourceFlags are shared by every command that runs the pipeline.
type sourceFlags struct {
	draft       string
	combine     string
	renames     string
	delimiter   string
	dedupPolicy string
	metricsFile string
}

func (f *sourceFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.draft, "draft", "", "draft history CSV (default from config draft_path)")
	c.Flags().StringVar(&f.combine, "combine", "", "combine results CSV (default from config combine_path)")
	c.Flags().StringVar(&f.renames, "renames", "", "YAML file mapping old team labels to new ones (replaces config team_renames)")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default: by extension)")
	c.Flags().StringVar(&f.dedupPolicy, "dedup-policy", "", "duplicate key handling: first|strict")
	c.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics for the run")
}

// options merges flags over the loaded configuration.
func (f *sourceFlags) options() (pipeline.Options, error) {
	var opt pipeline.Options
	c := *cfg
	if f.draft != "" {
		c.DraftPath = f.draft
	}
	if f.combine != "" {
		c.CombinePath = f.combine
	}
	if f.delimiter != "" {
		c.Delimiter = f.delimiter
	}
	if f.dedupPolicy != "" {
		c.DedupPolicy = f.dedupPolicy
	}
	if c.DraftPath == "" || c.CombinePath == "" {
		return opt, fmt.Errorf("both --draft and --combine are required (or set draft_path and combine_path in config)")
	}
	delim, err := c.DelimiterRune()
	if err != nil {
		return opt, err
	}
	policy, err := merge.ParsePolicy(c.DedupPolicy)
	if err != nil {
		return opt, err
	}
	renames := c.TeamRenames
	if f.renames != "" {
		if renames, err = readRenamesFile(f.renames); err != nil {
			return opt, err
		}
	}
	opt = pipeline.Options{
		DraftPath:   c.DraftPath,
		CombinePath: c.CombinePath,
		TeamRenames: renames,
		Delimiter:   delim,
		DedupPolicy: policy,
	}
	return opt, nil
}

// metricsPath returns the textfile target, flag first.
func (f *sourceFlags) metricsPath() string {
	if f.metricsFile != "" {
		return f.metricsFile
	}
	return cfg.MetricsFile
}

// runPipeline runs the four stages and writes metrics when requested.
func runPipeline(c *cobra.Command, f *sourceFlags) (*pipeline.Result, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	var rec *metrics.Recorder
	mpath := f.metricsPath()
	if mpath != "" {
		rec = metrics.New()
	}
	opt.Metrics = rec
	opt.Logger = logging.Default()

	res, runErr := pipeline.Run(c.Context(), opt)
	// Metrics describe failed runs too.
	if rec != nil {
		if err := rec.WriteTextfile(mpath); err != nil {
			return nil, fmt.Errorf("write metrics: %w", err)
		}
		if runErr == nil {
			statusf(c, "✓ Wrote metrics to %s\n", mpath)
		}
	}
	if runErr != nil {
		return nil, runErr
	}
	return res, nil
}

func readRenamesFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read renames: %w", err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse renames %s: %w", path, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}
