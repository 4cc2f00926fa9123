package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/draftlink-cli/internal/config"
	"github.com/KaramelBytes/draftlink-cli/internal/export"
	"github.com/KaramelBytes/draftlink-cli/internal/logging"
	"github.com/KaramelBytes/draftlink-cli/internal/merge"
	"github.com/KaramelBytes/draftlink-cli/internal/normalize"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DraftLink configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "draft_path: %s\n", cfg.DraftPath)
		fmt.Fprintf(out, "combine_path: %s\n", cfg.CombinePath)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		fmt.Fprintf(out, "dedup_policy: %s\n", cfg.DedupPolicy)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		if cfg.OutputFormat != "" {
			fmt.Fprintf(out, "output_format: %s\n", cfg.OutputFormat)
		}
		if cfg.MetricsFile != "" {
			fmt.Fprintf(out, "metrics_file: %s\n", cfg.MetricsFile)
		}
		fmt.Fprintf(out, "top_schools: %d\n", cfg.TopSchools)
		fmt.Fprintf(out, "regression_features: %s\n", strings.Join(cfg.RegressionFeatures, ", "))

		fmt.Fprintln(out, "team_renames:")
		for _, k := range sortedKeys(cfg.TeamRenames) {
			fmt.Fprintf(out, "  %s -> %s\n", k, cfg.TeamRenames[k])
		}
		fmt.Fprintln(out, "team_cohorts:")
		for _, k := range sortedKeys(cfg.TeamCohorts) {
			fmt.Fprintf(out, "  %s: %s\n", k, strings.Join(cfg.TeamCohorts[k], ", "))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk.

List values are comma-separated. Map keys take a sub-key:
  draftlink config set team_renames.REDSKINS COMMANDERS
  draftlink config set team_cohorts.steady_qb PATRIOTS,SAINTS,STEELERS
An empty value removes a map entry.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := applySetting(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	if name, sub, ok := strings.Cut(key, "."); ok {
		switch name {
		case "team_renames":
			renames := make(map[string]string, len(c.TeamRenames)+1)
			for k, v := range c.TeamRenames {
				renames[k] = v
			}
			if val == "" {
				delete(renames, sub)
			} else {
				renames[sub] = val
			}
			// Reject a table the pipeline could not use.
			if _, err := normalize.NewTeamAliases(renames); err != nil {
				return err
			}
			c.TeamRenames = renames
		case "team_cohorts":
			if c.TeamCohorts == nil {
				c.TeamCohorts = map[string][]string{}
			}
			if val == "" {
				delete(c.TeamCohorts, sub)
			} else {
				c.TeamCohorts[sub] = splitList(val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		return nil
	}

	switch key {
	case "draft_path":
		c.DraftPath = val
	case "combine_path":
		c.CombinePath = val
	case "delimiter":
		prev := c.Delimiter
		c.Delimiter = val
		if _, err := c.DelimiterRune(); err != nil {
			c.Delimiter = prev
			return err
		}
	case "dedup_policy":
		p, err := merge.ParsePolicy(val)
		if err != nil {
			return err
		}
		c.DedupPolicy = string(p)
	case "log_level":
		if logging.ParseLevel(val).String() != strings.ToLower(val) && !strings.EqualFold(val, "warning") {
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
		c.LogLevel = strings.ToLower(val)
	case "output_format":
		f, err := export.ParseFormat(val)
		if err != nil {
			return err
		}
		c.OutputFormat = string(f)
	case "metrics_file":
		c.MetricsFile = val
	case "top_schools":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for top_schools: %v", val)
		}
		c.TopSchools = i
	case "regression_features":
		c.RegressionFeatures = splitList(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
