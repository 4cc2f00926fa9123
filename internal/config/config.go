package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/draftlink-cli/internal/normalize"
)

// Global configuration structure.
type Global struct {
	DraftPath   string `mapstructure:"draft_path" yaml:"draft_path"`
	CombinePath string `mapstructure:"combine_path" yaml:"combine_path"`
	// Delimiter overrides extension sniffing; empty means "," or tab for .tsv.
	Delimiter   string            `mapstructure:"delimiter" yaml:"delimiter"`
	TeamRenames map[string]string `mapstructure:"team_renames" yaml:"team_renames"`
	DedupPolicy string            `mapstructure:"dedup_policy" yaml:"dedup_policy"`

	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	MetricsFile  string `mapstructure:"metrics_file" yaml:"metrics_file"`

	// Analysis
	TopSchools         int                 `mapstructure:"top_schools" yaml:"top_schools"`
	TeamCohorts        map[string][]string `mapstructure:"team_cohorts" yaml:"team_cohorts"`
	RegressionFeatures []string            `mapstructure:"regression_features" yaml:"regression_features"`
}

// DefaultCohorts groups franchises for the cohort position breakdown.
func DefaultCohorts() map[string][]string {
	return map[string][]string{
		"steady_qb":    {"PATRIOTS", "SAINTS", "STEELERS"},
		"unsettled_qb": {"BEARS", "BROWNS", "JAGUARS"},
	}
}

// DefaultRegressionFeatures are the measurements regressed against overall pick.
func DefaultRegressionFeatures() []string {
	return []string{"Ht", "Wt", "40yd", "Vertical", "Bench", "Broad Jump", "3Cone", "Shuttle"}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".draftlink"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.draftlink/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is read into the environment first.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetEnvPrefix("DRAFTLINK")
	v.AutomaticEnv()

	v.SetDefault("draft_path", "")
	v.SetDefault("combine_path", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("dedup_policy", "first")
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("top_schools", 20)
	v.SetDefault("regression_features", DefaultRegressionFeatures())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// viper lowercases map keys; team labels are case-sensitive, so take
	// the rename table straight from the file.
	if used := v.ConfigFileUsed(); used != "" {
		renames, err := readRenames(used)
		if err != nil {
			return nil, err
		}
		if renames != nil {
			c.TeamRenames = renames
		}
	}
	if c.TeamRenames == nil {
		c.TeamRenames = normalize.DefaultTeamRenames()
	}
	if c.TeamCohorts == nil {
		c.TeamCohorts = DefaultCohorts()
	}
	return &c, nil
}

func readRenames(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var doc struct {
		TeamRenames map[string]string `yaml:"team_renames"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse team_renames: %w", err)
	}
	return doc.TeamRenames, nil
}

// DelimiterRune returns the configured delimiter rune, or 0 for extension sniffing.
// "tab" and "\t" both select a tab.
func (c *Global) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r := []rune(c.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("invalid delimiter: %q (use a single character)", c.Delimiter)
	}
	return r[0], nil
}
