// Package config collects the solver, controller and output settings from
// defaults, an optional YAML file, CUTSTOCK_* environment variables and
// command line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"cutting_stock_cg/src/cutstock"
	"cutting_stock_cg/src/oracle"
)

const EnvPrefix = "CUTSTOCK"

const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

type Config struct {
	Solver string `mapstructure:"solver"`

	Epsilon           float64       `mapstructure:"epsilon"`
	RoundingTolerance float64       `mapstructure:"rounding-tolerance"`
	MaxIterations     int           `mapstructure:"max-iterations"`
	TimeBudget        time.Duration `mapstructure:"time-budget"`
	DedupPatterns     bool          `mapstructure:"dedup-patterns"`

	MaxNodes             int     `mapstructure:"max-nodes"`
	NodeSelection        string  `mapstructure:"node-selection"`
	IntegralityTolerance float64 `mapstructure:"integrality-tolerance"`

	Format      string `mapstructure:"format"`
	Quiet       bool   `mapstructure:"quiet"`
	History     bool   `mapstructure:"history"`
	MetricsFile string `mapstructure:"metrics-file"`
	ChartFile   string `mapstructure:"chart-file"`
	ExportFile  string `mapstructure:"export-file"`

	Listen string `mapstructure:"listen"`

	LogLevel       string `mapstructure:"log-level"`
	LogDevelopment bool   `mapstructure:"log-development"`
}

func Default() *Config {
	opts := cutstock.DefaultOptions()
	settings := oracle.DefaultSettings()
	return &Config{
		Solver:               "gonum",
		Epsilon:              opts.Epsilon,
		RoundingTolerance:    opts.RoundingTolerance,
		MaxIterations:        opts.MaxIterations,
		TimeBudget:           opts.TimeBudget,
		DedupPatterns:        opts.DedupPatterns,
		MaxNodes:             settings.MaxNodes,
		NodeSelection:        settings.NodeSelection,
		IntegralityTolerance: settings.IntegralityTolerance,
		Format:               FormatText,
		Listen:               ":8080",
		LogLevel:             "info",
	}
}

// BindFlags registers one flag per field on fs and binds them into v.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	d := Default()
	fs.String("solver", d.Solver, fmt.Sprintf("solver oracle, one of %v", oracle.Names()))
	fs.Float64("epsilon", d.Epsilon, "a pattern is added when its reduced cost is <= -epsilon")
	fs.Float64("rounding-tolerance", d.RoundingTolerance, "max distance between a solver value and the integer it is rounded to")
	fs.Int("max-iterations", d.MaxIterations, "cap on master solves, 0 for no cap")
	fs.Duration("time-budget", d.TimeBudget, "cap on column generation wall time, 0 for none")
	fs.Bool("dedup-patterns", d.DedupPatterns, "stop when pricing proposes a pooled pattern")
	fs.Int("max-nodes", d.MaxNodes, "branch and bound node limit of the gonum solver")
	fs.String("node-selection", d.NodeSelection, "branch and bound node selection: depth-first or best-bound")
	fs.Float64("integrality-tolerance", d.IntegralityTolerance, "distance to an integer below which a value counts as integral")
	fs.String("format", d.Format, "output format: text, yaml or json")
	fs.BoolP("quiet", "q", d.Quiet, "do not print the iteration log")
	fs.Bool("history", d.History, "include the iteration history in yaml and json output")
	fs.String("metrics-file", d.MetricsFile, "write Prometheus metrics to this file")
	fs.String("chart-file", d.ChartFile, "write an HTML convergence chart to this file")
	fs.String("export-file", d.ExportFile, "write the cutting plan to this xlsx file")
	fs.String("listen", d.Listen, "address the HTTP server listens on")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
	fs.Bool("log-development", d.LogDevelopment, "human friendly development logging")
	return v.BindPFlags(fs)
}

// Load reads the optional config file and the environment into v and
// decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error while reading config file %q: %w", configFile, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error while decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Options().Validate(); err != nil {
		return err
	}
	if err := c.SolverSettings().Validate(); err != nil {
		return err
	}
	if !slices.Contains([]string{FormatText, FormatYAML, FormatJSON}, c.Format) {
		return fmt.Errorf("format must be one of text, yaml or json, got %q", c.Format)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

func (c *Config) Options() cutstock.Options {
	return cutstock.Options{
		Epsilon:           c.Epsilon,
		RoundingTolerance: c.RoundingTolerance,
		MaxIterations:     c.MaxIterations,
		TimeBudget:        c.TimeBudget,
		DedupPatterns:     c.DedupPatterns,
	}
}

func (c *Config) SolverSettings() oracle.Settings {
	return oracle.Settings{
		MaxNodes:             c.MaxNodes,
		NodeSelection:        c.NodeSelection,
		IntegralityTolerance: c.IntegralityTolerance,
	}
}

// NewSolver looks the configured solver up in the oracle registry.
func (c *Config) NewSolver() (oracle.Solver, error) {
	return oracle.New(c.Solver, c.SolverSettings())
}
