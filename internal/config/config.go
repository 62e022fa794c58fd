// Package config loads labcheck settings.
//
// Settings come from, in increasing priority:
// 1. Default values
// 2. .labcheck.yaml in the project root, or the file given with --config
// 3. Environment variables prefixed LABCHECK_ (layout.workflow → LABCHECK_LAYOUT_WORKFLOW)
// 4. Explicit overrides, normally command-line flags
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the project config file looked up in the root directory.
const FileName = ".labcheck.yaml"

// Config is the root configuration structure.
type Config struct {
	Root      string          `mapstructure:"root"`
	Layout    LayoutConfig    `mapstructure:"layout"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Report    ReportConfig    `mapstructure:"report"`
	Baseline  BaselineConfig  `mapstructure:"baseline"`
	Log       LogConfig       `mapstructure:"log"`
	Watch     WatchConfig     `mapstructure:"watch"`
}

// LayoutConfig locates the lab files, relative to Root.
type LayoutConfig struct {
	Inventory    string `mapstructure:"inventory"`
	GroupVars    string `mapstructure:"group_vars"`
	MoleculeGlob string `mapstructure:"molecule_glob"`
	Workflow     string `mapstructure:"workflow"`
	Makefile     string `mapstructure:"makefile"`
}

// InventoryConfig controls INI parsing.
type InventoryConfig struct {
	Strict bool `mapstructure:"strict"`
}

// ReportConfig selects the output format.
type ReportConfig struct {
	Format string `mapstructure:"format"` // text, ci or json
}

// BaselineConfig locates stored baselines. Empty Dir means the default
// under the user's home directory.
type BaselineConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// WatchConfig contains watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Options adjust where configuration is read from.
type Options struct {
	// File is an explicit config file. It must exist when set.
	File string
	// Root is searched for FileName when File is empty. Defaults to the
	// root setting from the environment, then ".".
	Root string
	// Overrides take precedence over every other source.
	Overrides map[string]any
}

// Load reads configuration from defaults, file, environment and overrides.
func Load(opts Options) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("LABCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else {
		root := opts.Root
		if root == "" {
			root = v.GetString("root")
		}
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(root)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			// Config file is optional
		}
	}

	if opts.Root != "" {
		v.Set("root", opts.Root)
	}
	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Report.Format {
	case "text", "ci", "json":
	default:
		return fmt.Errorf("report.format must be text, ci or json, got %q", c.Report.Format)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %s", c.Watch.Debounce)
	}
	if c.Layout.MoleculeGlob == "" {
		return fmt.Errorf("layout.molecule_glob must not be empty")
	}
	return nil
}

// Path resolves a layout path against Root. Absolute paths are kept.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Root, rel)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")

	// Layout of the lab repository
	v.SetDefault("layout.inventory", "inventories/lab.ini")
	v.SetDefault("layout.group_vars", "group_vars")
	v.SetDefault("layout.molecule_glob", "ansible/roles/**/molecule/*/molecule.yml")
	v.SetDefault("layout.workflow", ".github/workflows/ci.yml")
	v.SetDefault("layout.makefile", "Makefile")

	v.SetDefault("inventory.strict", false)
	v.SetDefault("report.format", "text")
	v.SetDefault("baseline.dir", "")

	// Log
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	v.SetDefault("watch.debounce", "300ms")
}
