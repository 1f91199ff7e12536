// Package config provides configuration management for hbswatch.
//
// Configuration is loaded from four sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (HBSWATCH_ prefix)
//  3. Config file (.hbswatch.yaml)
//  4. Built-in defaults
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Supported template compilers.
const (
	CompilerBuiltin = "builtin"
	CompilerExec    = "exec"
)

// Defaults shared by flags and viper.
const (
	DefaultExtension     = ".handlebars"
	DefaultHandlebarsBin = "handlebars"
	DefaultDebounce      = 250 * time.Millisecond
)

// DefaultWatch are the glob patterns selecting templates when none are configured.
var DefaultWatch = []string{"*.handlebars", "**/*.handlebars"}

// Config represents the global configuration for hbswatch.
type Config struct {
	// LogLevel controls the verbosity of log output.
	// Valid values: debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" json:"logLevel"`

	// LogFormat controls the format of log output.
	// Valid values: text, json.
	LogFormat string `mapstructure:"log-format" json:"logFormat"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no-color" json:"noColor"`

	// Quiet silences the compile/delete messages, failures included.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	// OutputFolder receives every compiled template. Empty means the
	// artifact is written next to its source.
	OutputFolder string `mapstructure:"output-folder" json:"outputFolder"`

	// RegisterPartials compiles templates as partials instead of
	// named templates.
	RegisterPartials bool `mapstructure:"register-partials" json:"registerPartials"`

	// RunAtStart compiles the whole project when watching begins.
	RunAtStart bool `mapstructure:"run-at-start" json:"runAtStart"`

	// Watch holds the glob patterns selecting templates below Dir.
	Watch []string `mapstructure:"watch" json:"watch"`

	// Extension is stripped from the file name to form the template name.
	Extension string `mapstructure:"extension" json:"extension"`

	// Dir is the project root that is enumerated and watched.
	Dir string `mapstructure:"dir" json:"dir"`

	// Compiler selects the template compiler: builtin or exec.
	Compiler string `mapstructure:"compiler" json:"compiler"`

	// HandlebarsBin is the precompiler executable used by the exec compiler.
	HandlebarsBin string `mapstructure:"handlebars-bin" json:"handlebarsBin"`

	// HandlebarsVersion is an optional semver constraint the precompiler
	// version must satisfy (e.g. ">= 4.0").
	HandlebarsVersion string `mapstructure:"handlebars-version" json:"handlebarsVersion"`

	// Debounce is the quiet period used to batch file system events.
	Debounce time.Duration `mapstructure:"debounce" json:"debounce"`

	// ConfigFile is the resolved path to the config file used.
	// Set after Load(): not read from config itself.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:      LogLevelInfo,
		LogFormat:     LogFormatText,
		RunAtStart:    true,
		Watch:         append([]string(nil), DefaultWatch...),
		Extension:     DefaultExtension,
		Dir:           ".",
		Compiler:      CompilerBuiltin,
		HandlebarsBin: DefaultHandlebarsBin,
		Debounce:      DefaultDebounce,
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		// valid
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	switch c.Compiler {
	case CompilerBuiltin, CompilerExec:
		// valid
	default:
		return fmt.Errorf("invalid compiler %q: must be one of builtin, exec", c.Compiler)
	}

	if len(c.Watch) == 0 {
		return fmt.Errorf("at least one watch pattern is required")
	}

	if c.Debounce < 0 {
		return fmt.Errorf("invalid debounce %s: must not be negative", c.Debounce)
	}

	return nil
}

// EffectiveLogLevel returns the log level to use. When Quiet is true the log
// level is overridden to "error" regardless of the configured LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Store the resolved config file path so the rules section can be read later.
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("no-color", false)
	v.SetDefault("quiet", false)
	v.SetDefault("output-folder", "")
	v.SetDefault("register-partials", false)
	v.SetDefault("run-at-start", d.RunAtStart)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("extension", d.Extension)
	v.SetDefault("dir", d.Dir)
	v.SetDefault("compiler", d.Compiler)
	v.SetDefault("handlebars-bin", d.HandlebarsBin)
	v.SetDefault("handlebars-version", "")
	v.SetDefault("debounce", d.Debounce)
}

// configureEnv sets up environment variable support.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("HBSWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// configureFile sets up the config file source.
func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	// Auto-discovery mode.
	v.SetConfigName(".hbswatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "hbswatch"))
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file found → perfectly fine in auto-discovery.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}

		// Found a file but it was malformed.
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags binds the command's own flags plus every persistent flag
// from cmd up to the root.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}
