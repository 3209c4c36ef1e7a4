package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the CLI and server read
type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	Script  ScriptConfig  `mapstructure:"script"`
	Steps   StepsConfig   `mapstructure:"steps"`
	Logging LoggingConfig `mapstructure:"logging"`
	Browser BrowserConfig `mapstructure:"browser"`
	Planner PlannerConfig `mapstructure:"planner"`
}

// ServiceConfig identifies the MCP server
type ServiceConfig struct {
	Name            string `mapstructure:"name"`
	Version         string `mapstructure:"version"`
	ProtocolVersion string `mapstructure:"protocol_version"`
	ToolName        string `mapstructure:"tool_name"`
}

// ScriptConfig controls generated scripts
type ScriptConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Prefix    string `mapstructure:"prefix"`
	Target    string `mapstructure:"target"`
	Headless  bool   `mapstructure:"headless"`
}

// StepsConfig locates the recorded-steps file
type StepsConfig struct {
	File string `mapstructure:"file"`
}

// LoggingConfig controls log level and an optional log file
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// BrowserConfig configures the live recorder
type BrowserConfig struct {
	Width      int           `mapstructure:"width"`
	Height     int           `mapstructure:"height"`
	Headless   bool          `mapstructure:"headless"`
	ProfileDir string        `mapstructure:"profile_dir"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
}

// PlannerConfig selects the LLM used to plan actions
type PlannerConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
}

// EnvPrefix is prepended to environment overrides, e.g. STEPSCRIPT_SCRIPT_TARGET
const EnvPrefix = "STEPSCRIPT"

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "stepscript")
	v.SetDefault("service.version", "0.1.0")
	v.SetDefault("service.protocol_version", "2024-11-05")
	v.SetDefault("service.tool_name", "playwright_script_generator")

	v.SetDefault("script.output_dir", ".")
	v.SetDefault("script.prefix", "test")
	v.SetDefault("script.target", "python")
	v.SetDefault("script.headless", false)

	v.SetDefault("steps.file", "testSteps.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	v.SetDefault("browser.width", 1280)
	v.SetDefault("browser.height", 720)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.profile_dir", "")
	v.SetDefault("browser.timeout", 30*time.Second)
	v.SetDefault("browser.retries", 3)

	v.SetDefault("planner.provider", "claude")
	v.SetDefault("planner.model", "")
	v.SetDefault("planner.base_url", "")
}

// Load reads configuration from defaults, an optional config file and the
// environment. An explicit path must exist; otherwise stepscript.yaml is
// looked up in the working directory and $HOME/.stepscript.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("stepscript")
		v.SetConfigType("yaml")
		for _, p := range []string{".", "$HOME/.stepscript"} {
			v.AddConfigPath(os.ExpandEnv(p))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
