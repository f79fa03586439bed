package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the shopdex server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Intent    IntentConfig    `yaml:"intent"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	DialTimeoutSec   int      `yaml:"dial_timeout_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig tunes query routing and fusion.
type SearchConfig struct {
	DefaultCollection  string       `yaml:"default_collection"`
	BranchTimeoutMS    int          `yaml:"branch_timeout_ms"` // 0 = no per-branch deadline
	TruncateDimensions int          `yaml:"truncate_dimensions"`
	VocabularyPath     string       `yaml:"vocabulary_path"` // empty = built-in vocabulary
	Fusion             FusionConfig `yaml:"fusion"`
}

// FusionConfig names the weight presets used by semantic fusion.
type FusionConfig struct {
	MultiConcept string `yaml:"multi_concept"`
	Default      string `yaml:"default"`
}

// IntentConfig holds the optional LLM intent analyzer settings.
type IntentConfig struct {
	Enabled    bool         `yaml:"enabled"`
	APIKey     string       `yaml:"api_key"`
	BaseURL    string       `yaml:"base_url"`
	Model      string       `yaml:"model"`
	TimeoutSec int          `yaml:"timeout_sec"`
	Budget     BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds intent token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// TelemetryConfig holds Sentry settings.
type TelemetryConfig struct {
	SentryDSN        string  `yaml:"sentry_dsn"`
	Environment      string  `yaml:"environment"`
	TracesSampleRate float64 `yaml:"traces_sample_rate"`
}

// BranchTimeout returns the semantic branch deadline.
func (s SearchConfig) BranchTimeout() time.Duration {
	return time.Duration(s.BranchTimeoutMS) * time.Millisecond
}

// HasBudget reports whether any token limit is set.
func (b BudgetConfig) HasBudget() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, when present, seeds the environment first.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.DialTimeoutSec <= 0 {
		c.Database.DialTimeoutSec = 5
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.TruncateDimensions <= 0 {
		c.Search.TruncateDimensions = 768
	}
	if c.Search.Fusion.MultiConcept == "" {
		c.Search.Fusion.MultiConcept = "multi_concept"
	}
	if c.Search.Fusion.Default == "" {
		c.Search.Fusion.Default = "default"
	}
	if c.Intent.TimeoutSec <= 0 {
		c.Intent.TimeoutSec = 3
	}
	if c.Intent.Budget.Action == "" {
		c.Intent.Budget.Action = "warn"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.BranchTimeoutMS < 0 {
		return fmt.Errorf("search.branch_timeout_ms must not be negative, got %d", c.Search.BranchTimeoutMS)
	}
	if c.Intent.Enabled {
		if c.Intent.APIKey == "" {
			return fmt.Errorf("intent.api_key is required when intent.enabled")
		}
		if c.Intent.Model == "" {
			return fmt.Errorf("intent.model is required when intent.enabled")
		}
	}
	switch c.Intent.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("intent.budget.action must be \"warn\" or \"reject\", got %q", c.Intent.Budget.Action)
	}
	if r := c.Telemetry.TracesSampleRate; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.traces_sample_rate must be in [0, 1], got %v", r)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
