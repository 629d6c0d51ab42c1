package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the shopdex API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Suggest  SuggestConfig  `yaml:"suggest"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	TTLSec int `yaml:"ttl_sec"`
}

// SuggestConfig holds suggestion ranking settings. Zero weights are
// replaced by defaults; explicit negative values are rejected.
type SuggestConfig struct {
	SubstringWeight   float64             `yaml:"substring_weight"`
	PrefixWeight      float64             `yaml:"prefix_weight"`
	TokenPrefixWeight float64             `yaml:"token_prefix_weight"`
	FuzzyWeight       float64             `yaml:"fuzzy_weight"`
	FuzzyMaxDistance  int                 `yaml:"fuzzy_max_distance"`
	SalesCap          float64             `yaml:"sales_cap"`
	SalesDivisor      float64             `yaml:"sales_divisor"`
	RatingFactor      float64             `yaml:"rating_factor"`
	MaxSuggestions    int                 `yaml:"max_suggestions"`
	Synonyms          map[string][]string `yaml:"synonyms"`
}

// IngestConfig holds bulk product ingest settings.
type IngestConfig struct {
	MaxBatchSize int `yaml:"max_batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "shopdex:"
	}
	if c.Cache.TTLSec == 0 {
		c.Cache.TTLSec = 60
	}
	if c.Suggest.SubstringWeight == 0 {
		c.Suggest.SubstringWeight = 5
	}
	if c.Suggest.PrefixWeight == 0 {
		c.Suggest.PrefixWeight = 3
	}
	if c.Suggest.TokenPrefixWeight == 0 {
		c.Suggest.TokenPrefixWeight = 2
	}
	if c.Suggest.FuzzyWeight == 0 {
		c.Suggest.FuzzyWeight = 1
	}
	if c.Suggest.FuzzyMaxDistance == 0 {
		c.Suggest.FuzzyMaxDistance = 2
	}
	if c.Suggest.SalesCap == 0 {
		c.Suggest.SalesCap = 100
	}
	if c.Suggest.SalesDivisor == 0 {
		c.Suggest.SalesDivisor = 50
	}
	if c.Suggest.RatingFactor == 0 {
		c.Suggest.RatingFactor = 0.5
	}
	if c.Suggest.MaxSuggestions == 0 {
		c.Suggest.MaxSuggestions = 10
	}
	if c.Ingest.MaxBatchSize <= 0 {
		c.Ingest.MaxBatchSize = 500
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
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must not be negative, got %d", c.Cache.TTLSec)
	}
	for name, w := range map[string]float64{
		"substring_weight":    c.Suggest.SubstringWeight,
		"prefix_weight":       c.Suggest.PrefixWeight,
		"token_prefix_weight": c.Suggest.TokenPrefixWeight,
		"fuzzy_weight":        c.Suggest.FuzzyWeight,
		"sales_cap":           c.Suggest.SalesCap,
		"rating_factor":       c.Suggest.RatingFactor,
	} {
		if w < 0 {
			return fmt.Errorf("suggest.%s must not be negative, got %g", name, w)
		}
	}
	if c.Suggest.SalesDivisor <= 0 {
		return fmt.Errorf("suggest.sales_divisor must be positive, got %g", c.Suggest.SalesDivisor)
	}
	if c.Suggest.MaxSuggestions < 1 {
		return fmt.Errorf("suggest.max_suggestions must be at least 1, got %d", c.Suggest.MaxSuggestions)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
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
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
