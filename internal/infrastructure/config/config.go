// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} references expanded
//  2. Environment variables (fallback)
//
// A .env file in the working directory is loaded into the environment first.
//
// Example usage:
//
//	cfg, err := config.LoadFile("config.yaml")
//	dbPath := cfg.Storage.DatabasePath
//	token := cfg.GetAPIKey(cfg.YNAB.Token, "YNAB_TOKEN")
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	YNAB          YNABConfig          `yaml:"ynab"`
	Classifier    ClassifierConfig    `yaml:"classifier"`
	Categories    CategoriesConfig    `yaml:"categories"`
	OrderHistory  OrderHistoryConfig  `yaml:"order_history"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// YNABConfig holds ledger API and sync settings
type YNABConfig struct {
	Token            string        `yaml:"token"`
	BaseURL          string        `yaml:"base_url"`
	BudgetID         string        `yaml:"budget_id"`
	BudgetName       string        `yaml:"budget_name"`
	AccountID        string        `yaml:"account_id"`
	AccountName      string        `yaml:"account_name"`
	RateLimitWait    time.Duration `yaml:"rate_limit_wait"`
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff"`
	BatchSize        int           `yaml:"batch_size"`
	LookbackYears    int           `yaml:"lookback_years"`
}

// ClassifierConfig holds LLM classifier configuration
type ClassifierConfig struct {
	Provider   string `yaml:"provider"` // anthropic or openai
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	ChunkSize  int    `yaml:"chunk_size"`
	MaxRetries int    `yaml:"max_retries"`
}

// CategoriesConfig holds category selection settings
type CategoriesConfig struct {
	RulesPath        string   `yaml:"rules_path"`
	DescriptionsPath string   `yaml:"descriptions_path"`
	FallbackCategory string   `yaml:"fallback_category"`
	TipCategory      string   `yaml:"tip_category"`
	GroceryCategory  string   `yaml:"grocery_category"`
	ExcludedGroups   []string `yaml:"excluded_groups"`
}

// OrderHistoryConfig holds order export discovery and matching settings
type OrderHistoryConfig struct {
	Dirs             []string `yaml:"dirs"`
	FilePattern      string   `yaml:"file_pattern"`
	MaxDaysAfterShip int      `yaml:"max_days_after_ship"`
}

// Cache backends.
const (
	CacheBackendJSON   = "json"
	CacheBackendSQLite = "sqlite"
)

// StorageConfig holds database and file locations
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	DataDir      string `yaml:"data_dir"`
	CacheBackend string `yaml:"cache_backend"`
}

// APIConfig holds the read API settings
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	setDefault(&c.YNAB.BaseURL, "https://api.ynab.com/v1")
	setDefaultDuration(&c.YNAB.RateLimitWait, 30*time.Second)
	setDefaultDuration(&c.YNAB.RateLimitBackoff, 60*time.Second)
	setDefaultInt(&c.YNAB.BatchSize, 50)
	setDefaultInt(&c.YNAB.LookbackYears, 2)

	setDefault(&c.Classifier.Provider, "anthropic")
	setDefaultInt(&c.Classifier.ChunkSize, 30)

	setDefault(&c.Categories.FallbackCategory, "Household Supplies")
	setDefault(&c.Categories.TipCategory, "Delivery Fee")
	setDefault(&c.Categories.GroceryCategory, "Groceries")

	if len(c.OrderHistory.Dirs) == 0 {
		c.OrderHistory.Dirs = []string{"data/amazon"}
	}
	setDefault(&c.OrderHistory.FilePattern, "OrderHistory")
	setDefaultInt(&c.OrderHistory.MaxDaysAfterShip, 7)

	setDefault(&c.Storage.DataDir, "data")
	setDefault(&c.Storage.DatabasePath, filepath.Join(c.Storage.DataDir, "itemize.db"))
	setDefault(&c.Storage.CacheBackend, CacheBackendSQLite)

	setDefault(&c.API.Addr, ":8085")

	setDefault(&c.Observability.Logging.Level, "info")
	setDefault(&c.Observability.Logging.Format, "text")
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch c.Classifier.Provider {
	case "anthropic", "openai":
	default:
		errs = append(errs, fmt.Errorf("classifier.provider must be anthropic or openai, got %q", c.Classifier.Provider))
	}
	switch c.Storage.CacheBackend {
	case CacheBackendJSON, CacheBackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.cache_backend must be json or sqlite, got %q", c.Storage.CacheBackend))
	}
	if c.YNAB.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("ynab.batch_size must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${YNAB_TOKEN})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		YNAB: YNABConfig{
			Token:       firstEnv("YNAB_TOKEN", "YNAB_API_KEY"),
			BudgetID:    os.Getenv("YNAB_BUDGET_ID"),
			BudgetName:  os.Getenv("YNAB_BUDGET_NAME"),
			AccountID:   os.Getenv("YNAB_ACCOUNT_ID"),
			AccountName: os.Getenv("YNAB_ACCOUNT_NAME"),
			BatchSize:   getEnvInt("YNAB_BATCH_SIZE", 0),
		},
		Classifier: ClassifierConfig{
			Provider: os.Getenv("CLASSIFIER_PROVIDER"),
			Model:    os.Getenv("CLASSIFIER_MODEL"),
		},
		Categories: CategoriesConfig{
			RulesPath:        os.Getenv("CATEGORY_RULES_PATH"),
			DescriptionsPath: os.Getenv("CATEGORY_DESCRIPTIONS_PATH"),
		},
		OrderHistory: OrderHistoryConfig{
			Dirs: splitList(os.Getenv("ORDER_HISTORY_DIRS")),
		},
		Storage: StorageConfig{
			DatabasePath: os.Getenv("ITEMIZE_DB_PATH"),
			DataDir:      os.Getenv("ITEMIZE_DATA_DIR"),
			CacheBackend: os.Getenv("ITEMIZE_CACHE_BACKEND"),
		},
		API: APIConfig{
			Addr: os.Getenv("API_ADDR"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadFile loads .env, then the YAML file at path. A missing file falls back
// to environment variables; a malformed one is an error.
func LoadFile(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return LoadFromEnv(), nil
	}
	return cfg, err
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setDefaultInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

func setDefaultDuration(field *time.Duration, value time.Duration) {
	if *field == 0 {
		*field = value
	}
}

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.YNAB.Token, "YNAB_TOKEN")
//
//	GetAPIKey(cfg.Classifier.APIKey, "ANTHROPIC_API_KEY")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	// First, try the config value
	if configValue != "" {
		return configValue
	}

	// Then try each environment variable in order
	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}

// ClassifierAPIKey returns the key for the configured classifier provider.
func (c *Config) ClassifierAPIKey() string {
	if c.Classifier.Provider == "openai" {
		return c.GetAPIKey(c.Classifier.APIKey, "OPENAI_API_KEY", "OPENAI_APIKEY")
	}
	return c.GetAPIKey(c.Classifier.APIKey, "ANTHROPIC_API_KEY", "CLAUDE_API_KEY")
}

// YNABToken returns the ledger API token.
func (c *Config) YNABToken() string {
	return c.GetAPIKey(c.YNAB.Token, "YNAB_TOKEN", "YNAB_API_KEY")
}

// CacheFilePath returns the JSON category cache location.
func (c *Config) CacheFilePath() string {
	return filepath.Join(c.Storage.DataDir, "category_cache.json")
}

// MiscategorizationLogPath returns the miscategorization log location.
func (c *Config) MiscategorizationLogPath() string {
	return filepath.Join(c.Storage.DataDir, "miscategorization_log.json")
}
