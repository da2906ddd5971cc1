package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/translation"
)

// Known provider tags. The order is the default priority.
var KnownProviders = []string{"usda", "fatsecret", "edamam", "openfoodfacts"}

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Resolver    ResolverConfig
	Providers   map[string]ProviderConfig
	Cache       CacheConfig
	Translation TranslationConfig
	Debug       bool
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ResolverConfig controls dispatch to providers
type ResolverConfig struct {
	Policy            string        `mapstructure:"policy"`
	Priority          []string      `mapstructure:"priority"`
	OverallTimeout    time.Duration `mapstructure:"overall_timeout"`
	DefaultMaxResults int           `mapstructure:"default_max_results"`
	MaxResultsLimit   int           `mapstructure:"max_results_limit"`
}

// ProviderConfig configures one upstream provider
type ProviderConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	APIKey        string        `mapstructure:"api_key"`
	AppID         string        `mapstructure:"app_id"`
	AppKey        string        `mapstructure:"app_key"`
	Token         string        `mapstructure:"token"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // "memory" or "lru"
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// TranslationConfig controls query translation
type TranslationConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	SourceLanguage string `mapstructure:"source_language"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/foodengine/")

	// FOODENGINE_PROVIDERS_USDA_API_KEY -> providers.usda.api_key
	v.SetEnvPrefix("FOODENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the
// environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"}) // public, read-only data

	// Resolver defaults
	v.SetDefault("resolver.policy", string(domain.PolicyFallback))
	v.SetDefault("resolver.priority", KnownProviders)
	v.SetDefault("resolver.overall_timeout", "10s")
	v.SetDefault("resolver.default_max_results", 20)
	v.SetDefault("resolver.max_results_limit", 50)

	// Provider defaults. Every key gets a default so env overrides bind.
	for _, name := range KnownProviders {
		prefix := "providers." + name + "."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"base_url", "")
		v.SetDefault(prefix+"timeout", domain.DefaultProviderTimeout.String())
		v.SetDefault(prefix+"rate_per_second", 0)
		v.SetDefault(prefix+"burst", 0)
		v.SetDefault(prefix+"api_key", "")
		v.SetDefault(prefix+"app_id", "")
		v.SetDefault(prefix+"app_key", "")
		v.SetDefault(prefix+"token", "")
	}

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "720h") // 30 days
	v.SetDefault("cache.max_entries", 10000)

	// Translation defaults
	v.SetDefault("translation.enabled", true)
	v.SetDefault("translation.source_language", "es")

	v.SetDefault("debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set FOODENGINE_SERVER_PORT)")
	}

	if !domain.Policy(config.Resolver.Policy).Valid() {
		return fmt.Errorf("resolver policy must be 'fallback', 'aggregate' or 'single', got: %s", config.Resolver.Policy)
	}
	if len(config.Resolver.Priority) == 0 {
		return fmt.Errorf("resolver priority must name at least one provider")
	}
	seen := make(map[string]bool, len(config.Resolver.Priority))
	for _, name := range config.Resolver.Priority {
		if !isKnownProvider(name) {
			return fmt.Errorf("resolver priority names unknown provider: %s", name)
		}
		if seen[name] {
			return fmt.Errorf("resolver priority lists %s twice", name)
		}
		seen[name] = true
	}
	if config.Resolver.OverallTimeout <= 0 {
		return fmt.Errorf("resolver overall_timeout must be positive, got: %s", config.Resolver.OverallTimeout)
	}
	if config.Resolver.MaxResultsLimit <= 0 {
		return fmt.Errorf("resolver max_results_limit must be positive, got: %d", config.Resolver.MaxResultsLimit)
	}
	if config.Resolver.DefaultMaxResults <= 0 || config.Resolver.DefaultMaxResults > config.Resolver.MaxResultsLimit {
		return fmt.Errorf("resolver default_max_results must be between 1 and %d, got: %d",
			config.Resolver.MaxResultsLimit, config.Resolver.DefaultMaxResults)
	}

	for name, p := range config.Providers {
		if p.Timeout < 0 {
			return fmt.Errorf("provider %s timeout must not be negative", name)
		}
		if p.RatePerSecond < 0 {
			return fmt.Errorf("provider %s rate_per_second must not be negative", name)
		}
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "lru" {
		return fmt.Errorf("cache type must be 'memory' or 'lru', got: %s", config.Cache.Type)
	}
	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got: %s", config.Cache.TTL)
	}
	if config.Cache.Type == "lru" && config.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max_entries is required when cache type is 'lru'")
	}

	if config.Translation.Enabled && !translation.Supported(config.Translation.SourceLanguage) {
		return fmt.Errorf("translation source_language %q is not supported (have %v)",
			config.Translation.SourceLanguage, translation.Languages())
	}

	return nil
}

func isKnownProvider(name string) bool {
	for _, known := range KnownProviders {
		if name == known {
			return true
		}
	}
	return false
}

// Credentials implements domain.CredentialsProvider over the providers
// section. ok is false when the provider has no credential configured.
func (c *Config) Credentials(provider string) (domain.Credentials, bool) {
	p, exists := c.Providers[provider]
	if !exists {
		return domain.Credentials{}, false
	}
	creds := domain.Credentials{
		APIKey: p.APIKey,
		AppID:  p.AppID,
		AppKey: p.AppKey,
		Token:  p.Token,
	}
	return creds, creds != domain.Credentials{}
}
