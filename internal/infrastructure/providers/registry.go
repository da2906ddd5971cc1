// Package providers constructs the provider registry from configuration
package providers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/macrolens/foodengine/config"
	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/edamam"
	"github.com/macrolens/foodengine/internal/infrastructure/fatsecret"
	"github.com/macrolens/foodengine/internal/infrastructure/openfoodfacts"
	"github.com/macrolens/foodengine/internal/infrastructure/upstream"
	"github.com/macrolens/foodengine/internal/infrastructure/usda"
)

// ErrNoProviders is returned when every provider is disabled or misconfigured
var ErrNoProviders = errors.New("no providers available")

type factory func(pc config.ProviderConfig, creds domain.Credentials, opts upstream.Options) (domain.Provider, string)

// factories build each known adapter. A non-empty reason disables it.
var factories = map[string]factory{
	usda.ProviderName: func(pc config.ProviderConfig, creds domain.Credentials, opts upstream.Options) (domain.Provider, string) {
		if creds.APIKey == "" {
			return nil, "api_key is not configured"
		}
		return usda.NewClient(creds.APIKey, pc.BaseURL, opts), ""
	},
	edamam.ProviderName: func(pc config.ProviderConfig, creds domain.Credentials, opts upstream.Options) (domain.Provider, string) {
		if creds.AppID == "" || creds.AppKey == "" {
			return nil, "app_id and app_key are required"
		}
		return edamam.NewClient(creds.AppID, creds.AppKey, pc.BaseURL, opts), ""
	},
	fatsecret.ProviderName: func(pc config.ProviderConfig, creds domain.Credentials, opts upstream.Options) (domain.Provider, string) {
		if creds.Token == "" {
			return nil, "token is not configured"
		}
		return fatsecret.NewClient(creds.Token, pc.BaseURL, opts), ""
	},
	openfoodfacts.ProviderName: func(pc config.ProviderConfig, creds domain.Credentials, opts upstream.Options) (domain.Provider, string) {
		return openfoodfacts.NewClient(pc.BaseURL, opts), ""
	},
}

type debuggable interface {
	SetDebug(bool)
}

// Build creates the registry in cfg.Resolver.Priority order. A provider
// that cannot be constructed is skipped and reported, once, as a
// ConfigurationError; the others are unaffected.
func Build(cfg *config.Config, creds domain.CredentialsProvider) (*domain.Registry, []*domain.ConfigurationError, error) {
	var (
		entries  []domain.RegistryEntry
		disabled []*domain.ConfigurationError
	)

	for _, name := range cfg.Resolver.Priority {
		pc, ok := cfg.Providers[name]
		if !ok || !pc.Enabled {
			log.Printf("[PROVIDERS] %s disabled by configuration", name)
			continue
		}
		build, ok := factories[name]
		if !ok {
			disabled = append(disabled, reportDisabled(name, "no adapter for this provider"))
			continue
		}

		c, _ := creds.Credentials(name)
		opts := upstream.Options{
			RatePerSecond: pc.RatePerSecond,
			Burst:         pc.Burst,
		}
		provider, reason := build(pc, c, opts)
		if reason != "" {
			disabled = append(disabled, reportDisabled(name, reason))
			continue
		}
		if d, ok := provider.(debuggable); ok {
			d.SetDebug(cfg.Debug)
		}

		entries = append(entries, domain.RegistryEntry{Provider: provider, Timeout: pc.Timeout})
		log.Printf("[PROVIDERS] %s enabled (capabilities: %v, timeout: %s)", name, domain.Capabilities(provider), effectiveTimeout(pc.Timeout))
	}

	if len(entries) == 0 {
		return nil, disabled, ErrNoProviders
	}
	registry, err := domain.NewRegistry(entries...)
	if err != nil {
		return nil, disabled, fmt.Errorf("failed to build registry: %w", err)
	}
	return registry, disabled, nil
}

func reportDisabled(name, reason string) *domain.ConfigurationError {
	err := &domain.ConfigurationError{Provider: name, Reason: reason}
	log.Printf("[PROVIDERS] %v", err)
	return err
}

func effectiveTimeout(t time.Duration) time.Duration {
	if t <= 0 {
		return domain.DefaultProviderTimeout
	}
	return t
}
