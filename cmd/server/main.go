package main

import (
	"fmt"
	"log"
	"os"

	"github.com/macrolens/foodengine/config"
	httpDelivery "github.com/macrolens/foodengine/internal/delivery/http"
	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/cache"
	"github.com/macrolens/foodengine/internal/infrastructure/providers"
	"github.com/macrolens/foodengine/internal/infrastructure/translation"
	"github.com/macrolens/foodengine/internal/usecase"
)

// cacheStore is a CacheStore that can also report its size for /health
type cacheStore interface {
	domain.CacheStore
	Size() int
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Debug logging follows the environment unless set explicitly
	debug := cfg.Debug || cfg.Server.Environment == "development"
	cfg.Debug = debug

	log.Printf("Starting foodengine v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Policy: %s, priority: %v", cfg.Resolver.Policy, cfg.Resolver.Priority)

	// Build the provider registry. Misconfigured providers are skipped.
	registry, disabled, err := providers.Build(cfg, cfg)
	if err != nil {
		log.Fatalf("Failed to build provider registry: %v", err)
	}
	if len(disabled) > 0 {
		log.Printf("WARNING: %d provider(s) disabled, running with %v", len(disabled), registry.Names())
	}

	// Initialize cache
	var store cacheStore
	switch cfg.Cache.Type {
	case "lru":
		store = cache.NewLRUCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	default:
		memoryCache := cache.NewMemoryCache(0)
		defer memoryCache.Close()
		store = memoryCache
	}
	readThrough := cache.NewReadThrough(store, cfg.Cache.TTL)
	readThrough.SetObserver(usecase.CacheMetrics{})
	readThrough.SetDebug(debug)
	log.Printf("Cache: %s, TTL: %s", cfg.Cache.Type, cfg.Cache.TTL)

	// Initialize query translation
	var translator domain.Translator
	if cfg.Translation.Enabled {
		dict, err := translation.ForLanguage(cfg.Translation.SourceLanguage)
		if err != nil {
			log.Fatalf("Failed to load %s dictionary: %v", cfg.Translation.SourceLanguage, err)
		}
		translator = dict
		log.Printf("Query translation enabled: %s -> en", dict.SourceLanguage())
	}

	// Initialize usecase layer
	resolver := usecase.NewResolver(registry, usecase.ResolverConfig{
		OverallTimeout: cfg.Resolver.OverallTimeout,
		Debug:          debug,
	})
	foodService := usecase.NewFoodService(
		resolver,
		usecase.NewQueryPreprocessor(translator, debug),
		readThrough,
		usecase.FoodServiceConfig{
			Policy:            domain.Policy(cfg.Resolver.Policy),
			DefaultMaxResults: cfg.Resolver.DefaultMaxResults,
			MaxResultsLimit:   cfg.Resolver.MaxResultsLimit,
		},
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(foodService, store)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
