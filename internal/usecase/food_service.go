package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/cache"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
	barcodeRegex         = regexp.MustCompile(`^\d{6,14}$`)
)

// FoodServiceConfig holds configuration for the food service
type FoodServiceConfig struct {
	Policy            domain.Policy
	DefaultMaxResults int
	MaxResultsLimit   int
}

// FoodService answers search, detail and barcode lookups with caching
type FoodService struct {
	resolver     *Resolver
	preprocessor *QueryPreprocessor
	cache        *cache.ReadThrough
	config       FoodServiceConfig
}

// ProviderInfo describes one registered provider
type ProviderInfo struct {
	Name         string              `json:"name"`
	Capabilities []domain.Capability `json:"capabilities"`
	Priority     int                 `json:"priority"`
	Timeout      string              `json:"timeout"`
}

// NewFoodService creates a new food service with dependencies. A nil
// readThrough disables caching.
func NewFoodService(
	resolver *Resolver,
	preprocessor *QueryPreprocessor,
	readThrough *cache.ReadThrough,
	config FoodServiceConfig,
) *FoodService {
	if config.Policy == "" {
		config.Policy = domain.PolicyFallback
	}
	if config.MaxResultsLimit <= 0 {
		config.MaxResultsLimit = 50
	}
	if config.DefaultMaxResults <= 0 || config.DefaultMaxResults > config.MaxResultsLimit {
		config.DefaultMaxResults = min(20, config.MaxResultsLimit)
	}

	return &FoodService{
		resolver:     resolver,
		preprocessor: preprocessor,
		cache:        readThrough,
		config:       config,
	}
}

// Search resolves a free-text query.
// Flow: check cache -> preprocess -> resolve across providers -> cache -> return
func (s *FoodService) Search(ctx context.Context, request *domain.SearchRequest) (*domain.SearchResponse, error) {
	start := time.Now()

	if request == nil || strings.TrimSpace(request.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	maxResults, err := s.maxResults(request.MaxResults)
	if err != nil {
		return nil, err
	}
	policy, err := s.policy(request.Policy, request.Provider)
	if err != nil {
		return nil, err
	}

	compute := func(ctx context.Context) (domain.SearchResponse, error) {
		query := s.preprocessor.Prepare(ctx, request.Query)
		outcome, err := s.resolver.Resolve(ctx, ResolveRequest{
			Capability: domain.CapabilityText,
			Policy:     policy,
			Provider:   request.Provider,
			Text:       s.preprocessor.ProviderText(query.TranslatedText),
			MaxResults: maxResults,
		})
		if err != nil {
			return domain.SearchResponse{}, err
		}
		return domain.SearchResponse{
			Results: outcome.Records,
			Metadata: domain.SearchMetadata{
				OriginalQuery:   query.RawText,
				TranslatedQuery: query.TranslatedText,
				WasTranslated:   query.WasTranslated,
				SourcesUsed:     nonNil(outcome.Used),
				SourcesFailed:   nonNil(outcome.Failed),
			},
		}, nil
	}

	useCache := request.UseCache == nil || *request.UseCache
	key := fmt.Sprintf("search:%s:%d:%s:%s:%s",
		normalizeForCacheKey(request.Query), maxResults, policy, request.Provider,
		s.resolver.Registry().Fingerprint(domain.CapabilityText))

	response, cached, err := getOrCompute(ctx, s, useCache, key, compute, func(r domain.SearchResponse) bool {
		return len(r.Results) == 0
	})
	if err != nil {
		return nil, err
	}

	if response.Results == nil {
		response.Results = []domain.FoodRecord{}
	}
	response.Metadata.Cached = cached
	response.Metadata.ElapsedTime = durationString(time.Since(start))
	return &response, nil
}

// Detail fetches one record by its provider-scoped id. With a source only
// that provider is asked; otherwise every provider that can fetch by id is
// tried in priority order.
func (s *FoodService) Detail(ctx context.Context, id, source string) (*domain.FoodRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidRequest)
	}

	req := ResolveRequest{
		Capability: domain.CapabilityID,
		Policy:     domain.PolicyFallback,
		ID:         id,
		MaxResults: 1,
	}
	if source != "" {
		req.Policy = domain.PolicySingle
		req.Provider = source
	}

	compute := func(ctx context.Context) (domain.FoodRecord, error) {
		outcome, err := s.resolver.Resolve(ctx, req)
		if err != nil {
			return domain.FoodRecord{}, err
		}
		if len(outcome.Records) == 0 {
			return domain.FoodRecord{}, fmt.Errorf("%w: %s has no food %q", domain.ErrNotFound, source, id)
		}
		return outcome.Records[0], nil
	}

	key := fmt.Sprintf("detail:%s:%s:%s", source, id, s.resolver.Registry().Fingerprint(domain.CapabilityID))
	record, _, err := getOrCompute(ctx, s, true, key, compute, func(r domain.FoodRecord) bool {
		return r.ID == "" && r.Name == ""
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Barcode resolves a GTIN/UPC/EAN through the barcode-capable providers,
// first hit wins
func (s *FoodService) Barcode(ctx context.Context, code string) (*domain.BarcodeResponse, error) {
	code = strings.TrimSpace(code)
	if !barcodeRegex.MatchString(code) {
		return nil, fmt.Errorf("%w: barcode must be 6 to 14 digits", domain.ErrInvalidRequest)
	}

	compute := func(ctx context.Context) (domain.BarcodeResponse, error) {
		outcome, err := s.resolver.Resolve(ctx, ResolveRequest{
			Capability: domain.CapabilityBarcode,
			Policy:     domain.PolicyFallback,
			Barcode:    code,
		})
		if err != nil {
			return domain.BarcodeResponse{}, err
		}
		return domain.BarcodeResponse{
			Success: true,
			Source:  outcome.Used[0],
			Foods:   outcome.Records,
		}, nil
	}

	key := fmt.Sprintf("barcode:%s:%s", code, s.resolver.Registry().Fingerprint(domain.CapabilityBarcode))
	response, _, err := getOrCompute(ctx, s, true, key, compute, func(r domain.BarcodeResponse) bool {
		return len(r.Foods) == 0
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// Providers lists the registry in priority order
func (s *FoodService) Providers() []ProviderInfo {
	registry := s.resolver.Registry()
	infos := make([]ProviderInfo, 0, registry.Len())
	for _, name := range registry.Names() {
		entry, _ := registry.Get(name)
		infos = append(infos, ProviderInfo{
			Name:         name,
			Capabilities: domain.Capabilities(entry.Provider),
			Priority:     entry.Priority,
			Timeout:      entry.Timeout.String(),
		})
	}
	return infos
}

// getOrCompute goes through the read-through cache unless it is disabled
// or the caller opted out
func getOrCompute[T any](ctx context.Context, s *FoodService, useCache bool, key string, compute func(context.Context) (T, error), isEmpty func(T) bool) (T, bool, error) {
	if !useCache || s.cache == nil {
		v, err := compute(ctx)
		return v, false, err
	}
	return cache.GetOrCompute(ctx, s.cache, key, compute, isEmpty)
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Accents are folded, then everything but letters and digits of any script
// and single spaces is dropped. Input with no letters or digits at all is
// kept verbatim so distinct queries never share a key.
func normalizeForCacheKey(s string) string {
	normalized := domain.Fold(s)
	normalized = nonAlphanumericRegex.ReplaceAllString(normalized, " ")
	normalized = multipleSpacesRegex.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return strings.TrimSpace(s)
	}
	return normalized
}

func (s *FoodService) maxResults(requested int) (int, error) {
	switch {
	case requested == 0:
		return s.config.DefaultMaxResults, nil
	case requested < 0 || requested > s.config.MaxResultsLimit:
		return 0, fmt.Errorf("%w: maxResults must be between 1 and %d", domain.ErrInvalidRequest, s.config.MaxResultsLimit)
	}
	return requested, nil
}

// policy picks the request's policy. Naming a provider without a policy
// means single-provider.
func (s *FoodService) policy(requested domain.Policy, provider string) (domain.Policy, error) {
	policy := requested
	if policy == "" {
		policy = s.config.Policy
		if provider != "" {
			policy = domain.PolicySingle
		}
	}
	if !policy.Valid() {
		return "", fmt.Errorf("%w: unknown policy %q", domain.ErrInvalidRequest, requested)
	}
	if policy == domain.PolicySingle {
		if provider == "" {
			return "", fmt.Errorf("%w: single policy requires a provider", domain.ErrInvalidRequest)
		}
		if _, ok := s.resolver.Registry().Get(provider); !ok {
			return "", fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
		}
	}
	return policy, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
