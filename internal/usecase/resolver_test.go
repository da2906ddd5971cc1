package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/mocks"
)

func newTestRegistry(t *testing.T, providers ...domain.Provider) *domain.Registry {
	t.Helper()
	entries := make([]domain.RegistryEntry, len(providers))
	for i, p := range providers {
		entries[i] = domain.RegistryEntry{Provider: p, Timeout: time.Second}
	}
	registry, err := domain.NewRegistry(entries...)
	require.NoError(t, err)
	return registry
}

func record(source, name, brand string) domain.FoodRecord {
	return domain.FoodRecord{
		ID:     source + ":" + name,
		Source: source,
		Name:   name,
		Brand:  brand,
	}
}

func networkError(provider string) error {
	return domain.NewProviderError(provider, domain.KindNetworkError, errors.New("connection refused"))
}

func textRequest(policy domain.Policy) ResolveRequest {
	return ResolveRequest{
		Capability: domain.CapabilityText,
		Policy:     policy,
		Text:       "apple",
		MaxResults: 10,
	}
}

// blockingProvider waits for its context to end
type blockingProvider struct{ name string }

func (b blockingProvider) Name() string { return b.name }

func (b blockingProvider) SearchByText(ctx context.Context, query string, maxResults int) ([]domain.FoodRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolve_FallbackSkipsFailedProvider(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).Return(nil, networkError("a"))
	b.On("SearchByText", mock.Anything, "apple", 10).
		Return([]domain.FoodRecord{record("b", "Apple", "Generic"), record("b", "Apple Pie", "Bakery")}, nil)

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	outcome, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyFallback))

	require.NoError(t, err)
	require.Len(t, outcome.Records, 2)
	for _, r := range outcome.Records {
		assert.Equal(t, "b", r.Source)
	}
	assert.Equal(t, []string{"a", "b"}, outcome.Attempted)
	assert.Equal(t, []string{"b"}, outcome.Used)
	assert.Equal(t, []string{"a"}, outcome.Failed)
	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, domain.KindNetworkError, outcome.Failures[0].Kind)
	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestResolve_FallbackStopsAtFirstSuccess(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).Return([]domain.FoodRecord{record("a", "Apple", "")}, nil)

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	outcome, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyFallback))

	require.NoError(t, err)
	assert.Len(t, outcome.Records, 1)
	assert.Equal(t, []string{"a"}, outcome.Attempted)
	b.AssertNotCalled(t, "SearchByText", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_FallbackContinuesPastEmptyResult(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).Return([]domain.FoodRecord{}, nil)
	b.On("SearchByText", mock.Anything, "apple", 10).Return([]domain.FoodRecord{record("b", "Apple", "")}, nil)

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	outcome, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyFallback))

	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, outcome.Used)
	assert.Empty(t, outcome.Failed, "an empty answer is not a failure")
}

func TestResolve_FallbackExhausted(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).Return(nil, networkError("a"))
	b.On("SearchByText", mock.Anything, "apple", 10).Return(nil, networkError("b"))

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	outcome, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyFallback))

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, domain.ErrAllProvidersExhausted)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	var exhausted *domain.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, exhausted.Failures, 2)
}

func TestResolve_NothingFoundAnywhereIsNotFound(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).
		Return(nil, domain.NewProviderError("a", domain.KindNotFound, errors.New("404")))
	b.On("SearchByText", mock.Anything, "apple", 10).Return([]domain.FoodRecord{}, nil)

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	_, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyFallback))

	assert.ErrorIs(t, err, domain.ErrAllProvidersExhausted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolve_NoEligibleProviders(t *testing.T) {
	textOnly := &mocks.MockTextProvider{ProviderName: "text"}

	resolver := NewResolver(newTestRegistry(t, textOnly), ResolverConfig{})
	_, err := resolver.Resolve(context.Background(), ResolveRequest{
		Capability: domain.CapabilityBarcode,
		Policy:     domain.PolicyFallback,
		Barcode:    "012345678905",
	})

	assert.ErrorIs(t, err, domain.ErrAllProvidersExhausted)
	textOnly.AssertNotCalled(t, "SearchByText", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_AggregateMergesAndDedups(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).
		Return([]domain.FoodRecord{record("a", "Apple", "Generic")}, nil)
	b.On("SearchByText", mock.Anything, "apple", 10).
		Return([]domain.FoodRecord{record("b", "Apple", "Generic"), record("b", "Banana", "Generic")}, nil)

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	outcome, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyAggregate))

	require.NoError(t, err)
	require.Len(t, outcome.Records, 2)
	assert.Equal(t, "Apple", outcome.Records[0].Name)
	assert.Equal(t, "a", outcome.Records[0].Source)
	assert.Equal(t, "Banana", outcome.Records[1].Name)
	assert.Equal(t, "b", outcome.Records[1].Source)
	assert.Equal(t, []string{"a", "b"}, outcome.Used)
	assert.Empty(t, outcome.Failed)
}

func TestResolve_AggregateCollapsesNormalizedKeys(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).
		Return([]domain.FoodRecord{record("a", "APPLE ", "Generic")}, nil)
	b.On("SearchByText", mock.Anything, "apple", 10).
		Return([]domain.FoodRecord{record("b", "apple", "generic")}, nil)

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	outcome, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyAggregate))

	require.NoError(t, err)
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, "a", outcome.Records[0].Source)
}

func TestResolve_AggregateToleratesPartialFailure(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).
		Return(nil, domain.NewProviderError("a", domain.KindRateLimited, errors.New("429")))
	b.On("SearchByText", mock.Anything, "apple", 10).
		Return([]domain.FoodRecord{record("b", "Apple", "")}, nil)

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	outcome, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyAggregate))

	require.NoError(t, err)
	assert.Len(t, outcome.Records, 1)
	assert.Equal(t, []string{"b"}, outcome.Used)
	assert.Equal(t, []string{"a"}, outcome.Failed)
	assert.Equal(t, domain.KindRateLimited, outcome.Failures[0].Kind)
}

func TestResolve_AggregateStopsWaitingAtOverallDeadline(t *testing.T) {
	slow := mocks.NewMockProvider("slow")
	fast := mocks.NewMockProvider("fast")
	slow.On("SearchByText", mock.Anything, "apple", 10).
		After(500*time.Millisecond).
		Return([]domain.FoodRecord{record("slow", "Apple", "")}, nil)
	fast.On("SearchByText", mock.Anything, "apple", 10).
		Return([]domain.FoodRecord{record("fast", "Apple Juice", "")}, nil)

	resolver := NewResolver(newTestRegistry(t, slow, fast), ResolverConfig{OverallTimeout: 50 * time.Millisecond})

	start := time.Now()
	outcome, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyAggregate))

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, []string{"fast"}, outcome.Used)
	assert.Equal(t, []string{"slow"}, outcome.Failed)
	assert.ErrorIs(t, outcome.Failures[0], domain.ErrTimeout)
}

func TestResolve_AggregateAllFail(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).Return(nil, networkError("a"))
	b.On("SearchByText", mock.Anything, "apple", 10).Return(nil, networkError("b"))

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	_, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyAggregate))

	assert.ErrorIs(t, err, domain.ErrAllProvidersExhausted)
}

func TestResolve_PerCallTimeout(t *testing.T) {
	stuck := blockingProvider{name: "stuck"}
	b := mocks.NewMockProvider("b")
	b.On("SearchByText", mock.Anything, "apple", 10).Return([]domain.FoodRecord{record("b", "Apple", "")}, nil)

	registry, err := domain.NewRegistry(
		domain.RegistryEntry{Provider: stuck, Timeout: 20 * time.Millisecond},
		domain.RegistryEntry{Provider: b, Timeout: time.Second},
	)
	require.NoError(t, err)

	outcome, err := NewResolver(registry, ResolverConfig{}).Resolve(context.Background(), textRequest(domain.PolicyFallback))

	require.NoError(t, err)
	assert.Equal(t, []string{"stuck"}, outcome.Failed)
	assert.Equal(t, domain.KindTimeout, outcome.Failures[0].Kind)
}

func TestResolve_AdapterPanicIsRecovered(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 10).
		Run(func(mock.Arguments) { panic("nil map") }).
		Return(nil, nil)
	b.On("SearchByText", mock.Anything, "apple", 10).Return([]domain.FoodRecord{record("b", "Apple", "")}, nil)

	resolver := NewResolver(newTestRegistry(t, a, b), ResolverConfig{})
	outcome, err := resolver.Resolve(context.Background(), textRequest(domain.PolicyFallback))

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, outcome.Failed)
	assert.Contains(t, outcome.Failures[0].Error(), "adapter panic")
}

func TestResolve_Single(t *testing.T) {
	t.Run("returns the named provider's records", func(t *testing.T) {
		a := mocks.NewMockProvider("a")
		b := mocks.NewMockProvider("b")
		b.On("SearchByText", mock.Anything, "apple", 10).Return([]domain.FoodRecord{record("b", "Apple", "")}, nil)

		req := textRequest(domain.PolicySingle)
		req.Provider = "b"
		outcome, err := NewResolver(newTestRegistry(t, a, b), ResolverConfig{}).Resolve(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, outcome.Used)
		a.AssertNotCalled(t, "SearchByText", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates the provider error", func(t *testing.T) {
		a := mocks.NewMockProvider("a")
		a.On("SearchByText", mock.Anything, "apple", 10).
			Return(nil, &domain.ProviderError{Provider: "a", Kind: domain.KindRateLimited, RetryAfter: 30 * time.Second})

		req := textRequest(domain.PolicySingle)
		req.Provider = "a"
		_, err := NewResolver(newTestRegistry(t, a), ResolverConfig{}).Resolve(context.Background(), req)

		assert.ErrorIs(t, err, domain.ErrRateLimited)
		var perr *domain.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 30*time.Second, perr.RetryAfter)
	})

	t.Run("empty answer is an empty list", func(t *testing.T) {
		a := mocks.NewMockProvider("a")
		a.On("SearchByText", mock.Anything, "apple", 10).Return([]domain.FoodRecord{}, nil)

		req := textRequest(domain.PolicySingle)
		req.Provider = "a"
		outcome, err := NewResolver(newTestRegistry(t, a), ResolverConfig{}).Resolve(context.Background(), req)

		require.NoError(t, err)
		assert.Empty(t, outcome.Records)
		assert.Empty(t, outcome.Used)
	})

	t.Run("unknown provider", func(t *testing.T) {
		a := mocks.NewMockProvider("a")

		req := textRequest(domain.PolicySingle)
		req.Provider = "nutritionix"
		_, err := NewResolver(newTestRegistry(t, a), ResolverConfig{}).Resolve(context.Background(), req)

		assert.ErrorIs(t, err, domain.ErrUnknownProvider)
	})

	t.Run("unsupported capability", func(t *testing.T) {
		textOnly := &mocks.MockTextProvider{ProviderName: "text"}

		_, err := NewResolver(newTestRegistry(t, textOnly), ResolverConfig{}).Resolve(context.Background(), ResolveRequest{
			Capability: domain.CapabilityBarcode,
			Policy:     domain.PolicySingle,
			Provider:   "text",
			Barcode:    "012345678905",
		})

		assert.ErrorIs(t, err, domain.ErrCapabilityNotSupported)
	})
}

func TestResolve_UnknownPolicy(t *testing.T) {
	resolver := NewResolver(newTestRegistry(t, mocks.NewMockProvider("a")), ResolverConfig{})

	_, err := resolver.Resolve(context.Background(), textRequest("roundrobin"))

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestResolve_NonEmptyWheneverAnyProviderAnswers(t *testing.T) {
	type behavior int
	const (
		fails behavior = iota
		empty
		answers
	)
	behaviors := []behavior{fails, empty, answers}

	for _, policy := range []domain.Policy{domain.PolicyFallback, domain.PolicyAggregate} {
		for _, first := range behaviors {
			for _, second := range behaviors {
				for _, third := range behaviors {
					if first != answers && second != answers && third != answers {
						continue
					}
					var providers []domain.Provider
					for i, bh := range []behavior{first, second, third} {
						name := string(rune('a' + i))
						p := mocks.NewMockProvider(name)
						call := p.On("SearchByText", mock.Anything, "apple", 10)
						switch bh {
						case fails:
							call.Return(nil, networkError(name))
						case empty:
							call.Return([]domain.FoodRecord{}, nil)
						case answers:
							call.Return([]domain.FoodRecord{record(name, "Apple "+name, "")}, nil)
						}
						providers = append(providers, p)
					}

					outcome, err := NewResolver(newTestRegistry(t, providers...), ResolverConfig{}).
						Resolve(context.Background(), textRequest(policy))

					require.NoError(t, err, "policy %s behaviors %d/%d/%d", policy, first, second, third)
					assert.NotEmpty(t, outcome.Records, "policy %s behaviors %d/%d/%d", policy, first, second, third)
				}
			}
		}
	}
}
