package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/cache"
	"github.com/macrolens/foodengine/internal/infrastructure/translation"
	"github.com/macrolens/foodengine/mocks"
)

func newTestService(t *testing.T, store domain.CacheStore, policy domain.Policy, providers ...domain.Provider) *FoodService {
	t.Helper()
	dict, err := translation.NewSpanish()
	require.NoError(t, err)

	var readThrough *cache.ReadThrough
	if store != nil {
		readThrough = cache.NewReadThrough(store, time.Hour)
	}
	return NewFoodService(
		NewResolver(newTestRegistry(t, providers...), ResolverConfig{}),
		NewQueryPreprocessor(dict, false),
		readThrough,
		FoodServiceConfig{Policy: policy, DefaultMaxResults: 20, MaxResultsLimit: 50},
	)
}

func newMemoryStore(t *testing.T) *cache.MemoryCache {
	store := cache.NewMemoryCache(time.Minute)
	t.Cleanup(store.Close)
	return store
}

func TestSearch_CachesIdenticalRequests(t *testing.T) {
	a := mocks.NewMockProvider("a")
	a.On("SearchByText", mock.Anything, "greek yogurt", 20).
		Return([]domain.FoodRecord{record("a", "Greek Yogurt", "Fage"), record("a", "Greek Yogurt", "Chobani")}, nil).
		Once()

	service := newTestService(t, newMemoryStore(t), domain.PolicyFallback, a)
	request := &domain.SearchRequest{Query: "Greek Yogurt"}

	first, err := service.Search(context.Background(), request)
	require.NoError(t, err)
	second, err := service.Search(context.Background(), request)
	require.NoError(t, err)

	a.AssertNumberOfCalls(t, "SearchByText", 1)
	assert.False(t, first.Metadata.Cached)
	assert.True(t, second.Metadata.Cached)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Metadata.SourcesUsed, second.Metadata.SourcesUsed)
}

func TestSearch_ConcurrentIdenticalRequestsShareOneCall(t *testing.T) {
	release := make(chan time.Time)
	a := mocks.NewMockProvider("a")
	a.On("SearchByText", mock.Anything, "oats", 20).
		WaitUntil(release).
		Return([]domain.FoodRecord{record("a", "Oats", "")}, nil)

	service := newTestService(t, newMemoryStore(t), domain.PolicyFallback, a)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := service.Search(context.Background(), &domain.SearchRequest{Query: "oats"})
			assert.NoError(t, err)
			if resp != nil {
				assert.Len(t, resp.Results, 1)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	a.AssertNumberOfCalls(t, "SearchByText", 1)
}

func TestSearch_NonLatinQueriesHaveTheirOwnCacheEntries(t *testing.T) {
	a := mocks.NewMockProvider("a")
	a.On("SearchByText", mock.Anything, "яблоко", 20).Return([]domain.FoodRecord{record("a", "Apple", "")}, nil).Once()
	a.On("SearchByText", mock.Anything, "молоко", 20).Return([]domain.FoodRecord{record("a", "Milk", "")}, nil).Once()

	service := newTestService(t, newMemoryStore(t), domain.PolicyFallback, a)

	apple, err := service.Search(context.Background(), &domain.SearchRequest{Query: "яблоко"})
	require.NoError(t, err)
	milk, err := service.Search(context.Background(), &domain.SearchRequest{Query: "молоко"})
	require.NoError(t, err)

	assert.False(t, milk.Metadata.Cached)
	assert.Equal(t, "молоко", milk.Metadata.OriginalQuery)
	assert.Equal(t, "Milk", milk.Results[0].Name)
	assert.Equal(t, "Apple", apple.Results[0].Name)
	a.AssertNumberOfCalls(t, "SearchByText", 2)
}

func TestSearch_UseCacheFalseBypassesCache(t *testing.T) {
	a := mocks.NewMockProvider("a")
	a.On("SearchByText", mock.Anything, "rice", 20).Return([]domain.FoodRecord{record("a", "Rice", "")}, nil)

	service := newTestService(t, newMemoryStore(t), domain.PolicyFallback, a)
	noCache := false

	for i := 0; i < 2; i++ {
		resp, err := service.Search(context.Background(), &domain.SearchRequest{Query: "rice", UseCache: &noCache})
		require.NoError(t, err)
		assert.False(t, resp.Metadata.Cached)
	}
	a.AssertNumberOfCalls(t, "SearchByText", 2)
}

func TestSearch_TotalFailureWritesNothing(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 20).Return(nil, networkError("a"))
	b.On("SearchByText", mock.Anything, "apple", 20).Return(nil, networkError("b"))

	store := new(mocks.MockCacheStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrCacheMiss)

	service := newTestService(t, store, domain.PolicyAggregate, a, b)
	resp, err := service.Search(context.Background(), &domain.SearchRequest{Query: "apple"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrAllProvidersExhausted)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_BrokenStoreStillAnswers(t *testing.T) {
	a := mocks.NewMockProvider("a")
	a.On("SearchByText", mock.Anything, "apple", 20).Return([]domain.FoodRecord{record("a", "Apple", "")}, nil)

	store := new(mocks.MockCacheStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	service := newTestService(t, store, domain.PolicyFallback, a)
	resp, err := service.Search(context.Background(), &domain.SearchRequest{Query: "apple"})

	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_FallbackMetadata(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	a.On("SearchByText", mock.Anything, "apple", 20).Return(nil, networkError("a"))
	b.On("SearchByText", mock.Anything, "apple", 20).
		Return([]domain.FoodRecord{record("b", "Apple", "Generic"), record("b", "Green Apple", "Generic")}, nil)

	service := newTestService(t, nil, domain.PolicyFallback, a, b)
	resp, err := service.Search(context.Background(), &domain.SearchRequest{Query: "apple"})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Equal(t, "b", r.Source)
	}
	assert.Equal(t, []string{"b"}, resp.Metadata.SourcesUsed)
	assert.Equal(t, []string{"a"}, resp.Metadata.SourcesFailed)
	assert.Equal(t, "apple", resp.Metadata.OriginalQuery)
	assert.False(t, resp.Metadata.WasTranslated)
	assert.NotEmpty(t, resp.Metadata.ElapsedTime)
}

func TestSearch_TranslatesSpanishQuery(t *testing.T) {
	a := mocks.NewMockProvider("a")
	a.On("SearchByText", mock.Anything, "apple", 20).Return([]domain.FoodRecord{record("a", "Apple", "")}, nil)

	service := newTestService(t, nil, domain.PolicyFallback, a)
	resp, err := service.Search(context.Background(), &domain.SearchRequest{Query: "Manzana"})

	require.NoError(t, err)
	assert.Equal(t, "Manzana", resp.Metadata.OriginalQuery)
	assert.Equal(t, "apple", resp.Metadata.TranslatedQuery)
	assert.True(t, resp.Metadata.WasTranslated)
	a.AssertExpectations(t)
}

func TestSearch_CleansProductTitles(t *testing.T) {
	a := mocks.NewMockProvider("a")
	a.On("SearchByText", mock.Anything, "tyson chicken breasts", 5).Return([]domain.FoodRecord{record("a", "Chicken Breast", "Tyson")}, nil)

	service := newTestService(t, nil, domain.PolicyFallback, a)
	_, err := service.Search(context.Background(), &domain.SearchRequest{Query: "Tyson Chicken Breasts, 2.5 lb", MaxResults: 5})

	require.NoError(t, err)
	a.AssertExpectations(t)
}

func TestSearch_NamedProviderMeansSingle(t *testing.T) {
	a := mocks.NewMockProvider("a")
	b := mocks.NewMockProvider("b")
	b.On("SearchByText", mock.Anything, "apple", 20).Return([]domain.FoodRecord{}, nil)

	service := newTestService(t, nil, domain.PolicyFallback, a, b)
	resp, err := service.Search(context.Background(), &domain.SearchRequest{Query: "apple", Provider: "b"})

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
	a.AssertNotCalled(t, "SearchByText", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_InvalidRequests(t *testing.T) {
	service := newTestService(t, nil, domain.PolicyFallback, mocks.NewMockProvider("a"))

	tests := []struct {
		name    string
		request *domain.SearchRequest
		wantErr error
	}{
		{"nil request", nil, domain.ErrInvalidRequest},
		{"blank query", &domain.SearchRequest{Query: "   "}, domain.ErrInvalidRequest},
		{"max results above limit", &domain.SearchRequest{Query: "apple", MaxResults: 51}, domain.ErrInvalidRequest},
		{"negative max results", &domain.SearchRequest{Query: "apple", MaxResults: -1}, domain.ErrInvalidRequest},
		{"unknown policy", &domain.SearchRequest{Query: "apple", Policy: "random"}, domain.ErrInvalidRequest},
		{"single without provider", &domain.SearchRequest{Query: "apple", Policy: domain.PolicySingle}, domain.ErrInvalidRequest},
		{"unknown provider", &domain.SearchRequest{Query: "apple", Provider: "nutritionix"}, domain.ErrUnknownProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Search(context.Background(), tt.request)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDetail(t *testing.T) {
	t.Run("named source", func(t *testing.T) {
		a := mocks.NewMockProvider("a")
		b := mocks.NewMockProvider("b")
		b.On("GetByID", mock.Anything, "171688").Return([]domain.FoodRecord{record("b", "Apple, raw", "")}, nil)

		service := newTestService(t, nil, domain.PolicyFallback, a, b)
		food, err := service.Detail(context.Background(), "171688", "b")

		require.NoError(t, err)
		assert.Equal(t, "Apple, raw", food.Name)
		a.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("falls back across providers", func(t *testing.T) {
		a := mocks.NewMockProvider("a")
		b := mocks.NewMockProvider("b")
		a.On("GetByID", mock.Anything, "3017620422003").
			Return(nil, domain.NewProviderError("a", domain.KindNotFound, errors.New("404")))
		b.On("GetByID", mock.Anything, "3017620422003").
			Return([]domain.FoodRecord{record("b", "Nutella", "Ferrero")}, nil)

		service := newTestService(t, newMemoryStore(t), domain.PolicyFallback, a, b)
		food, err := service.Detail(context.Background(), "3017620422003", "")
		require.NoError(t, err)
		assert.Equal(t, "b", food.Source)

		_, err = service.Detail(context.Background(), "3017620422003", "")
		require.NoError(t, err)
		b.AssertNumberOfCalls(t, "GetByID", 1)
	})

	t.Run("unknown everywhere is not found", func(t *testing.T) {
		a := mocks.NewMockProvider("a")
		a.On("GetByID", mock.Anything, "nope").
			Return(nil, domain.NewProviderError("a", domain.KindNotFound, errors.New("404")))

		service := newTestService(t, nil, domain.PolicyFallback, a)
		_, err := service.Detail(context.Background(), "nope", "")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty answer from named source is not found", func(t *testing.T) {
		a := mocks.NewMockProvider("a")
		a.On("GetByID", mock.Anything, "42").Return([]domain.FoodRecord{}, nil)

		service := newTestService(t, nil, domain.PolicyFallback, a)
		_, err := service.Detail(context.Background(), "42", "a")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("blank id", func(t *testing.T) {
		service := newTestService(t, nil, domain.PolicyFallback, mocks.NewMockProvider("a"))
		_, err := service.Detail(context.Background(), " ", "")

		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestBarcode(t *testing.T) {
	t.Run("only barcode providers are asked", func(t *testing.T) {
		textOnly := &mocks.MockTextProvider{ProviderName: "text"}
		b := mocks.NewMockProvider("b")
		b.On("GetByBarcode", mock.Anything, "0049000028911").
			Return([]domain.FoodRecord{record("b", "Coca-Cola", "Coca-Cola")}, nil)

		service := newTestService(t, nil, domain.PolicyAggregate, textOnly, b)
		resp, err := service.Barcode(context.Background(), "0049000028911")

		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "b", resp.Source)
		assert.Len(t, resp.Foods, 1)
	})

	t.Run("first hit wins", func(t *testing.T) {
		a := mocks.NewMockProvider("a")
		b := mocks.NewMockProvider("b")
		a.On("GetByBarcode", mock.Anything, "0049000028911").
			Return([]domain.FoodRecord{record("a", "Coca-Cola Classic", "Coca-Cola")}, nil)

		service := newTestService(t, nil, domain.PolicyFallback, a, b)
		resp, err := service.Barcode(context.Background(), "0049000028911")

		require.NoError(t, err)
		assert.Equal(t, "a", resp.Source)
		b.AssertNotCalled(t, "GetByBarcode", mock.Anything, mock.Anything)
	})

	t.Run("unknown barcode", func(t *testing.T) {
		a := mocks.NewMockProvider("a")
		a.On("GetByBarcode", mock.Anything, "00000000").Return([]domain.FoodRecord{}, nil)

		service := newTestService(t, nil, domain.PolicyFallback, a)
		_, err := service.Barcode(context.Background(), "00000000")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		service := newTestService(t, nil, domain.PolicyFallback, mocks.NewMockProvider("a"))

		for _, code := range []string{"", "abc123456", "12345", "123456789012345"} {
			_, err := service.Barcode(context.Background(), code)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest, code)
		}
	})
}

func TestProviders(t *testing.T) {
	textOnly := &mocks.MockTextProvider{ProviderName: "text"}
	full := mocks.NewMockProvider("full")

	service := newTestService(t, nil, domain.PolicyFallback, full, textOnly)
	infos := service.Providers()

	require.Len(t, infos, 2)
	assert.Equal(t, "full", infos[0].Name)
	assert.Equal(t, 0, infos[0].Priority)
	assert.Equal(t, []domain.Capability{domain.CapabilityText, domain.CapabilityID, domain.CapabilityBarcode}, infos[0].Capabilities)
	assert.Equal(t, []domain.Capability{domain.CapabilityText}, infos[1].Capabilities)
	assert.Equal(t, "1s", infos[1].Timeout)
}

func TestNormalizeForCacheKey(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"Greek Yogurt", "greek yogurt"},
		{"  GREEK   yogurt ", "greek yogurt"},
		{"Piña Colada!", "pina colada"},
		{"Яблоко", "яблоко"},
		{"Молоко 2,5%", "молоко 2 5"},
		{"牛奶", "牛奶"},
		{"?!", "?!"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := normalizeForCacheKey(tc.input); got != tc.want {
				t.Errorf("normalizeForCacheKey(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
