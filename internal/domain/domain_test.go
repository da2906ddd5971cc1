package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textOnly struct{ name string }

func (p textOnly) Name() string { return p.name }
func (p textOnly) SearchByText(ctx context.Context, query string, maxResults int) ([]FoodRecord, error) {
	return nil, nil
}

type everything struct{ textOnly }

func (p everything) GetByID(ctx context.Context, id string) ([]FoodRecord, error) {
	return nil, nil
}
func (p everything) GetByBarcode(ctx context.Context, code string) ([]FoodRecord, error) {
	return nil, nil
}

func TestNutrientSetJSON(t *testing.T) {
	var set NutrientSet
	set.Set(NutrientCalories, 52)
	set.Set(NutrientProtein, 0)
	set.Set(NutrientSodium, 1)
	set.Basis = BasisPer100g

	data, err := json.Marshal(set)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 52.0, raw["calories"])
	assert.Equal(t, 0.0, raw["protein"], "a measured zero is kept")
	assert.NotContains(t, raw, "fat", "absent macros are omitted")
	assert.Equal(t, 1.0, raw["sodium"])
	assert.Equal(t, "per_100g", raw["basis"])

	var decoded NutrientSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, set, decoded)
}

func TestNutrientSetUnmarshal_BadValue(t *testing.T) {
	var set NutrientSet
	err := json.Unmarshal([]byte(`{"calories":"lots","basis":"per_100g"}`), &set)
	assert.ErrorContains(t, err, "nutrients.calories")
}

func TestFoodRecordJSON_TopLevelBasis(t *testing.T) {
	r := FoodRecord{ID: "1", Source: "usda", Name: "Apple", Nutrients: NutrientSet{Basis: BasisPerServing}}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "per_serving", raw["basis"])
	assert.NotContains(t, raw, "brand")
}

func TestDedupKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  FoodRecord
		equal bool
	}{
		{"case and spacing", FoodRecord{Name: "Apple  Pie "}, FoodRecord{Name: "apple pie"}, true},
		{"accents", FoodRecord{Name: "Piña", Brand: "Nestlé"}, FoodRecord{Name: "pina", Brand: "NESTLE"}, true},
		{"brand differs", FoodRecord{Name: "Cola", Brand: "A"}, FoodRecord{Name: "Cola", Brand: "B"}, false},
		{"name and brand do not bleed", FoodRecord{Name: "ab", Brand: "c"}, FoodRecord{Name: "a", Brand: "bc"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.DedupKey() == tt.b.DedupKey())
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "jamon serrano", Fold("Jamón Serrano"))
	assert.Equal(t, "pina", Fold("PIÑA"))
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, []Capability{CapabilityText}, Capabilities(textOnly{"a"}))
	assert.Equal(t, []Capability{CapabilityText, CapabilityID, CapabilityBarcode}, Capabilities(everything{textOnly{"b"}}))
	assert.False(t, Supports(textOnly{"a"}, CapabilityBarcode))
}

func TestRegistry(t *testing.T) {
	registry, err := NewRegistry(
		RegistryEntry{Provider: textOnly{"usda"}},
		RegistryEntry{Provider: everything{textOnly{"off"}}, Timeout: 2e9},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"usda", "off"}, registry.Names())
	assert.Equal(t, 2, registry.Len())

	usda, ok := registry.Get("usda")
	require.True(t, ok)
	assert.Equal(t, DefaultProviderTimeout, usda.Timeout)
	assert.Equal(t, 0, usda.Priority)

	barcode := registry.Eligible(CapabilityBarcode)
	require.Len(t, barcode, 1)
	assert.Equal(t, "off", barcode[0].Provider.Name())
	assert.NotEqual(t, registry.Fingerprint(CapabilityText), registry.Fingerprint(CapabilityBarcode))

	_, err = NewRegistry(RegistryEntry{Provider: textOnly{"x"}}, RegistryEntry{Provider: textOnly{"x"}})
	assert.Error(t, err)
}

func TestProviderErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewProviderError("usda", KindRateLimited, errors.New("slow down")))

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrNotFound)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "usda", perr.Provider)
}

func TestExhaustedError(t *testing.T) {
	notFound := &ExhaustedError{Failures: []*ProviderError{
		NewProviderError("a", KindNotFound, errors.New("no")),
		NewProviderError("b", KindNotFound, errors.New("no")),
	}}
	assert.ErrorIs(t, notFound, ErrAllProvidersExhausted)
	assert.ErrorIs(t, notFound, ErrNotFound)

	mixed := &ExhaustedError{Failures: []*ProviderError{
		NewProviderError("a", KindNotFound, errors.New("no")),
		NewProviderError("b", KindTimeout, errors.New("slow")),
	}}
	assert.ErrorIs(t, mixed, ErrAllProvidersExhausted)
	assert.NotErrorIs(t, mixed, ErrNotFound)

	empty := &ExhaustedError{}
	assert.NotErrorIs(t, empty, ErrNotFound)
	assert.Contains(t, empty.Error(), "no eligible providers")
}
