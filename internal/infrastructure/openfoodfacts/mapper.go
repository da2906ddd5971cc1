package openfoodfacts

import (
	"strings"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/nutrients"
)

// numeric accepts the numbers and numeric strings OFF mixes freely
type numeric struct {
	value float64
	ok    bool
}

func (n *numeric) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n.value, n.ok = nutrients.ParseNumber(s)
	return nil
}

type product struct {
	Code            string             `json:"code"`
	ProductName     string             `json:"product_name"`
	GenericName     string             `json:"generic_name"`
	Brands          string             `json:"brands"`
	ServingQuantity numeric            `json:"serving_quantity"`
	ServingSize     string             `json:"serving_size"`
	Nutriments      map[string]numeric `json:"nutriments"`
}

type searchResponse struct {
	Count    int       `json:"count"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Products []product `json:"products"`
}

type productResponse struct {
	Code          string   `json:"code"`
	Status        int      `json:"status"`
	StatusVerbose string   `json:"status_verbose"`
	Product       *product `json:"product"`
}

// mapProduct prefers the _100g values. Products that only carry _serving
// values are rescaled with serving_quantity, or kept per serving when the
// serving weight is unknown.
func mapProduct(p product) domain.FoodRecord {
	record := domain.FoodRecord{
		ID:        p.Code,
		Source:    ProviderName,
		Name:      p.ProductName,
		Brand:     firstBrand(p.Brands),
		Barcode:   p.Code,
		DetailRef: p.Code,
	}
	if record.Name == "" {
		record.Name = p.GenericName
	}

	if set := collect(p.Nutriments, "_100g", domain.BasisPer100g); !set.IsEmpty() {
		record.Nutrients = set
		record.ServingSize = 100
		record.ServingUnit = "g"
		return record
	}

	set := collect(p.Nutriments, "_serving", domain.BasisPerServing)
	record.Nutrients = set
	record.ServingSize = 1
	record.ServingUnit = p.ServingSize
	if p.ServingQuantity.ok && p.ServingQuantity.value > 0 && !set.IsEmpty() {
		record.Nutrients, _ = nutrients.ToPer100g(set, p.ServingQuantity.value)
		record.ServingSize = p.ServingQuantity.value
		record.ServingUnit = "g"
	}
	return record
}

// collect reads the nutriments with the given suffix. Values are reported in
// grams except energy, which falls back to kJ when kcal is missing.
func collect(nutriments map[string]numeric, suffix string, basis domain.Basis) domain.NutrientSet {
	set := domain.NutrientSet{Basis: basis}
	for base, key := range nutrients.OpenFoodFactsKeys {
		n, ok := nutriments[base+suffix]
		if !ok || !n.ok {
			continue
		}
		unit := "g"
		if key == domain.NutrientCalories {
			unit = "kcal"
		}
		if v, ok := nutrients.FromUnit(key, n.value, unit); ok {
			set.Set(key, v)
		}
	}
	if set.Calories == nil {
		if n, ok := nutriments["energy"+suffix]; ok && n.ok {
			if v, ok := nutrients.FromUnit(domain.NutrientCalories, n.value, "kj"); ok {
				set.Set(domain.NutrientCalories, v)
			}
		}
	}
	return set
}

func firstBrand(brands string) string {
	first, _, _ := strings.Cut(brands, ",")
	return strings.TrimSpace(first)
}
