package usda

import (
	"strconv"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/nutrients"
)

// FoodData Central reports search and detail nutrients per 100 g for every
// data type, including Branded (label values are rescaled by USDA).

// MapSearchFood converts a search hit to a FoodRecord
func MapSearchFood(f *SearchFood) domain.FoodRecord {
	b := nutrients.NewBuilder(domain.BasisPer100g)
	for _, n := range f.Nutrients {
		if n.Value == nil {
			continue
		}
		addConverted(b, n.NutrientID, *n.Value, n.UnitName)
	}

	id := strconv.Itoa(f.FdcID)
	return domain.FoodRecord{
		ID:          id,
		Source:      ProviderName,
		Name:        f.Description,
		Brand:       brand(f.BrandName, f.BrandOwner),
		Barcode:     f.GtinUpc,
		Nutrients:   b.Set(),
		ServingSize: f.ServingSize,
		ServingUnit: f.ServingSizeUnit,
		Score:       f.Score,
		DetailRef:   "/v1/food/" + id,
	}
}

// MapDetailFood converts a detail response to a FoodRecord
func MapDetailFood(f *FoodDetail) domain.FoodRecord {
	b := nutrients.NewBuilder(domain.BasisPer100g)
	for _, n := range f.Nutrients {
		if n.Amount == nil {
			continue
		}
		addConverted(b, n.Nutrient.ID, *n.Amount, n.Nutrient.UnitName)
	}

	id := strconv.Itoa(f.FdcID)
	return domain.FoodRecord{
		ID:          id,
		Source:      ProviderName,
		Name:        f.Description,
		Brand:       brand(f.BrandName, f.BrandOwner),
		Barcode:     f.GtinUpc,
		Nutrients:   b.Set(),
		ServingSize: f.ServingSize,
		ServingUnit: f.ServingSizeUnit,
		DetailRef:   "/v1/food/" + id,
	}
}

func addConverted(b *nutrients.Builder, id int, value float64, unit string) {
	key, ok := nutrients.USDANutrientIDs[id]
	if !ok {
		return
	}
	if v, ok := nutrients.FromUnit(key, value, unit); ok {
		b.AddID(id, v)
	}
}

func brand(name, owner string) string {
	if name != "" {
		return name
	}
	return owner
}
