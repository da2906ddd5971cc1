package fatsecret

import (
	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/nutrients"
)

// mapSearchFood reads nutrients out of the food_description summary
func mapSearchFood(f searchFood) domain.FoodRecord {
	desc, _ := nutrients.ParseDescription(f.FoodDescription)
	return domain.FoodRecord{
		ID:          f.FoodID,
		Source:      ProviderName,
		Name:        f.FoodName,
		Brand:       f.BrandName,
		Nutrients:   desc.Nutrients,
		ServingSize: desc.ServingSize,
		ServingUnit: desc.ServingUnit,
		DetailRef:   f.FoodID,
	}
}

// mapDetailFood normalizes to per 100 g using the first serving with a
// metric weight; without one the first serving is reported per serving.
func mapDetailFood(f detailFood) domain.FoodRecord {
	record := domain.FoodRecord{
		ID:        f.FoodID,
		Source:    ProviderName,
		Name:      f.FoodName,
		Brand:     f.BrandName,
		DetailRef: f.FoodID,
		Nutrients: domain.NutrientSet{Basis: domain.BasisPerServing},
	}
	if len(f.Servings.Serving) == 0 {
		return record
	}

	chosen := f.Servings.Serving[0]
	grams, metric := 0.0, false
	for _, s := range f.Servings.Serving {
		amount, ok := nutrients.ParseNumber(s.MetricServingAmount)
		if !ok {
			continue
		}
		if g, ok := nutrients.ServingGrams(amount, s.MetricServingUnit); ok {
			chosen, grams, metric = s, g, true
			break
		}
	}

	b := nutrients.NewBuilder(domain.BasisPerServing)
	for field, value := range chosen.fields() {
		b.AddString(nutrients.FatSecretFields, field, value)
	}
	set := b.Set()

	if metric {
		record.Nutrients, _ = nutrients.ToPer100g(set, grams)
		record.ServingSize = grams
		record.ServingUnit = "g"
		return record
	}
	record.Nutrients = set
	record.ServingSize = 1
	record.ServingUnit = chosen.ServingDescription
	return record
}
