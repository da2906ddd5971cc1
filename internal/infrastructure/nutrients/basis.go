package nutrients

import (
	"strings"

	"github.com/macrolens/foodengine/internal/domain"
)

// gramUnits are serving units that can be converted to a per 100 g basis
var gramUnits = map[string]float64{
	"g":     1,
	"gr":    1,
	"grm":   1,
	"gram":  1,
	"grams": 1,
	"kg":    1000,
	"mg":    0.001,
	// volumes converted 1:1 assuming water-like density
	"ml": 1,
	"l":  1000,
}

// ServingGrams converts a serving amount and unit to grams
func ServingGrams(amount float64, unit string) (float64, bool) {
	factor, ok := gramUnits[strings.ToLower(strings.TrimSpace(unit))]
	if !ok || amount <= 0 {
		return 0, false
	}
	return amount * factor, true
}

// ToPer100g rescales a per-serving set to per 100 g using the serving
// weight in grams. It refuses, returning the set unchanged and ok=false,
// when the set is not per serving or servingGrams is not positive.
func ToPer100g(set domain.NutrientSet, servingGrams float64) (domain.NutrientSet, bool) {
	if set.Basis != domain.BasisPerServing || servingGrams <= 0 {
		return set, false
	}
	return scale(set, 100/servingGrams, domain.BasisPer100g), true
}

func scale(set domain.NutrientSet, factor float64, basis domain.Basis) domain.NutrientSet {
	out := domain.NutrientSet{Basis: basis}
	out.Calories = scalePtr(set.Calories, factor)
	out.Protein = scalePtr(set.Protein, factor)
	out.Carbs = scalePtr(set.Carbs, factor)
	out.Fat = scalePtr(set.Fat, factor)
	if len(set.Other) > 0 {
		out.Other = make(map[string]float64, len(set.Other))
		for k, v := range set.Other {
			out.Other[k] = v * factor
		}
	}
	return out
}

func scalePtr(p *float64, factor float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p * factor
	return &v
}
