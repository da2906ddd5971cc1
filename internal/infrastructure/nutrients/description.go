package nutrients

import (
	"regexp"
	"strings"

	"github.com/macrolens/foodengine/internal/domain"
)

// Canonical units: calories in kcal, minerals and cholesterol in mg,
// everything else in g.
var milligramNutrients = map[string]bool{
	domain.NutrientSodium:      true,
	domain.NutrientCholesterol: true,
	domain.NutrientPotassium:   true,
	domain.NutrientCalcium:     true,
	domain.NutrientIron:        true,
}

// FromUnit converts value, reported in unit, into the canonical unit for
// key. ok is false for units that cannot be reconciled with the key.
func FromUnit(key string, value float64, unit string) (float64, bool) {
	unit = strings.ToLower(strings.TrimSpace(unit))
	if key == domain.NutrientCalories {
		switch unit {
		case "", "kcal", "cal":
			return value, true
		case "kj":
			return value / 4.184, true
		}
		return 0, false
	}
	var grams float64
	switch unit {
	case "", "g":
		grams = value
		if unit == "" && milligramNutrients[key] {
			return value, true
		}
	case "mg":
		grams = value / 1000
	case "mcg", "µg", "ug":
		grams = value / 1e6
	default:
		return 0, false
	}
	if milligramNutrients[key] {
		return grams * 1000, true
	}
	return grams, true
}

// Description is the parsed form of a delimited nutrient blob
type Description struct {
	Nutrients   domain.NutrientSet
	ServingSize float64
	ServingUnit string
}

var (
	descriptionHeader = regexp.MustCompile(`(?i)^per\s+(\d+(?:\.\d+)?)\s*([a-z][a-z ]*)?$`)
	descriptionField  = regexp.MustCompile(`(?i)^([a-z][a-z ]*?)\s*:\s*(-?\d+(?:\.\d+)?)\s*([a-zµ]*)$`)
)

// ParseDescription parses a nutrient summary of the form
//
//	Per <amount><unit> - <Label>: <number><unit> | <Label>: <number><unit> ...
//
// e.g. "Per 100g - Calories: 52kcal | Fat: 0.17g | Carbs: 13.81g | Protein: 0.26g".
// A gram-based header yields a per 100 g set; any other serving yields a per
// serving set. Fields that fail to parse stay absent. ok is false when the
// header cannot be parsed, in which case the returned set is empty and per
// serving.
func ParseDescription(blob string) (Description, bool) {
	empty := Description{Nutrients: domain.NutrientSet{Basis: domain.BasisPerServing}}

	head, body, found := strings.Cut(blob, " - ")
	if !found {
		return empty, false
	}
	m := descriptionHeader.FindStringSubmatch(strings.TrimSpace(head))
	if m == nil {
		return empty, false
	}
	amount, ok := ParseNumber(m[1])
	if !ok {
		return empty, false
	}
	unit := strings.TrimSpace(m[2])

	set := domain.NutrientSet{Basis: domain.BasisPerServing}
	for _, field := range strings.Split(body, "|") {
		fm := descriptionField.FindStringSubmatch(strings.TrimSpace(field))
		if fm == nil {
			continue
		}
		key, known := descriptionLabels[strings.ToLower(fm[1])]
		if !known {
			continue
		}
		v, ok := ParseNumber(fm[2])
		if !ok {
			continue
		}
		if v, ok = FromUnit(key, v, fm[3]); ok {
			set.Set(key, v)
		}
	}

	desc := Description{Nutrients: set, ServingSize: amount, ServingUnit: unit}
	if grams, ok := ServingGrams(amount, unit); ok {
		desc.Nutrients, _ = ToPer100g(set, grams)
	}
	return desc, true
}
