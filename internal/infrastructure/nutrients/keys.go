// Package nutrients holds the mapping and unit logic shared by every
// provider adapter: per-schema nutrient key tables, basis conversion and the
// text-blob parser. Absent values stay absent; nothing here substitutes zero.
package nutrients

import (
	"math"
	"strconv"
	"strings"

	"github.com/macrolens/foodengine/internal/domain"
)

// USDA FoodData Central nutrient ids
var USDANutrientIDs = map[int]string{
	1008: domain.NutrientCalories, // Energy (kcal)
	1003: domain.NutrientProtein,
	1005: domain.NutrientCarbs, // Carbohydrate, by difference
	1004: domain.NutrientFat,   // Total lipid (fat)
	1079: domain.NutrientFiber,
	2000: domain.NutrientSugar,
	1093: domain.NutrientSodium,
	1258: domain.NutrientSaturatedFat,
	1257: domain.NutrientTransFat,
	1253: domain.NutrientCholesterol,
	1092: domain.NutrientPotassium,
	1087: domain.NutrientCalcium,
	1089: domain.NutrientIron,
}

// Edamam nutrient codes
var EdamamCodes = map[string]string{
	"ENERC_KCAL": domain.NutrientCalories,
	"PROCNT":     domain.NutrientProtein,
	"CHOCDF":     domain.NutrientCarbs,
	"FAT":        domain.NutrientFat,
	"FIBTG":      domain.NutrientFiber,
	"SUGAR":      domain.NutrientSugar,
	"NA":         domain.NutrientSodium,
	"FASAT":      domain.NutrientSaturatedFat,
	"FATRN":      domain.NutrientTransFat,
	"CHOLE":      domain.NutrientCholesterol,
	"K":          domain.NutrientPotassium,
	"CA":         domain.NutrientCalcium,
	"FE":         domain.NutrientIron,
}

// OpenFoodFactsKeys maps nutriment base names (without the _100g or
// _serving suffix) to canonical keys.
var OpenFoodFactsKeys = map[string]string{
	"energy-kcal":   domain.NutrientCalories,
	"proteins":      domain.NutrientProtein,
	"carbohydrates": domain.NutrientCarbs,
	"fat":           domain.NutrientFat,
	"fiber":         domain.NutrientFiber,
	"sugars":        domain.NutrientSugar,
	"sodium":        domain.NutrientSodium,
	"saturated-fat": domain.NutrientSaturatedFat,
	"trans-fat":     domain.NutrientTransFat,
	"cholesterol":   domain.NutrientCholesterol,
	"potassium":     domain.NutrientPotassium,
	"calcium":       domain.NutrientCalcium,
	"iron":          domain.NutrientIron,
	"salt":          domain.NutrientSalt,
}

// FatSecretFields maps FatSecret serving fields to canonical keys
var FatSecretFields = map[string]string{
	"calories":      domain.NutrientCalories,
	"protein":       domain.NutrientProtein,
	"carbohydrate":  domain.NutrientCarbs,
	"fat":           domain.NutrientFat,
	"fiber":         domain.NutrientFiber,
	"sugar":         domain.NutrientSugar,
	"sodium":        domain.NutrientSodium,
	"saturated_fat": domain.NutrientSaturatedFat,
	"trans_fat":     domain.NutrientTransFat,
	"cholesterol":   domain.NutrientCholesterol,
	"potassium":     domain.NutrientPotassium,
	"calcium":       domain.NutrientCalcium,
	"iron":          domain.NutrientIron,
}

// descriptionLabels maps labels found in delimited nutrient blobs
var descriptionLabels = map[string]string{
	"calories":      domain.NutrientCalories,
	"energy":        domain.NutrientCalories,
	"fat":           domain.NutrientFat,
	"total fat":     domain.NutrientFat,
	"carbs":         domain.NutrientCarbs,
	"carbohydrate":  domain.NutrientCarbs,
	"carbohydrates": domain.NutrientCarbs,
	"protein":       domain.NutrientProtein,
	"fiber":         domain.NutrientFiber,
	"sugar":         domain.NutrientSugar,
	"sodium":        domain.NutrientSodium,
}

// Builder accumulates nutrient values for one record through a key table.
// Keys missing from the table are ignored.
type Builder struct {
	set domain.NutrientSet
}

// NewBuilder starts a set on the given basis
func NewBuilder(basis domain.Basis) *Builder {
	return &Builder{set: domain.NutrientSet{Basis: basis}}
}

// Add stores value under the canonical key, if key is known
func (b *Builder) Add(table map[string]string, key string, value float64) {
	if canonical, ok := table[key]; ok {
		b.set.Set(canonical, value)
	}
}

// AddID stores value for a USDA nutrient id
func (b *Builder) AddID(id int, value float64) {
	if canonical, ok := USDANutrientIDs[id]; ok {
		b.set.Set(canonical, value)
	}
}

// AddString parses value and stores it; unparsable input leaves the
// nutrient absent.
func (b *Builder) AddString(table map[string]string, key, value string) {
	if f, ok := ParseNumber(value); ok {
		b.Add(table, key, f)
	}
}

// Set returns the accumulated set
func (b *Builder) Set() domain.NutrientSet {
	return b.set
}

// ParseNumber parses a provider numeric string. Empty, malformed and
// non-finite input ("NaN", "Inf") reports ok=false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
