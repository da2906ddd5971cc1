package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Basis is the measurement reference a NutrientSet is expressed in
type Basis string

const (
	BasisPer100g    Basis = "per_100g"
	BasisPerServing Basis = "per_serving"
)

// Canonical nutrient keys. The four macros live in dedicated fields of
// NutrientSet, everything else is keyed into NutrientSet.Other.
const (
	NutrientCalories     = "calories"
	NutrientProtein      = "protein"
	NutrientCarbs        = "carbs"
	NutrientFat          = "fat"
	NutrientFiber        = "fiber"
	NutrientSugar        = "sugar"
	NutrientSodium       = "sodium"
	NutrientSaturatedFat = "saturated_fat"
	NutrientTransFat     = "trans_fat"
	NutrientCholesterol  = "cholesterol"
	NutrientPotassium    = "potassium"
	NutrientCalcium      = "calcium"
	NutrientIron         = "iron"
	NutrientSalt         = "salt"
)

// NutrientSet holds nutrient values for one food. A nil macro means the
// provider did not report it; zero is a measured value.
// On the wire the secondary nutrients sit next to the macros in one object.
type NutrientSet struct {
	Calories *float64 // kcal
	Protein  *float64 // grams
	Carbs    *float64 // grams
	Fat      *float64 // grams
	Other    map[string]float64
	Basis    Basis
}

// MarshalJSON flattens the set into {calories?, protein?, ..., basis}
func (n NutrientSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(n.Other)+5)
	for k, v := range n.Other {
		out[k] = v
	}
	for key, p := range map[string]*float64{
		NutrientCalories: n.Calories,
		NutrientProtein:  n.Protein,
		NutrientCarbs:    n.Carbs,
		NutrientFat:      n.Fat,
	} {
		if p != nil {
			out[key] = *p
		}
	}
	out["basis"] = n.Basis
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON
func (n *NutrientSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = NutrientSet{}
	for k, v := range raw {
		if k == "basis" {
			if err := json.Unmarshal(v, &n.Basis); err != nil {
				return fmt.Errorf("nutrients.basis: %w", err)
			}
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("nutrients.%s: %w", k, err)
		}
		n.Set(k, f)
	}
	return nil
}

// Get returns the value stored under a canonical key
func (n NutrientSet) Get(key string) (float64, bool) {
	var p *float64
	switch key {
	case NutrientCalories:
		p = n.Calories
	case NutrientProtein:
		p = n.Protein
	case NutrientCarbs:
		p = n.Carbs
	case NutrientFat:
		p = n.Fat
	default:
		v, ok := n.Other[key]
		return v, ok
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Set stores a value under a canonical key
func (n *NutrientSet) Set(key string, value float64) {
	v := value
	switch key {
	case NutrientCalories:
		n.Calories = &v
	case NutrientProtein:
		n.Protein = &v
	case NutrientCarbs:
		n.Carbs = &v
	case NutrientFat:
		n.Fat = &v
	default:
		if n.Other == nil {
			n.Other = make(map[string]float64)
		}
		n.Other[key] = v
	}
}

// IsEmpty reports whether no nutrient at all is present
func (n NutrientSet) IsEmpty() bool {
	return n.Calories == nil && n.Protein == nil && n.Carbs == nil && n.Fat == nil && len(n.Other) == 0
}

// FoodRecord is the provider-agnostic food shape every adapter produces.
// ID is unique only within Source.
type FoodRecord struct {
	ID          string      `json:"id"`
	Source      string      `json:"source"`
	Name        string      `json:"name"`
	Brand       string      `json:"brand,omitempty"`
	Barcode     string      `json:"barcode,omitempty"`
	Nutrients   NutrientSet `json:"nutrients"`
	ServingSize float64     `json:"servingSize,omitempty"`
	ServingUnit string      `json:"servingUnit,omitempty"`
	Score       *float64    `json:"score,omitempty"`
	DetailRef   string      `json:"detailRef,omitempty"`
}

// MarshalJSON adds the nutrient basis at the top level of the record
func (r FoodRecord) MarshalJSON() ([]byte, error) {
	type alias FoodRecord
	return json.Marshal(struct {
		alias
		Basis Basis `json:"basis"`
	}{alias(r), r.Nutrients.Basis})
}

// DedupKey returns the cross-source identity of a record: lower-cased,
// accent-folded name and brand with surrounding and repeated whitespace
// removed.
func (r FoodRecord) DedupKey() string {
	return normalizeKeyPart(r.Name) + "\x00" + normalizeKeyPart(r.Brand)
}

func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(Fold(s)), " ")
}

// Query is the preprocessed form of a free-text search. It is built once per
// request and never modified.
type Query struct {
	RawText          string `json:"rawText"`
	DetectedLanguage string `json:"detectedLanguage"`
	TranslatedText   string `json:"translatedText"`
	WasTranslated    bool   `json:"wasTranslated"`
}

// ProviderResult is the outcome of one adapter invocation
type ProviderResult struct {
	Source  string
	Records []FoodRecord
	Err     *ProviderError
	Latency time.Duration
}

// SearchRequest represents a text search request
type SearchRequest struct {
	Query      string `json:"query" binding:"required"`
	MaxResults int    `json:"maxResults,omitempty"`
	UseCache   *bool  `json:"useCache,omitempty"`
	Policy     Policy `json:"policy,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

// SearchMetadata describes how a search result was produced
type SearchMetadata struct {
	OriginalQuery   string   `json:"originalQuery"`
	TranslatedQuery string   `json:"translatedQuery"`
	WasTranslated   bool     `json:"wasTranslated"`
	SourcesUsed     []string `json:"sourcesUsed"`
	SourcesFailed   []string `json:"sourcesFailed"`
	ElapsedTime     string   `json:"elapsedTime"`
	Cached          bool     `json:"cached"`
}

// SearchResponse is the output of a text search
type SearchResponse struct {
	Results  []FoodRecord   `json:"results"`
	Metadata SearchMetadata `json:"metadata"`
}

// BarcodeResponse is the output of a barcode lookup
type BarcodeResponse struct {
	Success bool         `json:"success"`
	Source  string       `json:"source"`
	Foods   []FoodRecord `json:"foods"`
}
