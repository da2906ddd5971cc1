// Package edamam adapts the Edamam Food Database API (parser and nutrients
// endpoints) to the canonical food schema.
package edamam

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/nutrients"
	"github.com/macrolens/foodengine/internal/infrastructure/upstream"
)

const (
	// ProviderName is the source tag for Edamam records
	ProviderName = "edamam"

	// DefaultBaseURL is the public Edamam endpoint
	DefaultBaseURL = "https://api.edamam.com"

	gramMeasureURI = "http://www.edamam.com/ontologies/edamam.owl#Measure_gram"
)

// Client talks to the Edamam Food Database. It supports text search, detail
// by food id and UPC barcode lookup.
type Client struct {
	http    *upstream.Client
	appID   string
	appKey  string
	baseURL string
	debug   bool
}

// NewClient creates an Edamam client
func NewClient(appID, appKey, baseURL string, opts upstream.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    upstream.NewClient(ProviderName, opts),
		appID:   appID,
		appKey:  appKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SetDebug enables verbose logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
	c.http.SetDebug(debug)
}

// Name implements domain.Provider
func (c *Client) Name() string {
	return ProviderName
}

type parserFood struct {
	FoodID    string             `json:"foodId"`
	Label     string             `json:"label"`
	KnownAs   string             `json:"knownAs"`
	Brand     string             `json:"brand"`
	Category  string             `json:"category"`
	Nutrients map[string]float64 `json:"nutrients"`
}

type parserResponse struct {
	Text   string `json:"text"`
	Parsed []struct {
		Food parserFood `json:"food"`
	} `json:"parsed"`
	Hints *[]struct {
		Food parserFood `json:"food"`
	} `json:"hints"`
}

type nutrientsResponse struct {
	Ingredients []struct {
		Parsed []struct {
			Food         string `json:"food"`
			FoodID       string `json:"foodId"`
			FoodCategory string `json:"foodCategory,omitempty"`
		} `json:"parsed"`
	} `json:"ingredients"`
	TotalNutrients map[string]struct {
		Label    string   `json:"label"`
		Quantity *float64 `json:"quantity"`
		Unit     string   `json:"unit"`
	} `json:"totalNutrients"`
}

// SearchByText calls the parser endpoint with an ingredient query
func (c *Client) SearchByText(ctx context.Context, query string, maxResults int) ([]domain.FoodRecord, error) {
	params := c.authParams()
	params.Set("ingr", query)
	params.Set("nutrition-type", "logging")
	return c.parse(ctx, params, maxResults)
}

// GetByBarcode calls the parser endpoint with a UPC/EAN code
func (c *Client) GetByBarcode(ctx context.Context, code string) ([]domain.FoodRecord, error) {
	params := c.authParams()
	params.Set("upc", code)
	records, err := c.parse(ctx, params, 1)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Barcode = code
	}
	return records, nil
}

// GetByID asks the nutrients endpoint for 100 g of the food
func (c *Client) GetByID(ctx context.Context, foodID string) ([]domain.FoodRecord, error) {
	payload := map[string]interface{}{
		"ingredients": []map[string]interface{}{
			{
				"quantity":   100,
				"measureURI": gramMeasureURI,
				"foodId":     foodID,
			},
		},
	}
	reqURL := fmt.Sprintf("%s/api/food-database/v2/nutrients?%s", c.baseURL, c.authParams().Encode())

	var nr nutrientsResponse
	if err := c.http.PostJSON(ctx, reqURL, nil, payload, &nr); err != nil {
		return nil, err
	}
	if nr.TotalNutrients == nil {
		return nil, domain.NewProviderError(ProviderName, domain.KindSchemaError, fmt.Errorf("response has no totalNutrients"))
	}

	b := nutrients.NewBuilder(domain.BasisPer100g)
	for code, n := range nr.TotalNutrients {
		key, ok := nutrients.EdamamCodes[code]
		if !ok || n.Quantity == nil {
			continue
		}
		if v, ok := nutrients.FromUnit(key, *n.Quantity, n.Unit); ok {
			b.Add(nutrients.EdamamCodes, code, v)
		}
	}

	record := domain.FoodRecord{
		ID:          foodID,
		Source:      ProviderName,
		Nutrients:   b.Set(),
		ServingSize: 100,
		ServingUnit: "g",
		DetailRef:   foodID,
	}
	if len(nr.Ingredients) > 0 && len(nr.Ingredients[0].Parsed) > 0 {
		record.Name = nr.Ingredients[0].Parsed[0].Food
	}
	if record.Name == "" {
		return nil, domain.NewProviderError(ProviderName, domain.KindNotFound, fmt.Errorf("food %q not recognized", foodID))
	}
	return []domain.FoodRecord{record}, nil
}

func (c *Client) authParams() url.Values {
	params := url.Values{}
	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)
	return params
}

func (c *Client) parse(ctx context.Context, params url.Values, maxResults int) ([]domain.FoodRecord, error) {
	reqURL := fmt.Sprintf("%s/api/food-database/v2/parser?%s", c.baseURL, params.Encode())

	var pr parserResponse
	if err := c.http.GetJSON(ctx, reqURL, nil, &pr); err != nil {
		return nil, err
	}
	if pr.Hints == nil {
		return nil, domain.NewProviderError(ProviderName, domain.KindSchemaError, fmt.Errorf("response has no hints array"))
	}

	// parsed holds the exact match, hints the ranked candidates; the exact
	// match usually repeats as the first hint.
	foods := make([]parserFood, 0, len(pr.Parsed)+len(*pr.Hints))
	for _, p := range pr.Parsed {
		foods = append(foods, p.Food)
	}
	for _, h := range *pr.Hints {
		foods = append(foods, h.Food)
	}

	seen := make(map[string]bool, len(foods))
	records := make([]domain.FoodRecord, 0, len(foods))
	for _, f := range foods {
		if f.FoodID == "" || seen[f.FoodID] {
			continue
		}
		seen[f.FoodID] = true
		records = append(records, mapFood(f))
		if maxResults > 0 && len(records) == maxResults {
			break
		}
	}

	if c.debug {
		log.Printf("[EDAMAM] parser returned %d foods", len(records))
	}
	return records, nil
}

func mapFood(f parserFood) domain.FoodRecord {
	b := nutrients.NewBuilder(domain.BasisPer100g)
	for code, v := range f.Nutrients {
		b.Add(nutrients.EdamamCodes, code, v)
	}
	name := f.Label
	if name == "" {
		name = f.KnownAs
	}
	return domain.FoodRecord{
		ID:        f.FoodID,
		Source:    ProviderName,
		Name:      name,
		Brand:     f.Brand,
		Nutrients: b.Set(),
		DetailRef: f.FoodID,
	}
}
