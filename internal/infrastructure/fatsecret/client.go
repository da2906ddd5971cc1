// Package fatsecret adapts the FatSecret Platform REST API. Token
// acquisition happens elsewhere; the client is handed a bearer token.
package fatsecret

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/upstream"
)

const (
	// ProviderName is the source tag for FatSecret records
	ProviderName = "fatsecret"

	// DefaultBaseURL is the method-style REST endpoint
	DefaultBaseURL = "https://platform.fatsecret.com/rest/server.api"
)

// Client talks to FatSecret. It supports text search, detail by food id and
// barcode lookup.
type Client struct {
	http    *upstream.Client
	token   string
	baseURL string
	debug   bool
}

// NewClient creates a FatSecret client
func NewClient(token, baseURL string, opts upstream.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    upstream.NewClient(ProviderName, opts),
		token:   token,
		baseURL: baseURL,
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

// SearchByText calls foods.search
func (c *Client) SearchByText(ctx context.Context, query string, maxResults int) ([]domain.FoodRecord, error) {
	if maxResults <= 0 || maxResults > 50 {
		maxResults = 50
	}
	params := url.Values{}
	params.Set("method", "foods.search")
	params.Set("search_expression", query)
	params.Set("max_results", strconv.Itoa(maxResults))

	var resp searchResponse
	if err := c.call(ctx, params, &resp, &resp.Error); err != nil {
		return nil, err
	}
	if resp.Foods == nil {
		return nil, domain.NewProviderError(ProviderName, domain.KindSchemaError, fmt.Errorf("response has no foods object"))
	}

	records := make([]domain.FoodRecord, 0, len(resp.Foods.Food))
	for _, f := range resp.Foods.Food {
		records = append(records, mapSearchFood(f))
	}
	if c.debug {
		log.Printf("[FATSECRET] foods.search returned %d foods for %q", len(records), query)
	}
	return records, nil
}

// GetByID calls food.get
func (c *Client) GetByID(ctx context.Context, foodID string) ([]domain.FoodRecord, error) {
	if _, err := strconv.ParseInt(foodID, 10, 64); err != nil {
		return nil, domain.NewProviderError(ProviderName, domain.KindNotFound, fmt.Errorf("invalid food id %q", foodID))
	}
	params := url.Values{}
	params.Set("method", "food.get.v4")
	params.Set("food_id", foodID)

	var resp foodGetResponse
	if err := c.call(ctx, params, &resp, &resp.Error); err != nil {
		return nil, err
	}
	if resp.Food == nil || resp.Food.FoodID == "" {
		return nil, domain.NewProviderError(ProviderName, domain.KindSchemaError, fmt.Errorf("response has no food object"))
	}
	return []domain.FoodRecord{mapDetailFood(*resp.Food)}, nil
}

// GetByBarcode resolves a GTIN-13 to a food id, then fetches the food
func (c *Client) GetByBarcode(ctx context.Context, code string) ([]domain.FoodRecord, error) {
	params := url.Values{}
	params.Set("method", "food.find_id_for_barcode")
	params.Set("barcode", toGTIN13(code))

	var resp barcodeResponse
	if err := c.call(ctx, params, &resp, &resp.Error); err != nil {
		return nil, err
	}
	if resp.FoodID == nil {
		return nil, domain.NewProviderError(ProviderName, domain.KindSchemaError, fmt.Errorf("response has no food_id"))
	}
	if resp.FoodID.Value == "" || resp.FoodID.Value == "0" {
		return nil, domain.NewProviderError(ProviderName, domain.KindNotFound, fmt.Errorf("barcode %s not found", code))
	}

	records, err := c.GetByID(ctx, resp.FoodID.Value)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Barcode = code
	}
	return records, nil
}

// call performs a method request and turns an in-body error envelope into a
// ProviderError.
func (c *Client) call(ctx context.Context, params url.Values, out interface{}, apiErr **apiError) error {
	params.Set("format", "json")
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	if err := c.http.GetJSON(ctx, c.baseURL+"?"+params.Encode(), header, out); err != nil {
		return err
	}
	if *apiErr != nil {
		return (*apiErr).toProviderError()
	}
	return nil
}

// toGTIN13 left-pads UPC-A and EAN-8 codes, which FatSecret requires
func toGTIN13(code string) string {
	for len(code) < 13 {
		code = "0" + code
	}
	return code
}
