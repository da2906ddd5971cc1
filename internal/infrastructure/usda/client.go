package usda

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/infrastructure/upstream"
)

// ProviderName is the source tag for USDA records
const ProviderName = "usda"

// DefaultBaseURL is the public FoodData Central endpoint
const DefaultBaseURL = "https://api.nal.usda.gov/fdc"

// Client handles communication with the USDA FoodData Central API.
// It supports text search and lookup by FDC id.
type Client struct {
	http    *upstream.Client
	apiKey  string
	baseURL string
	debug   bool
}

// NewClient creates a new USDA API client
func NewClient(apiKey, baseURL string, opts upstream.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	// USDA allows 1000 requests per hour
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 0.278
	}
	return &Client{
		http:    upstream.NewClient(ProviderName, opts),
		apiKey:  apiKey,
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

// SearchByText searches Survey, Foundation and Branded foods
func (c *Client) SearchByText(ctx context.Context, query string, maxResults int) ([]domain.FoodRecord, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", "Survey (FNDDS),Foundation,Branded")
	params.Add("pageSize", strconv.Itoa(maxResults))

	reqURL := fmt.Sprintf("%s/v1/foods/search?%s", c.baseURL, params.Encode())

	var searchResp SearchResponse
	if err := c.http.GetJSON(ctx, reqURL, nil, &searchResp); err != nil {
		return nil, err
	}
	if searchResp.Foods == nil {
		return nil, domain.NewProviderError(ProviderName, domain.KindSchemaError, fmt.Errorf("response has no foods array"))
	}

	if c.debug {
		log.Printf("[USDA] Found %d foods for query: %q", len(searchResp.Foods), query)
	}

	records := make([]domain.FoodRecord, 0, len(searchResp.Foods))
	for i := range searchResp.Foods {
		records = append(records, MapSearchFood(&searchResp.Foods[i]))
	}
	return records, nil
}

// GetByID retrieves detailed nutrition information for a specific FDC ID
func (c *Client) GetByID(ctx context.Context, fdcID string) ([]domain.FoodRecord, error) {
	if _, err := strconv.Atoi(fdcID); err != nil {
		return nil, domain.NewProviderError(ProviderName, domain.KindNotFound, fmt.Errorf("invalid FDC id %q", fdcID))
	}

	params := url.Values{}
	params.Add("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/v1/food/%s?%s", c.baseURL, url.PathEscape(fdcID), params.Encode())

	var food FoodDetail
	if err := c.http.GetJSON(ctx, reqURL, nil, &food); err != nil {
		return nil, err
	}
	if food.FdcID == 0 {
		return nil, domain.NewProviderError(ProviderName, domain.KindSchemaError, fmt.Errorf("response has no fdcId"))
	}

	return []domain.FoodRecord{MapDetailFood(&food)}, nil
}
