// Package openfoodfacts adapts the Open Food Facts product database. The
// public API needs no credentials; the product code doubles as the food id.
package openfoodfacts

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

const (
	// ProviderName is the source tag for Open Food Facts records
	ProviderName = "openfoodfacts"

	// DefaultBaseURL is the world instance
	DefaultBaseURL = "https://world.openfoodfacts.org"

	productFields = "code,product_name,generic_name,brands,nutriments,serving_quantity,serving_size"
)

// Client talks to Open Food Facts
type Client struct {
	http    *upstream.Client
	baseURL string
	debug   bool
}

// NewClient creates an Open Food Facts client. The user agent should
// identify the deployment, as the project requests.
func NewClient(baseURL string, opts upstream.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	// search is limited to 10 requests per minute
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 10.0 / 60
	}
	return &Client{
		http:    upstream.NewClient(ProviderName, opts),
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

// SearchByText runs a full-text product search
func (c *Client) SearchByText(ctx context.Context, query string, maxResults int) ([]domain.FoodRecord, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(maxResults))
	params.Set("fields", productFields)

	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/cgi/search.pl?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		return nil, domain.NewProviderError(ProviderName, domain.KindSchemaError, fmt.Errorf("response has no products array"))
	}

	records := make([]domain.FoodRecord, 0, len(resp.Products))
	for _, p := range resp.Products {
		if p.Code == "" {
			continue
		}
		records = append(records, mapProduct(p))
		if len(records) == maxResults {
			break
		}
	}
	if c.debug {
		log.Printf("[OFF] search returned %d products for %q", len(records), query)
	}
	return records, nil
}

// GetByID fetches a product by code
func (c *Client) GetByID(ctx context.Context, code string) ([]domain.FoodRecord, error) {
	return c.product(ctx, code)
}

// GetByBarcode fetches a product by barcode, which is its code
func (c *Client) GetByBarcode(ctx context.Context, code string) ([]domain.FoodRecord, error) {
	return c.product(ctx, code)
}

func (c *Client) product(ctx context.Context, code string) ([]domain.FoodRecord, error) {
	if code == "" || strings.ContainsAny(code, "/?#") {
		return nil, domain.NewProviderError(ProviderName, domain.KindNotFound, fmt.Errorf("invalid product code %q", code))
	}
	reqURL := fmt.Sprintf("%s/api/v2/product/%s?fields=%s", c.baseURL, url.PathEscape(code), url.QueryEscape(productFields))

	var resp productResponse
	if err := c.http.GetJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status == 0 || resp.Product == nil {
		return nil, domain.NewProviderError(ProviderName, domain.KindNotFound, fmt.Errorf("product %s: %s", code, resp.StatusVerbose))
	}
	if resp.Product.Code == "" {
		resp.Product.Code = code
	}
	record := mapProduct(*resp.Product)
	record.Barcode = code
	return []domain.FoodRecord{record}, nil
}
