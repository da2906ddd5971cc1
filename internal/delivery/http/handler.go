package http

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/macrolens/foodengine/internal/domain"
	"github.com/macrolens/foodengine/internal/usecase"
)

// FoodService is what the handlers need from the usecase layer
type FoodService interface {
	Search(ctx context.Context, request *domain.SearchRequest) (*domain.SearchResponse, error)
	Detail(ctx context.Context, id, source string) (*domain.FoodRecord, error)
	Barcode(ctx context.Context, code string) (*domain.BarcodeResponse, error)
	Providers() []usecase.ProviderInfo
}

// CacheSizer reports how many entries a cache store holds
type CacheSizer interface {
	Size() int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	foods FoodService
	cache CacheSizer
}

// NewHandler creates a new HTTP handler. Either dependency may be nil.
func NewHandler(foods FoodService, cache CacheSizer) *Handler {
	return &Handler{foods: foods, cache: cache}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": "foodengine",
		"version": "1.0.0",
	}
	if h.foods != nil {
		body["providers"] = len(h.foods.Providers())
	}
	if h.cache != nil {
		body["cacheEntries"] = h.cache.Size()
	}
	c.JSON(http.StatusOK, body)
}

// SearchFoods handles free-text food searches
func (h *Handler) SearchFoods(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var request domain.SearchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	response, err := h.foods.Search(c.Request.Context(), &request)
	if err != nil {
		status := statusForError(err)
		// a search nobody could answer is an upstream failure, even when
		// every provider merely came back empty
		if errors.Is(err, domain.ErrAllProvidersExhausted) {
			status = http.StatusBadGateway
		}
		h.writeErrorStatus(c, status, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetFood returns one food by its provider-scoped id. ?source= restricts the
// lookup to one provider.
func (h *Handler) GetFood(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	food, err := h.foods.Detail(c.Request.Context(), c.Param("id"), c.Query("source"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

// LookupBarcode resolves a GTIN/UPC/EAN barcode
func (h *Handler) LookupBarcode(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	response, err := h.foods.Barcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, domain.BarcodeResponse{Success: false, Foods: []domain.FoodRecord{}})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ListProviders returns the registered providers in priority order
func (h *Handler) ListProviders(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": h.foods.Providers()})
}

func (h *Handler) configured(c *gin.Context) bool {
	if h.foods == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "food service not configured"})
		return false
	}
	return true
}

// writeError maps an error to its HTTP status. Provider failures that were
// absorbed by the resolver never get here; only exhaustion and
// single-provider errors do.
func (h *Handler) writeError(c *gin.Context, err error) {
	h.writeErrorStatus(c, statusForError(err), err)
}

func (h *Handler) writeErrorStatus(c *gin.Context, status int, err error) {
	body := gin.H{"error": err.Error()}

	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		body["provider"] = perr.Provider
		body["kind"] = perr.Kind
		if perr.Kind == domain.KindRateLimited && perr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(perr.RetryAfter.Seconds()))))
		}
	}
	var exhausted *domain.ExhaustedError
	if errors.As(err, &exhausted) {
		failed := make([]string, 0, len(exhausted.Failures))
		for _, f := range exhausted.Failures {
			failed = append(failed, f.Provider)
		}
		body["sourcesFailed"] = failed
	}

	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownProvider),
		errors.Is(err, domain.ErrCapabilityNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrAllProvidersExhausted):
		return http.StatusBadGateway
	}
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
