package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cartpilot/backend/internal/domain"
	"github.com/cartpilot/backend/internal/usecase"
)

// ServiceVersion is reported by the health endpoint
const ServiceVersion = "1.0.0"

// maxSuggestLimit caps the limit a client may request
const maxSuggestLimit = 50

// HandlerDeps groups the services exposed over HTTP.
// Products may be nil when barcode lookup is disabled.
type HandlerDeps struct {
	Suggestions    *usecase.SuggestionService
	Locator        *usecase.StoreLocatorService
	Products       *usecase.ProductService
	Catalog        domain.CatalogSource
	MaxRadiusMiles float64
	Logger         *zap.Logger
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	suggestions *usecase.SuggestionService
	locator     *usecase.StoreLocatorService
	products    *usecase.ProductService
	catalog     domain.CatalogSource
	maxRadius   float64
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		suggestions: deps.Suggestions,
		locator:     deps.Locator,
		products:    deps.Products,
		catalog:     deps.Catalog,
		maxRadius:   deps.MaxRadiusMiles,
		logger:      logger,
	}
}

// SuggestionItem is one entry of a suggestion response
type SuggestionItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// SuggestResponse is the body of GET /api/v1/products/suggest
type SuggestResponse struct {
	Query          string           `json:"query"`
	Results        []SuggestionItem `json:"results"`
	Count          int              `json:"count"`
	CatalogVersion string           `json:"catalogVersion"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	version := ""
	if h.catalog != nil {
		if current := h.catalog.Current(); current != nil {
			version = current.Version
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "cartpilot-backend",
		"version":        ServiceVersion,
		"catalogVersion": version,
	})
}

// Suggest handles live product suggestions for a partially typed query
func (h *Handler) Suggest(c *gin.Context) {
	query, ok := c.GetQuery("q")
	if !ok {
		h.respondError(c, fmt.Errorf("%w: q is required", domain.ErrInvalidRequest))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondError(c, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidRequest))
			return
		}
		limit = min(n, maxSuggestLimit)
	}

	results, version, err := h.suggestions.Suggest(c.Request.Context(), query, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]SuggestionItem, 0, len(results))
	for _, r := range results {
		items = append(items, SuggestionItem{
			ID:       r.Entry.ID,
			Name:     r.Entry.Name,
			Category: r.Entry.Category,
			Score:    r.Score,
		})
	}

	c.JSON(http.StatusOK, SuggestResponse{
		Query:          query,
		Results:        items,
		Count:          len(items),
		CatalogVersion: version,
	})
}

// LookupBarcode resolves a scanned barcode to product details
func (h *Handler) LookupBarcode(c *gin.Context) {
	if h.products == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "barcode lookup is not configured",
		})
		return
	}

	product, err := h.products.LookupBarcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// NearbyStores lists stores around a coordinate, nearest first
func (h *Handler) NearbyStores(c *gin.Context) {
	lat, err := parseFloatParam(c, "lat", true)
	if err != nil {
		h.respondError(c, err)
		return
	}
	lng, err := parseFloatParam(c, "lng", true)
	if err != nil {
		h.respondError(c, err)
		return
	}
	radius, err := parseFloatParam(c, "radius", false)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.maxRadius > 0 && radius > h.maxRadius {
		h.respondError(c, fmt.Errorf("%w: radius exceeds %g miles", domain.ErrInvalidRadius, h.maxRadius))
		return
	}

	origin := domain.Coordinate{Lat: lat, Lng: lng}
	result, err := h.locator.FindNearby(c.Request.Context(), origin, radius, c.Query("chain"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseFloatParam reads a float query parameter; absent optional params are zero
func parseFloatParam(c *gin.Context, name string, required bool) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, name)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidRequest, name)
	}
	return v, nil
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidOrigin),
		errors.Is(err, domain.ErrInvalidRadius),
		errors.Is(err, domain.ErrInvalidBarcode):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrLookupFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		message = "internal server error"
	}

	c.JSON(status, gin.H{
		"error":     message,
		"requestId": c.GetString(requestIDKey),
	})
}
