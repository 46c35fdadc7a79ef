package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// FareHandler handles HTTP requests for pricing.
type FareHandler struct {
	fareService *service.FareService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(fareService *service.FareService) *FareHandler {
	return &FareHandler{fareService: fareService}
}

// EstimatePriceRequest is the HTTP request body for a price estimate.
type EstimatePriceRequest struct {
	DistanceKm float64 `json:"distance_km"`
}

// EstimatePriceResponse is the HTTP response for a price estimate.
type EstimatePriceResponse struct {
	DistanceKm float64 `json:"distance_km"`
	Price      float64 `json:"price"`
}

// FareRangeRequest is the HTTP request body for creating or updating a
// fare range.
type FareRangeRequest struct {
	MinKm     float64 `json:"min_km"`
	MaxKm     float64 `json:"max_km"`
	RatePerKm float64 `json:"rate_per_km"`
}

// FareRangeResponse is the HTTP representation of a fare range.
type FareRangeResponse struct {
	ID        string  `json:"id"`
	MinKm     float64 `json:"min_km"`
	MaxKm     float64 `json:"max_km"`
	RatePerKm float64 `json:"rate_per_km"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// PricingConfigRequest is the HTTP request body for the fallback pricing.
type PricingConfigRequest struct {
	BaseFare float64 `json:"base_fare"`
	PerKm    float64 `json:"per_km"`
}

// PricingConfigResponse is the HTTP representation of the fallback pricing.
type PricingConfigResponse struct {
	BaseFare  float64 `json:"base_fare"`
	PerKm     float64 `json:"per_km"`
	UpdatedAt string  `json:"updated_at"`
}

func toFareRangeResponse(fr *domain.FareRange) FareRangeResponse {
	return FareRangeResponse{
		ID:        fr.ID,
		MinKm:     fr.MinKm,
		MaxKm:     fr.MaxKm,
		RatePerKm: fr.RatePerKm,
		CreatedAt: formatTime(fr.CreatedAt),
		UpdatedAt: formatTime(fr.UpdatedAt),
	}
}

// EstimatePrice handles POST /v1/estimate-price
func (h *FareHandler) EstimatePrice(c *gin.Context) {
	var req EstimatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	price, err := h.fareService.Estimate(c.Request.Context(), req.DistanceKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, EstimatePriceResponse{
		DistanceKm: req.DistanceKm,
		Price:      price,
	})
}

// ListFareRanges handles GET /v1/admin/fare-ranges
func (h *FareHandler) ListFareRanges(c *gin.Context) {
	ranges, err := h.fareService.ListRanges(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]FareRangeResponse, 0, len(ranges))
	for _, fr := range ranges {
		out = append(out, toFareRangeResponse(fr))
	}

	respondJSON(c, http.StatusOK, out)
}

// CreateFareRange handles POST /v1/admin/fare-ranges
func (h *FareHandler) CreateFareRange(c *gin.Context) {
	var req FareRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	fr, err := h.fareService.CreateRange(c.Request.Context(), req.MinKm, req.MaxKm, req.RatePerKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toFareRangeResponse(fr))
}

// UpdateFareRange handles PUT /v1/admin/fare-ranges/:id
func (h *FareHandler) UpdateFareRange(c *gin.Context) {
	var req FareRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	fr, err := h.fareService.UpdateRange(c.Request.Context(), c.Param("id"), req.MinKm, req.MaxKm, req.RatePerKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toFareRangeResponse(fr))
}

// DeleteFareRange handles DELETE /v1/admin/fare-ranges/:id
func (h *FareHandler) DeleteFareRange(c *gin.Context) {
	if err := h.fareService.DeleteRange(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"deleted": true})
}

// GetPricingConfig handles GET /v1/admin/pricing-config
func (h *FareHandler) GetPricingConfig(c *gin.Context) {
	cfg, err := h.fareService.GetPricingConfig(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "pricing config not set"})
		return
	}

	respondJSON(c, http.StatusOK, PricingConfigResponse{
		BaseFare:  cfg.BaseFare,
		PerKm:     cfg.PerKm,
		UpdatedAt: formatTime(cfg.UpdatedAt),
	})
}

// UpdatePricingConfig handles PUT /v1/admin/pricing-config
func (h *FareHandler) UpdatePricingConfig(c *gin.Context) {
	var req PricingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cfg, err := h.fareService.UpdatePricingConfig(c.Request.Context(), req.BaseFare, req.PerKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PricingConfigResponse{
		BaseFare:  cfg.BaseFare,
		PerKm:     cfg.PerKm,
		UpdatedAt: formatTime(cfg.UpdatedAt),
	})
}
