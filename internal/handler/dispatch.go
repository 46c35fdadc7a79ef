package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dispatch/internal/service"
)

// DispatchHandler handles HTTP requests for trip matching.
type DispatchHandler struct {
	dispatchService service.DispatchServiceInterface
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(dispatchService service.DispatchServiceInterface) *DispatchHandler {
	return &DispatchHandler{dispatchService: dispatchService}
}

// NearbyTripResponse is one offered trip in the nearby list.
type NearbyTripResponse struct {
	Trip       TripResponse `json:"trip"`
	DistanceKm float64      `json:"distance_km"`
}

// ListNearby handles GET /v1/drivers/:id/nearby-requests
func (h *DispatchHandler) ListNearby(c *gin.Context) {
	radiusKm := 0.0
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid radius_km"})
			return
		}
		radiusKm = parsed
	}

	nearby, err := h.dispatchService.ListNearby(c.Request.Context(), c.Param("id"), radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]NearbyTripResponse, 0, len(nearby))
	for _, n := range nearby {
		out = append(out, NearbyTripResponse{
			Trip:       toTripResponse(n.Trip),
			DistanceKm: n.DistanceKm,
		})
	}

	respondJSON(c, http.StatusOK, out)
}

// AcceptTrip handles POST /v1/drivers/:id/accept/:trip_id
func (h *DispatchHandler) AcceptTrip(c *gin.Context) {
	trip, err := h.dispatchService.Accept(c.Request.Context(), c.Param("id"), c.Param("trip_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// RejectTrip handles POST /v1/drivers/:id/reject/:trip_id
func (h *DispatchHandler) RejectTrip(c *gin.Context) {
	if err := h.dispatchService.Reject(c.Request.Context(), c.Param("id"), c.Param("trip_id")); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"rejected": true})
}
