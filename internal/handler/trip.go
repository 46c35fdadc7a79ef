package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService service.TripServiceInterface
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService service.TripServiceInterface) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// LocationPayload is a named point in request and response bodies.
type LocationPayload struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// RequestTripRequest is the HTTP request body for requesting a trip.
type RequestTripRequest struct {
	Origin      LocationPayload `json:"origin"`
	Destination LocationPayload `json:"destination"`
}

// CancelTripRequest is the HTTP request body for cancelling a trip.
type CancelTripRequest struct {
	PassengerID string `json:"passenger_id"`
}

// UpdateTripStatusRequest is the HTTP request body for a driver-driven
// status change.
type UpdateTripStatusRequest struct {
	Status string `json:"status"`
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID          string          `json:"id"`
	PassengerID string          `json:"passenger_id"`
	DriverID    string          `json:"driver_id,omitempty"`
	Origin      LocationPayload `json:"origin"`
	Destination LocationPayload `json:"destination"`
	DistanceKm  float64         `json:"distance_km"`
	Price       float64         `json:"price"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
	AcceptedAt  string          `json:"accepted_at,omitempty"`
	StartedAt   string          `json:"started_at,omitempty"`
	CompletedAt string          `json:"completed_at,omitempty"`
	CancelledAt string          `json:"cancelled_at,omitempty"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		ID:          trip.ID,
		PassengerID: trip.PassengerID,
		DriverID:    trip.DriverID,
		Origin:      LocationPayload(trip.Origin),
		Destination: LocationPayload(trip.Destination),
		DistanceKm:  trip.DistanceKm,
		Price:       trip.Price,
		Status:      string(trip.Status),
		CreatedAt:   formatTime(trip.CreatedAt),
		AcceptedAt:  formatTime(trip.AcceptedAt),
		StartedAt:   formatTime(trip.StartedAt),
		CompletedAt: formatTime(trip.CompletedAt),
		CancelledAt: formatTime(trip.CancelledAt),
	}
}

func toTripResponses(trips []*domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		out = append(out, toTripResponse(trip))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// RequestTrip handles POST /v1/passengers/:id/trips
func (h *TripHandler) RequestTrip(c *gin.Context) {
	var req RequestTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.RequestTrip(c.Request.Context(), service.RequestTripRequest{
		PassengerID: c.Param("id"),
		Origin:      domain.Location(req.Origin),
		Destination: domain.Location(req.Destination),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetActiveTrip handles GET /v1/passengers/:id/trips/active
func (h *TripHandler) GetActiveTrip(c *gin.Context) {
	trip, err := h.tripService.GetActiveTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if trip == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no active trip"})
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ListPassengerTrips handles GET /v1/passengers/:id/trips
func (h *TripHandler) ListPassengerTrips(c *gin.Context) {
	trips, err := h.tripService.ListPassengerTrips(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.Cancel(c.Request.Context(), c.Param("id"), req.PassengerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// UpdateTripStatus handles PUT /v1/drivers/:id/trips/:trip_id/status
func (h *TripHandler) UpdateTripStatus(c *gin.Context) {
	var req UpdateTripStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.SetStatus(c.Request.Context(),
		c.Param("trip_id"), c.Param("id"), domain.TripStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ListDriverTrips handles GET /v1/drivers/:id/trips
func (h *TripHandler) ListDriverTrips(c *gin.Context) {
	status := domain.TripStatus(c.Query("status"))

	trips, err := h.tripService.ListDriverTrips(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponses(trips))
}
