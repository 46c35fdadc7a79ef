package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// LedgerHandler handles HTTP requests for driver finances.
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// LedgerResponse is the HTTP representation of a driver's ledger.
type LedgerResponse struct {
	DriverID          string  `json:"driver_id"`
	TotalEarnings     float64 `json:"total_earnings"`
	NetEarnings       float64 `json:"net_earnings"`
	CommissionOwed    float64 `json:"commission_owed"`
	CommissionPaid    float64 `json:"commission_paid"`
	CommissionPending float64 `json:"commission_pending"`
	AccountLocked     bool    `json:"account_locked"`
	UpdatedAt         string  `json:"updated_at,omitempty"`
}

// PaymentResponse is the HTTP representation of a commission payment.
type PaymentResponse struct {
	ID       string  `json:"id"`
	DriverID string  `json:"driver_id"`
	Amount   float64 `json:"amount"`
	Notes    string  `json:"notes,omitempty"`
	PaidAt   string  `json:"paid_at"`
}

// RecordPaymentRequest is the HTTP request body for recording a payment.
type RecordPaymentRequest struct {
	DriverID string  `json:"driver_id"`
	Amount   float64 `json:"amount"`
	Notes    string  `json:"notes,omitempty"`
}

// EarningsSummaryResponse is the HTTP representation of period earnings.
type EarningsSummaryResponse struct {
	Period     string  `json:"period"`
	TripCount  int     `json:"trip_count"`
	Gross      float64 `json:"gross"`
	Commission float64 `json:"commission"`
	Net        float64 `json:"net"`
}

// FinancialSummaryResponse is the HTTP representation of the platform summary.
type FinancialSummaryResponse struct {
	TotalEarnings     float64 `json:"total_earnings"`
	CommissionOwed    float64 `json:"commission_owed"`
	CommissionPaid    float64 `json:"commission_paid"`
	CommissionPending float64 `json:"commission_pending"`
	DriverCount       int     `json:"driver_count"`
	LockedCount       int     `json:"locked_count"`
}

func toLedgerResponse(l *domain.DriverLedger) LedgerResponse {
	return LedgerResponse{
		DriverID:          l.DriverID,
		TotalEarnings:     l.TotalEarnings,
		NetEarnings:       l.NetEarnings(),
		CommissionOwed:    l.CommissionOwed,
		CommissionPaid:    l.CommissionPaid,
		CommissionPending: l.CommissionPending,
		AccountLocked:     l.AccountLocked,
		UpdatedAt:         formatTime(l.UpdatedAt),
	}
}

func toPaymentResponses(payments []*domain.CommissionPayment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, PaymentResponse{
			ID:       p.ID,
			DriverID: p.DriverID,
			Amount:   p.Amount,
			Notes:    p.Notes,
			PaidAt:   formatTime(p.PaidAt),
		})
	}
	return out
}

// GetFinances handles GET /v1/drivers/:id/finances
func (h *LedgerHandler) GetFinances(c *gin.Context) {
	ledger, err := h.ledgerService.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLedgerResponse(ledger))
}

// ListPayments handles GET /v1/drivers/:id/finances/payments
func (h *LedgerHandler) ListPayments(c *gin.Context) {
	payments, err := h.ledgerService.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponses(payments))
}

// GetEarningsSummary handles GET /v1/drivers/:id/earnings-summary
func (h *LedgerHandler) GetEarningsSummary(c *gin.Context) {
	summary, err := h.ledgerService.Earnings(c.Request.Context(), c.Param("id"), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, EarningsSummaryResponse{
		Period:     summary.Period,
		TripCount:  summary.TripCount,
		Gross:      summary.Gross,
		Commission: summary.Commission,
		Net:        summary.Net,
	})
}

// ListAllLedgers handles GET /v1/admin/finances/drivers
func (h *LedgerHandler) ListAllLedgers(c *gin.Context) {
	ledgers, err := h.ledgerService.AllLedgers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]LedgerResponse, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, toLedgerResponse(l))
	}

	respondJSON(c, http.StatusOK, out)
}

// GetDriverDetail handles GET /v1/admin/finances/drivers/:id
func (h *LedgerHandler) GetDriverDetail(c *gin.Context) {
	driverID := c.Param("id")

	ledger, err := h.ledgerService.Status(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	payments, err := h.ledgerService.ListPayments(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"ledger":   toLedgerResponse(ledger),
		"payments": toPaymentResponses(payments),
	})
}

// RecordPayment handles POST /v1/admin/finances/payments
func (h *LedgerHandler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ledger, err := h.ledgerService.Pay(c.Request.Context(), req.DriverID, req.Amount, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLedgerResponse(ledger))
}

// GetFinancialSummary handles GET /v1/admin/finances/summary
func (h *LedgerHandler) GetFinancialSummary(c *gin.Context) {
	summary, err := h.ledgerService.Summarize(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, FinancialSummaryResponse{
		TotalEarnings:     summary.TotalEarnings,
		CommissionOwed:    summary.CommissionOwed,
		CommissionPaid:    summary.CommissionPaid,
		CommissionPending: summary.CommissionPending,
		DriverCount:       summary.DriverCount,
		LockedCount:       summary.LockedCount,
	})
}
