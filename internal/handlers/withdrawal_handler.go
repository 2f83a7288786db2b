package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/Asunoke/zayno/internal/middleware"
	"github.com/Asunoke/zayno/internal/models"
	"github.com/Asunoke/zayno/internal/services"
	"github.com/go-chi/chi/v5"
)

type WithdrawalHandler struct {
	service   *services.WithdrawalService
	validator *services.ValidationHelper
}

type createWithdrawalRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0" example:"30000"`
	Method      string `json:"method" validate:"required,payment_method" example:"AGENT"`
	Destination string `json:"destination" validate:"required" example:"Agent Bamako Centre"`
}

func NewWithdrawalHandler(service *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// Create registers a withdrawal request and reserves the funds
// @Summary Create withdrawal request
// @Description Request a payout; the amount is debited immediately as a reservation
// @Tags withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createWithdrawalRequest true "Withdrawal request"
// @Success 201 {object} models.WithdrawalRequest
// @Failure 400 {object} services.ErrorResponse
// @Router /withdrawals [post]
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req createWithdrawalRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	request, err := h.service.Create(accountID, req.Amount, models.PaymentMethod(req.Method), req.Destination)
	if err != nil {
		log.Printf("[WITHDRAWAL] Create failed for %s: %v", accountID, err)
		services.SendBusinessError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(request)
}

// List returns the caller's withdrawal requests
// @Summary List withdrawal requests
// @Description List the authenticated account's withdrawal requests
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.WithdrawalRequest
// @Router /withdrawals [get]
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	requests, err := h.service.ListForAccount(accountID)
	if err != nil {
		log.Printf("[WITHDRAWAL] List failed for %s: %v", accountID, err)
		services.SendBusinessError(w, err)
		return
	}
	if requests == nil {
		requests = []models.WithdrawalRequest{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

// Cancel withdraws a still-pending request and releases the reservation
// @Summary Cancel withdrawal request
// @Description Cancel a pending withdrawal; the reserved funds are credited back
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /withdrawals/{id} [delete]
func (h *WithdrawalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	requestID := chi.URLParam(r, "id")
	if err := h.service.Cancel(requestID, accountID); err != nil {
		log.Printf("[WITHDRAWAL] Cancel failed for %s: %v", requestID, err)
		services.SendBusinessError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Withdrawal request cancelled"})
}

// ListAll returns withdrawal requests for the back office
// @Summary List withdrawal requests (admin)
// @Description List withdrawal requests, optionally filtered by status (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param limit query int false "Max rows"
// @Success 200 {array} models.WithdrawalRequest
// @Router /admin/withdrawals [get]
func (h *WithdrawalHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	status := models.WithdrawalStatus(r.URL.Query().Get("status"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	requests, err := h.service.List(status, limit)
	if err != nil {
		log.Printf("[WITHDRAWAL] Admin list failed: %v", err)
		services.SendBusinessError(w, err)
		return
	}
	if requests == nil {
		requests = []models.WithdrawalRequest{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

// Resolve applies an admin decision to a pending request
// @Summary Resolve withdrawal request
// @Description Approve (settle payout) or reject (refund) a pending withdrawal (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body resolveRequest true "Decision"
// @Success 200 {object} models.WithdrawalRequest
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/withdrawals/{id} [patch]
func (h *WithdrawalHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	var req resolveRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	request, err := h.service.Resolve(requestID, req.Decision == "APPROVED", req.AdminNote)
	if err != nil {
		log.Printf("[WITHDRAWAL] Resolve failed for %s: %v", requestID, err)
		services.SendBusinessError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(request)
}
