package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/Asunoke/zayno/internal/middleware"
	"github.com/Asunoke/zayno/internal/models"
	"github.com/Asunoke/zayno/internal/services"
	"github.com/go-chi/chi/v5"
)

type DepositHandler struct {
	service   *services.DepositService
	validator *services.ValidationHelper
}

type createDepositRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0" example:"50000"`
	Method      string `json:"method" validate:"required,payment_method" example:"MOBILE_MONEY"`
	PhoneNumber string `json:"phoneNumber" example:"+22370123456"`
}

type resolveRequest struct {
	Decision  string `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	AdminNote string `json:"adminNote"`
}

func NewDepositHandler(service *services.DepositService) *DepositHandler {
	return &DepositHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// Create registers a deposit request
// @Summary Create deposit request
// @Description Declare incoming funds; credited once an admin confirms
// @Tags deposits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createDepositRequest true "Deposit request"
// @Success 201 {object} models.DepositRequest
// @Failure 400 {object} services.ErrorResponse
// @Router /deposits [post]
func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req createDepositRequest
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

	request, err := h.service.Create(accountID, req.Amount, models.PaymentMethod(req.Method), req.PhoneNumber)
	if err != nil {
		log.Printf("[DEPOSIT] Create failed for %s: %v", accountID, err)
		services.SendBusinessError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(request)
}

// List returns the caller's deposit requests
// @Summary List deposit requests
// @Description List the authenticated account's deposit requests
// @Tags deposits
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.DepositRequest
// @Router /deposits [get]
func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	requests, err := h.service.ListForAccount(accountID)
	if err != nil {
		log.Printf("[DEPOSIT] List failed for %s: %v", accountID, err)
		services.SendBusinessError(w, err)
		return
	}
	if requests == nil {
		requests = []models.DepositRequest{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

// Get returns one of the caller's deposit requests
// @Summary Get deposit request
// @Description Fetch a single deposit request; admins can fetch any
// @Tags deposits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} models.DepositRequest
// @Failure 404 {object} services.ErrorResponse
// @Router /deposits/{id} [get]
func (h *DepositHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	request, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		services.SendBusinessError(w, err)
		return
	}
	if request.AccountID != accountID && !middleware.IsAdminFromContext(r.Context()) {
		// Do not reveal that the request exists
		services.SendBusinessError(w, services.ErrRequestNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(request)
}

// ListPending returns the admin review queue
// @Summary Pending deposit requests
// @Description List all pending deposit requests (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.DepositRequest
// @Router /admin/deposits [get]
func (h *DepositHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListPending()
	if err != nil {
		log.Printf("[DEPOSIT] Admin list failed: %v", err)
		services.SendBusinessError(w, err)
		return
	}
	if requests == nil {
		requests = []models.DepositRequest{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(requests)
}

// Resolve applies an admin decision to a pending request
// @Summary Resolve deposit request
// @Description Confirm or reject a pending deposit request (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body resolveRequest true "Decision"
// @Success 200 {object} models.DepositRequest
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/deposits/{id} [patch]
func (h *DepositHandler) Resolve(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("[DEPOSIT] Resolve failed for %s: %v", requestID, err)
		services.SendBusinessError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(request)
}
