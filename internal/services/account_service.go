package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/Asunoke/zayno/internal/middleware"
	"github.com/Asunoke/zayno/internal/models"
	"github.com/go-chi/chi/v5"
)

// AccountService serves account profiles and the admin account surface.
type AccountService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

const accountColumns = `id, zyn_id, name, email, phone_number, iban, balance, credit_score, tier, is_admin, is_active, created_at, updated_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.ZynID, &account.Name, &account.Email, &account.PhoneNumber,
		&account.IBAN, &account.Balance, &account.CreditScore, &account.Tier,
		&account.IsAdmin, &account.IsActive, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, transientErr("scan account", err)
	}
	return &account, nil
}

// GetProfile returns the authenticated account
// @Summary Get profile
// @Description Get the authenticated account with balance, score and tier
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Account
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/me [get]
func (s *AccountService) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	account, err := scanAccount(s.db.QueryRow(
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID))
	if err != nil {
		SendBusinessError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// LookupByZynID resolves a ZYN number to a displayable recipient
// @Summary Lookup recipient
// @Description Resolve a ZYN number to its account name before transferring
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param zynId path string true "ZYN number"
// @Success 200 {object} object{zynId=string,name=string}
// @Failure 404 {object} ErrorResponse
// @Router /accounts/lookup/{zynId} [get]
func (s *AccountService) LookupByZynID(w http.ResponseWriter, r *http.Request) {
	zynID := chi.URLParam(r, "zynId")

	var name string
	err := s.db.QueryRow(`SELECT name FROM accounts WHERE zyn_id = $1 AND is_active = TRUE`, zynID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		SendErrorResponse(w, "Recipient not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[ACCOUNT] Lookup failed for %s: %v", zynID, err)
		SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"zynId": zynID, "name": name})
}

// ListAccounts lists accounts for the back office
// @Summary List accounts
// @Description List all accounts, newest first (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Account
// @Failure 403 {object} ErrorResponse
// @Router /admin/accounts [get]
func (s *AccountService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		log.Printf("[ACCOUNT] Admin list failed: %v", err)
		SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(&account.ID, &account.ZynID, &account.Name, &account.Email, &account.PhoneNumber,
			&account.IBAN, &account.Balance, &account.CreditScore, &account.Tier,
			&account.IsAdmin, &account.IsActive, &account.CreatedAt, &account.UpdatedAt); err != nil {
			log.Printf("[ACCOUNT] Admin list scan failed: %v", err)
			SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
			return
		}
		accounts = append(accounts, account)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

// SetAccountStatus suspends or reactivates an account
// @Summary Set account status
// @Description Suspend or reactivate an account (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param request body object{isActive=bool} true "New status"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /admin/accounts/{id}/status [patch]
func (s *AccountService) SetAccountStatus(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req struct {
		IsActive *bool `json:"isActive" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := s.db.Exec(`UPDATE accounts SET is_active = $1, updated_at = NOW() WHERE id = $2`,
		*req.IsActive, accountID)
	if err != nil {
		log.Printf("[ACCOUNT] Status update failed for %s: %v", accountID, err)
		SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	log.Printf("[ACCOUNT] Account %s active=%v", accountID, *req.IsActive)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Account status updated"})
}
