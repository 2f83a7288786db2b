package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"

	"github.com/Asunoke/zayno/internal/middleware"
	"github.com/Asunoke/zayno/internal/models"
)

// LoanService exposes the credit products derived from an account's tier:
// the standard loan whose ceiling and rate follow the tier ladder, and
// the Lombard line backed by 150% collateral. Disbursement runs through
// a partner and is out of scope here; the service answers eligibility,
// terms and repayment.
type LoanService struct {
	db        *sql.DB
	ledger    *LedgerService
	validator *ValidationHelper
}

// LombardCollateralRatio is the collateral the Lombard line requires,
// as a percentage of the drawn amount.
const LombardCollateralRatio = 150

// QuoteRequest asks for a repayment schedule preview. Terms run from
// 3 to 36 months and the principal must stay within the tier ceiling.
type QuoteRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0" example:"100000"` // Principal in FCFA
	Months int   `json:"months" validate:"required,gte=3,lte=36" example:"12"`
}

// QuoteResponse is an annuity schedule preview for the account's tier.
type QuoteResponse struct {
	Tier              models.Tier `json:"tier"`
	Amount            int64       `json:"amount"`
	Months            int         `json:"months"`
	AnnualRate        float64     `json:"annualRate"`
	MonthlyPayment    int64       `json:"monthlyPayment"`
	TotalRepayment    int64       `json:"totalRepayment"`
	LombardCollateral int64       `json:"lombardCollateral"`
}

// RepayRequest is a repayment instruction against an outstanding loan.
type RepayRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0" example:"25000"` // Amount in FCFA
}

func NewLoanService(db *sql.DB, ledger *LedgerService) *LoanService {
	return &LoanService{
		db:        db,
		ledger:    ledger,
		validator: NewValidationHelper(),
	}
}

func (s *LoanService) accountStanding(accountID string) (int, models.Tier, error) {
	var score int
	var tier models.Tier
	err := s.db.QueryRow(`SELECT credit_score, tier FROM accounts WHERE id = $1`, accountID).Scan(&score, &tier)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrAccountNotFound
	}
	if err != nil {
		return 0, "", transientErr("account standing", err)
	}
	return score, tier, nil
}

// GetEligibility reports the account's loan standing
// @Summary Loan eligibility
// @Description Report the account's score, tier, ceiling and rate
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} ErrorResponse
// @Router /loans/eligibility [get]
func (s *LoanService) GetEligibility(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	score, tier, err := s.accountStanding(accountID)
	if err != nil {
		SendBusinessError(w, err)
		return
	}

	terms := tier.LoanTerms()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"creditScore": score,
		"tier":        tier,
		"eligible":    score >= models.MinLoanScore,
		"maxAmount":   terms.Limit,
		"annualRate":  terms.AnnualRate,
	})
}

// GetQuote previews an annuity repayment schedule
// @Summary Loan quote
// @Description Preview the monthly annuity for a principal over a term
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body QuoteRequest true "Quote request"
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} ErrorResponse
// @Router /loans/quote [post]
func (s *LoanService) GetQuote(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req QuoteRequest
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

	score, tier, err := s.accountStanding(accountID)
	if err != nil {
		SendBusinessError(w, err)
		return
	}
	if score < models.MinLoanScore {
		SendErrorResponse(w, "Credit score too low for a loan", http.StatusForbidden, nil)
		return
	}

	terms := tier.LoanTerms()
	if req.Amount > terms.Limit {
		log.Printf("[LOAN] Quote refused for %s: %d FCFA exceeds %s ceiling of %d", accountID, req.Amount, tier, terms.Limit)
		SendBusinessError(w, ErrInvalidAmount)
		return
	}

	monthly := annuityPayment(req.Amount, terms.AnnualRate, req.Months)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(QuoteResponse{
		Tier:              tier,
		Amount:            req.Amount,
		Months:            req.Months,
		AnnualRate:        terms.AnnualRate,
		MonthlyPayment:    monthly,
		TotalRepayment:    monthly * int64(req.Months),
		LombardCollateral: req.Amount * LombardCollateralRatio / 100,
	})
}

// Repay debits the account against an outstanding loan
// @Summary Repay loan
// @Description Debit the account balance toward an outstanding loan
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RepayRequest true "Repayment"
// @Success 200 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Router /loans/repay [post]
func (s *LoanService) Repay(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req RepayRequest
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

	record, err := s.ledger.Debit(accountID, req.Amount, models.KindLoanRepayment, "Remboursement de prêt")
	if err != nil {
		log.Printf("[LOAN] Repayment failed for %s: %v", accountID, err)
		SendBusinessError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// annuityPayment computes the fixed monthly payment for a principal at an
// annual percentage rate over n months, rounded up to the next franc.
func annuityPayment(principal int64, annualRate float64, months int) int64 {
	if months <= 0 {
		return principal
	}
	monthlyRate := annualRate / 100 / 12
	if monthlyRate == 0 {
		return int64(math.Ceil(float64(principal) / float64(months)))
	}
	p := float64(principal)
	factor := math.Pow(1+monthlyRate, float64(months))
	return int64(math.Ceil(p * monthlyRate * factor / (factor - 1)))
}
