package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"math"
	"net/http"

	"github.com/Asunoke/zayno/internal/models"
	"github.com/go-chi/chi/v5"
)

// ScoringService recomputes an account's credit score and tier from its
// completed outgoing transfer history. The score feeds the tier ladder
// that drives loan limits and rates.
type ScoringService struct {
	db *sql.DB
}

func NewScoringService(db *sql.DB) *ScoringService {
	return &ScoringService{db: db}
}

// CalculateScore derives a credit score from the number of completed
// outgoing transactions and their total volume in FCFA. Each component
// caps at 500, bounding the score at 1000.
func CalculateScore(transactionCount int, totalVolume int64) int {
	activity := math.Min(float64(transactionCount)*10, 500)
	volume := math.Min(float64(totalVolume)/10000, 500)
	return int(math.Floor(activity + volume))
}

// Recalculate refreshes the score and tier for an account in its own
// database transaction.
func (s *ScoringService) Recalculate(accountID string) (int, models.Tier, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, "", transientErr("begin recalculate", err)
	}
	defer tx.Rollback()

	score, tier, err := s.RecalculateTx(tx, accountID)
	if err != nil {
		return 0, "", err
	}

	if err := tx.Commit(); err != nil {
		return 0, "", transientErr("commit recalculate", err)
	}

	return score, tier, nil
}

// RecalculateTx refreshes the score and tier inside an existing database
// transaction. Only completed transactions where the account is the
// sender count toward the score.
func (s *ScoringService) RecalculateTx(tx *sql.Tx, accountID string) (int, models.Tier, error) {
	var count int
	var total int64
	err := tx.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE sender_id = $1 AND status = $2`,
		accountID, models.TxCompleted).Scan(&count, &total)
	if err != nil {
		return 0, "", transientErr("aggregate transactions", err)
	}

	score := CalculateScore(count, total)
	tier := models.TierForScore(score)

	result, err := tx.Exec(`
		UPDATE accounts
		SET credit_score = $1, tier = $2
		WHERE id = $3`,
		score, tier, accountID)
	if err != nil {
		return 0, "", transientErr("update score", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return 0, "", ErrAccountNotFound
	}

	return score, tier, nil
}

// RecalculateScore refreshes an account's score on demand
// @Summary Recalculate credit score
// @Description Recompute an account's credit score and tier from its history (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} ErrorResponse
// @Router /admin/accounts/{id}/score [post]
func (s *ScoringService) RecalculateScore(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	score, tier, err := s.Recalculate(accountID)
	if err != nil {
		log.Printf("[SCORING] Recalculate failed for %s: %v", accountID, err)
		SendBusinessError(w, err)
		return
	}

	log.Printf("[SCORING] Account %s rescored to %d (%s)", accountID, score, tier)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"creditScore": score,
		"tier":        tier,
	})
}
