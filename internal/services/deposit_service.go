package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Asunoke/zayno/internal/config"
	"github.com/Asunoke/zayno/internal/models"
	"github.com/google/uuid"
)

// DepositService manages the deposit request lifecycle. A deposit request
// never moves money by itself: funds enter the ledger only when an admin
// confirms the request, and a request left pending past its expiry window
// lapses without any balance effect.
type DepositService struct {
	db       *sql.DB
	ledger   *LedgerService
	notifier *Notifier
	cfg      *config.BankingConfig
}

func NewDepositService(db *sql.DB, ledger *LedgerService, notifier *Notifier) *DepositService {
	return &DepositService{
		db:       db,
		ledger:   ledger,
		notifier: notifier,
		cfg:      config.GetBankingConfig(),
	}
}

// Create registers a pending deposit request for the account.
func (s *DepositService) Create(accountID string, amount int64, method models.PaymentMethod, phoneNumber string) (*models.DepositRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidAmount, method)
	}

	now := time.Now()
	request := &models.DepositRequest{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Amount:      amount,
		Method:      method,
		PhoneNumber: phoneNumber,
		Status:      models.DepositPending,
		ExpiresAt:   now.Add(s.cfg.DepositExpiry),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(`
		INSERT INTO deposit_requests (id, account_id, amount, method, phone_number, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		request.ID, request.AccountID, request.Amount, request.Method, request.PhoneNumber,
		request.Status, request.ExpiresAt, request.CreatedAt, request.UpdatedAt)
	if err != nil {
		return nil, transientErr("create deposit request", err)
	}

	return request, nil
}

// Get returns a deposit request, lapsing it first if its window passed.
func (s *DepositService) Get(requestID string) (*models.DepositRequest, error) {
	if err := s.expireOverdue(); err != nil {
		return nil, err
	}

	var request models.DepositRequest
	err := s.db.QueryRow(`
		SELECT id, account_id, amount, method, phone_number, status, admin_note, expires_at, created_at, updated_at
		FROM deposit_requests
		WHERE id = $1`, requestID).Scan(
		&request.ID, &request.AccountID, &request.Amount, &request.Method, &request.PhoneNumber,
		&request.Status, &request.AdminNote, &request.ExpiresAt, &request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, transientErr("get deposit request", err)
	}

	return &request, nil
}

// ListForAccount returns the account's deposit requests, newest first.
func (s *DepositService) ListForAccount(accountID string) ([]models.DepositRequest, error) {
	return s.list(`WHERE account_id = $1`, accountID)
}

// ListPending returns every pending request for the admin review queue.
func (s *DepositService) ListPending() ([]models.DepositRequest, error) {
	return s.list(`WHERE status = $1`, string(models.DepositPending))
}

func (s *DepositService) list(where string, arg interface{}) ([]models.DepositRequest, error) {
	if err := s.expireOverdue(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, account_id, amount, method, phone_number, status, admin_note, expires_at, created_at, updated_at
		FROM deposit_requests
		`+where+`
		ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, transientErr("list deposit requests", err)
	}
	defer rows.Close()

	var requests []models.DepositRequest
	for rows.Next() {
		var request models.DepositRequest
		if err := rows.Scan(
			&request.ID, &request.AccountID, &request.Amount, &request.Method, &request.PhoneNumber,
			&request.Status, &request.AdminNote, &request.ExpiresAt, &request.CreatedAt, &request.UpdatedAt); err != nil {
			return nil, transientErr("scan deposit request", err)
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

// Resolve applies an admin decision to a pending request. Confirming
// credits the account through the ledger in the same database transaction
// that flips the request status, so a crash can never credit funds twice
// or leave a confirmed request unpaid. Resolving an expired or already
// resolved request fails without touching any balance.
func (s *DepositService) Resolve(requestID string, approve bool, adminNote string) (*models.DepositRequest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, transientErr("begin resolve deposit", err)
	}
	defer tx.Rollback()

	var request models.DepositRequest
	err = tx.QueryRow(`
		SELECT id, account_id, amount, method, phone_number, status, admin_note, expires_at, created_at, updated_at
		FROM deposit_requests
		WHERE id = $1
		FOR UPDATE`, requestID).Scan(
		&request.ID, &request.AccountID, &request.Amount, &request.Method, &request.PhoneNumber,
		&request.Status, &request.AdminNote, &request.ExpiresAt, &request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, transientErr("lock deposit request", err)
	}

	if request.Status != models.DepositPending {
		return nil, ErrInvalidStateTransition
	}
	if time.Now().After(request.ExpiresAt) {
		_, err = tx.Exec(`
			UPDATE deposit_requests SET status = $1, updated_at = $2 WHERE id = $3`,
			models.DepositExpired, time.Now(), request.ID)
		if err != nil {
			return nil, transientErr("expire deposit request", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, transientErr("commit expire", err)
		}
		return nil, ErrRequestExpired
	}

	status := models.DepositRejected
	if approve {
		status = models.DepositConfirmed
		description := fmt.Sprintf("Dépôt %s confirmé", request.Method)
		if _, err := s.ledger.RecordDepositTx(tx, request.AccountID, request.Amount, description); err != nil {
			return nil, err
		}
	}

	request.Status = status
	request.AdminNote = adminNote
	request.UpdatedAt = time.Now()

	_, err = tx.Exec(`
		UPDATE deposit_requests
		SET status = $1, admin_note = $2, updated_at = $3
		WHERE id = $4`,
		request.Status, request.AdminNote, request.UpdatedAt, request.ID)
	if err != nil {
		return nil, transientErr("update deposit request", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, transientErr("commit resolve deposit", err)
	}

	event, message := "DEPOSIT_REJECTED", "Votre demande de dépôt a été rejetée"
	if approve {
		event, message = "DEPOSIT_CONFIRMED", fmt.Sprintf("Dépôt de %d FCFA confirmé", request.Amount)
	}
	s.notifier.Notify(context.Background(), Notification{
		AccountID: request.AccountID,
		Event:     event,
		Message:   message,
		Amount:    request.Amount,
	})

	return &request, nil
}

// expireOverdue lapses every pending request whose window has passed.
// Runs lazily before reads so listings never show a stale PENDING row.
func (s *DepositService) expireOverdue() error {
	_, err := s.db.Exec(`
		UPDATE deposit_requests
		SET status = $1, updated_at = $2
		WHERE status = $3 AND expires_at < $2`,
		models.DepositExpired, time.Now(), models.DepositPending)
	if err != nil {
		return transientErr("expire deposit requests", err)
	}
	return nil
}
