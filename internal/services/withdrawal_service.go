package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Asunoke/zayno/internal/config"
	"github.com/Asunoke/zayno/internal/models"
	"github.com/google/uuid"
)

// WithdrawalService manages the withdrawal request lifecycle. Creation
// reserves the funds immediately: the account is debited up front and the
// pending ledger transaction holds the reservation until an admin settles
// or rejects the request, or the owner cancels it.
type WithdrawalService struct {
	db         *sql.DB
	ledger     *LedgerService
	notifier   *Notifier
	settlement *SettlementService
	cfg        *config.BankingConfig
}

func NewWithdrawalService(db *sql.DB, ledger *LedgerService, notifier *Notifier, settlement *SettlementService) *WithdrawalService {
	return &WithdrawalService{
		db:         db,
		ledger:     ledger,
		notifier:   notifier,
		settlement: settlement,
		cfg:        config.GetBankingConfig(),
	}
}

// Create registers a withdrawal request and debits the account in the
// same database transaction. Insufficient funds reject the request before
// anything is written.
func (s *WithdrawalService) Create(accountID string, amount int64, method models.PaymentMethod, destination string) (*models.WithdrawalRequest, error) {
	if amount < s.cfg.MinWithdrawal {
		return nil, fmt.Errorf("%w: minimum withdrawal is %d FCFA", ErrInvalidAmount, s.cfg.MinWithdrawal)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidAmount, method)
	}
	if strings.TrimSpace(destination) == "" {
		return nil, fmt.Errorf("%w: destination is required", ErrInvalidAmount)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, transientErr("begin create withdrawal", err)
	}
	defer tx.Rollback()

	description := fmt.Sprintf("Retrait %s vers %s", method, destination)
	record, err := s.ledger.RecordWithdrawalTx(tx, accountID, amount, description)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	request := &models.WithdrawalRequest{
		ID:            uuid.New().String(),
		AccountID:     accountID,
		Amount:        amount,
		Method:        method,
		Destination:   destination,
		Status:        models.WithdrawalPending,
		TransactionID: record.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = tx.Exec(`
		INSERT INTO withdrawal_requests (id, account_id, amount, method, destination, status, transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		request.ID, request.AccountID, request.Amount, request.Method, request.Destination,
		request.Status, request.TransactionID, request.CreatedAt, request.UpdatedAt)
	if err != nil {
		return nil, transientErr("create withdrawal request", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, transientErr("commit create withdrawal", err)
	}

	return request, nil
}

// Get returns a single withdrawal request.
func (s *WithdrawalService) Get(requestID string) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := s.db.QueryRow(`
		SELECT id, account_id, amount, method, destination, status, admin_note, transaction_id, created_at, updated_at
		FROM withdrawal_requests
		WHERE id = $1`, requestID).Scan(
		&request.ID, &request.AccountID, &request.Amount, &request.Method, &request.Destination,
		&request.Status, &request.AdminNote, &request.TransactionID, &request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, transientErr("get withdrawal request", err)
	}
	return &request, nil
}

// ListForAccount returns the account's withdrawal requests, newest first.
func (s *WithdrawalService) ListForAccount(accountID string) ([]models.WithdrawalRequest, error) {
	return s.list(`WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
}

// List returns withdrawal requests for the admin queue, optionally
// filtered by status, capped at limit.
func (s *WithdrawalService) List(status models.WithdrawalStatus, limit int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if status != "" {
		return s.list(`WHERE status = $1 ORDER BY created_at DESC LIMIT $2`, string(status), limit)
	}
	return s.list(`ORDER BY created_at DESC LIMIT $1`, limit)
}

func (s *WithdrawalService) list(clause string, args ...interface{}) ([]models.WithdrawalRequest, error) {
	rows, err := s.db.Query(`
		SELECT id, account_id, amount, method, destination, status, admin_note, transaction_id, created_at, updated_at
		FROM withdrawal_requests
		`+clause, args...)
	if err != nil {
		return nil, transientErr("list withdrawal requests", err)
	}
	defer rows.Close()

	var requests []models.WithdrawalRequest
	for rows.Next() {
		var request models.WithdrawalRequest
		if err := rows.Scan(
			&request.ID, &request.AccountID, &request.Amount, &request.Method, &request.Destination,
			&request.Status, &request.AdminNote, &request.TransactionID, &request.CreatedAt, &request.UpdatedAt); err != nil {
			return nil, transientErr("scan withdrawal request", err)
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

// Resolve applies an admin decision to a pending request. Approval
// settles the reservation (no further balance effect); rejection credits
// the reserved amount back. Both paths flip the request and its ledger
// transaction in one database transaction.
func (s *WithdrawalService) Resolve(requestID string, approve bool, adminNote string) (*models.WithdrawalRequest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, transientErr("begin resolve withdrawal", err)
	}
	defer tx.Rollback()

	request, err := s.lockRequest(tx, requestID)
	if err != nil {
		return nil, err
	}

	if request.Status != models.WithdrawalPending {
		return nil, ErrInvalidStateTransition
	}

	if approve {
		if err := s.ledger.CompleteWithdrawalTx(tx, request.TransactionID); err != nil {
			return nil, err
		}
		request.Status = models.WithdrawalCompleted
	} else {
		if err := s.ledger.ReverseWithdrawalTx(tx, request.AccountID, request.TransactionID, request.Amount); err != nil {
			return nil, err
		}
		request.Status = models.WithdrawalRejected
	}

	request.AdminNote = adminNote
	request.UpdatedAt = time.Now()

	_, err = tx.Exec(`
		UPDATE withdrawal_requests
		SET status = $1, admin_note = $2, updated_at = $3
		WHERE id = $4`,
		request.Status, request.AdminNote, request.UpdatedAt, request.ID)
	if err != nil {
		return nil, transientErr("update withdrawal request", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, transientErr("commit resolve withdrawal", err)
	}

	if approve && request.Method == models.MethodBankTransfer && s.settlement != nil {
		if err := s.settlement.SubmitPayout(request); err != nil {
			// Settlement is asynchronous relative to the ledger; the
			// operations team replays failed submissions.
			s.ledger.audit.LogError(request.TransactionID, request.AccountID, err)
		}
	}

	event, message := "WITHDRAWAL_REJECTED", "Votre demande de retrait a été rejetée et remboursée"
	if approve {
		event, message = "WITHDRAWAL_COMPLETED", fmt.Sprintf("Retrait de %d FCFA effectué", request.Amount)
	}
	s.notifier.Notify(context.Background(), Notification{
		AccountID: request.AccountID,
		Event:     event,
		Message:   message,
		Amount:    request.Amount,
	})

	return request, nil
}

// Cancel lets the owner withdraw a request that is still pending. The
// reservation is released and the request row removed; the reversed
// ledger transaction stays behind as the audit trail.
func (s *WithdrawalService) Cancel(requestID, accountID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return transientErr("begin cancel withdrawal", err)
	}
	defer tx.Rollback()

	request, err := s.lockRequest(tx, requestID)
	if err != nil {
		return err
	}

	if request.AccountID != accountID {
		return ErrUnauthorized
	}
	if request.Status != models.WithdrawalPending {
		return ErrInvalidStateTransition
	}

	if err := s.ledger.ReverseWithdrawalTx(tx, request.AccountID, request.TransactionID, request.Amount); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM withdrawal_requests WHERE id = $1`, request.ID); err != nil {
		return transientErr("delete withdrawal request", err)
	}

	if err := tx.Commit(); err != nil {
		return transientErr("commit cancel withdrawal", err)
	}

	return nil
}

func (s *WithdrawalService) lockRequest(tx *sql.Tx, requestID string) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := tx.QueryRow(`
		SELECT id, account_id, amount, method, destination, status, admin_note, transaction_id, created_at, updated_at
		FROM withdrawal_requests
		WHERE id = $1
		FOR UPDATE`, requestID).Scan(
		&request.ID, &request.AccountID, &request.Amount, &request.Method, &request.Destination,
		&request.Status, &request.AdminNote, &request.TransactionID, &request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, transientErr("lock withdrawal request", err)
	}
	return &request, nil
}
