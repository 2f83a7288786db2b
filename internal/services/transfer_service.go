package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/Asunoke/zayno/internal/config"
	"github.com/Asunoke/zayno/internal/middleware"
	"github.com/go-redis/redis/v8"
)

// TransferService exposes peer-to-peer transfers and transaction history
// over HTTP. The money movement itself is delegated to the ledger.
type TransferService struct {
	db        *sql.DB
	ledger    *LedgerService
	notifier  *Notifier
	validator *ValidationHelper
	cfg       *config.BankingConfig
}

// TransferRequest is the transfer payload. The recipient is addressed by
// ZYN number, never by internal account id.
type TransferRequest struct {
	RecipientZynID string `json:"recipientZynId" validate:"required" example:"ZYN042137"` // Recipient ZYN number
	Amount         int64  `json:"amount" validate:"required,gt=0" example:"15000"`        // Amount in FCFA
	Description    string `json:"description" example:"Loyer août"`                       // Optional description
}

// HistoryEntry is one line of an account's transaction history.
type HistoryEntry struct {
	ID          string `json:"id"`
	Reference   string `json:"reference"`
	Kind        string `json:"kind"`
	Direction   string `json:"direction"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Counterpart string `json:"counterpart,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

func NewTransferService(db *sql.DB, redisClient *redis.Client, ledger *LedgerService) *TransferService {
	return &TransferService{
		db:        db,
		ledger:    ledger,
		notifier:  NewNotifier(redisClient),
		validator: NewValidationHelper(),
		cfg:       config.GetBankingConfig(),
	}
}

// CreateTransfer handles a peer-to-peer transfer
// @Summary Transfer money
// @Description Send money to another account by ZYN number
// @Tags transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "Transfer data"
// @Success 200 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /transfers [post]
func (ts *TransferService) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	senderID := middleware.AccountIDFromContext(r.Context())
	if senderID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req TransferRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var receiverID, receiverName string
	err := ts.db.QueryRow(`SELECT id, name FROM accounts WHERE zyn_id = $1 AND is_active = TRUE`,
		req.RecipientZynID).Scan(&receiverID, &receiverName)
	if errors.Is(err, sql.ErrNoRows) {
		SendErrorResponse(w, "Recipient not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[TRANSFER] Recipient lookup failed for %s: %v", req.RecipientZynID, err)
		SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
		return
	}

	record, err := ts.ledger.Transfer(senderID, receiverID, req.Amount, req.Description)
	if err != nil {
		log.Printf("[TRANSFER] Transfer failed from %s to %s: %v", senderID, req.RecipientZynID, err)
		SendBusinessError(w, err)
		return
	}

	ts.notifier.Notify(context.Background(), Notification{
		AccountID: receiverID,
		Event:     "TRANSFER_RECEIVED",
		Message:   fmt.Sprintf("Vous avez reçu %d FCFA", req.Amount),
		Amount:    req.Amount,
		Reference: record.Reference,
	})

	log.Printf("[TRANSFER] %s -> %s completed, reference %s", senderID, req.RecipientZynID, record.Reference)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// GetHistory returns the account's recent transactions
// @Summary Transaction history
// @Description List the authenticated account's most recent transactions
// @Tags transfers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} HistoryEntry
// @Failure 401 {object} ErrorResponse
// @Router /transactions [get]
func (ts *TransferService) GetHistory(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := ts.db.Query(`
		SELECT t.id, t.reference, t.kind, t.amount, t.status, t.description, t.created_at,
		       t.sender_id, t.receiver_id,
		       COALESCE(s.name, ''), COALESCE(rcv.name, '')
		FROM transactions t
		LEFT JOIN accounts s ON t.sender_id = s.id
		LEFT JOIN accounts rcv ON t.receiver_id = rcv.id
		WHERE t.sender_id = $1 OR t.receiver_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2`, accountID, ts.cfg.HistoryPageSize)
	if err != nil {
		log.Printf("[TRANSFER] History query failed for %s: %v", accountID, err)
		SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var (
			entry                    HistoryEntry
			senderID, receiverID     sql.NullString
			senderName, receiverName string
			createdAt                sql.NullTime
		)
		if err := rows.Scan(&entry.ID, &entry.Reference, &entry.Kind, &entry.Amount, &entry.Status,
			&entry.Description, &createdAt, &senderID, &receiverID, &senderName, &receiverName); err != nil {
			log.Printf("[TRANSFER] History scan failed for %s: %v", accountID, err)
			SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
			return
		}

		if senderID.Valid && senderID.String == accountID {
			entry.Direction = "OUT"
			entry.Counterpart = receiverName
		} else {
			entry.Direction = "IN"
			entry.Counterpart = senderName
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time.Format("2006-01-02T15:04:05Z07:00")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[TRANSFER] History iteration failed for %s: %v", accountID, err)
		SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
