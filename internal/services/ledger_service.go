package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Asunoke/zayno/internal/models"
	"github.com/google/uuid"
)

// LedgerService owns every balance mutation. Each operation runs as a
// single database transaction: the balance update, the double-entry
// ledger legs and the domain transaction row commit together or not at
// all. No other service writes accounts.balance.
type LedgerService struct {
	db      *sql.DB
	scoring *ScoringService
	audit   *AuditLogger
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{
		db:      db,
		scoring: NewScoringService(db),
		audit:   NewAuditLogger(),
	}
}

// Credit increases an account's balance and records a transaction of the
// given kind with the account as receiver.
func (s *LedgerService) Credit(accountID string, amount int64, kind models.TransactionKind, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, transientErr("begin credit", err)
	}
	defer tx.Rollback()

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	record := s.newTransaction(kind, amount, description)
	record.ReceiverID = &account.ID

	if err := s.applyCredit(tx, record, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, transientErr("commit credit", err)
	}

	s.audit.LogOperation(record.ID, account.ID, "CREDIT", fmt.Sprintf("%s credited: %d", kind, amount))
	return record, nil
}

// Debit decreases an account's balance and records a transaction of the
// given kind with the account as sender. Fails with ErrInsufficientFunds
// when the balance cannot cover the amount; the account is left untouched.
func (s *LedgerService) Debit(accountID string, amount int64, kind models.TransactionKind, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, transientErr("begin debit", err)
	}
	defer tx.Rollback()

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	record := s.newTransaction(kind, amount, description)
	record.SenderID = &account.ID

	if err := s.applyDebit(tx, record, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, transientErr("commit debit", err)
	}

	s.audit.LogOperation(record.ID, account.ID, "DEBIT", fmt.Sprintf("%s debited: %d", kind, amount))
	return record, nil
}

// Transfer atomically debits the sender and credits the receiver, records
// one COMPLETED TRANSFER transaction referencing both, and refreshes the
// sender's credit score within the same database transaction. Either all
// of it applies or none of it does.
func (s *LedgerService) Transfer(senderID, receiverID string, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if senderID == receiverID {
		return nil, ErrSameAccount
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, transientErr("begin transfer", err)
	}
	defer tx.Rollback()

	record, err := s.TransferTx(tx, senderID, receiverID, amount, description)
	if err != nil {
		s.audit.LogError("", senderID, err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, transientErr("commit transfer", err)
	}

	s.audit.LogTransfer(record.ID, senderID, receiverID, amount, string(models.TxCompleted))
	return record, nil
}

// TransferTx performs the transfer inside an existing database transaction.
func (s *LedgerService) TransferTx(tx *sql.Tx, senderID, receiverID string, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if senderID == receiverID {
		return nil, ErrSameAccount
	}

	// Lock accounts in consistent order to prevent deadlocks
	firstLock, secondLock := senderID, receiverID
	if senderID > receiverID {
		firstLock, secondLock = receiverID, senderID
	}

	first, err := s.lockAccount(tx, firstLock)
	if err != nil {
		return nil, err
	}

	second, err := s.lockAccount(tx, secondLock)
	if err != nil {
		return nil, err
	}

	sender, receiver := first, second
	if firstLock != senderID {
		sender, receiver = second, first
	}

	if sender.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	if description == "" {
		description = fmt.Sprintf("Transfert vers %s", receiver.Name)
	}

	record := s.newTransaction(models.KindTransfer, amount, description)
	record.SenderID = &sender.ID
	record.ReceiverID = &receiver.ID

	if err := s.insertTransaction(tx, record); err != nil {
		return nil, err
	}

	if err := s.createLedgerEntry(tx, record.ID, sender.ID, -amount, "DEBIT", sender.Balance-amount); err != nil {
		return nil, err
	}

	if err := s.createLedgerEntry(tx, record.ID, receiver.ID, amount, "CREDIT", receiver.Balance+amount); err != nil {
		return nil, err
	}

	if err := s.updateAccountBalance(tx, sender.ID, sender.Balance-amount, sender.Version); err != nil {
		return nil, err
	}

	if err := s.updateAccountBalance(tx, receiver.ID, receiver.Balance+amount, receiver.Version); err != nil {
		return nil, err
	}

	// Transfers are the only operation that refreshes the sender's
	// credit standing.
	if _, _, err := s.scoring.RecalculateTx(tx, sender.ID); err != nil {
		return nil, err
	}

	return record, nil
}

// RecordDepositTx credits the account and records a COMPLETED DEPOSIT
// transaction, inside an existing database transaction. Used when a
// pending deposit request is confirmed.
func (s *LedgerService) RecordDepositTx(tx *sql.Tx, accountID string, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	record := s.newTransaction(models.KindDeposit, amount, description)
	record.ReceiverID = &account.ID

	return record, s.applyCredit(tx, record, account)
}

// RecordWithdrawalTx debits the account as a reservation and records a
// PENDING WITHDRAWAL transaction. The reservation is released by
// ReverseWithdrawalTx or settled by CompleteWithdrawalTx.
func (s *LedgerService) RecordWithdrawalTx(tx *sql.Tx, accountID string, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	record := s.newTransaction(models.KindWithdrawal, amount, description)
	record.SenderID = &account.ID
	record.Status = models.TxPending

	if err := s.insertTransaction(tx, record); err != nil {
		return nil, err
	}

	if err := s.createLedgerEntry(tx, record.ID, account.ID, -amount, "DEBIT", account.Balance-amount); err != nil {
		return nil, err
	}

	return record, s.updateAccountBalance(tx, account.ID, account.Balance-amount, account.Version)
}

// CompleteWithdrawalTx settles a pending withdrawal transaction. Funds
// were already debited at reservation time, so there is no balance effect.
func (s *LedgerService) CompleteWithdrawalTx(tx *sql.Tx, transactionID string) error {
	result, err := tx.Exec(`
		UPDATE transactions
		SET status = $1
		WHERE id = $2 AND status = $3`,
		models.TxCompleted, transactionID, models.TxPending)
	if err != nil {
		return transientErr("complete withdrawal", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return transientErr("complete withdrawal", err)
	}
	if rowsAffected == 0 {
		return ErrInvalidStateTransition
	}

	return nil
}

// ReverseWithdrawalTx releases a reservation: the amount is credited back
// and the pending withdrawal transaction is marked FAILED. The credit
// mirrors the original debit exactly, returning the balance to its value
// before the request was created.
func (s *LedgerService) ReverseWithdrawalTx(tx *sql.Tx, accountID, transactionID string, amount int64) error {
	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return err
	}

	result, err := tx.Exec(`
		UPDATE transactions
		SET status = $1
		WHERE id = $2 AND status = $3`,
		models.TxFailed, transactionID, models.TxPending)
	if err != nil {
		return transientErr("reverse withdrawal", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return transientErr("reverse withdrawal", err)
	}
	if rowsAffected == 0 {
		return ErrInvalidStateTransition
	}

	if err := s.createLedgerEntry(tx, transactionID, account.ID, amount, "CREDIT", account.Balance+amount); err != nil {
		return err
	}

	return s.updateAccountBalance(tx, account.ID, account.Balance+amount, account.Version)
}

func (s *LedgerService) applyCredit(tx *sql.Tx, record *models.Transaction, account *models.Account) error {
	if err := s.insertTransaction(tx, record); err != nil {
		return err
	}

	if err := s.createLedgerEntry(tx, record.ID, account.ID, record.Amount, "CREDIT", account.Balance+record.Amount); err != nil {
		return err
	}

	return s.updateAccountBalance(tx, account.ID, account.Balance+record.Amount, account.Version)
}

func (s *LedgerService) applyDebit(tx *sql.Tx, record *models.Transaction, account *models.Account) error {
	if account.Balance < record.Amount {
		return ErrInsufficientFunds
	}

	if err := s.insertTransaction(tx, record); err != nil {
		return err
	}

	if err := s.createLedgerEntry(tx, record.ID, account.ID, -record.Amount, "DEBIT", account.Balance-record.Amount); err != nil {
		return err
	}

	return s.updateAccountBalance(tx, account.ID, account.Balance-record.Amount, account.Version)
}

func (s *LedgerService) newTransaction(kind models.TransactionKind, amount int64, description string) *models.Transaction {
	return &models.Transaction{
		ID:          uuid.New().String(),
		Reference:   generateReference(),
		Kind:        kind,
		Amount:      amount,
		Status:      models.TxCompleted,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

func (s *LedgerService) lockAccount(tx *sql.Tx, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRow(`
		SELECT id, name, balance, version, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, accountID).Scan(&account.ID, &account.Name, &account.Balance, &account.Version, &account.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, transientErr("lock account", err)
	}

	return &account, nil
}

func (s *LedgerService) insertTransaction(tx *sql.Tx, record *models.Transaction) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (id, reference, kind, amount, status, description, sender_id, receiver_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.Reference, record.Kind, record.Amount, record.Status,
		record.Description, record.SenderID, record.ReceiverID, record.CreatedAt)
	if err != nil {
		return transientErr("insert transaction", err)
	}
	return nil
}

func (s *LedgerService) createLedgerEntry(tx *sql.Tx, transactionID, accountID string, amount int64, entryType string, balance int64) error {
	_, err := tx.Exec(`
		INSERT INTO ledger_entries (transaction_id, account_id, amount, entry_type, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		transactionID, accountID, amount, entryType, balance, time.Now())
	if err != nil {
		return transientErr("create ledger entry", err)
	}
	return nil
}

func (s *LedgerService) updateAccountBalance(tx *sql.Tx, accountID string, newBalance int64, version int) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, time.Now(), accountID, version)

	if err != nil {
		return transientErr("update balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return transientErr("update balance", err)
	}

	if rowsAffected == 0 {
		return transientErr("update balance", fmt.Errorf("optimistic lock failed for account %s", accountID))
	}

	return nil
}

func generateReference() string {
	return fmt.Sprintf("ZYN%d%03d", time.Now().UnixMilli(), rand.Intn(1000))
}
