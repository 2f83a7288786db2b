package models

import (
	"time"
)

// TransactionKind is the business reason for a balance movement.
type TransactionKind string

const (
	KindDeposit       TransactionKind = "DEPOSIT"
	KindWithdrawal    TransactionKind = "WITHDRAWAL"
	KindTransfer      TransactionKind = "TRANSFER"
	KindLoanRepayment TransactionKind = "LOAN_REPAYMENT"
)

// TransactionStatus tracks settlement of a transaction. Amount and parties
// are immutable after creation; only the status may change, and never away
// from COMPLETED.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "PENDING"
	TxCompleted TransactionStatus = "COMPLETED"
	TxFailed    TransactionStatus = "FAILED"
)

// Transaction is the domain record appended for every balance-affecting
// operation. At least one of SenderID/ReceiverID is always set: debits
// carry a sender, credits a receiver, transfers both.
type Transaction struct {
	ID          string            `json:"id" db:"id"`
	Reference   string            `json:"reference" db:"reference"`
	Kind        TransactionKind   `json:"kind" db:"kind"`
	Amount      int64             `json:"amount" db:"amount"` // FCFA, always positive
	Status      TransactionStatus `json:"status" db:"status"`
	Description string            `json:"description" db:"description"`
	SenderID    *string           `json:"senderId,omitempty" db:"sender_id"`
	ReceiverID  *string           `json:"receiverId,omitempty" db:"receiver_id"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
}

// LedgerEntry is one accounting leg of a transaction: a signed amount
// against a single account together with the balance that resulted.
// Entries are append-only and never updated.
type LedgerEntry struct {
	ID            int       `json:"id" db:"id"`
	TransactionID string    `json:"transactionId" db:"transaction_id"`
	AccountID     string    `json:"accountId" db:"account_id"`
	Amount        int64     `json:"amount" db:"amount"`        // negative for debits
	EntryType     string    `json:"entryType" db:"entry_type"` // DEBIT or CREDIT
	Balance       int64     `json:"balance" db:"balance"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
