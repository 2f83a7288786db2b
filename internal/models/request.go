package models

import (
	"time"
)

// PaymentMethod is the channel a deposit arrives through or a withdrawal
// is paid out to.
type PaymentMethod string

const (
	MethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodAgent        PaymentMethod = "AGENT"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMobileMoney, MethodBankTransfer, MethodAgent:
		return true
	}
	return false
}

// DepositStatus is the lifecycle state of a deposit request. PENDING is
// the only non-terminal state; a request transitions exactly once.
type DepositStatus string

const (
	DepositPending   DepositStatus = "PENDING"
	DepositConfirmed DepositStatus = "CONFIRMED"
	DepositRejected  DepositStatus = "REJECTED"
	DepositExpired   DepositStatus = "EXPIRED"
)

// DepositRequest is a customer's claim that funds are on the way. It has
// no balance effect until an admin confirms it, and it silently expires
// if left unresolved past ExpiresAt.
type DepositRequest struct {
	ID          string        `json:"id" db:"id"`
	AccountID   string        `json:"accountId" db:"account_id"`
	Amount      int64         `json:"amount" db:"amount"`
	Method      PaymentMethod `json:"method" db:"method"`
	PhoneNumber string        `json:"phoneNumber,omitempty" db:"phone_number"`
	Status      DepositStatus `json:"status" db:"status"`
	AdminNote   string        `json:"adminNote,omitempty" db:"admin_note"`
	ExpiresAt   time.Time     `json:"expiresAt" db:"expires_at"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

// WithdrawalStatus is the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
)

// WithdrawalRequest reserves funds the moment it is created: the account
// is debited up front so the payout can never bounce. Rejection and
// cancellation must credit the same amount back.
type WithdrawalRequest struct {
	ID            string           `json:"id" db:"id"`
	AccountID     string           `json:"accountId" db:"account_id"`
	Amount        int64            `json:"amount" db:"amount"`
	Method        PaymentMethod    `json:"method" db:"method"`
	Destination   string           `json:"destination" db:"destination"`
	Status        WithdrawalStatus `json:"status" db:"status"`
	AdminNote     string           `json:"adminNote,omitempty" db:"admin_note"`
	TransactionID string           `json:"transactionId" db:"transaction_id"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
}
