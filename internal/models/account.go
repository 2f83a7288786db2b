package models

import (
	"time"
)

// Account is the single source of truth for a customer's funds.
// Balance is held in whole FCFA (XOF carries no minor unit) and is only
// ever written by the ledger service inside a database transaction.
type Account struct {
	ID          string    `json:"id" db:"id"`
	ZynID       string    `json:"zynId" db:"zyn_id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	PhoneNumber string    `json:"phoneNumber" db:"phone_number"`
	IBAN        string    `json:"iban" db:"iban"`
	Balance     int64     `json:"balance" db:"balance"`
	CreditScore int       `json:"creditScore" db:"credit_score"`
	Tier        Tier      `json:"tier" db:"tier"`
	IsAdmin     bool      `json:"isAdmin" db:"is_admin"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	Version     int       `json:"version" db:"version"` // for optimistic locking
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
