package services

import (
	"encoding/json"
	"log"
	"time"
)

// AuditLogger emits a structured line for every ledger mutation. Entries
// are written to the process log; a collector ships them downstream.
type AuditLogger struct{}

type AuditEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	TransactionID string    `json:"transaction_id,omitempty"`
	AccountID     string    `json:"account_id,omitempty"`
	CounterpartID string    `json:"counterpart_id,omitempty"`
	Operation     string    `json:"operation"`
	Amount        int64     `json:"amount,omitempty"`
	Status        string    `json:"status,omitempty"`
	Detail        string    `json:"detail,omitempty"`
}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

func (a *AuditLogger) LogTransfer(transactionID, senderID, receiverID string, amount int64, status string) {
	a.emit(AuditEvent{
		Timestamp:     time.Now(),
		TransactionID: transactionID,
		AccountID:     senderID,
		CounterpartID: receiverID,
		Operation:     "TRANSFER",
		Amount:        amount,
		Status:        status,
	})
}

func (a *AuditLogger) LogOperation(transactionID, accountID, operation, detail string) {
	a.emit(AuditEvent{
		Timestamp:     time.Now(),
		TransactionID: transactionID,
		AccountID:     accountID,
		Operation:     operation,
		Detail:        detail,
	})
}

func (a *AuditLogger) LogError(transactionID, accountID string, err error) {
	a.emit(AuditEvent{
		Timestamp:     time.Now(),
		TransactionID: transactionID,
		AccountID:     accountID,
		Operation:     "ERROR",
		Detail:        err.Error(),
	})
}

func (a *AuditLogger) emit(event AuditEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[AUDIT] marshal failed: %v", err)
		return
	}
	log.Printf("AUDIT: %s", data)
}
