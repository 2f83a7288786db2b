package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Asunoke/zayno/internal/middleware"
	"github.com/Asunoke/zayno/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func authedRequest(method, target string, body []byte, accountID string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBuffer(body))
	return r.WithContext(middleware.WithAccount(r.Context(), accountID, false))
}

func TestTransferService_CreateTransfer(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewTransferService(db, nil, NewLedgerService(db))

	t.Run("successful transfer by ZYN number", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM accounts WHERE zyn_id = \\$1 AND is_active = TRUE").
			WithArgs("ZYN000777").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("acc2", "Moussa Keita"))

		mock.ExpectBegin()

		expectLockAccount(mock, "acc1", "Awa Traoré", 100000, 1)
		expectLockAccount(mock, "acc2", "Moussa Keita", 0, 1)

		mock.ExpectExec("INSERT INTO transactions").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(3, 45000))
		mock.ExpectExec("UPDATE accounts SET credit_score").
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectCommit()

		body, _ := json.Marshal(TransferRequest{RecipientZynID: "ZYN000777", Amount: 15000})
		w := httptest.NewRecorder()

		service.CreateTransfer(w, authedRequest("POST", "/transfers", body, "acc1"))

		assert.Equal(t, http.StatusOK, w.Code)
		var record models.Transaction
		json.Unmarshal(w.Body.Bytes(), &record)
		assert.Equal(t, models.KindTransfer, record.Kind)
		assert.Equal(t, models.TxCompleted, record.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown recipient", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM accounts WHERE zyn_id = \\$1 AND is_active = TRUE").
			WithArgs("ZYN999999").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		body, _ := json.Marshal(TransferRequest{RecipientZynID: "ZYN999999", Amount: 15000})
		w := httptest.NewRecorder()

		service.CreateTransfer(w, authedRequest("POST", "/transfers", body, "acc1"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient funds maps to 400", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name FROM accounts WHERE zyn_id").
			WithArgs("ZYN000777").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("acc2", "Moussa Keita"))

		mock.ExpectBegin()
		expectLockAccount(mock, "acc1", "Awa Traoré", 100, 1)
		expectLockAccount(mock, "acc2", "Moussa Keita", 0, 1)
		mock.ExpectRollback()

		body, _ := json.Marshal(TransferRequest{RecipientZynID: "ZYN000777", Amount: 15000})
		w := httptest.NewRecorder()

		service.CreateTransfer(w, authedRequest("POST", "/transfers", body, "acc1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		body, _ := json.Marshal(TransferRequest{RecipientZynID: "ZYN000777", Amount: 15000})
		r := httptest.NewRequest("POST", "/transfers", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateTransfer(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		body, _ := json.Marshal(TransferRequest{RecipientZynID: "ZYN000777"})
		w := httptest.NewRecorder()

		service.CreateTransfer(w, authedRequest("POST", "/transfers", body, "acc1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransferService_GetHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewTransferService(db, nil, NewLedgerService(db))

	t.Run("directions follow the account's role", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "reference", "kind", "amount", "status", "description",
			"created_at", "sender_id", "receiver_id", "sender_name", "receiver_name"}).
			AddRow("tx1", "ZYN1001", "TRANSFER", 15000, "COMPLETED", "Loyer", now, "acc1", "acc2", "Awa Traoré", "Moussa Keita").
			AddRow("tx2", "ZYN1002", "TRANSFER", 8000, "COMPLETED", "", now, "acc3", "acc1", "Fatou Diallo", "Awa Traoré").
			AddRow("tx3", "ZYN1003", "WITHDRAWAL", 30000, "PENDING", "Retrait AGENT", now, "acc1", nil, "Awa Traoré", "")

		mock.ExpectQuery("FROM transactions t").
			WithArgs("acc1", 20).
			WillReturnRows(rows)

		w := httptest.NewRecorder()
		service.GetHistory(w, authedRequest("GET", "/transactions", nil, "acc1"))

		assert.Equal(t, http.StatusOK, w.Code)
		var entries []HistoryEntry
		json.Unmarshal(w.Body.Bytes(), &entries)
		assert.Len(t, entries, 3)
		assert.Equal(t, "OUT", entries[0].Direction)
		assert.Equal(t, "Moussa Keita", entries[0].Counterpart)
		assert.Equal(t, "IN", entries[1].Direction)
		assert.Equal(t, "Fatou Diallo", entries[1].Counterpart)
		assert.Equal(t, "OUT", entries[2].Direction)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty history returns an empty list", func(t *testing.T) {
		mock.ExpectQuery("FROM transactions t").
			WithArgs("acc1", 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "kind", "amount", "status", "description",
				"created_at", "sender_id", "receiver_id", "sender_name", "receiver_name"}))

		w := httptest.NewRecorder()
		service.GetHistory(w, authedRequest("GET", "/transactions", nil, "acc1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
