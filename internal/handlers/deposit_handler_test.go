package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Asunoke/zayno/internal/middleware"
	"github.com/Asunoke/zayno/internal/services"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func expectDepositSweep(mock sqlmock.Sqlmock) {
	mock.ExpectExec("UPDATE deposit_requests SET status = \\$1, updated_at = \\$2 WHERE status = \\$3 AND expires_at < \\$2").
		WithArgs("EXPIRED", sqlmock.AnyArg(), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectDepositRow(mock sqlmock.Sqlmock, requestID, accountID string) {
	now := time.Now()
	mock.ExpectQuery("SELECT id, account_id, amount, method, phone_number, status, admin_note, expires_at, created_at, updated_at FROM deposit_requests WHERE id = \\$1").
		WithArgs(requestID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "amount", "method", "phone_number", "status", "admin_note", "expires_at", "created_at", "updated_at"}).
			AddRow(requestID, accountID, 50000, "MOBILE_MONEY", "+22370123456", "PENDING", "", now.Add(30*time.Minute), now, now))
}

func TestDepositHandler_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := services.NewDepositService(db, services.NewLedgerService(db), services.NewNotifier(nil))
	handler := NewDepositHandler(service)

	r := chi.NewRouter()
	r.Get("/deposits/{id}", handler.Get)

	serve := func(requestID, callerID string, isAdmin bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/deposits/"+requestID, nil)
		req = req.WithContext(middleware.WithAccount(req.Context(), callerID, isAdmin))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("owner fetches their request", func(t *testing.T) {
		expectDepositSweep(mock)
		expectDepositRow(mock, "req1", "acc1")

		w := serve("req1", "acc1", false)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"acc1"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("another account's request looks absent", func(t *testing.T) {
		expectDepositSweep(mock)
		expectDepositRow(mock, "req1", "acc1")

		w := serve("req1", "acc2", false)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin fetches any request", func(t *testing.T) {
		expectDepositSweep(mock)
		expectDepositRow(mock, "req1", "acc1")

		w := serve("req1", "admin1", true)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing request returns 404", func(t *testing.T) {
		expectDepositSweep(mock)
		mock.ExpectQuery("SELECT id, account_id, amount, method, phone_number, status, admin_note, expires_at, created_at, updated_at FROM deposit_requests WHERE id = \\$1").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		w := serve("ghost", "acc1", false)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
