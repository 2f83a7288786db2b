package services

import (
	"testing"
	"time"

	"github.com/Asunoke/zayno/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func depositColumns() []string {
	return []string{"id", "account_id", "amount", "method", "phone_number", "status", "admin_note", "expires_at", "created_at", "updated_at"}
}

func newDepositService(t *testing.T) (*DepositService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	return NewDepositService(db, NewLedgerService(db), NewNotifier(nil)), mock, func() { db.Close() }
}

func TestDepositService_Create(t *testing.T) {
	service, mock, closeDB := newDepositService(t)
	defer closeDB()

	t.Run("creates pending request with expiry window", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO deposit_requests").
			WithArgs(sqlmock.AnyArg(), "acc1", int64(50000), "MOBILE_MONEY", "+22370123456",
				"PENDING", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		request, err := service.Create("acc1", 50000, models.MethodMobileMoney, "+22370123456")
		assert.NoError(t, err)
		assert.Equal(t, models.DepositPending, request.Status)
		assert.WithinDuration(t, time.Now().Add(50*time.Minute), request.ExpiresAt, 5*time.Second)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := service.Create("acc1", 0, models.MethodAgent, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := service.Create("acc1", 1000, models.PaymentMethod("CASH"), "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestDepositService_Resolve(t *testing.T) {
	service, mock, closeDB := newDepositService(t)
	defer closeDB()

	expiresAt := time.Now().Add(30 * time.Minute)

	t.Run("confirmation credits the account atomically", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT id, account_id, amount, method, phone_number, status, admin_note, expires_at, created_at, updated_at FROM deposit_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("req1").
			WillReturnRows(sqlmock.NewRows(depositColumns()).
				AddRow("req1", "acc1", 50000, "MOBILE_MONEY", "+22370123456", "PENDING", "", expiresAt, time.Now(), time.Now()))

		expectLockAccount(mock, "acc1", "Awa Traoré", 10000, 4)

		mock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "DEPOSIT", int64(50000), "COMPLETED",
				"Dépôt MOBILE_MONEY confirmé", nil, "acc1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(sqlmock.AnyArg(), "acc1", int64(50000), "CREDIT", int64(60000), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("UPDATE accounts SET balance").
			WithArgs(int64(60000), sqlmock.AnyArg(), "acc1", 4).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("UPDATE deposit_requests SET status = \\$1, admin_note = \\$2, updated_at = \\$3 WHERE id = \\$4").
			WithArgs("CONFIRMED", "Reçu mobile money vérifié", sqlmock.AnyArg(), "req1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectCommit()

		request, err := service.Resolve("req1", true, "Reçu mobile money vérifié")
		assert.NoError(t, err)
		assert.Equal(t, models.DepositConfirmed, request.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejection never touches the balance", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT id, account_id, amount, method, phone_number, status, admin_note, expires_at, created_at, updated_at FROM deposit_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("req2").
			WillReturnRows(sqlmock.NewRows(depositColumns()).
				AddRow("req2", "acc1", 50000, "AGENT", "", "PENDING", "", expiresAt, time.Now(), time.Now()))

		mock.ExpectExec("UPDATE deposit_requests SET status = \\$1, admin_note = \\$2, updated_at = \\$3 WHERE id = \\$4").
			WithArgs("REJECTED", "Aucun reçu fourni", sqlmock.AnyArg(), "req2").
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectCommit()

		request, err := service.Resolve("req2", false, "Aucun reçu fourni")
		assert.NoError(t, err)
		assert.Equal(t, models.DepositRejected, request.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("resolving an expired request lapses it", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("FROM deposit_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("req3").
			WillReturnRows(sqlmock.NewRows(depositColumns()).
				AddRow("req3", "acc1", 50000, "AGENT", "", "PENDING", "", time.Now().Add(-time.Minute), time.Now(), time.Now()))

		mock.ExpectExec("UPDATE deposit_requests SET status = \\$1, updated_at = \\$2 WHERE id = \\$3").
			WithArgs("EXPIRED", sqlmock.AnyArg(), "req3").
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectCommit()

		_, err := service.Resolve("req3", true, "")
		assert.ErrorIs(t, err, ErrRequestExpired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal requests cannot be re-resolved", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("FROM deposit_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("req4").
			WillReturnRows(sqlmock.NewRows(depositColumns()).
				AddRow("req4", "acc1", 50000, "AGENT", "", "CONFIRMED", "ok", expiresAt, time.Now(), time.Now()))

		mock.ExpectRollback()

		_, err := service.Resolve("req4", false, "")
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown request", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("FROM deposit_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(depositColumns()))

		mock.ExpectRollback()

		_, err := service.Resolve("ghost", true, "")
		assert.ErrorIs(t, err, ErrRequestNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDepositService_LazyExpiry(t *testing.T) {
	service, mock, closeDB := newDepositService(t)
	defer closeDB()

	t.Run("listing sweeps overdue requests first", func(t *testing.T) {
		mock.ExpectExec("UPDATE deposit_requests SET status = \\$1, updated_at = \\$2 WHERE status = \\$3 AND expires_at < \\$2").
			WithArgs("EXPIRED", sqlmock.AnyArg(), "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 2))

		mock.ExpectQuery("SELECT id, account_id, amount, method, phone_number, status, admin_note, expires_at, created_at, updated_at FROM deposit_requests WHERE account_id = \\$1 ORDER BY created_at DESC").
			WithArgs("acc1").
			WillReturnRows(sqlmock.NewRows(depositColumns()).
				AddRow("req1", "acc1", 50000, "AGENT", "", "EXPIRED", "", time.Now().Add(-time.Hour), time.Now(), time.Now()))

		requests, err := service.ListForAccount("acc1")
		assert.NoError(t, err)
		assert.Len(t, requests, 1)
		assert.Equal(t, models.DepositExpired, requests[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
