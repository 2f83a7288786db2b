package services

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationHelper_PaymentMethod(t *testing.T) {
	vh := NewValidationHelper()

	type form struct {
		Method string `validate:"required,payment_method"`
	}

	assert.NoError(t, vh.ValidateStruct(&form{Method: "AGENT"}))
	assert.NoError(t, vh.ValidateStruct(&form{Method: "MOBILE_MONEY"}))
	assert.NoError(t, vh.ValidateStruct(&form{Method: "BANK_TRANSFER"}))
	assert.Error(t, vh.ValidateStruct(&form{Method: "CASH"}))
	assert.Error(t, vh.ValidateStruct(&form{}))
}

func TestSendBusinessError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{ErrInsufficientFunds, 400},
		{ErrInvalidAmount, 400},
		{ErrSameAccount, 400},
		{ErrAccountNotFound, 404},
		{ErrRequestNotFound, 404},
		{ErrUnauthorized, 403},
		{ErrInvalidStateTransition, 409},
		{ErrRequestExpired, 409},
		{transientErr("boom", errors.New("connection reset")), 500},
		{errors.New("unexpected"), 500},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		SendBusinessError(w, tt.err)
		assert.Equal(t, tt.code, w.Code, "status for %v", tt.err)
	}
}

func TestSendBusinessError_TransientHidesDetail(t *testing.T) {
	w := httptest.NewRecorder()
	SendBusinessError(w, transientErr("update balance", errors.New("pq: deadlock detected")))
	assert.NotContains(t, w.Body.String(), "deadlock")
}

func TestIsBusinessError(t *testing.T) {
	assert.True(t, IsBusinessError(ErrInsufficientFunds))
	assert.True(t, IsBusinessError(fmt.Errorf("resolve deposit: %w", ErrRequestExpired)))
	assert.False(t, IsBusinessError(ErrTransient))
	assert.False(t, IsBusinessError(errors.New("boom")))
}
