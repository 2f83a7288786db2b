package services

import (
	"errors"
	"fmt"
)

// Business errors surfaced to callers as user-facing rejections. Anything
// not in this taxonomy is wrapped as a transient failure so the caller can
// decide whether a retry is safe.
var (
	ErrInvalidAmount          = errors.New("amount must be a positive number")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrAccountNotFound        = errors.New("account not found")
	ErrSameAccount            = errors.New("cannot transfer to the same account")
	ErrInvalidStateTransition = errors.New("request already resolved")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrRequestExpired         = errors.New("request has expired")
	ErrRequestNotFound        = errors.New("request not found")
)

// ErrTransient marks store-level failures (connection lost, lock timeout)
// that left no partial state behind. Retrying the whole operation is safe.
var ErrTransient = errors.New("temporary failure")

func transientErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransient, op, err)
}

// IsBusinessError reports whether err belongs to the recoverable taxonomy
// rather than being an unexpected store failure.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrInsufficientFunds,
		ErrAccountNotFound,
		ErrSameAccount,
		ErrInvalidStateTransition,
		ErrUnauthorized,
		ErrRequestExpired,
		ErrRequestNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
