package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUserNotFound     = errors.New("user not found")
	ErrQuotaExceeded    = errors.New("hook limit reached, upgrade your plan to generate more hooks")
	ErrGenerationFailed = errors.New("failed to generate viral hooks, please try again")
	ErrStorage          = errors.New("storage error")
	ErrPayment          = errors.New("payment processor error")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrBillingDisabled    = errors.New("billing is not configured")
)

// RequestError is an ErrInvalidRequest with a message meant for the caller.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func invalidRequest(format string, args ...interface{}) error {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

// QuotaExceededError carries the counts a client needs to render remaining quota.
type QuotaExceededError struct {
	HooksUsed  int
	HooksLimit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s (%d/%d)", ErrQuotaExceeded.Error(), e.HooksUsed, e.HooksLimit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// PaymentError passes the payment processor's message through to the caller.
type PaymentError struct {
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func (e *PaymentError) Is(target error) bool {
	return target == ErrPayment
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
