package checkout

import (
	"errors"
	"fmt"

	"github.com/xraph/checkout/payment"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("checkout: not found")
	ErrAlreadyExists = errors.New("checkout: already exists")
	ErrInvalidInput  = errors.New("checkout: invalid input")

	// Coupon errors
	ErrCouponNotFound  = errors.New("checkout: coupon not found")
	ErrCouponCodeTaken = errors.New("checkout: coupon code already exists")
	ErrCouponExhausted = errors.New("checkout: coupon usage limit reached")
	ErrCouponRejected  = errors.New("checkout: coupon rejected")

	// Product errors
	ErrProductNotFound   = errors.New("checkout: product not found")
	ErrProductInactive   = errors.New("checkout: product not available for sale")
	ErrInsufficientStock = errors.New("checkout: insufficient stock")
	ErrInvalidQuantity   = errors.New("checkout: invalid quantity")

	// Order errors
	ErrOrderNotFound       = errors.New("checkout: order not found")
	ErrEmptyOrder          = errors.New("checkout: order has no items")
	ErrOrderNotCancellable = errors.New("checkout: order is no longer cancellable")
	ErrOrderFinalized      = errors.New("checkout: order already finalized")

	// Payment errors (dispatch sentinels live in the payment package so
	// the dispatcher stays import-cycle free; aliased here for callers).
	ErrPaymentNotFound       = errors.New("checkout: payment not found")
	ErrUnknownPaymentMethod  = payment.ErrUnknownMethod
	ErrProviderNotConfigured = payment.ErrProviderNotConfigured
	ErrPaymentInitiation     = payment.ErrInitiation
	ErrBadSignature          = payment.ErrBadSignature

	// Store errors
	ErrStoreNotReady     = errors.New("checkout: store not ready")
	ErrStoreClosed       = errors.New("checkout: store is closed")
	ErrTransactionFailed = errors.New("checkout: transaction failed")
	ErrMigrationFailed   = errors.New("checkout: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("checkout: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "checkout: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("checkout: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCouponNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsConflict returns true if the error is a uniqueness or state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrCouponCodeTaken) ||
		errors.Is(err, ErrOrderFinalized)
}

// IsRejected returns true if the error is a business-rule rejection that
// the customer can act on (change coupons, reduce quantity), as opposed
// to an infrastructure failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCouponRejected) ||
		errors.Is(err, ErrCouponExhausted) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrPaymentInitiation)
}
