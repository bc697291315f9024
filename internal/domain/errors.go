package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (file I/O, database, network).

var (
	// ===========================================
	// Account Errors
	// ===========================================

	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists indicates the username is already taken.
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrInvalidCredentials indicates authentication failed.
	// It never reveals whether the username exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountPending indicates the account is waiting for admin approval.
	ErrAccountPending = errors.New("account is pending approval")

	// ErrAccountDenied indicates an admin rejected the account.
	ErrAccountDenied = errors.New("account has been denied")

	// ErrIncorrectPassword indicates the old password given for a change did not match.
	ErrIncorrectPassword = errors.New("old password is incorrect")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidAccountStatus indicates an unknown account status.
	ErrInvalidAccountStatus = errors.New("invalid account status")

	// ErrAccessDenied indicates the caller lacks the role required for an action.
	ErrAccessDenied = errors.New("access denied")

	// ===========================================
	// Product Errors
	// ===========================================

	// ErrProductNotFound indicates the requested product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrProductUnavailable indicates the product is not AVAILABLE for purchase.
	ErrProductUnavailable = errors.New("product is no longer available")

	// ErrInsufficientStock indicates fewer units remain than were requested.
	ErrInsufficientStock = errors.New("not enough stock")

	// ErrInvalidProduct indicates product fields failed validation.
	ErrInvalidProduct = errors.New("invalid product")

	// ===========================================
	// Input Errors
	// ===========================================

	// ErrValidation indicates caller input failed validation.
	ErrValidation = errors.New("validation failed")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., username, product id).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// InsufficientStockError reports how much stock was left when a purchase was rejected.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

// Error implements the error interface.
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: %s has %d, requested %d", ErrInsufficientStock, e.ProductID, e.Available, e.Requested)
}

// Unwrap makes errors.Is(err, ErrInsufficientStock) work.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// IsBusinessError reports whether err is an expected rule violation rather
// than an infrastructure failure.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrAccountNotFound, ErrAccountAlreadyExists, ErrInvalidCredentials,
		ErrAccountPending, ErrAccountDenied, ErrIncorrectPassword,
		ErrInvalidRole, ErrInvalidAccountStatus, ErrAccessDenied,
		ErrProductNotFound, ErrProductUnavailable,
		ErrInsufficientStock, ErrInvalidProduct, ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
