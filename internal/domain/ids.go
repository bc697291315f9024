package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Identifier prefixes.
const (
	AccountIDPrefix     = "ACC-"
	ProductIDPrefix     = "PRD-"
	TransactionIDPrefix = "TXN-"
)

// NewAccountID returns a fresh account identifier.
func NewAccountID() string { return newID(AccountIDPrefix) }

// NewProductID returns a fresh product identifier.
func NewProductID() string { return newID(ProductIDPrefix) }

// NewTransactionID returns a fresh transaction identifier.
func NewTransactionID() string { return newID(TransactionIDPrefix) }

func newID(prefix string) string {
	return prefix + strings.ToUpper(uuid.NewString()[:8])
}
