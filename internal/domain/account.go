// Package domain contains the core business entities for the FreshDeal marketplace.
// These are plain Go structs with no storage or transport concerns, representing
// accounts, products, the purchase ledger and the server audit trail.
package domain

import (
	"strings"
)

// Role identifies what an account is allowed to do in the marketplace.
type Role string

const (
	// RoleAdmin approves sellers and manages users.
	RoleAdmin Role = "ADMIN"

	// RoleBuyer browses and purchases products.
	RoleBuyer Role = "BUYER"

	// RoleSeller lists products for sale.
	// Seller accounts need admin approval before they can log in.
	RoleSeller Role = "SELLER"
)

// ParseRole normalises a caller-supplied role. An empty value defaults to BUYER.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case "":
		return RoleBuyer, nil
	case RoleAdmin, RoleBuyer, RoleSeller:
		return r, nil
	default:
		return "", NewDomainError(ErrInvalidRole, "must be one of ADMIN, BUYER, SELLER", s)
	}
}

// AccountStatus is the approval state of an account.
type AccountStatus string

const (
	AccountPending  AccountStatus = "PENDING"
	AccountApproved AccountStatus = "APPROVED"
	AccountDenied   AccountStatus = "DENIED"
)

// ParseAccountStatus validates an account status supplied by an admin.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch st := AccountStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case AccountPending, AccountApproved, AccountDenied:
		return st, nil
	default:
		return "", NewDomainError(ErrInvalidAccountStatus, "must be one of PENDING, APPROVED, DENIED", s)
	}
}

// Account represents a registered marketplace user.
type Account struct {
	// AccountID is the generated identifier (ACC-XXXXXXXX).
	AccountID string `xml:"accountId"`

	// Username is unique across accounts, compared case-insensitively at registration.
	Username string `xml:"username"`

	// Password is the stored credential. Depending on configuration it is either
	// the value supplied by the user or a bcrypt hash of it.
	Password string `xml:"password"`

	Role   Role          `xml:"role"`
	Status AccountStatus `xml:"status"`
}

// NewAccount creates an account with a fresh id. Sellers start PENDING,
// every other role starts APPROVED.
func NewAccount(username, password string, role Role) *Account {
	status := AccountApproved
	if role == RoleSeller {
		status = AccountPending
	}
	return &Account{
		AccountID: NewAccountID(),
		Username:  username,
		Password:  password,
		Role:      role,
		Status:    status,
	}
}

// CanLogin returns true if the account has been approved.
func (a *Account) CanLogin() bool {
	return a.Status == AccountApproved
}

// SameUsername reports whether name matches the account's username ignoring case.
func (a *Account) SameUsername(name string) bool {
	return strings.EqualFold(a.Username, name)
}
