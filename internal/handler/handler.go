// Package handler maps protocol requests onto the marketplace services and
// turns their results into response envelopes.
package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/protocol"
	"github.com/prn-tf/freshdeal/internal/validation"
)

// HandlerFunc serves one parsed request. Business outcomes, including
// rejections, are reported in the response. A returned error is a system
// failure that the caller answers with a generic ERROR.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// missingField returns an ERROR response naming the first absent field, or nil.
func missingField(req *protocol.Request, names ...string) *protocol.Response {
	for _, name := range names {
		if !req.HasField(name) {
			return protocol.Error(fmt.Sprintf("Missing <%s> in request.", name))
		}
	}
	return nil
}

// businessResponse converts a rejection reported by a service into a response.
// It returns the error unchanged when err is not a business rejection.
func businessResponse(err error) (*protocol.Response, error) {
	if msg := validation.Message(err); msg != "" {
		return protocol.Failed(msg), nil
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return protocol.Failed(fmt.Sprintf("Not enough stock. Available: %d", stockErr.Available)), nil
	}

	var de *domain.DomainError
	errors.As(err, &de)

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return protocol.Failed("Invalid username or password."), nil
	case errors.Is(err, domain.ErrAccountPending):
		return protocol.NewResponse(protocol.StatusPending, "Your account is awaiting admin approval."), nil
	case errors.Is(err, domain.ErrAccountDenied):
		return protocol.NewResponse(protocol.StatusDenied, "Your account has been denied."), nil
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		return protocol.Failed("Username already exists."), nil
	case errors.Is(err, domain.ErrIncorrectPassword):
		return protocol.Failed("Old password is incorrect."), nil
	case errors.Is(err, domain.ErrInvalidRole):
		return protocol.Failed(fmt.Sprintf("Invalid role: %s. Must be BUYER, SELLER or ADMIN.", resource(de))), nil
	case errors.Is(err, domain.ErrInvalidAccountStatus):
		return protocol.Failed(fmt.Sprintf("Invalid status: %s. Must be PENDING, APPROVED or DENIED.", resource(de))), nil
	case errors.Is(err, domain.ErrAccessDenied):
		return protocol.Failed(protocol.MsgAccessDenied), nil
	case errors.Is(err, domain.ErrProductUnavailable):
		return protocol.Failed("Product is no longer available."), nil
	case errors.Is(err, domain.ErrInvalidProduct):
		if de != nil && de.Message != "" {
			return protocol.Failed("Invalid product: " + de.Message + "."), nil
		}
		return protocol.Failed("Invalid product."), nil
	case errors.Is(err, domain.ErrProductNotFound):
		return protocol.Failed("Product not found."), nil
	case errors.Is(err, domain.ErrAccountNotFound):
		return protocol.Failed("User not found."), nil
	}
	return nil, err
}

func resource(de *domain.DomainError) string {
	if de == nil {
		return ""
	}
	return de.Resource
}

// optionalFloat parses field when present. NaN and the infinities are not
// prices, so they are rejected like any other non-number.
func optionalFloat(req *protocol.Request, field string) (*float64, *protocol.Response) {
	raw := req.Field(field)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, protocol.Failed(field + " must be a number.")
	}
	return &v, nil
}

// optionalInt parses field when present.
func optionalInt(req *protocol.Request, field string) (*int, *protocol.Response) {
	raw := req.Field(field)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, protocol.Failed(field + " must be a whole number.")
	}
	return &v, nil
}

// optionalString returns a pointer to field's value when present.
func optionalString(req *protocol.Request, field string) *string {
	if !req.HasField(field) {
		return nil
	}
	v := req.Field(field)
	return &v
}
