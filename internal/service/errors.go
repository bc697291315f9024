// Package service provides the business logic of the FreshDeal marketplace.
package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrInternalError marks failures of the infrastructure below a service
// (storage, hashing). Callers answer these with a generic error and never
// show the underlying cause to the client.
var ErrInternalError = errors.New("internal server error")

// internalError logs err and wraps it as ErrInternalError.
func internalError(logger zerolog.Logger, err error, msg string) error {
	logger.Error().Err(err).Msg(msg)
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}
