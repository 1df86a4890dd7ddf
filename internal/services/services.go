// Package services holds the business rules behind each HTTP route. Every
// service takes the caller identity explicitly and talks to a store.Store.
package services

import (
	"errors"
	"time"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
	"github.com/harentsoaR/mysimo-api/internal/store"
)

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

// storeError converts the store sentinels. Anything else is internal and
// keeps op for the logs.
func storeError(err error, op, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(notFound)
	default:
		return apperrors.Internal(err, op)
	}
}
