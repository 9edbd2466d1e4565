package services

import (
	"errors"
	"fmt"
)

// Not-found sentinels for by-id lookups. Distinct from validation failures so
// the HTTP layer can map them to 404 instead of 400.
var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrSearchNotFound = errors.New("search not found")
	ErrUserNotFound   = errors.New("user not found")
)

// ValidationError is a client fault naming the offending field. It is never
// retried and never wraps a storage error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
