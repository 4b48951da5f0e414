package data

import (
	"errors"
	"fmt"
)

var (
	ErrUniqueConstraintViolation = errors.New("unique constraint violation")
	ErrOrderNotFound             = errors.New("order not found")
)

// UpstreamError is a non-2xx response from a provider API.
type UpstreamError struct {
	Body   string
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}
