// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrUnknownAccount is a sentinel error: no account owns the routing key.
type ErrUnknownAccount struct {
	RoutingKey string
}

func (e *ErrUnknownAccount) Error() string {
	return fmt.Sprintf("unknown account for routing key %q", e.RoutingKey)
}

// Helper constructor
func NewUnknownAccount(routingKey string) error {
	return &ErrUnknownAccount{RoutingKey: routingKey}
}

// ErrMissingField is a sentinel error: the payload lacks a required field.
type ErrMissingField struct {
	Field string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func NewMissingField(field string) error {
	return &ErrMissingField{Field: field}
}

// ErrPayloadTooLarge is a sentinel error: the body exceeds the ceiling.
type ErrPayloadTooLarge struct {
	Size  int
	Limit int
}

func (e *ErrPayloadTooLarge) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds limit of %d", e.Size, e.Limit)
}

func NewPayloadTooLarge(size, limit int) error {
	return &ErrPayloadTooLarge{Size: size, Limit: limit}
}

// IsResolutionError reports whether err is one of the terminal resolver
// failures. These are deterministic, so the fault handler fails fast
// instead of burning retry attempts on them.
func IsResolutionError(err error) bool {
	var ua *ErrUnknownAccount
	var mf *ErrMissingField
	var pl *ErrPayloadTooLarge
	return errors.As(err, &ua) || errors.As(err, &mf) || errors.As(err, &pl)
}
