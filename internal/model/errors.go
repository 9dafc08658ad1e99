package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the store implementations, the ledger and the
// HTTP layer. Specific sentinels wrap a general one so callers can match
// either the exact failure (errors.Is(err, ErrSlotTaken)) or its family
// (errors.Is(err, ErrConflict)).
var (
	ErrNotFound            = errors.New("not found")
	ErrClientNotFound      = fmt.Errorf("client %w", ErrNotFound)
	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)

	ErrConflict      = errors.New("conflict")
	ErrRoomNameTaken = fmt.Errorf("room name already registered: %w", ErrConflict)
	ErrSlotTaken     = fmt.Errorf("slot already reserved: %w", ErrConflict)

	ErrCancellationTooLate  = errors.New("reservation is inside its protection window and cannot be cancelled")
	ErrReservationCancelled = errors.New("reservation is cancelled")
	ErrInvalidRange         = errors.New("start date is after end date")
)

// ValidationKind names the rule an input failed.
type ValidationKind string

const (
	KindEmptyDate          ValidationKind = "empty_date"
	KindInvalidCharacters  ValidationKind = "invalid_characters"
	KindWrongSeparator     ValidationKind = "wrong_separator"
	KindMalformedDate      ValidationKind = "malformed_date"
	KindTooSoon            ValidationKind = "too_soon"
	KindSundayRequiresSub  ValidationKind = "sunday_requires_substitution"
	KindSubstitutionDenied ValidationKind = "substitution_declined"
	KindInvalidName        ValidationKind = "invalid_name"
	KindInvalidCapacity    ValidationKind = "invalid_capacity"
	KindInvalidEventName   ValidationKind = "invalid_event_name"
	KindInvalidShift       ValidationKind = "invalid_shift"
	KindInvalidID          ValidationKind = "invalid_id"
)

// ValidationError reports malformed or out-of-policy input. Field is the
// input it concerns when there is one.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Invalid builds a ValidationError.
func Invalid(kind ValidationKind, field, msg string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: msg}
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// StorageError wraps a persistence fault that is not part of the domain
// taxonomy (lost connection, failed commit, bad migration ...).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorage reports whether err is, or wraps, a *StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
