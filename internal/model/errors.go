package model

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrState      = errors.New("illegal state transition")
	ErrNotFound   = errors.New("not found")
)

// ValidationError describes input that breaks a ledger rule.
// It is always reported before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid is shorthand for a ValidationError with a formatted message.
func Invalid(field, format string, args ...any) error {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// JoinValidation combines validation errors into one error, nil when empty.
func JoinValidation(verrs []ValidationError) error {
	if len(verrs) == 0 {
		return nil
	}
	if len(verrs) == 1 {
		return verrs[0]
	}
	errs := make([]error, len(verrs))
	for i, ve := range verrs {
		errs[i] = ve
	}
	return errors.Join(errs...)
}

// StateError reports an attempted transition the entry lifecycle does not allow.
// An empty To means the entry was to be edited or deleted in place.
type StateError struct {
	Entry string
	From  EntryState
	To    EntryState
}

func (e StateError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("entry %s: cannot modify a %s entry", e.Entry, e.From)
	}
	return fmt.Sprintf("entry %s: cannot transition %s -> %s", e.Entry, e.From, e.To)
}

// Is makes errors.Is(err, ErrState) true.
func (e StateError) Is(target error) bool {
	return target == ErrState
}

// NotFoundError reports an identifier that does not resolve within a company.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
