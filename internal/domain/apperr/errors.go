// Package apperr is the error taxonomy returned by every loan and share operation.
//
// All failures are *Error values carrying a Kind. Callers match a whole category with
// errors.Is(err, apperr.ErrValidation) and a specific failure with the sentinel the
// owning domain package exports (for example loan.ErrNotFound).
package apperr

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindIneligible        Kind = "ineligible"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindFeatureDisabled   Kind = "feature_disabled"
)

type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Is reports whether target is the bare category sentinel of e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Field == "" && t.Kind == e.Kind
}

// Category sentinels.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrIneligible        = &Error{Kind: KindIneligible}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrFeatureDisabled   = &Error{Kind: KindFeatureDisabled}
)

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func Ineligible(msg string) *Error { return &Error{Kind: KindIneligible, Message: msg} }

func InsufficientFunds(msg string) *Error {
	return &Error{Kind: KindInsufficientFunds, Message: msg}
}

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func InvalidState(msg string) *Error { return &Error{Kind: KindInvalidState, Message: msg} }

func FeatureDisabled(msg string) *Error {
	return &Error{Kind: KindFeatureDisabled, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// FieldOf returns the offending field of a validation error, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// Wrap annotates a store or transport failure with msg and a stack trace. Errors that
// already belong to the taxonomy are returned unchanged.
func Wrap(err error, msg string) error {
	if err == nil || KindOf(err) != "" {
		return err
	}
	return pkgerrors.Wrap(err, msg)
}
