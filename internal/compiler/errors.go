package compiler

import (
	"errors"
	"fmt"
)

// TranslationError reports a query the translator cannot express as SQL.
//
// Translation errors are never recovered locally: the first one aborts the
// whole translation, and callers are expected to fail closed.
type TranslationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Expr is the offending expression, if known.
	Expr string
}

// ErrorCode categorizes translation errors.
type ErrorCode string

const (
	// ErrCodeReferenceShape indicates a table reference whose row
	// identifier is not a plain variable.
	ErrCodeReferenceShape ErrorCode = "reference-shape"

	// ErrCodeSelfJoinUnsupported indicates one table iterated by two
	// variables within a single query.
	ErrCodeSelfJoinUnsupported ErrorCode = "self-join-unsupported"

	// ErrCodeInvalidArity indicates a relational call without exactly two
	// operands.
	ErrCodeInvalidArity ErrorCode = "invalid-arity"

	// ErrCodeUnsupportedOperator indicates a relational or call operator
	// outside the supported set.
	ErrCodeUnsupportedOperator ErrorCode = "unsupported-operator"

	// ErrCodeUnsupportedTerm indicates a term that cannot become an SQL
	// operand.
	ErrCodeUnsupportedTerm ErrorCode = "unsupported-term"
)

// Error implements the error interface.
func (e *TranslationError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("%s: %s (expr=%s)", e.Code, e.Message, e.Expr)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTranslationError returns true if err is or wraps a TranslationError.
func IsTranslationError(err error) bool {
	var te *TranslationError
	return errors.As(err, &te)
}

// IsCode returns true if err is or wraps a TranslationError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var te *TranslationError
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

func newError(code ErrorCode, format string, args ...any) *TranslationError {
	return &TranslationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// withExpr attaches the expression text to a TranslationError that lacks one.
func withExpr(err error, expr fmt.Stringer) error {
	var te *TranslationError
	if errors.As(err, &te) && te.Expr == "" {
		te.Expr = expr.String()
	}
	return err
}
