package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSymbolNotFound    = errors.New("not found")
	ErrUnsupportedSymbol = errors.New("not supported")
	ErrInternal          = errors.New("internal error")
	ErrInvalidDepth      = errors.New("depth must be in (0, 100]")
)

// SymbolError reports a symbol rejected during validation, e.g. "SOLUSDT not found".
type SymbolError struct {
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string { return e.Symbol + " " + e.Err.Error() }

func (e *SymbolError) Unwrap() error { return e.Err }

// InternalError wraps a collaborator or data failure. The original message
// is kept verbatim for diagnostics.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// Internal wraps err as an InternalError unless it already is one.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInternal) {
		return err
	}
	return &InternalError{Err: fmt.Errorf("%s: %w", op, err)}
}
