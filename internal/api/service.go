// Package api holds what the HTTP and gRPC transports share.
package api

import (
	"context"
	"errors"

	"github.com/olyamironova/depthbook/internal/domain"
	"github.com/shopspring/decimal"
)

// Service is the contract transports call into; *core.Engine implements it.
type Service interface {
	ValidateSymbol(raw string) (string, error)
	GetFilteredOrderBook(ctx context.Context, symbol string, depth decimal.Decimal) (*domain.FilteredOrderBook, error)
	Ready() bool
}

// InternalMessage is the only text shown to clients for internal failures.
const InternalMessage = "Something went wrong. Try again later"

// ErrorKind classifies err for transport status mapping.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindUnsupported
	KindInvalidArgument
)

func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, domain.ErrSymbolNotFound):
		return KindNotFound
	case errors.Is(err, domain.ErrUnsupportedSymbol):
		return KindUnsupported
	case errors.Is(err, domain.ErrInvalidDepth):
		return KindInvalidArgument
	default:
		return KindInternal
	}
}

// PublicMessage returns the client-facing text for err. Symbol errors are
// shown as is so the caller can prompt for another symbol.
func PublicMessage(err error) string {
	if Classify(err) == KindInternal {
		return InternalMessage
	}
	return err.Error()
}
