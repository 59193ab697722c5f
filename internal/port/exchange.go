package port

import (
	"context"

	"github.com/olyamironova/depthbook/internal/domain"
)

// Exchange is the market data source the service reads from.
type Exchange interface {
	LastPrice(ctx context.Context, symbol string) (*domain.LastPrice, error)
	OrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error)
	ExchangeInfo(ctx context.Context) ([]domain.ExchangeSymbol, error)
}
