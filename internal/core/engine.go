package core

import (
	"context"

	"github.com/olyamironova/depthbook/internal/domain"
	"github.com/olyamironova/depthbook/internal/metrics"
	"github.com/olyamironova/depthbook/internal/port"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Engine implements the service operations (symbol validation, filtered order book)
type Engine struct {
	exchange port.Exchange
	registry *SymbolRegistry
	books    *OrderBookCache
	log      zerolog.Logger
}

func NewEngine(exchange port.Exchange, registry *SymbolRegistry, books *OrderBookCache, log zerolog.Logger) *Engine {
	return &Engine{
		exchange: exchange,
		registry: registry,
		books:    books,
		log:      log.With().Str("component", "engine").Logger(),
	}
}

// ValidateSymbol normalizes raw and checks it against the registry.
func (e *Engine) ValidateSymbol(raw string) (string, error) {
	return e.registry.Validate(raw)
}

// Ready reports whether the registry has been populated at least once.
func (e *Engine) Ready() bool {
	return e.registry.Len() > 0
}

// GetFilteredOrderBook fetches the live price (never cached) and the order
// book (cache-aside), then filters each side around the price. Either a
// complete result or an error is returned.
func (e *Engine) GetFilteredOrderBook(ctx context.Context, symbol string, depth decimal.Decimal) (*domain.FilteredOrderBook, error) {
	last, err := e.exchange.LastPrice(ctx, symbol)
	if err != nil {
		metrics.FilteredRequests.WithLabelValues(metrics.ResultError).Inc()
		return nil, domain.Internal("fetch last price", err)
	}
	book, err := e.books.GetOrderBook(ctx, symbol)
	if err != nil {
		metrics.FilteredRequests.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}

	res := &domain.FilteredOrderBook{
		Symbol:    symbol,
		Depth:     depth,
		LastPrice: last.Price,
		Asks:      FilterSide(book.Asks, last.Price, depth, domain.Ask),
		Bids:      FilterSide(book.Bids, last.Price, depth, domain.Bid),
	}
	metrics.FilteredRequests.WithLabelValues(metrics.ResultOK).Inc()
	e.log.Debug().
		Str("symbol", symbol).
		Str("depth", depth.String()).
		Int("asks", len(res.Asks)).
		Int("bids", len(res.Bids)).
		Msg("filtered order book")
	return res, nil
}
