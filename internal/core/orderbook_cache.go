package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olyamironova/depthbook/internal/domain"
	"github.com/olyamironova/depthbook/internal/metrics"
	"github.com/olyamironova/depthbook/internal/port"
	"github.com/rs/zerolog"
)

// DefaultOrderBookTTL is how long a fetched book may be served from cache.
const DefaultOrderBookTTL = 60 * time.Second

func cacheKey(symbol string) string { return "orderbook-" + symbol }

// OrderBookCache serves order books cache-aside: the store is read first and
// populated after a live fetch on miss.
type OrderBookCache struct {
	store    port.CacheStore
	exchange port.Exchange
	ttl      time.Duration
	log      zerolog.Logger
}

func NewOrderBookCache(store port.CacheStore, exchange port.Exchange, ttl time.Duration, log zerolog.Logger) *OrderBookCache {
	if ttl <= 0 {
		ttl = DefaultOrderBookTTL
	}
	return &OrderBookCache{
		store:    store,
		exchange: exchange,
		ttl:      ttl,
		log:      log.With().Str("component", "orderbook_cache").Logger(),
	}
}

// GetOrderBook returns the cached book for symbol or fetches it live.
// A cached value that cannot be decoded is an error, not a miss.
func (c *OrderBookCache) GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	raw, ok, err := c.store.Get(ctx, cacheKey(symbol))
	if err != nil {
		metrics.CacheLookups.WithLabelValues(metrics.ResultError).Inc()
		return nil, domain.Internal("cache get", err)
	}
	if ok {
		var book domain.OrderBook
		if err := json.Unmarshal(raw, &book); err != nil {
			metrics.CacheLookups.WithLabelValues(metrics.ResultCorrupt).Inc()
			c.log.Error().Err(err).Str("symbol", symbol).Msg("failed to decode cached order book")
			return nil, domain.Internal("decode cached order book", err)
		}
		metrics.CacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		return &book, nil
	}
	metrics.CacheLookups.WithLabelValues(metrics.ResultMiss).Inc()

	book, err := c.exchange.OrderBook(ctx, symbol)
	if err != nil {
		return nil, domain.Internal("fetch order book", err)
	}
	c.populate(ctx, symbol, book).discard(c.log)
	return book, nil
}

// cacheWrite is the outcome of a best-effort cache population.
type cacheWrite struct {
	symbol string
	err    error
}

// discard logs a failed write and drops it; the fetched book stays valid.
func (w cacheWrite) discard(log zerolog.Logger) {
	if w.err == nil {
		return
	}
	metrics.CacheWriteFailures.Inc()
	log.Warn().Err(w.err).Str("symbol", w.symbol).Msg("failed to save order book to cache")
}

func (c *OrderBookCache) populate(ctx context.Context, symbol string, book *domain.OrderBook) cacheWrite {
	b, err := json.Marshal(book)
	if err != nil {
		return cacheWrite{symbol: symbol, err: fmt.Errorf("encode order book: %w", err)}
	}
	return cacheWrite{symbol: symbol, err: c.store.SetEx(ctx, cacheKey(symbol), b, c.ttl)}
}
