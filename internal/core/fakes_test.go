package core

import (
	"context"
	"sync"
	"time"

	"github.com/olyamironova/depthbook/internal/domain"
	"github.com/shopspring/decimal"
)

type fakeExchange struct {
	mu sync.Mutex

	price    *domain.LastPrice
	priceErr error
	book     *domain.OrderBook
	bookErr  error
	// infos is consumed one element per ExchangeInfo call; the last one repeats.
	infos   [][]domain.ExchangeSymbol
	infoErr error

	priceCalls int
	bookCalls  int
	infoCalls  int
}

func (f *fakeExchange) LastPrice(ctx context.Context, symbol string) (*domain.LastPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls++
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return f.price, nil
}

func (f *fakeExchange) OrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls++
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return f.book, nil
}

func (f *fakeExchange) ExchangeInfo(ctx context.Context) ([]domain.ExchangeSymbol, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if len(f.infos) == 0 {
		return nil, nil
	}
	idx := f.infoCalls - 1
	if idx >= len(f.infos) {
		idx = len(f.infos) - 1
	}
	return f.infos[idx], nil
}

func (f *fakeExchange) calls() (price, book, info int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.priceCalls, f.bookCalls, f.infoCalls
}

func (f *fakeExchange) setInfoErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoErr = err
}

// stubStore is a CacheStore with scripted results.
type stubStore struct {
	mu      sync.Mutex
	value   []byte
	ok      bool
	getErr  error
	setErr  error
	setKeys []string
	setTTL  time.Duration
}

func (s *stubStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.ok, s.getErr
}

func (s *stubStore) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setKeys = append(s.setKeys, key)
	s.setTTL = ttl
	return s.setErr
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func e(price, qty string) domain.Entry {
	return domain.Entry{Price: d(price), Quantity: d(qty)}
}

func sampleAsks() []domain.Entry {
	return []domain.Entry{e("100", "1"), e("150", "10"), e("200", "2"), e("250", "1")}
}

func sampleBids() []domain.Entry {
	return []domain.Entry{e("90", "10"), e("85", "100"), e("80", "2"), e("75", "1")}
}

func sampleBook() *domain.OrderBook {
	return &domain.OrderBook{Asks: sampleAsks(), Bids: sampleBids()}
}

// levels renders entries as "price@qty" for compact assertions.
func levels(entries []domain.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, en := range entries {
		out = append(out, en.Price.String()+"@"+en.Quantity.String())
	}
	return out
}
