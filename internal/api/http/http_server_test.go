package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/depthbook/internal/api"
	"github.com/olyamironova/depthbook/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	symbols  map[string]bool
	book     *domain.FilteredOrderBook
	bookErr  error
	gotDepth decimal.Decimal
}

func (s *stubService) ValidateSymbol(raw string) (string, error) {
	symbol := raw + "USDT"
	if symbol == "BTCUSDT" {
		return "", &domain.SymbolError{Symbol: symbol, Err: domain.ErrUnsupportedSymbol}
	}
	if !s.symbols[symbol] {
		return "", &domain.SymbolError{Symbol: symbol, Err: domain.ErrSymbolNotFound}
	}
	return symbol, nil
}

func (s *stubService) GetFilteredOrderBook(ctx context.Context, symbol string, depth decimal.Decimal) (*domain.FilteredOrderBook, error) {
	s.gotDepth = depth
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return s.book, nil
}

func (s *stubService) Ready() bool { return len(s.symbols) > 0 }

var _ api.Service = (*stubService)(nil)

func newStub() *stubService {
	return &stubService{
		symbols: map[string]bool{"SOLUSDT": true},
		book: &domain.FilteredOrderBook{
			Symbol:    "SOLUSDT",
			Depth:     decimal.NewFromInt(10),
			LastPrice: decimal.NewFromInt(200),
			Asks: []domain.Entry{
				{Price: decimal.NewFromInt(150), Quantity: decimal.NewFromInt(10)},
				{Price: decimal.NewFromInt(200), Quantity: decimal.NewFromInt(2)},
			},
		},
	}
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestValidateSymbol(t *testing.T) {
	h := NewHTTPServer(newStub(), 0, zerolog.Nop()).Router()

	rec, body := get(t, h, "/api/v1/symbols/SOL")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SOLUSDT", body["symbol"])

	rec, body = get(t, h, "/api/v1/symbols/DOGE")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DOGEUSDT not found", body["error"])

	rec, body = get(t, h, "/api/v1/symbols/BTC")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "BTCUSDT not supported", body["error"])
}

func TestGetOrderbook(t *testing.T) {
	stub := newStub()
	h := NewHTTPServer(stub, 0, zerolog.Nop()).Router()

	rec, body := get(t, h, "/api/v1/orderbook?symbol=SOL&depth=10%25")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", stub.gotDepth.String())
	assert.Equal(t, "SOLUSDT", body["symbol"])
	assert.Equal(t, "200", body["last_price"])
	assert.Equal(t, "12", body["asks_volume"])
	asks := body["asks"].([]any)
	require.Len(t, asks, 2)
	assert.Equal(t, map[string]any{"price": "150", "qty": "10"}, asks[0])
	assert.Empty(t, body["bids"])
}

func TestGetOrderbookBadRequests(t *testing.T) {
	h := NewHTTPServer(newStub(), 0, zerolog.Nop()).Router()

	rec, _ := get(t, h, "/api/v1/orderbook?symbol=SOL")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := get(t, h, "/api/v1/orderbook?symbol=SOL&depth=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "depth")

	rec, _ = get(t, h, "/api/v1/orderbook?symbol=SOL&depth=101")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, h, "/api/v1/orderbook?symbol=SOL&depth=1e-1000000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, h, "/api/v1/orderbook?symbol=DOGE&depth=5")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrderbookInternalError(t *testing.T) {
	stub := newStub()
	stub.bookErr = domain.Internal("fetch order book", errors.New("dial tcp 10.0.0.1:443: i/o timeout"))
	h := NewHTTPServer(stub, 0, zerolog.Nop()).Router()

	rec, body := get(t, h, "/api/v1/orderbook?symbol=SOL&depth=5")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, api.InternalMessage, body["error"])
}

func TestHealthAndReadiness(t *testing.T) {
	stub := newStub()
	h := NewHTTPServer(stub, 0, zerolog.Nop()).Router()

	rec, _ := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	stub.symbols = nil
	rec, _ = get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "symbol_registry_symbols")
}

func TestRateLimitAppliesToAPIOnly(t *testing.T) {
	h := NewHTTPServer(newStub(), time.Hour, zerolog.Nop()).Router()

	rec, _ := get(t, h, "/api/v1/symbols/SOL")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = get(t, h, "/api/v1/symbols/SOL")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = get(t, h, "/api/v1/orderbook?symbol=SOL&depth=5")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = get(t, h, "/api/v1/orderbook?symbol=SOL&depth=5")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
