// Package binance implements port.Exchange against the Binance spot REST API.
package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/olyamironova/depthbook/internal/domain"
	"github.com/olyamironova/depthbook/internal/port"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.binance.com"

	exchangeInfoPath = "/api/v3/exchangeInfo"
	orderBookPath    = "/api/v3/depth"
	lastPricePath    = "/api/v3/ticker/price"

	// MaxOrderBookLimit is the deepest book the depth endpoint serves.
	MaxOrderBookLimit = 5000
)

var ErrNoData = errors.New("binance returned no data")

// APIError is the error body Binance sends with non-2xx responses.
type APIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *APIError) Error() string { return e.Msg }

type priceResponse struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

type orderBookResponse struct {
	LastUpdateID int64                `json:"lastUpdateId"`
	Bids         [][2]decimal.Decimal `json:"bids"` // (price, qty)
	Asks         [][2]decimal.Decimal `json:"asks"` // (price, qty)
}

type exchangeInfoResponse struct {
	Symbols []domain.ExchangeSymbol `json:"symbols"`
}

type Client struct {
	http           *resty.Client
	orderBookLimit int
}

var _ port.Exchange = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, orderBookLimit int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if orderBookLimit <= 0 || orderBookLimit > MaxOrderBookLimit {
		orderBookLimit = MaxOrderBookLimit
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: rc, orderBookLimit: orderBookLimit}
}

func (c *Client) LastPrice(ctx context.Context, symbol string) (*domain.LastPrice, error) {
	var out priceResponse
	if err := c.get(ctx, lastPricePath, map[string]string{"symbol": symbol}, &out); err != nil {
		return nil, err
	}
	if out.Symbol == "" {
		return nil, ErrNoData
	}
	return &domain.LastPrice{Symbol: out.Symbol, Price: out.Price}, nil
}

func (c *Client) OrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	var out orderBookResponse
	params := map[string]string{
		"symbol": symbol,
		"limit":  strconv.Itoa(c.orderBookLimit),
	}
	if err := c.get(ctx, orderBookPath, params, &out); err != nil {
		return nil, err
	}
	if out.Asks == nil && out.Bids == nil {
		return nil, ErrNoData
	}
	return &domain.OrderBook{
		Asks: toEntries(out.Asks),
		Bids: toEntries(out.Bids),
	}, nil
}

func (c *Client) ExchangeInfo(ctx context.Context) ([]domain.ExchangeSymbol, error) {
	var out exchangeInfoResponse
	if err := c.get(ctx, exchangeInfoPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Symbols, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, result any) error {
	apiErr := &APIError{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		SetError(apiErr).
		Get(path)
	if err != nil {
		return fmt.Errorf("binance %s: %w", path, err)
	}
	if resp.IsError() {
		if apiErr.Msg != "" {
			return apiErr
		}
		return fmt.Errorf("binance %s: unexpected status %s", path, resp.Status())
	}
	if len(resp.Body()) == 0 {
		return ErrNoData
	}
	return nil
}

func toEntries(levels [][2]decimal.Decimal) []domain.Entry {
	out := make([]domain.Entry, 0, len(levels))
	for _, l := range levels {
		out = append(out, domain.Entry{Price: l[0], Quantity: l[1]})
	}
	return out
}
