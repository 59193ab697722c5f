package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/olyamironova/depthbook/internal/domain"
	"github.com/shopspring/decimal"
)

var maxDepth = decimal.NewFromInt(100)

const (
	// MinDepthExponent bounds the fractional digits of a depth. Comparing
	// against a value with a huge negative exponent rescales every price.
	MinDepthExponent = -8
	maxDepthLen      = 16
)

type ValidateSymbolResponse struct {
	Symbol string `json:"symbol"`
}

type GetOrderbookRequest struct {
	Symbol string `form:"symbol" binding:"required"`
	Depth  string `form:"depth" binding:"required"`
}

type Level struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"qty"`
}

type GetOrderbookResponse struct {
	Symbol     string          `json:"symbol"`
	Depth      decimal.Decimal `json:"depth"`
	LastPrice  decimal.Decimal `json:"last_price"`
	Asks       []Level         `json:"asks"`
	Bids       []Level         `json:"bids"`
	AsksVolume decimal.Decimal `json:"asks_volume"`
	BidsVolume decimal.Decimal `json:"bids_volume"`
	Timestamp  time.Time       `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ParseDepth parses a depth percentage such as "5" or "5%". Only plain
// decimal notation with at most 8 fractional digits is accepted, and values
// outside (0, 100] are rejected.
func ParseDepth(raw string) (decimal.Decimal, error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if len(s) > maxDepthLen || strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %.20q is not a plain decimal", domain.ErrInvalidDepth, raw)
	}
	depth, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidDepth, raw)
	}
	if depth.Exponent() < MinDepthExponent {
		return decimal.Zero, fmt.Errorf("%w: %q has too many fractional digits", domain.ErrInvalidDepth, raw)
	}
	if !depth.IsPositive() || depth.GreaterThan(maxDepth) {
		return decimal.Zero, fmt.Errorf("%w: got %s", domain.ErrInvalidDepth, depth)
	}
	return depth, nil
}

func ConvertLevels(entries []domain.Entry) []Level {
	res := make([]Level, len(entries))
	for i, e := range entries {
		res[i] = Level{Price: e.Price, Quantity: e.Quantity}
	}
	return res
}

func ConvertOrderbook(ob *domain.FilteredOrderBook, at time.Time) GetOrderbookResponse {
	return GetOrderbookResponse{
		Symbol:     ob.Symbol,
		Depth:      ob.Depth,
		LastPrice:  ob.LastPrice,
		Asks:       ConvertLevels(ob.Asks),
		Bids:       ConvertLevels(ob.Bids),
		AsksVolume: ob.AsksVolume(),
		BidsVolume: ob.BidsVolume(),
		Timestamp:  at,
	}
}
