package core

import (
	"slices"

	"github.com/olyamironova/depthbook/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	// TopLimit bounds the number of levels returned per side.
	TopLimit = 10
	// PriceScale is the number of fractional digits kept in a displayed price.
	PriceScale = 4
)

// BorderPrice returns the edge of the depth band: above the last price for
// asks, below it for bids.
func BorderPrice(lastPrice, depth decimal.Decimal, side domain.Side) decimal.Decimal {
	fraction := depth.Shift(-2)
	if side == domain.Ask {
		return lastPrice.Mul(decimal.NewFromInt(1).Add(fraction))
	}
	return lastPrice.Mul(decimal.NewFromInt(1).Sub(fraction))
}

// FilterSide keeps the entries of one side that lie inside the depth band,
// ranks them by quantity and returns at most TopLimit of them.
// Depth is not range-checked here.
func FilterSide(entries []domain.Entry, lastPrice, depth decimal.Decimal, side domain.Side) []domain.Entry {
	border := BorderPrice(lastPrice, depth, side)
	return rankAndBound(trim(entries, border, side))
}

// trim keeps in-band entries (border inclusive) and truncates their prices
// to PriceScale. Quantity is passed through.
func trim(entries []domain.Entry, border decimal.Decimal, side domain.Side) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		var keep bool
		switch side {
		case domain.Ask:
			keep = e.Price.LessThanOrEqual(border)
		case domain.Bid:
			keep = e.Price.GreaterThanOrEqual(border)
		}
		if !keep {
			continue
		}
		out = append(out, domain.Entry{
			Price:    normalizePrice(e.Price),
			Quantity: e.Quantity,
		})
	}
	return out
}

// normalizePrice truncates toward zero. Trailing zeros are dropped by
// decimal's String and MarshalJSON.
func normalizePrice(price decimal.Decimal) decimal.Decimal {
	return price.Truncate(PriceScale)
}

// rankAndBound sorts by quantity descending, keeping exchange order for
// equal quantities, and cuts the result to TopLimit.
func rankAndBound(entries []domain.Entry) []domain.Entry {
	slices.SortStableFunc(entries, func(a, b domain.Entry) int {
		return b.Quantity.Cmp(a.Quantity)
	})
	if len(entries) > TopLimit {
		entries = entries[:TopLimit]
	}
	return entries
}
