package domain

import "github.com/shopspring/decimal"

type Side string

const (
	Ask Side = "ASK"
	Bid Side = "BID"
)

// Entry is a single price level as received from the exchange.
type Entry struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"qty"`
}

// OrderBook is a raw exchange snapshot. Entries are kept in the order the
// exchange returned them and may contain duplicate prices.
type OrderBook struct {
	Asks []Entry `json:"asks"`
	Bids []Entry `json:"bids"`
}

// Equal compares two books level by level using decimal equality.
func (ob OrderBook) Equal(other OrderBook) bool {
	return entriesEqual(ob.Asks, other.Asks) && entriesEqual(ob.Bids, other.Bids)
}

func entriesEqual(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Price.Equal(b[i].Price) || !a[i].Quantity.Equal(b[i].Quantity) {
			return false
		}
	}
	return true
}

// FilteredOrderBook is the ranked, bounded view of a book around the last
// price. It is rebuilt on every request and never cached.
type FilteredOrderBook struct {
	Symbol    string
	Depth     decimal.Decimal
	LastPrice decimal.Decimal
	Asks      []Entry
	Bids      []Entry
}

func (f *FilteredOrderBook) AsksVolume() decimal.Decimal {
	return sumQuantity(f.Asks)
}

func (f *FilteredOrderBook) BidsVolume() decimal.Decimal {
	return sumQuantity(f.Bids)
}

func sumQuantity(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Quantity)
	}
	return total
}
