package domain

import "github.com/shopspring/decimal"

// StatusTrading is the exchange status of a symbol that accepts orders.
const StatusTrading = "TRADING"

type LastPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

type ExchangeSymbol struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}
