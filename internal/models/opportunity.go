package models

import (
	"github.com/shopspring/decimal"
)

// Opportunity is one mispriced contract picked by the scanner, carrying
// every input of the decision so a trade can be both executed and audited.
type Opportunity struct {
	Ticker     string  `json:"ticker"`
	Side       Side    `json:"side"`
	Strike     float64 `json:"strike"`
	Expiration Date    `json:"expiration"`

	// Bid is the fill price: positions are always sold, so fills happen on
	// the bid side.
	Bid         float64 `json:"bid"`
	MarketMid   float64 `json:"market_mid"`
	Theoretical float64 `json:"theoretical"`

	IV           float64 `json:"iv"`
	HV           float64 `json:"hv"`
	IVEdge       float64 `json:"iv_edge"`
	EdgeUSD      float64 `json:"edge_usd"`
	PriceEdgePct float64 `json:"price_edge_pct"`

	Moneyness    float64 `json:"moneyness"`
	StockPrice   float64 `json:"stock_price"`
	TimeToExpiry float64 `json:"time_to_expiry"`
}

// Trade is an opportunity sized by the allocation policy and ready to open.
type Trade struct {
	Opportunity

	Contracts int             `json:"contracts"`
	Premium   decimal.Decimal `json:"premium"`
}
