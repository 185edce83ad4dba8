package models

import (
	"github.com/shopspring/decimal"
)

type Side string

const (
	SideSell Side = "SELL"
	SideBuy  Side = "BUY"
)

type PositionStatus string

const (
	StatusOpen   PositionStatus = "OPEN"
	StatusClosed PositionStatus = "CLOSED"
)

// Position is one open option contract in the paper account. Exactly one of
// PremiumCollected / PremiumPaid is nonzero, matching Side. Model inputs
// (strike, prices, vols) stay float64; money that must reconcile with cash
// is decimal.
type Position struct {
	ID              string  `json:"id"`
	Ticker          string  `json:"ticker"`
	Side            Side    `json:"side"`
	Strike          float64 `json:"strike"`
	Expiration      Date    `json:"expiration"`
	Contracts       int     `json:"contracts"`
	EntryDate       Date    `json:"entry_date"`
	EntryPrice      float64 `json:"entry_price"`
	EntryStockPrice float64 `json:"entry_stock_price"`
	EntryIV         float64 `json:"entry_iv"`

	PremiumCollected decimal.Decimal `json:"premium_collected"`
	PremiumPaid      decimal.Decimal `json:"premium_paid"`

	Status   PositionStatus `json:"status"`
	DaysHeld int            `json:"days_held"`
}

// Matches reports whether the position is the same contract as the given
// key, used for duplicate detection.
func (p Position) Matches(ticker string, strike float64, expiration Date, side Side) bool {
	return p.Ticker == ticker && p.Strike == strike && p.Expiration.Equal(expiration) && p.Side == side
}

// ClosedTrade is a Position after expiry settlement. Immutable once created.
type ClosedTrade struct {
	Position

	ExitDate       Date            `json:"exit_date"`
	ExitStockPrice float64         `json:"exit_stock_price"`
	IntrinsicValue float64         `json:"intrinsic_value"`
	PnL            decimal.Decimal `json:"pnl"`
}
