package portfolio

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"volarb/internal/allocation"
	"volarb/internal/models"
)

// SpotFunc resolves a ticker to its current underlying price.
type SpotFunc func(ticker string) (float64, error)

// Ledger applies position state transitions to a portfolio document. A
// position only ever moves OPEN -> CLOSED, and all cash movement happens
// here: premium on open, settlement payout on close.
type Ledger struct {
	doc    *models.PortfolioDocument
	logger *zap.Logger
}

func NewLedger(doc *models.PortfolioDocument, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{doc: doc, logger: logger}
}

func (l *Ledger) Document() *models.PortfolioDocument { return l.doc }

// OpenCount, TickerCount, HasPosition and Cash give the allocation policy
// its read-only view.
func (l *Ledger) OpenCount() int { return l.doc.OpenPositionCount() }

func (l *Ledger) TickerCount(ticker string) int { return l.doc.OpenPositionsForTicker(ticker) }

func (l *Ledger) HasPosition(ticker string, strike float64, expiration models.Date, side models.Side) bool {
	for _, p := range l.doc.Positions {
		if p.Matches(ticker, strike, expiration, side) {
			return true
		}
	}
	return false
}

func (l *Ledger) Cash() decimal.Decimal { return l.doc.CurrentCash }

// OpenPosition appends the sized trade as an OPEN position and moves the
// premium through cash: collected for a SELL, paid out for a BUY.
func (l *Ledger) OpenPosition(trade models.Trade, entry models.Date) models.Position {
	pos := models.Position{
		ID:              l.doc.NextTradeID(),
		Ticker:          trade.Ticker,
		Side:            trade.Side,
		Strike:          trade.Strike,
		Expiration:      trade.Expiration,
		Contracts:       trade.Contracts,
		EntryDate:       entry,
		EntryPrice:      trade.Bid,
		EntryStockPrice: trade.StockPrice,
		EntryIV:         trade.IV,
		Status:          models.StatusOpen,
	}
	if trade.Side == models.SideBuy {
		pos.PremiumPaid = trade.Premium
		l.doc.CurrentCash = l.doc.CurrentCash.Sub(trade.Premium)
	} else {
		pos.PremiumCollected = trade.Premium
		l.doc.CurrentCash = l.doc.CurrentCash.Add(trade.Premium)
	}
	l.doc.Positions = append(l.doc.Positions, pos)

	l.logger.Info("position opened",
		zap.String("id", pos.ID),
		zap.String("ticker", pos.Ticker),
		zap.String("side", string(pos.Side)),
		zap.Float64("strike", pos.Strike),
		zap.Stringer("expiration", pos.Expiration),
		zap.Int("contracts", pos.Contracts),
		zap.String("premium", trade.Premium.StringFixed(2)),
		zap.String("cash", l.doc.CurrentCash.StringFixed(2)),
	)
	return pos
}

// AdvanceDay refreshes days-held on every open position and settles the ones
// whose expiration date has arrived. Settlement pays intrinsic value: a sold
// call costs the seller intrinsic x contracts x 100 out of cash, a bought
// call pays it in. P&L is measured against the premium. Positions already
// CLOSED are never reprocessed, so running the same date twice moves
// nothing.
//
// A failed spot lookup leaves that position open for a later cycle and never
// blocks the others.
func (l *Ledger) AdvanceDay(today models.Date, spot SpotFunc) []models.ClosedTrade {
	var closed []models.ClosedTrade
	remaining := l.doc.Positions[:0]

	for _, pos := range l.doc.Positions {
		pos.DaysHeld = pos.EntryDate.DaysUntil(today)

		if today.Before(pos.Expiration) {
			remaining = append(remaining, pos)
			continue
		}

		price, err := spot(pos.Ticker)
		if err != nil {
			l.logger.Warn("spot lookup failed, keeping position open",
				zap.String("id", pos.ID),
				zap.String("ticker", pos.Ticker),
				zap.Error(err),
			)
			remaining = append(remaining, pos)
			continue
		}

		closed = append(closed, l.settle(pos, today, price))
	}

	l.doc.Positions = remaining
	return closed
}

func (l *Ledger) settle(pos models.Position, today models.Date, spotPrice float64) models.ClosedTrade {
	intrinsic := spotPrice - pos.Strike
	if intrinsic < 0 {
		intrinsic = 0
	}
	payout := decimal.NewFromFloat(intrinsic).
		Mul(decimal.NewFromInt(allocation.ContractMultiplier)).
		Mul(decimal.NewFromInt(int64(pos.Contracts)))

	var pnl decimal.Decimal
	if pos.Side == models.SideBuy {
		pnl = payout.Sub(pos.PremiumPaid)
		l.doc.CurrentCash = l.doc.CurrentCash.Add(payout)
	} else {
		pnl = pos.PremiumCollected.Sub(payout)
		l.doc.CurrentCash = l.doc.CurrentCash.Sub(payout)
	}

	pos.Status = models.StatusClosed
	trade := models.ClosedTrade{
		Position:       pos,
		ExitDate:       today,
		ExitStockPrice: spotPrice,
		IntrinsicValue: intrinsic,
		PnL:            pnl,
	}
	l.doc.ClosedTrades = append(l.doc.ClosedTrades, trade)
	l.doc.PerformanceStats.Record(pnl)

	l.logger.Info("position closed at expiry",
		zap.String("id", pos.ID),
		zap.String("ticker", pos.Ticker),
		zap.Float64("strike", pos.Strike),
		zap.Float64("spot", spotPrice),
		zap.Float64("intrinsic", intrinsic),
		zap.String("pnl", pnl.StringFixed(2)),
		zap.String("cash", l.doc.CurrentCash.StringFixed(2)),
	)
	return trade
}
