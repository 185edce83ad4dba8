package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SchemaVersion is the current portfolio document schema. Version 1 was the
// flat layout produced by the first prototype (per-ticker benchmark keys
// inside snapshots); version 2 moved benchmarks into a map and added the
// version field itself.
const SchemaVersion = 2

type PerformanceStats struct {
	TotalTrades   int             `json:"total_trades"`
	WinningTrades int             `json:"winning_trades"`
	LosingTrades  int             `json:"losing_trades"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	LargestWin    decimal.Decimal `json:"largest_win"`
	LargestLoss   decimal.Decimal `json:"largest_loss"`
}

// Record folds one closed trade into the running stats.
func (s *PerformanceStats) Record(pnl decimal.Decimal) {
	s.TotalTrades++
	s.TotalPnL = s.TotalPnL.Add(pnl)
	if pnl.IsPositive() {
		s.WinningTrades++
		if pnl.GreaterThan(s.LargestWin) {
			s.LargestWin = pnl
		}
		return
	}
	s.LosingTrades++
	if pnl.LessThan(s.LargestLoss) {
		s.LargestLoss = pnl
	}
}

// DailySnapshot is an append-only end-of-cycle record. Monetary fields are
// rounded to cents at creation; nothing edits a snapshot afterwards.
type DailySnapshot struct {
	Date           Date            `json:"date"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	Cash           decimal.Decimal `json:"cash"`
	PositionsValue decimal.Decimal `json:"positions_value"`

	// One buy-and-hold benchmark value per tracked ticker.
	Benchmarks map[string]decimal.Decimal `json:"benchmarks"`
}

// PortfolioDocument is the whole persisted account state: one structured
// record, loaded once per cycle, mutated in memory, written back once.
type PortfolioDocument struct {
	Version        int             `json:"schema_version"`
	StartDate      Date            `json:"start_date"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	CurrentCash    decimal.Decimal `json:"current_cash"`

	Positions    []Position    `json:"positions"`
	ClosedTrades []ClosedTrade `json:"closed_trades"`

	DailySnapshots []DailySnapshot `json:"daily_snapshots"`

	// Share counts fixed at the first snapshot, one per tracked ticker.
	BenchmarkShares map[string]float64 `json:"benchmark_shares"`

	PerformanceStats PerformanceStats `json:"performance_stats"`
}

func NewPortfolioDocument(start Date, initialCapital decimal.Decimal) *PortfolioDocument {
	return &PortfolioDocument{
		Version:         SchemaVersion,
		StartDate:       start,
		InitialCapital:  initialCapital,
		CurrentCash:     initialCapital,
		Positions:       []Position{},
		ClosedTrades:    []ClosedTrade{},
		DailySnapshots:  []DailySnapshot{},
		BenchmarkShares: map[string]float64{},
	}
}

// Normalize validates a freshly loaded document and upgrades older schema
// versions in place. Unknown newer versions are rejected rather than
// guessed at.
func (d *PortfolioDocument) Normalize() error {
	switch {
	case d.Version > SchemaVersion:
		return fmt.Errorf("portfolio document schema v%d is newer than supported v%d", d.Version, SchemaVersion)
	case d.Version < SchemaVersion:
		// v1 documents predate the version field and the benchmark map but
		// are otherwise field-compatible.
		d.Version = SchemaVersion
	}
	if d.StartDate.IsZero() {
		return fmt.Errorf("portfolio document missing start_date")
	}
	if !d.InitialCapital.IsPositive() {
		return fmt.Errorf("portfolio document initial_capital must be positive, got %s", d.InitialCapital)
	}
	if d.Positions == nil {
		d.Positions = []Position{}
	}
	if d.ClosedTrades == nil {
		d.ClosedTrades = []ClosedTrade{}
	}
	if d.DailySnapshots == nil {
		d.DailySnapshots = []DailySnapshot{}
	}
	if d.BenchmarkShares == nil {
		d.BenchmarkShares = map[string]float64{}
	}
	for i, p := range d.Positions {
		if p.Status != StatusOpen {
			return fmt.Errorf("positions[%d] %s: open list holds status %q", i, p.ID, p.Status)
		}
		if p.PremiumCollected.IsPositive() == p.PremiumPaid.IsPositive() {
			return fmt.Errorf("positions[%d] %s: exactly one of premium_collected/premium_paid must be set", i, p.ID)
		}
	}
	return nil
}

// OpenPositionCount reports open positions across all tickers.
func (d *PortfolioDocument) OpenPositionCount() int {
	return len(d.Positions)
}

func (d *PortfolioDocument) OpenPositionsForTicker(ticker string) int {
	n := 0
	for _, p := range d.Positions {
		if p.Ticker == ticker {
			n++
		}
	}
	return n
}

func (d *PortfolioDocument) LatestSnapshot() *DailySnapshot {
	if len(d.DailySnapshots) == 0 {
		return nil
	}
	return &d.DailySnapshots[len(d.DailySnapshots)-1]
}

// NextTradeID numbers trades across both open and closed lists.
func (d *PortfolioDocument) NextTradeID() string {
	return fmt.Sprintf("trade_%d", len(d.Positions)+len(d.ClosedTrades))
}
