package report

import (
	"github.com/shopspring/decimal"

	"volarb/internal/models"
	"volarb/internal/service"
)

// Summary is the single-cycle digest rendered into logs, the dashboard and
// the end-of-day email. All percentages are fractions (0.05 = 5%).
type Summary struct {
	Date           models.Date
	PortfolioValue decimal.Decimal
	Cash           decimal.Decimal
	PositionsValue decimal.Decimal

	TotalReturnPct     float64
	BenchmarkReturnPct float64
	AlphaPct           float64
	MaxDrawdownPct     float64

	WinRate     float64
	TotalTrades int
	TotalPnL    decimal.Decimal

	OpenPositions       int
	MaxPositions        int
	PositionUtilization float64

	Opened []models.Position
	Closed []models.ClosedTrade
}

// Build digests a finished cycle. A cycle without a snapshot (market data
// outage) still reports trades; the valuation fields stay at their zero
// values.
func Build(res *service.CycleResult, maxPositions int) Summary {
	doc := res.Document
	s := Summary{
		Date:          res.Date,
		TotalTrades:   doc.PerformanceStats.TotalTrades,
		TotalPnL:      doc.PerformanceStats.TotalPnL,
		OpenPositions: doc.OpenPositionCount(),
		MaxPositions:  maxPositions,
		Opened:        res.Opened,
		Closed:        res.Closed,
	}

	if res.Snapshot != nil {
		s.PortfolioValue = res.Snapshot.PortfolioValue
		s.Cash = res.Snapshot.Cash
		s.PositionsValue = res.Snapshot.PositionsValue
	}

	if maxPositions > 0 {
		s.PositionUtilization = float64(s.OpenPositions) / float64(maxPositions)
	}
	if doc.PerformanceStats.TotalTrades > 0 {
		s.WinRate = float64(doc.PerformanceStats.WinningTrades) / float64(doc.PerformanceStats.TotalTrades)
	}

	if !doc.InitialCapital.IsZero() && res.Snapshot != nil {
		ret, _ := res.Snapshot.PortfolioValue.Sub(doc.InitialCapital).
			Div(doc.InitialCapital).Float64()
		s.TotalReturnPct = ret
	}

	s.BenchmarkReturnPct = benchmarkReturn(doc.DailySnapshots)
	s.AlphaPct = s.TotalReturnPct - s.BenchmarkReturnPct
	s.MaxDrawdownPct = MaxDrawdown(doc.DailySnapshots)
	return s
}

// benchmarkReturn compares the combined buy-and-hold benchmark value at the
// latest snapshot against its value at inception.
func benchmarkReturn(snapshots []models.DailySnapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	first := sumBenchmarks(snapshots[0])
	last := sumBenchmarks(snapshots[len(snapshots)-1])
	if first.IsZero() {
		return 0
	}
	ret, _ := last.Sub(first).Div(first).Float64()
	return ret
}

func sumBenchmarks(snap models.DailySnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, v := range snap.Benchmarks {
		total = total.Add(v)
	}
	return total
}

// MaxDrawdown returns the deepest peak-to-trough decline of the portfolio
// value series, as a positive fraction. A monotonically rising series
// returns 0.
func MaxDrawdown(snapshots []models.DailySnapshot) float64 {
	var peak, worst float64
	for _, snap := range snapshots {
		v, _ := snap.PortfolioValue.Float64()
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - v) / peak
		if dd > worst {
			worst = dd
		}
	}
	return worst
}
