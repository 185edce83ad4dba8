package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"volarb/internal/allocation"
	"volarb/internal/models"
	"volarb/internal/pricing"
)

// minTimeToExpiry keeps same-day mark-to-market away from the T=0
// degeneracy of the pricing model.
const minTimeToExpiry = 0.001

// Snapshotter values the portfolio at one point in time and appends the
// result to the document's snapshot series. Open positions are re-priced
// with the implied volatility frozen at entry, not a fresh estimate.
type Snapshotter struct {
	RiskFreeRate float64

	// Benchmark buy-and-hold comparators: AllocationPerTicker notional per
	// tracked ticker, share counts fixed at the first-ever snapshot.
	Tickers             []string
	AllocationPerTicker float64
}

// Take computes and appends the snapshot for the given date. Taking a second
// snapshot for a date already recorded returns the existing one unchanged;
// the series is append-only and one-per-day.
func (s *Snapshotter) Take(doc *models.PortfolioDocument, today models.Date, spot SpotFunc) (models.DailySnapshot, error) {
	if last := doc.LatestSnapshot(); last != nil && last.Date.Equal(today) {
		return *last, nil
	}

	positionsValue, err := s.markPositions(doc, today, spot)
	if err != nil {
		return models.DailySnapshot{}, err
	}

	benchmarks, err := s.markBenchmarks(doc, spot)
	if err != nil {
		return models.DailySnapshot{}, err
	}

	// Round the parts, then sum, so portfolio_value == cash + positions_value
	// holds exactly in the written record.
	cash := doc.CurrentCash.Round(2)
	positionsValue = positionsValue.Round(2)
	snap := models.DailySnapshot{
		Date:           today,
		PortfolioValue: cash.Add(positionsValue),
		Cash:           cash,
		PositionsValue: positionsValue,
		Benchmarks:     benchmarks,
	}
	doc.DailySnapshots = append(doc.DailySnapshots, snap)
	return snap, nil
}

// markPositions sums the signed model value of every open position: sold
// options are a liability, bought ones an asset.
func (s *Snapshotter) markPositions(doc *models.PortfolioDocument, today models.Date, spot SpotFunc) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, pos := range doc.Positions {
		price, err := spot(pos.Ticker)
		if err != nil {
			return decimal.Zero, fmt.Errorf("mark %s: %w", pos.ID, err)
		}
		tte := float64(today.DaysUntil(pos.Expiration)) / 365
		if tte < minTimeToExpiry {
			tte = minTimeToExpiry
		}
		value := pricing.TheoreticalValue(price, pos.Strike, tte, s.RiskFreeRate, pos.EntryIV, pricing.Call)
		notional := decimal.NewFromFloat(value).
			Mul(decimal.NewFromInt(allocation.ContractMultiplier)).
			Mul(decimal.NewFromInt(int64(pos.Contracts)))
		if pos.Side == models.SideSell {
			total = total.Sub(notional)
		} else {
			total = total.Add(notional)
		}
	}
	return total, nil
}

func (s *Snapshotter) markBenchmarks(doc *models.PortfolioDocument, spot SpotFunc) (map[string]decimal.Decimal, error) {
	firstSnapshot := len(doc.DailySnapshots) == 0
	out := make(map[string]decimal.Decimal, len(s.Tickers))
	for _, ticker := range s.Tickers {
		price, err := spot(ticker)
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", ticker, err)
		}
		if firstSnapshot {
			doc.BenchmarkShares[ticker] = s.AllocationPerTicker / price
		}
		shares, ok := doc.BenchmarkShares[ticker]
		if !ok {
			// Ticker added to the config after inception; start its clock now.
			shares = s.AllocationPerTicker / price
			doc.BenchmarkShares[ticker] = shares
		}
		out[ticker] = decimal.NewFromFloat(shares * price).Round(2)
	}
	return out, nil
}
