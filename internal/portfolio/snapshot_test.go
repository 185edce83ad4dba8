package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"

	"volarb/internal/pricing"
)

func testSnapshotter() *Snapshotter {
	return &Snapshotter{
		RiskFreeRate:        0.045,
		Tickers:             []string{"SPY", "QQQ"},
		AllocationPerTicker: 250,
	}
}

func TestTake_CashOnlyPortfolio(t *testing.T) {
	doc := newDoc()
	snap, err := testSnapshotter().Take(doc, entryDay, fixedSpot(250))
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if snap.PortfolioValue.Cmp(decimal.NewFromInt(1000)) != 0 {
		t.Fatalf("portfolio_value=%s want=1000", snap.PortfolioValue)
	}
	if !snap.PositionsValue.IsZero() {
		t.Fatalf("positions_value=%s want=0", snap.PositionsValue)
	}
	if snap.Cash.Cmp(snap.PortfolioValue) != 0 {
		t.Fatalf("cash=%s must equal portfolio value with no positions", snap.Cash)
	}
	if len(doc.DailySnapshots) != 1 {
		t.Fatalf("snapshots=%d want=1", len(doc.DailySnapshots))
	}
}

func TestTake_SellPositionIsALiability(t *testing.T) {
	doc := newDoc()
	led := NewLedger(doc, nil)
	led.OpenPosition(sellTrade("SPY", 270, 2.00, 1), entryDay)

	markDay := entryDay.AddDays(10)
	snap, err := testSnapshotter().Take(doc, markDay, fixedSpot(250))
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if !snap.PositionsValue.IsNegative() {
		t.Fatalf("positions_value=%s want negative for a sold call", snap.PositionsValue)
	}

	// Portfolio value must equal cash + positions value exactly (at 2dp).
	want := snap.Cash.Add(snap.PositionsValue)
	if snap.PortfolioValue.Cmp(want) != 0 {
		t.Fatalf("portfolio_value=%s want=%s", snap.PortfolioValue, want)
	}

	// The mark re-prices with the entry IV, frozen at trade time.
	tte := float64(markDay.DaysUntil(expiryDay)) / 365
	mark := pricing.TheoreticalValue(250, 270, tte, 0.045, 0.30, pricing.Call)
	wantValue := decimal.NewFromFloat(-mark * 100).Round(2)
	if snap.PositionsValue.Cmp(wantValue) != 0 {
		t.Fatalf("positions_value=%s want=%s", snap.PositionsValue, wantValue)
	}
}

func TestTake_BenchmarkSharesFixAtFirstSnapshot(t *testing.T) {
	doc := newDoc()
	s := testSnapshotter()

	first, err := s.Take(doc, entryDay, fixedSpot(250))
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	// 250 allocation / 250 spot = 1 share per ticker.
	if doc.BenchmarkShares["SPY"] != 1 || doc.BenchmarkShares["QQQ"] != 1 {
		t.Fatalf("benchmark_shares=%v want 1 share each", doc.BenchmarkShares)
	}
	if first.Benchmarks["SPY"].Cmp(decimal.NewFromInt(250)) != 0 {
		t.Fatalf("SPY benchmark=%s want=250", first.Benchmarks["SPY"])
	}

	// Next day the spot doubles: shares stay fixed, value follows price.
	second, err := s.Take(doc, entryDay.AddDays(1), fixedSpot(500))
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if doc.BenchmarkShares["SPY"] != 1 {
		t.Fatalf("benchmark shares drifted: %v", doc.BenchmarkShares)
	}
	if second.Benchmarks["SPY"].Cmp(decimal.NewFromInt(500)) != 0 {
		t.Fatalf("SPY benchmark=%s want=500", second.Benchmarks["SPY"])
	}
}

func TestTake_SameDayIsANoOp(t *testing.T) {
	doc := newDoc()
	s := testSnapshotter()
	first, err := s.Take(doc, entryDay, fixedSpot(250))
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	again, err := s.Take(doc, entryDay, fixedSpot(999))
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(doc.DailySnapshots) != 1 {
		t.Fatalf("snapshots=%d want=1 (append-only, one per day)", len(doc.DailySnapshots))
	}
	if again.PortfolioValue.Cmp(first.PortfolioValue) != 0 {
		t.Fatalf("rerun changed the recorded snapshot")
	}
}

func TestTake_RoundsToCents(t *testing.T) {
	doc := newDoc()
	s := testSnapshotter()
	snap, err := s.Take(doc, entryDay, fixedSpot(333.333333))
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	for ticker, v := range snap.Benchmarks {
		if !v.Round(2).Equal(v) {
			t.Fatalf("%s benchmark %s not rounded to cents", ticker, v)
		}
	}
	if !snap.PortfolioValue.Round(2).Equal(snap.PortfolioValue) {
		t.Fatalf("portfolio value %s not rounded to cents", snap.PortfolioValue)
	}
}
