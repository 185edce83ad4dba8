package allocation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"volarb/internal/config"
	"volarb/internal/models"
)

type fakeLedger struct {
	open    int
	perTick map[string]int
	dupes   bool
	cash    decimal.Decimal
}

func (f *fakeLedger) OpenCount() int { return f.open }

func (f *fakeLedger) TickerCount(ticker string) int { return f.perTick[ticker] }

func (f *fakeLedger) HasPosition(string, float64, models.Date, models.Side) bool { return f.dupes }

func (f *fakeLedger) Cash() decimal.Decimal { return f.cash }

func testPolicy() *Policy {
	return &Policy{Config: config.PortfolioConfig{
		AllocationPerTicker: 250,
		PositionSizePct:     0.02,
		MaxTotalPositions:   4,
		MaxPerTicker:        1,
	}}
}

func testOpp() models.Opportunity {
	return models.Opportunity{
		Ticker:     "SPY",
		Side:       models.SideSell,
		Strike:     270,
		Expiration: models.NewDate(2024, 3, 29),
		Bid:        2.00,
	}
}

func reasonOf(t *testing.T, err error) RejectReason {
	t.Helper()
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected *Rejection, got %v", err)
	}
	return rej.Reason
}

func TestEvaluate_SizesTrade(t *testing.T) {
	led := &fakeLedger{perTick: map[string]int{}, cash: decimal.NewFromInt(1000)}
	trade, err := testPolicy().Evaluate(testOpp(), led)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// 250 * 0.02 / (2.00 * 100) = 0.025 -> floor 0 -> floor of one contract.
	if trade.Contracts != 1 {
		t.Fatalf("contracts=%d want=1", trade.Contracts)
	}
	if trade.Premium.Cmp(decimal.NewFromInt(200)) != 0 {
		t.Fatalf("premium=%s want=200", trade.Premium)
	}
}

func TestEvaluate_SizingScalesWithAllocation(t *testing.T) {
	p := testPolicy()
	p.Config.AllocationPerTicker = 100000
	led := &fakeLedger{perTick: map[string]int{}, cash: decimal.NewFromInt(100000)}
	trade, err := p.Evaluate(testOpp(), led)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// 100000 * 0.02 / 200 = 10 contracts.
	if trade.Contracts != 10 {
		t.Fatalf("contracts=%d want=10", trade.Contracts)
	}
	if trade.Premium.Cmp(decimal.NewFromInt(2000)) != 0 {
		t.Fatalf("premium=%s want=2000", trade.Premium)
	}
}

func TestEvaluate_RejectsDuplicateEvenWithRoom(t *testing.T) {
	led := &fakeLedger{perTick: map[string]int{}, dupes: true, cash: decimal.NewFromInt(100000)}
	_, err := testPolicy().Evaluate(testOpp(), led)
	if got := reasonOf(t, err); got != ReasonDuplicate {
		t.Fatalf("reason=%s want=%s", got, ReasonDuplicate)
	}
}

func TestEvaluate_RejectsFullPortfolio(t *testing.T) {
	led := &fakeLedger{open: 4, perTick: map[string]int{}, cash: decimal.NewFromInt(1000)}
	_, err := testPolicy().Evaluate(testOpp(), led)
	if got := reasonOf(t, err); got != ReasonPortfolioFull {
		t.Fatalf("reason=%s want=%s", got, ReasonPortfolioFull)
	}
}

func TestEvaluate_RejectsCappedTicker(t *testing.T) {
	led := &fakeLedger{open: 1, perTick: map[string]int{"SPY": 1}, cash: decimal.NewFromInt(1000)}
	_, err := testPolicy().Evaluate(testOpp(), led)
	if got := reasonOf(t, err); got != ReasonTickerCapped {
		t.Fatalf("reason=%s want=%s", got, ReasonTickerCapped)
	}
}

func TestEvaluate_RejectsInsufficientCash(t *testing.T) {
	led := &fakeLedger{perTick: map[string]int{}, cash: decimal.NewFromInt(100)}
	_, err := testPolicy().Evaluate(testOpp(), led)
	if got := reasonOf(t, err); got != ReasonInsufficientCash {
		t.Fatalf("reason=%s want=%s", got, ReasonInsufficientCash)
	}
}

func TestEvaluate_CheckOrderDuplicateFirst(t *testing.T) {
	// A duplicate in a full portfolio with no cash still reports duplicate.
	led := &fakeLedger{open: 4, perTick: map[string]int{"SPY": 1}, dupes: true, cash: decimal.Zero}
	_, err := testPolicy().Evaluate(testOpp(), led)
	if got := reasonOf(t, err); got != ReasonDuplicate {
		t.Fatalf("reason=%s want=%s", got, ReasonDuplicate)
	}
}
