package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func validDoc() *PortfolioDocument {
	return NewPortfolioDocument(NewDate(2024, 3, 1), decimal.NewFromInt(1000))
}

func TestNormalize_RejectsNewerSchema(t *testing.T) {
	doc := validDoc()
	doc.Version = SchemaVersion + 1
	err := doc.Normalize()
	if err == nil {
		t.Fatalf("expected an error for schema v%d", doc.Version)
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("err=%v", err)
	}
}

func TestNormalize_UpgradesV1Document(t *testing.T) {
	doc := &PortfolioDocument{
		StartDate:      NewDate(2024, 1, 2),
		InitialCapital: decimal.NewFromInt(1000),
		CurrentCash:    decimal.NewFromInt(1000),
	}
	if err := doc.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if doc.Version != SchemaVersion {
		t.Fatalf("version=%d want=%d", doc.Version, SchemaVersion)
	}
	if doc.Positions == nil || doc.BenchmarkShares == nil || doc.DailySnapshots == nil {
		t.Fatalf("nil collections survived normalize")
	}
}

func TestNormalize_RejectsClosedPositionInOpenList(t *testing.T) {
	doc := validDoc()
	doc.Positions = append(doc.Positions, Position{
		ID:               "trade_0",
		Ticker:           "SPY",
		Status:           StatusClosed,
		PremiumCollected: decimal.NewFromInt(200),
	})
	if err := doc.Normalize(); err == nil {
		t.Fatalf("expected an error for a closed position in the open list")
	}
}

func TestNormalize_RejectsAmbiguousPremiums(t *testing.T) {
	doc := validDoc()
	doc.Positions = append(doc.Positions, Position{
		ID:               "trade_0",
		Ticker:           "SPY",
		Status:           StatusOpen,
		PremiumCollected: decimal.NewFromInt(200),
		PremiumPaid:      decimal.NewFromInt(200),
	})
	if err := doc.Normalize(); err == nil {
		t.Fatalf("expected an error when both premium sides are set")
	}
}

func TestNextTradeID_CountsOpenAndClosed(t *testing.T) {
	doc := validDoc()
	if got := doc.NextTradeID(); got != "trade_0" {
		t.Fatalf("id=%s want=trade_0", got)
	}
	doc.Positions = append(doc.Positions, Position{ID: "trade_0", Status: StatusOpen})
	doc.ClosedTrades = append(doc.ClosedTrades, ClosedTrade{Position: Position{ID: "x"}})
	if got := doc.NextTradeID(); got != "trade_2" {
		t.Fatalf("id=%s want=trade_2", got)
	}
}

func TestDateArithmetic(t *testing.T) {
	a := NewDate(2024, 2, 27)
	b := NewDate(2024, 3, 2)
	// 2024 is a leap year.
	if got := a.DaysUntil(b); got != 4 {
		t.Fatalf("days=%d want=4", got)
	}
	if got := a.AddDays(4); !got.Equal(b) {
		t.Fatalf("add=%s want=%s", got, b)
	}
	if got := b.DaysUntil(a); got != -4 {
		t.Fatalf("reverse days=%d want=-4", got)
	}
}
