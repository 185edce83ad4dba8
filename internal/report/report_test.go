package report

import (
	"net/smtp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"volarb/internal/config"
	"volarb/internal/models"
	"volarb/internal/service"
)

func snap(day int, value float64) models.DailySnapshot {
	return models.DailySnapshot{
		Date:           models.NewDate(2024, 3, day),
		PortfolioValue: decimal.NewFromFloat(value),
		Benchmarks: map[string]decimal.Decimal{
			"SPY": decimal.NewFromFloat(value / 2),
		},
	}
}

func TestMaxDrawdown(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"rising", []float64{1000, 1010, 1050}, 0},
		{"single dip", []float64{1000, 900, 1100}, 0.10},
		{"later deeper dip", []float64{1000, 950, 1200, 900}, 0.25},
		{"empty", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snaps := make([]models.DailySnapshot, len(tc.values))
			for i, v := range tc.values {
				snaps[i] = snap(i+1, v)
			}
			got := MaxDrawdown(snaps)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("drawdown=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestBuild_ReturnsAndUtilization(t *testing.T) {
	doc := models.NewPortfolioDocument(models.NewDate(2024, 3, 1), decimal.NewFromInt(1000))
	doc.DailySnapshots = []models.DailySnapshot{snap(1, 1000), snap(2, 1100)}
	doc.Positions = []models.Position{
		{ID: "trade_1", Ticker: "SPY", Status: models.StatusOpen},
	}
	doc.PerformanceStats = models.PerformanceStats{
		TotalTrades:   4,
		WinningTrades: 3,
		LosingTrades:  1,
	}
	last := doc.DailySnapshots[1]

	s := Build(&service.CycleResult{
		Date:     last.Date,
		Snapshot: &last,
		Document: doc,
	}, 4)

	if diff := s.TotalReturnPct - 0.10; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("total_return=%v want=0.10", s.TotalReturnPct)
	}
	// Benchmarks rose 500 -> 550 alongside the portfolio, so alpha is flat.
	if diff := s.AlphaPct; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("alpha=%v want=0", s.AlphaPct)
	}
	if s.WinRate != 0.75 {
		t.Fatalf("win_rate=%v want=0.75", s.WinRate)
	}
	if s.PositionUtilization != 0.25 {
		t.Fatalf("utilization=%v want=0.25", s.PositionUtilization)
	}
}

func TestBuild_NoSnapshotLeavesValuationZero(t *testing.T) {
	doc := models.NewPortfolioDocument(models.NewDate(2024, 3, 1), decimal.NewFromInt(1000))
	s := Build(&service.CycleResult{Date: doc.StartDate, Document: doc}, 4)
	if !s.PortfolioValue.IsZero() || s.TotalReturnPct != 0 {
		t.Fatalf("expected zero valuation without a snapshot, got %+v", s)
	}
}

func TestNotifier_DisabledAndQuietDays(t *testing.T) {
	sent := 0
	stub := func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		sent++
		return nil
	}

	n := &Notifier{Config: config.EmailConfig{Enabled: false}, send: stub}
	if err := n.Send(Summary{}); err != nil {
		t.Fatalf("disabled notifier: %v", err)
	}

	n = &Notifier{
		Config: config.EmailConfig{
			Enabled:    true,
			SMTPHost:   "smtp.example.com",
			Sender:     "bot@example.com",
			Recipients: []string{"me@example.com"},
		},
		send: stub,
	}
	if err := n.Send(Summary{}); err != nil {
		t.Fatalf("quiet day: %v", err)
	}
	if sent != 0 {
		t.Fatalf("sent=%d want=0", sent)
	}
}

func TestNotifier_SendsRenderedSummary(t *testing.T) {
	var gotTo []string
	var gotMsg []byte
	n := &Notifier{
		Config: config.EmailConfig{
			Enabled:    true,
			SMTPHost:   "smtp.example.com",
			SMTPPort:   587,
			Sender:     "bot@example.com",
			Recipients: []string{"me@example.com"},
		},
		send: func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
			gotTo = to
			gotMsg = msg
			return nil
		},
	}

	summary := Summary{
		Date:           models.NewDate(2024, 3, 1),
		PortfolioValue: decimal.NewFromInt(1050),
		Cash:           decimal.NewFromInt(1050),
		Opened: []models.Position{
			{Ticker: "SPY", Contracts: 1, Strike: 270, EntryPrice: 2.00,
				Expiration: models.NewDate(2024, 3, 29)},
		},
	}
	if err := n.Send(summary); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(gotTo) != 1 || gotTo[0] != "me@example.com" {
		t.Fatalf("to=%v", gotTo)
	}
	body := string(gotMsg)
	if !strings.Contains(body, "Subject: Trading Summary 2024-03-01") {
		t.Fatalf("missing subject in %q", body)
	}
	if !strings.Contains(body, "SPY") || !strings.Contains(body, "1050.00") {
		t.Fatalf("summary fields missing from body")
	}
}
