package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"volarb/internal/allocation"
	"volarb/internal/config"
	"volarb/internal/marketdata"
	"volarb/internal/models"
	"volarb/internal/portfolio"
	"volarb/internal/repository"
	"volarb/internal/scanner"
)

// DailyCycleService runs one full trading day as a strict sequence: load
// state, settle expired positions, scan each ticker, size and open new
// trades, snapshot, persist. Nothing externally visible changes unless the
// final save succeeds.
type DailyCycleService struct {
	Store   repository.PortfolioStore
	Market  marketdata.Provider
	Scanner *scanner.Scanner
	Policy  *allocation.Policy

	Snapshotter *portfolio.Snapshotter
	Config      config.PortfolioConfig
	Logger      *zap.Logger
}

// CycleResult is the read-only view handed to reporting after a cycle.
type CycleResult struct {
	Date     models.Date
	Opened   []models.Position
	Closed   []models.ClosedTrade
	Snapshot *models.DailySnapshot

	// Document is the post-cycle state, for report rendering only.
	Document *models.PortfolioDocument
}

func (s *DailyCycleService) RunOnce(ctx context.Context, now time.Time) (*CycleResult, error) {
	today := models.DateOf(now)
	log := s.log().With(zap.Stringer("date", today))

	doc, err := s.Store.Load(ctx)
	if err != nil {
		// Abort before touching anything: never compute P&L against state
		// that cannot be read back or written.
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	if doc == nil {
		doc = models.NewPortfolioDocument(today, decimal.NewFromFloat(s.Config.InitialCapital))
		log.Info("initialized new portfolio",
			zap.String("initial_capital", doc.InitialCapital.StringFixed(2)),
			zap.Strings("tickers", s.Config.Tickers),
		)
	}

	spot := s.cachedSpot(ctx)
	ledger := portfolio.NewLedger(doc, s.Logger)

	closed := ledger.AdvanceDay(today, spot)
	log.Info("positions updated",
		zap.Int("closed", len(closed)),
		zap.Int("open", ledger.OpenCount()),
	)

	opened := s.scanAndTrade(ctx, today, ledger, log)

	result := &CycleResult{
		Date:     today,
		Opened:   opened,
		Closed:   closed,
		Document: doc,
	}

	snap, err := s.Snapshotter.Take(doc, today, spot)
	if err != nil {
		// A missing snapshot is a gap in the series, not a lost trade; the
		// ledger changes still get persisted.
		log.Warn("snapshot failed", zap.Error(err))
	} else {
		result.Snapshot = &snap
		log.Info("daily snapshot",
			zap.String("portfolio_value", snap.PortfolioValue.StringFixed(2)),
			zap.String("cash", snap.Cash.StringFixed(2)),
			zap.String("positions_value", snap.PositionsValue.StringFixed(2)),
		)
	}

	if err := s.Store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save portfolio: %w", err)
	}
	return result, nil
}

// scanAndTrade walks the tracked tickers in order. One ticker failing never
// stops the rest; policy rejections are routine and only logged.
func (s *DailyCycleService) scanAndTrade(ctx context.Context, today models.Date, ledger *portfolio.Ledger, log *zap.Logger) []models.Position {
	var opened []models.Position
	for _, ticker := range s.Config.Tickers {
		if ledger.OpenCount() >= s.Config.MaxTotalPositions {
			log.Info("portfolio at maximum positions, stopping scan",
				zap.Int("max", s.Config.MaxTotalPositions))
			break
		}
		if ledger.TickerCount(ticker) >= s.Config.MaxPerTicker {
			log.Info("ticker at cap, skipping", zap.String("ticker", ticker))
			continue
		}

		opp, err := s.Scanner.Scan(ctx, ticker, today)
		if err != nil {
			log.Warn("scan failed, skipping ticker", zap.String("ticker", ticker), zap.Error(err))
			continue
		}
		if opp == nil {
			continue
		}

		trade, err := s.Policy.Evaluate(*opp, ledger)
		if err != nil {
			var rej *allocation.Rejection
			if errors.As(err, &rej) {
				log.Info("trade rejected",
					zap.String("ticker", ticker),
					zap.String("reason", string(rej.Reason)),
					zap.String("detail", rej.Detail),
				)
				continue
			}
			log.Warn("policy evaluation failed", zap.String("ticker", ticker), zap.Error(err))
			continue
		}

		opened = append(opened, ledger.OpenPosition(*trade, today))
	}
	return opened
}

// cachedSpot wraps the provider so each ticker is quoted at most once per
// cycle; settlement, mark-to-market and benchmarks all see the same price.
func (s *DailyCycleService) cachedSpot(ctx context.Context) portfolio.SpotFunc {
	type quote struct {
		price float64
		err   error
	}
	cache := map[string]quote{}
	return func(ticker string) (float64, error) {
		if q, ok := cache[ticker]; ok {
			return q.price, q.err
		}
		price, err := s.Market.CurrentPrice(ctx, ticker)
		cache[ticker] = quote{price: price, err: err}
		return price, err
	}
}

func (s *DailyCycleService) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
