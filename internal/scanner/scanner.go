package scanner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"volarb/internal/config"
	"volarb/internal/marketdata"
	"volarb/internal/models"
	"volarb/internal/pricing"
)

const daysPerYear = 365.0

// hvExtraDays widens the close-price fetch beyond the return window so
// weekends and holidays still leave enough observations.
const hvExtraDays = 10

// Scanner finds, per ticker and per day, the single best overpriced call to
// sell, or nothing. A ticker with no qualifying contract is a normal outcome,
// reported as (nil, nil); only transport-level failures return an error.
type Scanner struct {
	Market marketdata.Provider
	Config config.ScannerConfig

	// RiskFreeRate feeds the theoretical pricing of every candidate.
	RiskFreeRate float64

	Logger *zap.Logger
}

func (s *Scanner) Scan(ctx context.Context, ticker string, today models.Date) (*models.Opportunity, error) {
	spot, err := s.Market.CurrentPrice(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("current price for %s: %w", ticker, err)
	}

	expirations, err := s.Market.OptionExpirations(ctx, ticker)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			s.log().Info("no options available", zap.String("ticker", ticker))
			return nil, nil
		}
		return nil, fmt.Errorf("expirations for %s: %w", ticker, err)
	}

	expiration, dte, ok := closestExpiration(expirations, today, s.Config.TargetDTE)
	if !ok {
		s.log().Info("no suitable expiration", zap.String("ticker", ticker))
		return nil, nil
	}
	tte := float64(dte) / daysPerYear

	chain, err := s.Market.OptionChain(ctx, ticker, expiration)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			s.log().Info("no option chain", zap.String("ticker", ticker), zap.Stringer("expiration", expiration))
			return nil, nil
		}
		return nil, fmt.Errorf("chain for %s %s: %w", ticker, expiration, err)
	}

	hv, err := s.historicalVol(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("historical vol for %s: %w", ticker, err)
	}

	best := s.pickBest(ticker, chain, spot, hv, expiration, tte)
	if best == nil {
		s.log().Info("no opportunity meeting criteria",
			zap.String("ticker", ticker),
			zap.Stringer("expiration", expiration),
			zap.Float64("hv", hv),
		)
		return nil, nil
	}

	s.log().Info("opportunity found",
		zap.String("ticker", ticker),
		zap.Float64("strike", best.Strike),
		zap.Stringer("expiration", best.Expiration),
		zap.Float64("bid", best.Bid),
		zap.Float64("theoretical", best.Theoretical),
		zap.Float64("iv_edge", best.IVEdge),
		zap.Float64("price_edge_pct", best.PriceEdgePct),
		zap.Float64("moneyness", best.Moneyness),
	)
	return best, nil
}

// closestExpiration picks the expiration whose days-to-expiry is nearest the
// target among strictly future dates. Ties keep the first-seen expiration.
func closestExpiration(expirations []models.Date, today models.Date, targetDTE int) (models.Date, int, bool) {
	var (
		best     models.Date
		bestDTE  int
		bestDiff = -1
	)
	for _, exp := range expirations {
		dte := today.DaysUntil(exp)
		if dte <= 0 {
			continue
		}
		diff := dte - targetDTE
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			bestDiff = diff
			best = exp
			bestDTE = dte
		}
	}
	return best, bestDTE, bestDiff >= 0
}

func (s *Scanner) historicalVol(ctx context.Context, ticker string) (float64, error) {
	candles, err := s.Market.HistoricalCloses(ctx, ticker, s.Config.HVWindow+hvExtraDays)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			// The estimator's fallback covers the empty case too.
			return pricing.DefaultVolatility, nil
		}
		return 0, err
	}
	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		closes = append(closes, c.Close)
	}
	return pricing.HistoricalVolatility(closes, s.Config.HVWindow), nil
}

// pickBest walks the chain and keeps the qualifying candidate with the
// largest absolute dollar edge. First-seen order wins ties.
func (s *Scanner) pickBest(ticker string, chain []marketdata.OptionQuote, spot, hv float64, expiration models.Date, tte float64) *models.Opportunity {
	var best *models.Opportunity
	bestEdge := 0.0

	for _, q := range chain {
		if q.Volume <= s.Config.MinVolume || q.Bid <= s.Config.MinBid {
			continue
		}
		moneyness := q.Strike / spot
		if moneyness < s.Config.MinMoneyness || moneyness > s.Config.MaxMoneyness {
			continue
		}

		mid := (q.Bid + q.Ask) / 2
		iv := q.ImpliedVolatility
		if iv <= 0 {
			// Quote feeds occasionally drop IV; assume a mild premium over HV
			// so the contract is still comparable.
			iv = hv * 1.1
		}

		theo := pricing.TheoreticalValue(spot, q.Strike, tte, s.RiskFreeRate, hv, pricing.Call)
		ivEdge := iv - hv
		priceEdgePct := 0.0
		if theo > 0 {
			priceEdgePct = (mid - theo) / theo
		}

		if ivEdge <= s.Config.MinIVEdge || priceEdgePct <= s.Config.MinPriceEdge {
			continue
		}

		edge := mid - theo
		if best != nil && edge <= bestEdge {
			continue
		}
		bestEdge = edge
		best = &models.Opportunity{
			Ticker:       ticker,
			Side:         models.SideSell,
			Strike:       q.Strike,
			Expiration:   expiration,
			Bid:          q.Bid,
			MarketMid:    mid,
			Theoretical:  theo,
			IV:           iv,
			HV:           hv,
			IVEdge:       ivEdge,
			EdgeUSD:      edge,
			PriceEdgePct: priceEdgePct,
			Moneyness:    moneyness,
			StockPrice:   spot,
			TimeToExpiry: tte,
		}
	}
	return best
}

func (s *Scanner) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
