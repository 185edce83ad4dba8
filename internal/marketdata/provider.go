package marketdata

import (
	"context"
	"errors"

	"volarb/internal/models"
)

// ErrNoData marks a ticker with nothing usable right now (no quote, no
// chain, no expirations). Callers skip the ticker and move on; it is never
// a cycle-fatal condition.
var ErrNoData = errors.New("market data unavailable")

type Candle struct {
	Date  models.Date
	Close float64
}

type OptionQuote struct {
	Strike            float64
	Bid               float64
	Ask               float64
	Volume            int
	ImpliedVolatility float64
}

// Provider is the market-data dependency of the trading core. Implementations
// own their transport, retries and timeouts.
type Provider interface {
	CurrentPrice(ctx context.Context, ticker string) (float64, error)
	HistoricalCloses(ctx context.Context, ticker string, days int) ([]Candle, error)
	OptionExpirations(ctx context.Context, ticker string) ([]models.Date, error)
	OptionChain(ctx context.Context, ticker string, expiration models.Date) ([]OptionQuote, error)
}
