package pricing

import (
	"math"
)

const (
	// DefaultVolatility is returned when the price series is too short to
	// estimate from, so the scanner always has a usable input.
	DefaultVolatility = 0.20

	tradingDaysPerYear = 252
)

// HistoricalVolatility estimates annualized volatility from the standard
// deviation of the last `window` day-over-day simple returns of a closing
// price series (oldest first).
func HistoricalVolatility(closes []float64, window int) float64 {
	if window < 2 {
		return DefaultVolatility
	}

	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			continue
		}
		returns = append(returns, closes[i]/prev-1)
	}
	if len(returns) < window {
		return DefaultVolatility
	}

	recent := returns[len(returns)-window:]
	mean := 0.0
	for _, r := range recent {
		mean += r
	}
	mean /= float64(len(recent))

	variance := 0.0
	for _, r := range recent {
		d := r - mean
		variance += d * d
	}
	// Sample standard deviation, matching the estimator the thresholds were
	// calibrated against.
	variance /= float64(len(recent) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}
