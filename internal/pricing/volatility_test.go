package pricing

import (
	"math"
	"testing"
)

func TestHistoricalVolatility_ShortSeriesFallsBack(t *testing.T) {
	closes := []float64{100, 101, 102, 101, 103}
	if got := HistoricalVolatility(closes, 30); got != DefaultVolatility {
		t.Fatalf("got=%v want=%v", got, DefaultVolatility)
	}
	if got := HistoricalVolatility(nil, 30); got != DefaultVolatility {
		t.Fatalf("nil series got=%v want=%v", got, DefaultVolatility)
	}
}

func TestHistoricalVolatility_ConstantSeriesIsZero(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 250
	}
	if got := HistoricalVolatility(closes, 30); got != 0 {
		t.Fatalf("constant series got=%v want=0", got)
	}
}

func TestHistoricalVolatility_AnnualizesBySqrt252(t *testing.T) {
	// Alternating ±1% daily returns: mean 0, sample stdev slightly above 1%.
	closes := make([]float64, 41)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] * 1.01
		} else {
			closes[i] = closes[i-1] * 0.99
		}
	}
	got := HistoricalVolatility(closes, 30)

	// Recompute expectation directly from the last 30 returns.
	rets := make([]float64, 0, 40)
	for i := 1; i < len(closes); i++ {
		rets = append(rets, closes[i]/closes[i-1]-1)
	}
	rets = rets[len(rets)-30:]
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= 30
	variance := 0.0
	for _, r := range rets {
		variance += (r - mean) * (r - mean)
	}
	variance /= 29
	want := math.Sqrt(variance) * math.Sqrt(252)

	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got=%v want=%v", got, want)
	}
	if got < 0.10 || got > 0.25 {
		t.Fatalf("annualized vol %v outside plausible range for ±1%% dailies", got)
	}
}

func TestHistoricalVolatility_SkipsZeroCloses(t *testing.T) {
	closes := []float64{100, 0, 101, 102}
	if got := HistoricalVolatility(closes, 30); got != DefaultVolatility {
		t.Fatalf("got=%v want=%v", got, DefaultVolatility)
	}
}
