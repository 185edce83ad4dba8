package pricing

import (
	"math"
)

type OptionKind string

const (
	Call OptionKind = "call"
	Put  OptionKind = "put"
)

// TheoreticalValue prices a European option with the Black-Scholes closed
// form. Degenerate inputs (expired, zero vol) collapse to intrinsic value;
// any other unusable input yields 0, which callers must read as "no usable
// model value" rather than a worthless option.
func TheoreticalValue(s, k, t, r, sigma float64, kind OptionKind) float64 {
	if t <= 0 || sigma <= 0 {
		return Intrinsic(s, k, kind)
	}
	if s <= 0 || k <= 0 {
		return 0
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	if math.IsNaN(d1) || math.IsInf(d1, 0) {
		return 0
	}

	var price float64
	switch kind {
	case Put:
		price = k*math.Exp(-r*t)*normCDF(-d2) - s*normCDF(-d1)
	default:
		price = s*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
	}
	if math.IsNaN(price) || price < 0 {
		return 0
	}
	return price
}

// Intrinsic is the immediate-exercise payoff, ignoring time value.
func Intrinsic(s, k float64, kind OptionKind) float64 {
	if kind == Put {
		return math.Max(k-s, 0)
	}
	return math.Max(s-k, 0)
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
