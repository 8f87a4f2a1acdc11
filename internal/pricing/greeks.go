// Package pricing implements closed-form Black-Scholes pricing and
// greeks for European puts. Pure functions, no side effects.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/eddiefleurent/wheelhouse/internal/models"
)

// DefaultRiskFreeRate is used when the caller has no better rate.
const DefaultRiskFreeRate = 0.045

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// d1d2 returns the Black-Scholes d1 and d2 terms. The third return is
// false on degenerate inputs (T<=0 or sigma<=0).
func d1d2(spot, strike, t, rate, sigma float64) (float64, float64, bool) {
	if t <= 0 || sigma <= 0 {
		return 0, 0, false
	}
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT, true
}

// PutGreeks computes all greeks for a European put.
//
//   - spot, strike in currency; t in years; rate and sigma annualized decimals
//   - theta is converted to $/day per contract (x100 shares)
//   - vega is $/share per 1% IV move, rho $ per 1% rate move
//
// Degenerate inputs (t<=0 or sigma<=0) yield the all-zero sentinel
// rather than an error: there is no meaningful price to differentiate.
func PutGreeks(spot, strike, t, rate, sigma float64) models.Greeks {
	d1, d2, ok := d1d2(spot, strike, t, rate, sigma)
	if !ok {
		return models.Greeks{}
	}

	sqrtT := math.Sqrt(t)
	nd1 := stdNormal.Prob(d1) // standard normal PDF at d1
	cndNegD1 := stdNormal.CDF(-d1)
	cndNegD2 := stdNormal.CDF(-d2)

	delta := -cndNegD1
	gamma := nd1 / (spot * sigma * sqrtT)

	thetaAnnual := -(spot*nd1*sigma)/(2*sqrtT) + rate*strike*math.Exp(-rate*t)*cndNegD2
	theta := thetaAnnual / 365 * models.SharesPerContract

	vega := spot * nd1 * sqrtT / 100
	rho := -strike * t * math.Exp(-rate*t) * cndNegD2 / 100

	return models.Greeks{
		Delta: delta,
		Gamma: gamma,
		Theta: theta,
		Vega:  vega,
		Rho:   rho,
	}
}

// PutPrice returns the Black-Scholes value of a European put, falling
// back to intrinsic value on degenerate inputs.
func PutPrice(spot, strike, t, rate, sigma float64) float64 {
	d1, d2, ok := d1d2(spot, strike, t, rate, sigma)
	if !ok {
		return math.Max(0, strike-spot)
	}
	return strike*math.Exp(-rate*t)*stdNormal.CDF(-d2) - spot*stdNormal.CDF(-d1)
}
