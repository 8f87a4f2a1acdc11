package screener

import (
	"math"
	"time"

	"github.com/eddiefleurent/wheelhouse/internal/models"
	"github.com/eddiefleurent/wheelhouse/internal/pricing"
	"github.com/eddiefleurent/wheelhouse/internal/util"
)

const (
	// cspMaxSpreadRatio rejects quotes whose bid-ask spread exceeds
	// 15% of the mid.
	cspMaxSpreadRatio = 0.15
	// cspFallbackSigma stands in when the chain reports no IV.
	cspFallbackSigma = 0.30
	// optionTick is the price increment for indicative limits.
	optionTick = 0.01
)

// EnumerateCSP walks one expiration's put chain and returns every
// qualifying cash-secured put, scored. Pure function of its inputs:
// identical chain and filters produce an identical candidate list.
func EnumerateCSP(u *models.Underlying, chain *models.ChainSnapshot, flt *Filters, today time.Time) []models.Candidate {
	if !flt.DTEInRange(chain.DTE) {
		return nil
	}

	t := float64(chain.DTE) / 365.0
	earnings := u.EarningsBefore(today, chain.Expiration)
	ivrFraction := u.IVRankFraction()

	var out []models.Candidate
	for _, q := range chain.PutsByStrikeDesc() {
		if q.Strike <= 0 || q.Strike >= u.Spot {
			continue // ITM or malformed
		}
		if q.Bid <= 0 {
			continue
		}
		mid := q.Mid()
		if mid > 0 && q.SpreadRatio() > cspMaxSpreadRatio {
			continue
		}

		sigma := q.ImpliedVol
		if sigma <= 0 {
			sigma = cspFallbackSigma
		}
		greeks := pricing.PutGreeks(u.Spot, q.Strike, t, flt.RiskFreeRate, sigma)
		absDelta := math.Abs(greeks.Delta)
		if !flt.deltaInRange(absDelta) {
			continue
		}

		monthlyRet := 0.0
		if chain.DTE > 0 {
			monthlyRet = mid / q.Strike * (30.0 / float64(chain.DTE)) * 100
		}
		if monthlyRet < flt.MinReturn {
			continue
		}

		otmPct := (u.Spot - q.Strike) / u.Spot * 100

		thetaScore := math.Min(math.Abs(greeks.Theta)/10, 5)
		gammaPenalty := math.Min(greeks.Gamma*10000, 5)
		qualContribution := float64(u.Quality) / 100 * 10

		score := monthlyRet*0.40 +
			ivrFraction*15 +
			otmPct*0.25 +
			thetaScore*1.5 +
			qualContribution*0.8 -
			gammaPenalty*0.5

		cand := &models.CSPCandidate{
			Symbol:       u.Symbol,
			Spot:         u.Spot,
			Strike:       q.Strike,
			Expiration:   chain.Expiration,
			DTE:          chain.DTE,
			Bid:          q.Bid,
			Ask:          q.Ask,
			Mid:          mid,
			Premium:      mid * models.SharesPerContract,
			Capital:      q.Strike * models.SharesPerContract,
			Greeks:       greeks,
			IV:           q.ImpliedVol * 100,
			IVRank:       u.IVRank,
			OTMPct:       otmPct,
			MonthlyRet:   monthlyRet,
			Volume:       q.Volume,
			OpenInterest: q.OpenInterest,
			EarningsRisk: earnings,
			Quality:      u.Quality,
			Score:        score,
			Limit:        util.RoundToTick(mid, optionTick),
		}
		if err := cand.Validate(); err != nil {
			continue
		}
		out = append(out, cand)
	}
	return out
}
