package screener

import (
	"math"
	"time"

	"github.com/eddiefleurent/wheelhouse/internal/models"
	"github.com/eddiefleurent/wheelhouse/internal/pricing"
	"github.com/eddiefleurent/wheelhouse/internal/util"
)

const (
	// Body-strike band as fractions of spot: far enough OTM to be a
	// credit structure, close enough to collect meaningful premium.
	bodyBandLow  = 0.70
	bodyBandHigh = 0.98
	// Upper wing must sit within 10% above the body.
	upperWingMaxRatio = 1.10
	// Lower (broken) wing target band in upper-width multiples.
	lowerWingMinMult = 1.5
	lowerWingMaxMult = 3.0
	// When the target band is empty, the closest strikes below
	// short-upperWidth are tried instead.
	lowerWingFallbackCount = 3
	// popDiscount haircuts the delta-based PoP estimate; a butterfly's
	// profit zone is narrower than a naked short put's.
	popDiscount = 0.8
)

// wingAsk resolves a wing quote to the price paid for it: the live ask
// when one exists, even with an empty bid, otherwise a marked-up last
// trade. Returns false when no price exists at all.
func wingAsk(q models.OptionQuote) (ask, mid float64, ok bool) {
	if q.Ask <= 0 {
		adj, ok := q.WithStaleFallback()
		if !ok {
			return 0, 0, false
		}
		q = adj
	}
	mid = q.Ask
	if q.Bid > 0 {
		mid = q.Mid()
	}
	return q.Ask, mid, true
}

// lowerWingCandidates selects the strikes to try for the broken wing:
// those inside [short - 3*upperWidth, short - 1.5*upperWidth], or when
// that band is empty, the closest strikes strictly below
// short - upperWidth.
func lowerWingCandidates(asc []models.OptionQuote, shortStrike, upperWidth float64) []models.OptionQuote {
	bandLow := shortStrike - upperWidth*lowerWingMaxMult
	bandHigh := shortStrike - upperWidth*lowerWingMinMult

	var inBand []models.OptionQuote
	for _, q := range asc {
		if q.Strike >= bandLow && q.Strike <= bandHigh {
			inBand = append(inBand, q)
		}
	}
	if len(inBand) > 0 {
		return inBand
	}

	var below []models.OptionQuote
	for _, q := range asc {
		if q.Strike < shortStrike-upperWidth {
			below = append(below, q)
		}
	}
	if len(below) > lowerWingFallbackCount {
		below = below[len(below)-lowerWingFallbackCount:]
	}
	return below
}

// EnumerateButterflies walks one expiration's put chain and returns
// every qualifying broken-wing put butterfly: long one upper put, short
// two body puts, long one further-out put on a wider wing, for a net
// credit. Wings are priced at the ask (paid), the body at the bid
// (received, twice).
func EnumerateButterflies(u *models.Underlying, chain *models.ChainSnapshot, flt *Filters, today time.Time) []models.Candidate {
	if !flt.DTEInRange(chain.DTE) {
		return nil
	}
	asc := chain.PutsByStrikeAsc()
	if len(asc) < 4 {
		return nil
	}

	t := float64(chain.DTE) / 365.0
	earnings := u.EarningsBefore(today, chain.Expiration)
	ivrFraction := u.IVRankFraction()
	qualContribution := float64(u.Quality) / 100 * 10

	var out []models.Candidate
	for _, shortQuote := range asc {
		if shortQuote.Strike >= u.Spot*bodyBandHigh || shortQuote.Strike <= u.Spot*bodyBandLow {
			continue
		}
		short, ok := shortQuote.WithStaleFallback()
		if !ok {
			continue
		}

		sigma := short.ImpliedVol
		if sigma <= spreadIVFloor {
			sigma = spreadFallbackSigma
		}
		greeks := pricing.PutGreeks(u.Spot, short.Strike, t, flt.RiskFreeRate, sigma)
		absDelta := math.Abs(greeks.Delta)

		otmPct := (u.Spot - short.Strike) / u.Spot * 100
		pop := (1 - absDelta) * 100 * popDiscount

		for _, upperQuote := range asc {
			if upperQuote.Strike <= short.Strike || upperQuote.Strike > short.Strike*upperWingMaxRatio {
				continue
			}
			upperAsk, upperMid, ok := wingAsk(upperQuote)
			if !ok {
				continue
			}
			upperWidth := upperQuote.Strike - short.Strike

			for _, lowerQuote := range lowerWingCandidates(asc, short.Strike, upperWidth) {
				lowerAsk, lowerMid, ok := wingAsk(lowerQuote)
				if !ok {
					continue
				}
				lowerWidth := short.Strike - lowerQuote.Strike
				if lowerWidth <= upperWidth {
					continue // not broken-wing
				}

				credit := 2*short.Bid - upperAsk - lowerAsk
				if credit <= 0 {
					continue
				}

				maxProfit := upperWidth + credit
				maxLoss := lowerWidth - upperWidth - credit
				if maxLoss <= 0 {
					// Quotes implying a riskless credit are stale or
					// crossed, not free money.
					continue
				}

				returnOnRisk := credit / maxLoss * 100
				monthlyRet := 0.0
				if chain.DTE > 0 {
					monthlyRet = returnOnRisk * (30.0 / float64(chain.DTE))
				}
				if monthlyRet < flt.MinReturn {
					continue
				}

				score := returnOnRisk*0.30 +
					pop*0.25 +
					ivrFraction*15 +
					otmPct*0.15 +
					qualContribution*0.5 +
					maxProfit/maxLoss*5

				cand := &models.ButterflyCandidate{
					Symbol:         u.Symbol,
					Spot:           u.Spot,
					UpperStrike:    upperQuote.Strike,
					ShortStrike:    short.Strike,
					LowerStrike:    lowerQuote.Strike,
					UpperWidth:     upperWidth,
					LowerWidth:     lowerWidth,
					Expiration:     chain.Expiration,
					DTE:            chain.DTE,
					Credit:         credit,
					CreditMid:      2*short.Mid() - upperMid - lowerMid,
					MaxProfit:      maxProfit * models.SharesPerContract,
					MaxLoss:        maxLoss,
					Capital:        maxLoss * models.SharesPerContract,
					ReturnOnRisk:   returnOnRisk,
					MonthlyRet:     monthlyRet,
					UpperBreakeven: upperQuote.Strike - credit,
					LowerBreakeven: lowerQuote.Strike + (lowerWidth - upperWidth - credit),
					OTMPct:         otmPct,
					PoP:            pop,
					Delta:          greeks.Delta,
					IV:             shortQuote.ImpliedVol * 100,
					IVRank:         u.IVRank,
					Volume:         shortQuote.Volume,
					OpenInterest:   shortQuote.OpenInterest,
					EarningsRisk:   earnings,
					Quality:        u.Quality,
					Score:          score,
					Limit:          util.FloorToTick(credit, optionTick),
				}
				if err := cand.Validate(); err != nil {
					continue
				}
				out = append(out, cand)
			}
		}
	}
	return out
}
