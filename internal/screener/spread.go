package screener

import (
	"math"
	"time"

	"github.com/eddiefleurent/wheelhouse/internal/models"
	"github.com/eddiefleurent/wheelhouse/internal/pricing"
	"github.com/eddiefleurent/wheelhouse/internal/util"
)

const (
	// spreadMaxSpreadRatio is looser than the CSP bound; the long leg
	// protection makes quote quality slightly less critical.
	spreadMaxSpreadRatio = 0.20
	// spreadIVFloor: quoted IV below this is treated as a bad print and
	// replaced with spreadFallbackSigma.
	spreadIVFloor       = 0.15
	spreadFallbackSigma = 0.35
	// Long-leg target band, as fractions of the short strike.
	longLegBandLow  = 0.90 // 10% below
	longLegBandHigh = 0.95 // 5% below
	// annualizedReturnCap keeps compounding artifacts on short-dated
	// spreads from dominating sorts and display.
	annualizedReturnCap = 9999
)

// findLongLeg picks the long leg for a short strike from the puts below
// it, scanning highest strike first. The first strike inside the 5-10%
// band wins (the highest in-band strike, closest to the short leg);
// otherwise the nearest strike below the short leg is used. Quotes with
// no usable price are skipped.
func findLongLeg(below []models.OptionQuote, shortStrike float64) (models.OptionQuote, bool) {
	bandLow := shortStrike * longLegBandLow
	bandHigh := shortStrike * longLegBandHigh

	var nearest models.OptionQuote
	var haveNearest bool
	for _, q := range below {
		adj, ok := q.WithStaleFallback()
		if !ok {
			continue
		}
		if adj.Strike >= bandLow && adj.Strike <= bandHigh {
			return adj, true
		}
		if !haveNearest {
			nearest = adj
			haveNearest = true
		}
		if adj.Strike < bandLow {
			break // past the band; no better candidate remains
		}
	}
	return nearest, haveNearest
}

// EnumerateSpreads walks one expiration's put chain and returns every
// qualifying put credit spread. Pricing is conservative: the short leg
// at its bid (received), the long leg at its ask (paid).
func EnumerateSpreads(u *models.Underlying, chain *models.ChainSnapshot, flt *Filters, today time.Time) []models.Candidate {
	if !flt.DTEInRange(chain.DTE) {
		return nil
	}

	t := float64(chain.DTE) / 365.0
	earnings := u.EarningsBefore(today, chain.Expiration)
	ivrFraction := u.IVRankFraction()
	puts := chain.PutsByStrikeDesc()

	var out []models.Candidate
	for i, shortQuote := range puts {
		if shortQuote.Strike <= 0 || shortQuote.Strike >= u.Spot {
			continue
		}
		short, ok := shortQuote.WithStaleFallback()
		if !ok {
			continue
		}
		if short.Mid() > 0 && short.SpreadRatio() > spreadMaxSpreadRatio {
			continue
		}

		sigma := short.ImpliedVol
		if sigma < spreadIVFloor {
			sigma = spreadFallbackSigma
		}
		greeks := pricing.PutGreeks(u.Spot, short.Strike, t, flt.RiskFreeRate, sigma)
		absDelta := math.Abs(greeks.Delta)
		if !flt.deltaInRange(absDelta) {
			continue
		}

		long, ok := findLongLeg(puts[i+1:], short.Strike)
		if !ok {
			continue
		}

		width := short.Strike - long.Strike
		if width <= 0 {
			continue
		}
		credit := short.Bid - long.Ask
		if credit <= 0 {
			continue // debit structure, not a credit spread
		}
		maxLoss := width - credit
		if maxLoss <= 0 {
			continue
		}

		returnOnRisk := credit / maxLoss * 100
		breakeven := short.Strike - credit
		otmPct := (u.Spot - breakeven) / u.Spot * 100
		pop := (1 - absDelta) * 100
		capital := maxLoss * models.SharesPerContract

		monthlyRet := 0.0
		annualRet := 0.0
		if chain.DTE > 0 {
			monthlyRet = returnOnRisk * (30.0 / float64(chain.DTE))
			annualRet = (math.Pow(1+returnOnRisk/100, 365.0/float64(chain.DTE)) - 1) * 100
		}
		if monthlyRet < flt.MinReturn {
			continue
		}
		annualRet = math.Min(annualRet, annualizedReturnCap)

		creditPerDollar := credit * models.SharesPerContract / capital * 100

		deltaBonus := 0.0
		switch {
		case absDelta >= 0.15 && absDelta <= 0.25:
			deltaBonus = 10
		case (absDelta >= 0.12 && absDelta < 0.15) || (absDelta > 0.25 && absDelta <= 0.30):
			deltaBonus = 5
		}

		widthScore := 0.0
		switch {
		case width >= 5 && width <= 10:
			widthScore = 8
		case width > 10 && width <= 20:
			widthScore = 5
		case width < 5:
			widthScore = 3
		default:
			widthScore = 2
		}

		qualContribution := float64(u.Quality) / 100 * 10

		score := returnOnRisk*0.25 +
			creditPerDollar*0.20 +
			pop*0.15 +
			ivrFraction*12 +
			deltaBonus +
			widthScore +
			qualContribution*0.4 +
			otmPct*0.08

		cand := &models.SpreadCandidate{
			Symbol:       u.Symbol,
			Spot:         u.Spot,
			ShortStrike:  short.Strike,
			LongStrike:   long.Strike,
			Width:        width,
			Expiration:   chain.Expiration,
			DTE:          chain.DTE,
			ShortBid:     short.Bid,
			ShortAsk:     short.Ask,
			LongBid:      long.Bid,
			LongAsk:      long.Ask,
			Credit:       credit,
			CreditMid:    short.Mid() - long.Mid(),
			MaxLoss:      maxLoss,
			MaxProfit:    credit * models.SharesPerContract,
			Capital:      capital,
			ReturnOnRisk: returnOnRisk,
			MonthlyRet:   monthlyRet,
			AnnualRet:    annualRet,
			Breakeven:    breakeven,
			OTMPct:       otmPct,
			PoP:          pop,
			CreditPerDlr: creditPerDollar,
			ExitAt50:     credit * 0.50,
			DaysTo50:     int(float64(chain.DTE) * 0.33),
			Delta:        greeks.Delta,
			IV:           shortQuote.ImpliedVol * 100,
			IVRank:       u.IVRank,
			Volume:       shortQuote.Volume,
			OpenInterest: shortQuote.OpenInterest,
			EarningsRisk: earnings,
			Quality:      u.Quality,
			Score:        score,
			Limit:        util.FloorToTick(credit, optionTick),
		}
		if err := cand.Validate(); err != nil {
			continue
		}
		out = append(out, cand)
	}
	return out
}
