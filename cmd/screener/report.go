package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/eddiefleurent/wheelhouse/internal/models"
	"github.com/eddiefleurent/wheelhouse/internal/screener"
)

const dateLayout = "2006-01-02"

// renderReport writes the scan summary and the top candidates as an
// aligned console table.
func renderReport(w io.Writer, mode models.StrategyType, results []models.ScanResult, top []models.Candidate, elapsed time.Duration) {
	var scanned, failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		scanned++
	}

	fmt.Fprintf(w, "\n%s | scanned %d tickers (%d failed) in %s | %d candidates\n\n",
		strategyLabel(mode), scanned, failed, elapsed.Round(time.Millisecond), len(top))

	if failed > 0 {
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(w, "  !! %s: %v\n", res.Symbol, res.Err)
			}
		}
		fmt.Fprintln(w)
	}

	if len(top) == 0 {
		fmt.Fprintln(w, "No candidates passed the filters.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	switch mode {
	case models.StrategySpread:
		renderSpreads(tw, top)
	case models.StrategyButterfly:
		renderButterflies(tw, top)
	default:
		renderCSPs(tw, top)
	}
	_ = tw.Flush()
}

func renderCSPs(w io.Writer, top []models.Candidate) {
	fmt.Fprintln(w, "#\tTICKER\t\tSTRIKE\tEXP\tDTE\tBID\tMID\tDELTA\tOTM%\tMO.RET%\tIVR\tQ\tEARN\tLIMIT\tSCORE")
	for i, cand := range top {
		c, ok := cand.(*models.CSPCandidate)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.1f\t%.2f\t%s\t%d\t%s\t%.2f\t%.1f\n",
			i+1, c.Symbol, screener.StarRating(c), c.Strike, c.Expiration.Format(dateLayout), c.DTE,
			c.Bid, c.Mid, c.Greeks.Delta, c.OTMPct, c.MonthlyRet, ivrLabel(c.IVRank),
			c.Quality, earnLabel(c.EarningsRisk), c.Limit, c.Score)
	}
}

func renderSpreads(w io.Writer, top []models.Candidate) {
	fmt.Fprintln(w, "#\tTICKER\t\tLEGS\tEXP\tDTE\tCREDIT\tMAXLOSS\tROR%\tMO.RET%\tPOP%\tBREAKEVEN\tIVR\tEARN\tLIMIT\tSCORE")
	for i, cand := range top {
		c, ok := cand.(*models.SpreadCandidate)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.0f/%.0f\t%s\t%d\t%.2f\t%.2f\t%.1f\t%.1f\t%.0f\t%.2f\t%s\t%s\t%.2f\t%.1f\n",
			i+1, c.Symbol, screener.StarRating(c), c.ShortStrike, c.LongStrike,
			c.Expiration.Format(dateLayout), c.DTE, c.Credit, c.MaxLoss, c.ReturnOnRisk,
			c.MonthlyRet, c.PoP, c.Breakeven, ivrLabel(c.IVRank), earnLabel(c.EarningsRisk),
			c.Limit, c.Score)
	}
}

func renderButterflies(w io.Writer, top []models.Candidate) {
	fmt.Fprintln(w, "#\tTICKER\t\tSTRIKES\tEXP\tDTE\tCREDIT\tMAXLOSS\tROR%\tPOP%\tBE RANGE\tIVR\tEARN\tLIMIT\tSCORE")
	for i, cand := range top {
		c, ok := cand.(*models.ButterflyCandidate)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.0f/%.0f/%.0f\t%s\t%d\t%.2f\t%.2f\t%.1f\t%.0f\t%.1f-%.1f\t%s\t%s\t%.2f\t%.1f\n",
			i+1, c.Symbol, screener.StarRating(c), c.UpperStrike, c.ShortStrike, c.LowerStrike,
			c.Expiration.Format(dateLayout), c.DTE, c.Credit, c.MaxLoss, c.ReturnOnRisk,
			c.PoP, c.LowerBreakeven, c.UpperBreakeven, ivrLabel(c.IVRank),
			earnLabel(c.EarningsRisk), c.Limit, c.Score)
	}
}

// ivrLabel formats an optional IV rank; unknown renders as a dash
// rather than a misleading zero.
func ivrLabel(ivr *float64) string {
	if ivr == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *ivr)
}

func earnLabel(risk bool) string {
	if risk {
		return "!"
	}
	return ""
}
