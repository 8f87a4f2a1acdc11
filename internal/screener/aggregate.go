package screener

import (
	"sort"

	"github.com/eddiefleurent/wheelhouse/internal/models"
)

// starBands holds the three ascending score thresholds per strategy.
// Spreads and butterflies score on different scales than single puts, so
// each strategy gets its own banding.
var starBands = map[models.StrategyType][3]float64{
	models.StrategyCSP:       {12, 16, 20},
	models.StrategySpread:    {20, 28, 35},
	models.StrategyButterfly: {20, 30, 40},
}

// StarRating maps a candidate's composite score to a 0-3 star display
// band using its strategy's thresholds.
func StarRating(c models.Candidate) string {
	bands, ok := starBands[c.Kind()]
	if !ok {
		return ""
	}
	score := c.CompositeScore()
	switch {
	case score >= bands[2]:
		return "★★★"
	case score >= bands[1]:
		return "★★"
	case score >= bands[0]:
		return "★"
	default:
		return ""
	}
}

// Aggregate merges the candidates of all successful ticker results,
// stable-sorts them by composite score descending, and truncates to the
// top N. Failed tickers contribute nothing; n <= 0 means no truncation.
func Aggregate(results []models.ScanResult, n int) []models.Candidate {
	var all []models.Candidate
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		all = append(all, res.Candidates...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CompositeScore() > all[j].CompositeScore()
	})

	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}
