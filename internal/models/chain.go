package models

import (
	"sort"
	"time"
)

// Stale-quote fallback multipliers. When a put shows no bid (market
// closed, wide book) the last trade is haircut to a conservative
// synthetic bid/ask pair.
const (
	staleBidFactor = 0.95
	staleAskFactor = 1.05
)

// OptionQuote is a single put quote as delivered by the market-data
// provider. Treated as immutable; adjusted copies are made where the
// stale-quote fallback applies.
type OptionQuote struct {
	Strike       float64 `json:"strike"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	LastPrice    float64 `json:"last_price"`
	ImpliedVol   float64 `json:"implied_vol"` // annualized decimal; <=0 means unknown
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
}

// Mid returns the bid/ask midpoint.
func (q OptionQuote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// SpreadRatio returns (ask-bid)/mid, the liquidity quality measure used
// by the enumerators. Returns 0 when the mid is non-positive so callers
// compare against a threshold without a divide-by-zero.
func (q OptionQuote) SpreadRatio() float64 {
	mid := q.Mid()
	if mid <= 0 {
		return 0
	}
	return (q.Ask - q.Bid) / mid
}

// WithStaleFallback returns a copy of the quote with the last trade
// substituted for a missing bid/ask. The second return is false when
// there is no last trade to fall back on, in which case the quote is
// unusable.
func (q OptionQuote) WithStaleFallback() (OptionQuote, bool) {
	if q.Bid > 0 && q.Ask > 0 {
		return q, true
	}
	if q.LastPrice <= 0 {
		return q, false
	}
	adj := q
	adj.Bid = q.LastPrice * staleBidFactor
	adj.Ask = q.LastPrice * staleAskFactor
	return adj, true
}

// ChainSnapshot is the put side of one expiration's option chain.
type ChainSnapshot struct {
	Expiration time.Time     `json:"expiration"`
	DTE        int           `json:"dte"`
	Puts       []OptionQuote `json:"puts"`
}

// PutsByStrikeDesc returns the quotes sorted by strike, highest first.
// The receiver's slice is not modified.
func (c *ChainSnapshot) PutsByStrikeDesc() []OptionQuote {
	out := make([]OptionQuote, len(c.Puts))
	copy(out, c.Puts)
	sort.Slice(out, func(i, j int) bool { return out[i].Strike > out[j].Strike })
	return out
}

// PutsByStrikeAsc returns the quotes sorted by strike, lowest first.
func (c *ChainSnapshot) PutsByStrikeAsc() []OptionQuote {
	out := make([]OptionQuote, len(c.Puts))
	copy(out, c.Puts)
	sort.Slice(out, func(i, j int) bool { return out[i].Strike < out[j].Strike })
	return out
}

// Greeks holds the Black-Scholes sensitivities for a European put.
// Theta is $/day per contract, vega $/share per 1% IV move, rho $ per
// 1% rate move. A zero value is the degenerate-input sentinel.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}
