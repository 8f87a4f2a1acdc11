package models

import (
	"fmt"
	"time"
)

// StrategyType tags the candidate variants.
type StrategyType string

const (
	// StrategyCSP is a single short cash-secured put.
	StrategyCSP StrategyType = "csp"
	// StrategySpread is a put credit spread (short put + lower long put).
	StrategySpread StrategyType = "spread"
	// StrategyButterfly is a broken-wing put butterfly
	// (long upper wing, two short body puts, long wider lower wing).
	StrategyButterfly StrategyType = "butterfly"
)

// SharesPerContract is the US equity option multiplier.
const SharesPerContract = 100.0

// Candidate is the common view over the three strategy variants. Each
// record carries enough for a downstream executor to identify ticker,
// expiration, legs, and an indicative limit price.
type Candidate interface {
	Kind() StrategyType
	Ticker() string
	Expiry() time.Time
	CompositeScore() float64
	// IndicativeLimit is the suggested limit price: mid for a CSP,
	// net credit for the multi-leg structures.
	IndicativeLimit() float64
	// Validate reports whether the candidate honors its structural
	// invariants. Enumerators discard violators instead of surfacing them.
	Validate() error
}

// CSPCandidate is a qualifying short put.
type CSPCandidate struct {
	Symbol       string    `json:"symbol"`
	Spot         float64   `json:"spot"`
	Strike       float64   `json:"strike"`
	Expiration   time.Time `json:"expiration"`
	DTE          int       `json:"dte"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	Mid          float64   `json:"mid"`
	Premium      float64   `json:"premium"` // per contract
	Capital      float64   `json:"capital"` // strike x 100
	Greeks       Greeks    `json:"greeks"`
	IV           float64   `json:"iv"` // percent
	IVRank       *float64  `json:"iv_rank,omitempty"`
	OTMPct       float64   `json:"otm_pct"`
	MonthlyRet   float64   `json:"monthly_ret"`
	Volume       int64     `json:"volume"`
	OpenInterest int64     `json:"open_interest"`
	EarningsRisk bool      `json:"earnings_risk"`
	Quality      int       `json:"quality"`
	Score        float64   `json:"score"`
	Limit        float64   `json:"limit"`
}

// Kind implements Candidate.
func (c *CSPCandidate) Kind() StrategyType { return StrategyCSP }

// Ticker implements Candidate.
func (c *CSPCandidate) Ticker() string { return c.Symbol }

// Expiry implements Candidate.
func (c *CSPCandidate) Expiry() time.Time { return c.Expiration }

// CompositeScore implements Candidate.
func (c *CSPCandidate) CompositeScore() float64 { return c.Score }

// IndicativeLimit implements Candidate.
func (c *CSPCandidate) IndicativeLimit() float64 { return c.Limit }

// Validate implements Candidate.
func (c *CSPCandidate) Validate() error {
	if c.Strike <= 0 {
		return fmt.Errorf("non-positive strike %.2f", c.Strike)
	}
	if c.Strike >= c.Spot {
		return fmt.Errorf("strike %.2f not OTM against spot %.2f", c.Strike, c.Spot)
	}
	if c.Bid <= 0 {
		return fmt.Errorf("non-positive bid %.2f", c.Bid)
	}
	return nil
}

// SpreadCandidate is a qualifying put credit spread.
type SpreadCandidate struct {
	Symbol       string    `json:"symbol"`
	Spot         float64   `json:"spot"`
	ShortStrike  float64   `json:"short_strike"`
	LongStrike   float64   `json:"long_strike"`
	Width        float64   `json:"width"`
	Expiration   time.Time `json:"expiration"`
	DTE          int       `json:"dte"`
	ShortBid     float64   `json:"short_bid"`
	ShortAsk     float64   `json:"short_ask"`
	LongBid      float64   `json:"long_bid"`
	LongAsk      float64   `json:"long_ask"`
	Credit       float64   `json:"credit"`     // short bid - long ask, conservative
	CreditMid    float64   `json:"credit_mid"` // mid-based, for reference
	MaxLoss      float64   `json:"max_loss"`   // per share
	MaxProfit    float64   `json:"max_profit"` // per contract
	Capital      float64   `json:"capital"`
	ReturnOnRisk float64   `json:"return_on_risk"`
	MonthlyRet   float64   `json:"monthly_ret"`
	AnnualRet    float64   `json:"annual_ret"`
	Breakeven    float64   `json:"breakeven"`
	OTMPct       float64   `json:"otm_pct"`
	PoP          float64   `json:"pop"`
	CreditPerDlr float64   `json:"credit_per_dollar"`
	ExitAt50     float64   `json:"exit_at_50"`     // price to close at 50% profit
	DaysTo50     int       `json:"days_to_50"`     // rough theta-decay estimate
	Delta        float64   `json:"delta"`          // short leg
	IV           float64   `json:"iv"`             // percent, short leg
	IVRank       *float64  `json:"iv_rank,omitempty"`
	Volume       int64     `json:"volume"`
	OpenInterest int64     `json:"open_interest"`
	EarningsRisk bool      `json:"earnings_risk"`
	Quality      int       `json:"quality"`
	Score        float64   `json:"score"`
	Limit        float64   `json:"limit"`
}

// Kind implements Candidate.
func (c *SpreadCandidate) Kind() StrategyType { return StrategySpread }

// Ticker implements Candidate.
func (c *SpreadCandidate) Ticker() string { return c.Symbol }

// Expiry implements Candidate.
func (c *SpreadCandidate) Expiry() time.Time { return c.Expiration }

// CompositeScore implements Candidate.
func (c *SpreadCandidate) CompositeScore() float64 { return c.Score }

// IndicativeLimit implements Candidate.
func (c *SpreadCandidate) IndicativeLimit() float64 { return c.Limit }

// Validate implements Candidate.
func (c *SpreadCandidate) Validate() error {
	if c.LongStrike >= c.ShortStrike {
		return fmt.Errorf("long strike %.2f not below short strike %.2f", c.LongStrike, c.ShortStrike)
	}
	if c.Width <= 0 {
		return fmt.Errorf("non-positive width %.2f", c.Width)
	}
	if c.Credit <= 0 {
		return fmt.Errorf("non-positive credit %.2f", c.Credit)
	}
	if c.MaxLoss <= 0 {
		return fmt.Errorf("non-positive max loss %.2f", c.MaxLoss)
	}
	return nil
}

// ButterflyCandidate is a qualifying broken-wing put butterfly.
type ButterflyCandidate struct {
	Symbol         string    `json:"symbol"`
	Spot           float64   `json:"spot"`
	UpperStrike    float64   `json:"upper_strike"`
	ShortStrike    float64   `json:"short_strike"`
	LowerStrike    float64   `json:"lower_strike"`
	UpperWidth     float64   `json:"upper_width"`
	LowerWidth     float64   `json:"lower_width"`
	Expiration     time.Time `json:"expiration"`
	DTE            int       `json:"dte"`
	Credit         float64   `json:"credit"`
	CreditMid      float64   `json:"credit_mid"`
	MaxProfit      float64   `json:"max_profit"` // per contract
	MaxLoss        float64   `json:"max_loss"`   // per share
	Capital        float64   `json:"capital"`
	ReturnOnRisk   float64   `json:"return_on_risk"`
	MonthlyRet     float64   `json:"monthly_ret"`
	UpperBreakeven float64   `json:"upper_breakeven"`
	LowerBreakeven float64   `json:"lower_breakeven"`
	OTMPct         float64   `json:"otm_pct"`
	PoP            float64   `json:"pop"`
	Delta          float64   `json:"delta"` // short strike
	IV             float64   `json:"iv"`    // percent, short strike
	IVRank         *float64  `json:"iv_rank,omitempty"`
	Volume         int64     `json:"volume"`
	OpenInterest   int64     `json:"open_interest"`
	EarningsRisk   bool      `json:"earnings_risk"`
	Quality        int       `json:"quality"`
	Score          float64   `json:"score"`
	Limit          float64   `json:"limit"`
}

// Kind implements Candidate.
func (c *ButterflyCandidate) Kind() StrategyType { return StrategyButterfly }

// Ticker implements Candidate.
func (c *ButterflyCandidate) Ticker() string { return c.Symbol }

// Expiry implements Candidate.
func (c *ButterflyCandidate) Expiry() time.Time { return c.Expiration }

// CompositeScore implements Candidate.
func (c *ButterflyCandidate) CompositeScore() float64 { return c.Score }

// IndicativeLimit implements Candidate.
func (c *ButterflyCandidate) IndicativeLimit() float64 { return c.Limit }

// Validate implements Candidate.
func (c *ButterflyCandidate) Validate() error {
	if !(c.UpperStrike > c.ShortStrike && c.ShortStrike > c.LowerStrike) {
		return fmt.Errorf("strikes not ordered: %.2f/%.2f/%.2f",
			c.UpperStrike, c.ShortStrike, c.LowerStrike)
	}
	if c.LowerWidth <= c.UpperWidth {
		return fmt.Errorf("lower width %.2f not wider than upper width %.2f",
			c.LowerWidth, c.UpperWidth)
	}
	if c.Credit <= 0 {
		return fmt.Errorf("non-positive credit %.2f", c.Credit)
	}
	if c.MaxLoss <= 0 {
		return fmt.Errorf("non-positive max loss %.2f", c.MaxLoss)
	}
	return nil
}

// ScanResult is the outcome of screening one ticker. Err is set when the
// ticker failed to fetch or compute; such results contribute zero
// candidates and never abort the scan.
type ScanResult struct {
	Symbol     string        `json:"symbol"`
	Underlying *Underlying   `json:"underlying,omitempty"`
	Candidates []Candidate   `json:"candidates"`
	Elapsed    time.Duration `json:"elapsed"`
	Err        error         `json:"-"`
}
