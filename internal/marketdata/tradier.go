package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/eddiefleurent/wheelhouse/internal/models"
)

const (
	tradierProdURL    = "https://api.tradier.com/v1"
	tradierSandboxURL = "https://sandbox.tradier.com/v1"
	tradierBetaURL    = "https://api.tradier.com/beta"

	defaultHTTPTimeout = 30 * time.Second
	expirationLayout   = "2006-01-02"
)

// TradierClient implements Provider against the Tradier market-data API.
type TradierClient struct {
	client  *http.Client
	apiKey  string
	baseURL string
	betaURL string
	sandbox bool
}

// NewTradierClient creates a Tradier market-data client. Sandbox mode
// hits the paper endpoint, which serves delayed quotes and no
// fundamentals (those calls return empty data there).
func NewTradierClient(apiKey string, sandbox bool) *TradierClient {
	base := tradierProdURL
	if sandbox {
		base = tradierSandboxURL
	}
	return &TradierClient{
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		apiKey:  apiKey,
		baseURL: base,
		betaURL: tradierBetaURL,
		sandbox: sandbox,
	}
}

// NewTradierClientWithHTTP creates a client with a custom HTTP client
// and base URL, used by tests.
func NewTradierClientWithHTTP(apiKey, baseURL string, client *http.Client) *TradierClient {
	return &TradierClient{
		client:  client,
		apiKey:  apiKey,
		baseURL: baseURL,
		betaURL: baseURL,
	}
}

// singleOrArray absorbs Tradier's habit of returning a bare object when
// a collection has exactly one element.
type singleOrArray[T any] []T

func (s *singleOrArray[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, (*[]T)(s))
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*s = append(*s, one)
	return nil
}

type quotesResponse struct {
	Quotes struct {
		Quote singleOrArray[quoteItem] `json:"quote"`
	} `json:"quotes"`
}

type quoteItem struct {
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	PrevClose float64 `json:"prevclose"`
}

type historyResponse struct {
	History struct {
		Day singleOrArray[struct {
			Date  string  `json:"date"`
			Close float64 `json:"close"`
		}] `json:"day"`
	} `json:"history"`
}

type expirationsResponse struct {
	Expirations struct {
		Date []string `json:"date"`
	} `json:"expirations"`
}

type chainResponse struct {
	Options struct {
		Option singleOrArray[chainOption] `json:"option"`
	} `json:"options"`
}

type chainOption struct {
	Symbol       string        `json:"symbol"`
	OptionType   string        `json:"option_type"`
	Strike       float64       `json:"strike"`
	Bid          float64       `json:"bid"`
	Ask          float64       `json:"ask"`
	Last         float64       `json:"last"`
	Volume       int64         `json:"volume"`
	OpenInterest int64         `json:"open_interest"`
	Greeks       *optionGreeks `json:"greeks,omitempty"`
}

type optionGreeks struct {
	MidIV float64 `json:"mid_iv"`
}

// get performs an authenticated GET and decodes the JSON response.
func (t *TradierClient) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+t.apiKey)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("User-Agent", "wheelhouse/1.0 (+tradier)")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)) // cap to avoid huge payloads
		if readErr != nil {
			return &APIError{Status: resp.StatusCode, Body: "failed to read error body"}
		}
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// GetSpot implements Provider. The last trade is preferred; the previous
// close stands in outside market hours when last is missing.
func (t *TradierClient) GetSpot(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("greeks", "false")

	var resp quotesResponse
	if err := t.get(ctx, t.baseURL+"/markets/quotes?"+params.Encode(), &resp); err != nil {
		return 0, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}
	quotes := resp.Quotes.Quote
	if len(quotes) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoQuote, symbol)
	}
	q := quotes[0]
	if q.Last > 0 {
		return q.Last, nil
	}
	if q.PrevClose > 0 {
		return q.PrevClose, nil
	}
	return 0, fmt.Errorf("%w: %s has no last or previous close", ErrNoQuote, symbol)
}

// GetDailyCloses implements Provider.
func (t *TradierClient) GetDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	end := time.Now()
	// Calendar-day padding over trading days.
	start := end.AddDate(0, 0, -(days*7/5 + 10))

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "daily")
	params.Set("start", start.Format(expirationLayout))
	params.Set("end", end.Format(expirationLayout))

	var resp historyResponse
	if err := t.get(ctx, t.baseURL+"/markets/history?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", symbol, err)
	}

	closes := make([]float64, 0, len(resp.History.Day))
	for _, d := range resp.History.Day {
		if d.Close > 0 {
			closes = append(closes, d.Close)
		}
	}
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	return closes, nil
}

// GetExpirations implements Provider.
func (t *TradierClient) GetExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("includeAllRoots", "true")

	var resp expirationsResponse
	if err := t.get(ctx, t.baseURL+"/markets/options/expirations?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetching expirations for %s: %w", symbol, err)
	}

	out := make([]time.Time, 0, len(resp.Expirations.Date))
	for _, d := range resp.Expirations.Date {
		exp, err := time.Parse(expirationLayout, d)
		if err != nil {
			continue // skip malformed dates rather than failing the ticker
		}
		out = append(out, exp)
	}
	return out, nil
}

// GetPutChain implements Provider. Calls are made with greeks enabled so
// the chain carries Tradier's mid IV; everything else greek-related is
// recomputed by the pricing engine.
func (t *TradierClient) GetPutChain(ctx context.Context, symbol string, expiration time.Time) ([]models.OptionQuote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("expiration", expiration.Format(expirationLayout))
	params.Set("greeks", "true")

	var resp chainResponse
	if err := t.get(ctx, t.baseURL+"/markets/options/chains?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetching chain for %s %s: %w", symbol, expiration.Format(expirationLayout), err)
	}

	var puts []models.OptionQuote
	for _, opt := range resp.Options.Option {
		if opt.OptionType != "put" || opt.Strike <= 0 {
			continue
		}
		iv := 0.0
		if opt.Greeks != nil {
			iv = opt.Greeks.MidIV
		}
		puts = append(puts, models.OptionQuote{
			Strike:       opt.Strike,
			Bid:          opt.Bid,
			Ask:          opt.Ask,
			LastPrice:    opt.Last,
			ImpliedVol:   iv,
			Volume:       opt.Volume,
			OpenInterest: opt.OpenInterest,
		})
	}
	return puts, nil
}

// --- Fundamentals (beta endpoints) ---

type fundamentalsResponse []struct {
	Request string `json:"request"`
	Results []struct {
		Type   string `json:"type"`
		Tables struct {
			AssetClassification *struct {
				Sector string `json:"morningstar_sector_name"`
			} `json:"asset_classification"`
			MarketCap *struct {
				Value float64 `json:"market_cap"`
			} `json:"market_cap"`
			OperationRatios *struct {
				GrossMargin     *float64 `json:"gross_margin"`
				OperationMargin *float64 `json:"operation_margin"`
				NetMargin       *float64 `json:"net_margin"`
				FreeCashFlow    *float64 `json:"free_cash_flow"`
				Revenue         *float64 `json:"total_revenue"`
				RevenueGrowth   *float64 `json:"revenue_growth"`
			} `json:"operation_ratios"`
			ValuationRatios *struct {
				PERatio   *float64 `json:"pe_ratio"`
				ForwardPE *float64 `json:"forward_pe_ratio"`
			} `json:"valuation_ratios"`
		} `json:"tables"`
	} `json:"results"`
}

// pctPtr converts a decimal ratio pointer to a percentage pointer.
func pctPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p * 100
	return &v
}

// GetFundamentals implements Provider. A symbol with no fundamentals
// coverage yields (nil, nil): the screener then scores it neutrally.
func (t *TradierClient) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	if t.sandbox {
		// The sandbox serves no fundamentals.
		return nil, nil
	}
	params := url.Values{}
	params.Set("symbols", symbol)

	var resp fundamentalsResponse
	if err := t.get(ctx, t.betaURL+"/markets/fundamentals/ratios?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetching fundamentals for %s: %w", symbol, err)
	}

	fund := &models.Fundamentals{Symbol: symbol}
	found := false
	for _, entry := range resp {
		for _, result := range entry.Results {
			tables := result.Tables
			if tables.AssetClassification != nil && tables.AssetClassification.Sector != "" {
				fund.Sector = tables.AssetClassification.Sector
				found = true
			}
			if tables.MarketCap != nil && tables.MarketCap.Value > 0 {
				v := tables.MarketCap.Value
				fund.MarketCap = &v
				found = true
			}
			if or := tables.OperationRatios; or != nil {
				fund.GrossMargin = pctPtr(or.GrossMargin)
				fund.OperatingMargin = pctPtr(or.OperationMargin)
				fund.NetMargin = pctPtr(or.NetMargin)
				fund.FreeCashFlow = or.FreeCashFlow
				fund.Revenue = or.Revenue
				fund.RevenueGrowth = pctPtr(or.RevenueGrowth)
				found = true
			}
			if vr := tables.ValuationRatios; vr != nil {
				if vr.PERatio != nil {
					fund.PERatio = vr.PERatio
				} else if vr.ForwardPE != nil {
					fund.PERatio = vr.ForwardPE
				}
				found = true
			}
		}
	}
	if !found {
		return nil, nil
	}
	return fund, nil
}

type calendarsResponse []struct {
	Request string `json:"request"`
	Results []struct {
		Tables struct {
			CorporateCalendars singleOrArray[struct {
				Event         string `json:"event"`
				EventType     int    `json:"event_type"`
				BeginDateTime string `json:"begin_date_time"`
			}] `json:"corporate_calendars"`
		} `json:"tables"`
	} `json:"results"`
}

// GetNextEarnings implements Provider. Returns the earliest future
// earnings event, or nil when none is scheduled.
func (t *TradierClient) GetNextEarnings(ctx context.Context, symbol string) (*time.Time, error) {
	if t.sandbox {
		return nil, nil
	}
	params := url.Values{}
	params.Set("symbols", symbol)

	var resp calendarsResponse
	if err := t.get(ctx, t.betaURL+"/markets/fundamentals/calendars?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetching calendar for %s: %w", symbol, err)
	}

	today := time.Now().Truncate(24 * time.Hour)
	var next *time.Time
	for _, entry := range resp {
		for _, result := range entry.Results {
			for _, ev := range result.Tables.CorporateCalendars {
				// Event types 7-9 are the earnings announcements.
				if ev.EventType < 7 || ev.EventType > 9 {
					continue
				}
				d, err := time.Parse(expirationLayout, ev.BeginDateTime)
				if err != nil {
					continue
				}
				if d.Before(today) {
					continue
				}
				if next == nil || d.Before(*next) {
					next = &d
				}
			}
		}
	}
	return next, nil
}

// Ensure TradierClient implements Provider at compile time.
var _ Provider = (*TradierClient)(nil)
