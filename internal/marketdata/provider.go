// Package marketdata provides chain, quote, history, and fundamentals
// access for the screener. It includes the Tradier implementation and an
// offline synthetic provider. The screener core treats everything here
// as an external collaborator: retries and rate limiting live on this
// side of the boundary.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eddiefleurent/wheelhouse/internal/models"
)

// Provider is the market-data contract the scanner consumes, per ticker:
// spot price, a year of closes, fundamentals, the next earnings date,
// expirations, and per-expiration put quotes. Implementations must be
// safe for concurrent use; the scanner fans out across tickers.
type Provider interface {
	// GetSpot returns the current price of the underlying.
	GetSpot(ctx context.Context, symbol string) (float64, error)

	// GetDailyCloses returns up to `days` trailing daily close prices,
	// oldest first.
	GetDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error)

	// GetFundamentals returns the fundamentals snapshot, or nil when
	// the provider has none for the symbol (not an error).
	GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error)

	// GetNextEarnings returns the next scheduled earnings date, or nil
	// when unknown.
	GetNextEarnings(ctx context.Context, symbol string) (*time.Time, error)

	// GetExpirations returns the available option expiration dates.
	GetExpirations(ctx context.Context, symbol string) ([]time.Time, error)

	// GetPutChain returns the put quotes for one expiration.
	GetPutChain(ctx context.Context, symbol string, expiration time.Time) ([]models.OptionQuote, error)
}

// ErrNoQuote is returned when the provider has no price for a symbol.
var ErrNoQuote = errors.New("no quote available")

// APIError is an HTTP-level provider error with the upstream status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// CircuitBreakerProvider wraps a Provider with a shared circuit breaker
// so a flapping upstream fails fast instead of stalling the whole scan.
type CircuitBreakerProvider struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// BreakerSettings configures circuit breaker behavior.
type BreakerSettings struct {
	MaxRequests  uint32        // max requests allowed when half-open
	Interval     time.Duration // counts reset interval
	Timeout      time.Duration // open-state duration
	MinRequests  uint32        // min requests before tripping
	FailureRatio float64       // failure ratio threshold
}

// NewCircuitBreakerProvider wraps the provider with default settings.
func NewCircuitBreakerProvider(p Provider) *CircuitBreakerProvider {
	return NewCircuitBreakerProviderWithSettings(p, BreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
}

// NewCircuitBreakerProviderWithSettings wraps the provider with custom settings.
func NewCircuitBreakerProviderWithSettings(p Provider, settings BreakerSettings) *CircuitBreakerProvider {
	gbSettings := gobreaker.Settings{
		Name:        "MarketDataCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	}
	return &CircuitBreakerProvider{
		provider: p,
		breaker:  gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// execBreaker is a generic helper for the wrapper methods.
func execBreaker[T any](breaker *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// GetSpot implements Provider.
func (c *CircuitBreakerProvider) GetSpot(ctx context.Context, symbol string) (float64, error) {
	return execBreaker(c.breaker, func() (float64, error) { return c.provider.GetSpot(ctx, symbol) })
}

// GetDailyCloses implements Provider.
func (c *CircuitBreakerProvider) GetDailyCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	return execBreaker(c.breaker, func() ([]float64, error) { return c.provider.GetDailyCloses(ctx, symbol, days) })
}

// GetFundamentals implements Provider.
func (c *CircuitBreakerProvider) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	return execBreaker(c.breaker, func() (*models.Fundamentals, error) { return c.provider.GetFundamentals(ctx, symbol) })
}

// GetNextEarnings implements Provider.
func (c *CircuitBreakerProvider) GetNextEarnings(ctx context.Context, symbol string) (*time.Time, error) {
	return execBreaker(c.breaker, func() (*time.Time, error) { return c.provider.GetNextEarnings(ctx, symbol) })
}

// GetExpirations implements Provider.
func (c *CircuitBreakerProvider) GetExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	return execBreaker(c.breaker, func() ([]time.Time, error) { return c.provider.GetExpirations(ctx, symbol) })
}

// GetPutChain implements Provider.
func (c *CircuitBreakerProvider) GetPutChain(ctx context.Context, symbol string, expiration time.Time) ([]models.OptionQuote, error) {
	return execBreaker(c.breaker, func() ([]models.OptionQuote, error) {
		return c.provider.GetPutChain(ctx, symbol, expiration)
	})
}

// Ensure the wrapper implements Provider at compile time.
var _ Provider = (*CircuitBreakerProvider)(nil)
