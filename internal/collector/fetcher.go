package collector

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"MarketLens/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, rng, interval string) ([]model.OHLCV, error)
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	Name() string
}

const (
	DefaultRange    = "1mo"
	DefaultInterval = "1d"
)

var (
	ErrInvalidRange    = errors.New("unsupported range")
	ErrInvalidInterval = errors.New("unsupported interval")
	ErrNoData          = errors.New("no data returned")
)

var (
	validRanges    = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "5y"}
	validIntervals = []string{"1m", "5m", "15m", "1h", "1d", "1wk"}
)

// NormalizeWindow applies defaults and rejects unknown range/interval values.
func NormalizeWindow(rng, interval string) (string, string, error) {
	if rng == "" {
		rng = DefaultRange
	}
	if interval == "" {
		interval = DefaultInterval
	}
	if !slices.Contains(validRanges, rng) {
		return "", "", fmt.Errorf("%w %q", ErrInvalidRange, rng)
	}
	if !slices.Contains(validIntervals, interval) {
		return "", "", fmt.Errorf("%w %q", ErrInvalidInterval, interval)
	}
	return rng, interval, nil
}
