// Package calculator computes technical indicators over close-price series.
//
// Every function returns a model.Series the same length as its input,
// positionally aligned with it. Entries inside an indicator's warm-up window
// are absent, never zero.
package calculator

import (
	"errors"
	"fmt"

	"MarketLens/internal/model"
)

var (
	ErrEmptySeries       = errors.New("series is empty")
	ErrInvalidPeriod     = errors.New("period must be positive")
	ErrInvalidMultiplier = errors.New("multiplier must be finite and non-negative")
)

func checkInput(values []float64, period int) error {
	if period <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidPeriod, period)
	}
	if len(values) == 0 {
		return ErrEmptySeries
	}
	return nil
}

// SMA computes the simple moving average. The first period-1 entries are absent.
func SMA(values []float64, period int) (model.Series, error) {
	if err := checkInput(values, period); err != nil {
		return nil, err
	}
	out := make(model.Series, len(values))
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = model.Some(sum / float64(period))
	}
	return out, nil
}

// EMA computes the exponential moving average with k = 2/(period+1), seeded
// with the first value. It is defined at every index.
func EMA(values []float64, period int) (model.Series, error) {
	if err := checkInput(values, period); err != nil {
		return nil, err
	}
	return wrap(ema(values, period)), nil
}

// ema assumes validated input.
func ema(values []float64, period int) []float64 {
	k := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

func wrap(values []float64) model.Series {
	out := make(model.Series, len(values))
	for i, v := range values {
		out[i] = model.Some(v)
	}
	return out
}
