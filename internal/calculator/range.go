package calculator

import (
	"errors"
	"math"

	"MarketLens/internal/model"
)

// TradingDays52w is the trailing window used for 52-week extremes.
const TradingDays52w = 252

// Range scans the most recent `lookback` bars and returns the high and low.
// A non-positive lookback scans every bar.
func Range(bars []model.OHLCV, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, ErrEmptySeries
	}
	start := 0
	if lookback > 0 && len(bars) > lookback {
		start = len(bars) - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Position returns where current sits within [low, high], clamped to 0.0~1.0.
func Position(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Max(0, math.Min(1, pos)), nil
}
