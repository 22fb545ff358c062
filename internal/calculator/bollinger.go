package calculator

import (
	"fmt"
	"math"

	"MarketLens/internal/model"
)

const (
	DefaultBollingerPeriod     = 20
	DefaultBollingerMultiplier = 2.0
)

// Bollinger computes SMA ± multiplier × population standard deviation over
// the same trailing window. All three bands share SMA's warm-up.
func Bollinger(values []float64, period int, multiplier float64) (model.Bands, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 0 {
		return model.Bands{}, fmt.Errorf("%w, got %v", ErrInvalidMultiplier, multiplier)
	}
	middle, err := SMA(values, period)
	if err != nil {
		return model.Bands{}, err
	}
	upper := make(model.Series, len(values))
	lower := make(model.Series, len(values))
	for i := period - 1; i < len(values); i++ {
		mean, ok := middle[i].Float()
		if !ok {
			continue
		}
		sq := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			sq += d * d
		}
		stdDev := math.Sqrt(sq / float64(period))
		upper[i] = model.Some(mean + multiplier*stdDev)
		lower[i] = model.Some(mean - multiplier*stdDev)
	}
	return model.Bands{Upper: upper, Middle: middle, Lower: lower}, nil
}

// PercentB locates price within the bands: 0 at the lower band, 1 at the upper.
// Collapsed or absent bands give an absent value.
func PercentB(price float64, upper, lower model.Value) model.Value {
	u, okU := upper.Float()
	l, okL := lower.Float()
	if !okU || !okL || u == l {
		return model.None()
	}
	return model.Some((price - l) / (u - l))
}
