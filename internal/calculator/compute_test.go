package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/model"
)

func series(t *testing.T, closes []float64) model.BarSeries {
	t.Helper()
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	s, err := model.NewBarSeries("TEST", bars)
	require.NoError(t, err)
	return s
}

func TestCompute_AlignedWithBars(t *testing.T) {
	bars := series(t, randomWalk(3, 45))
	set, err := Compute(bars, Params{})
	require.NoError(t, err)

	for _, s := range []model.Series{
		set.EMAFast, set.EMASlow, set.RSI,
		set.Bollinger.Upper, set.Bollinger.Middle, set.Bollinger.Lower,
		set.MACD.Line, set.MACD.Signal, set.MACD.Histogram,
	} {
		assert.Len(t, s, bars.Len())
	}
	assert.Equal(t, DefaultRSIPeriod, leadingAbsent(set.RSI))
	assert.Equal(t, DefaultBollingerPeriod-1, leadingAbsent(set.Bollinger.Middle))

	points := set.Points(bars)
	require.Len(t, points, bars.Len())
	assert.Equal(t, bars.At(44).Close, points[44].Price)
	assert.Equal(t, set.RSI[44], points[44].RSI)
	assert.False(t, points[0].RSI.Valid)

	latest := set.Latest()
	assert.Equal(t, set.MACD.Histogram[44], latest.MACDHist)
}

func TestCompute_CustomParams(t *testing.T) {
	bars := series(t, randomWalk(5, 30))
	set, err := Compute(bars, Params{RSIPeriod: 5, BBPeriod: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, leadingAbsent(set.RSI))
	assert.Equal(t, 9, leadingAbsent(set.Bollinger.Upper))
}

func TestCompute_EmptySeries(t *testing.T) {
	_, err := Compute(model.BarSeries{}, DefaultParams())
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestCompute_NegativePeriod(t *testing.T) {
	bars := series(t, []float64{1, 2, 3})
	_, err := Compute(bars, Params{RSIPeriod: -1})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestRange(t *testing.T) {
	bars := series(t, []float64{10, 30, 20, 15})
	high, low, err := Range(bars.Bars(), 0)
	require.NoError(t, err)
	assert.Equal(t, 31.0, high)
	assert.Equal(t, 9.0, low)

	high, low, err = Range(bars.Bars(), 2)
	require.NoError(t, err)
	assert.Equal(t, 21.0, high)
	assert.Equal(t, 14.0, low)

	_, _, err = Range(nil, 10)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestPosition(t *testing.T) {
	pos, err := Position(15, 20, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos, 1e-12)

	pos, err = Position(25, 20, 10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pos)

	pos, err = Position(10, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.5, pos)

	_, err = Position(10, 5, 10)
	assert.Error(t, err)
}
