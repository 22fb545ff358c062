package model

import (
	"encoding/json"
	"math"
	"time"
)

// Value is an optional float. The zero Value is absent.
type Value struct {
	V     float64
	Valid bool
}

// Some wraps v. Non-finite input yields an absent Value.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{V: v, Valid: true}
}

func None() Value { return Value{} }

// Float returns the value and whether it is present.
func (v Value) Float() (float64, bool) { return v.V, v.Valid }

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Series is an indicator output positionally aligned with its input bars.
type Series []Value

// Last returns the final entry, or an absent Value for an empty series.
func (s Series) Last() Value {
	if len(s) == 0 {
		return Value{}
	}
	return s[len(s)-1]
}

// at is nil-safe and bounds-safe indexing.
func (s Series) at(i int) Value {
	if i < 0 || i >= len(s) {
		return Value{}
	}
	return s[i]
}

// Bands holds Bollinger Bands output.
type Bands struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// MACD holds the MACD line, its signal line and the histogram.
type MACD struct {
	Line      Series
	Signal    Series
	Histogram Series
}

// IndicatorSet is every indicator computed for one bar series.
type IndicatorSet struct {
	EMAFast   Series
	EMASlow   Series
	RSI       Series
	Bollinger Bands
	MACD      MACD
}

// Snapshot is the latest value of each indicator.
type Snapshot struct {
	EMAFast    Value `json:"emaFast"`
	EMASlow    Value `json:"emaSlow"`
	RSI        Value `json:"rsi"`
	BBUpper    Value `json:"bbUpper"`
	BBMiddle   Value `json:"bbMiddle"`
	BBLower    Value `json:"bbLower"`
	MACDLine   Value `json:"macdLine"`
	MACDSignal Value `json:"macdSignal"`
	MACDHist   Value `json:"macdHist"`
}

// Latest returns the last-index values. A nil set yields an all-absent snapshot.
func (s *IndicatorSet) Latest() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{
		EMAFast:    s.EMAFast.Last(),
		EMASlow:    s.EMASlow.Last(),
		RSI:        s.RSI.Last(),
		BBUpper:    s.Bollinger.Upper.Last(),
		BBMiddle:   s.Bollinger.Middle.Last(),
		BBLower:    s.Bollinger.Lower.Last(),
		MACDLine:   s.MACD.Line.Last(),
		MACDSignal: s.MACD.Signal.Last(),
		MACDHist:   s.MACD.Histogram.Last(),
	}
}

// ChartPoint is one row of the chart overlay: a bar and every indicator at its index.
type ChartPoint struct {
	Date       time.Time `json:"date"`
	Price      float64   `json:"price"`
	RSI        Value     `json:"rsi"`
	BBUpper    Value     `json:"bbUpper"`
	BBMiddle   Value     `json:"bbMiddle"`
	BBLower    Value     `json:"bbLower"`
	MACDLine   Value     `json:"macdLine"`
	MACDSignal Value     `json:"macdSignal"`
	MACDHist   Value     `json:"macdHist"`
}

// Points zips the set with its bars. Indicators missing from the set are absent.
func (s *IndicatorSet) Points(bars BarSeries) []ChartPoint {
	if s == nil {
		s = &IndicatorSet{}
	}
	points := make([]ChartPoint, bars.Len())
	for i := range points {
		b := bars.At(i)
		points[i] = ChartPoint{
			Date:       b.Time,
			Price:      b.Close,
			RSI:        s.RSI.at(i),
			BBUpper:    s.Bollinger.Upper.at(i),
			BBMiddle:   s.Bollinger.Middle.at(i),
			BBLower:    s.Bollinger.Lower.at(i),
			MACDLine:   s.MACD.Line.at(i),
			MACDSignal: s.MACD.Signal.at(i),
			MACDHist:   s.MACD.Histogram.at(i),
		}
	}
	return points
}
