package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// RawBar is a bar as delivered by an upstream provider. Any price field may be null.
type RawBar struct {
	Time   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64
}

var (
	ErrNonFiniteClose = errors.New("bar close is not a finite number")
	ErrUnordered      = errors.New("bars are not ordered by time")
)

// FilterMissing drops bars without a usable close. Missing open/high/low fall
// back to the close and a missing volume reads as zero.
func FilterMissing(raw []RawBar) []OHLCV {
	bars := make([]OHLCV, 0, len(raw))
	for _, r := range raw {
		if r.Close == nil || !finite(*r.Close) {
			continue
		}
		c := *r.Close
		bars = append(bars, OHLCV{
			Time:   r.Time,
			Open:   orDefault(r.Open, c),
			High:   orDefault(r.High, c),
			Low:    orDefault(r.Low, c),
			Close:  c,
			Volume: orDefault(r.Volume, 0),
		})
	}
	return bars
}

func orDefault(p *float64, def float64) float64 {
	if p == nil || !finite(*p) {
		return def
	}
	return *p
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// BarSeries is a time-ordered run of bars for one symbol. It is immutable once built.
type BarSeries struct {
	Symbol string
	bars   []OHLCV
}

// NewBarSeries validates and copies bars. Closes must be finite and
// timestamps non-decreasing.
func NewBarSeries(symbol string, bars []OHLCV) (BarSeries, error) {
	for i, b := range bars {
		if !finite(b.Close) {
			return BarSeries{}, fmt.Errorf("bar %d at %s: %w", i, b.Time.Format(time.RFC3339), ErrNonFiniteClose)
		}
		if i > 0 && b.Time.Before(bars[i-1].Time) {
			return BarSeries{}, fmt.Errorf("bar %d at %s: %w", i, b.Time.Format(time.RFC3339), ErrUnordered)
		}
	}
	cp := make([]OHLCV, len(bars))
	copy(cp, bars)
	return BarSeries{Symbol: symbol, bars: cp}, nil
}

func (s BarSeries) Len() int { return len(s.bars) }

// At returns the i-th bar.
func (s BarSeries) At(i int) OHLCV { return s.bars[i] }

// Bars returns a copy of the underlying bars.
func (s BarSeries) Bars() []OHLCV {
	cp := make([]OHLCV, len(s.bars))
	copy(cp, s.bars)
	return cp
}

// Closes extracts the close prices in order.
func (s BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		closes[i] = b.Close
	}
	return closes
}

// Quote is the spot price and headline metrics for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	ShortName     string    `json:"shortName"`
	LongName      string    `json:"longName"`
	Currency      string    `json:"currency,omitempty"`
	Exchange      string    `json:"exchange,omitempty"`
	Price         float64   `json:"regularMarketPrice"`
	Open          float64   `json:"regularMarketOpen"`
	PreviousClose float64   `json:"previousClose"`
	Change        float64   `json:"regularMarketChange"`
	ChangePercent float64   `json:"regularMarketChangePercent"`
	DayHigh       float64   `json:"regularMarketDayHigh"`
	DayLow        float64   `json:"regularMarketDayLow"`
	Volume        float64   `json:"regularMarketVolume"`
	High52w       float64   `json:"fiftyTwoWeekHigh"`
	Low52w        float64   `json:"fiftyTwoWeekLow"`
	Position52w   float64   `json:"fiftyTwoWeekPosition"` // 0.0 ~ 1.0
	MarketCap     Value     `json:"marketCap"`
	TrailingPE    Value     `json:"trailingPE"`
	ForwardPE     Value     `json:"forwardPE"`
	EPS           Value     `json:"eps"`
	Beta          Value     `json:"beta"`
	DividendYield Value     `json:"dividendYield"` // percent
	FetchedAt     time.Time `json:"fetchedAt"`
}

// SetPreviousClose fills the change fields from a previous close.
func (q *Quote) SetPreviousClose(prev float64) {
	q.PreviousClose = prev
	if prev == 0 {
		return
	}
	q.Change = q.Price - prev
	q.ChangePercent = q.Change / prev * 100
}
