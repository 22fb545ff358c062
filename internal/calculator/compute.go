package calculator

import (
	"fmt"

	"MarketLens/internal/model"
)

// Params configures Compute. Zero fields take the conventional defaults.
type Params struct {
	RSIPeriod    int     `yaml:"rsi_period"`
	BBPeriod     int     `yaml:"bb_period"`
	BBMultiplier float64 `yaml:"bb_multiplier"`
	MACDFast     int     `yaml:"macd_fast"`
	MACDSlow     int     `yaml:"macd_slow"`
	MACDSignal   int     `yaml:"macd_signal"`
}

// DefaultParams returns RSI 14, Bollinger 20×2 and MACD 12/26/9.
func DefaultParams() Params {
	return Params{
		RSIPeriod:    DefaultRSIPeriod,
		BBPeriod:     DefaultBollingerPeriod,
		BBMultiplier: DefaultBollingerMultiplier,
		MACDFast:     DefaultMACDFast,
		MACDSlow:     DefaultMACDSlow,
		MACDSignal:   DefaultMACDSignal,
	}
}

// WithDefaults fills zero fields from DefaultParams.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.RSIPeriod == 0 {
		p.RSIPeriod = d.RSIPeriod
	}
	if p.BBPeriod == 0 {
		p.BBPeriod = d.BBPeriod
	}
	if p.BBMultiplier == 0 {
		p.BBMultiplier = d.BBMultiplier
	}
	if p.MACDFast == 0 {
		p.MACDFast = d.MACDFast
	}
	if p.MACDSlow == 0 {
		p.MACDSlow = d.MACDSlow
	}
	if p.MACDSignal == 0 {
		p.MACDSignal = d.MACDSignal
	}
	return p
}

// Compute runs every indicator over the bar closes.
func Compute(bars model.BarSeries, p Params) (*model.IndicatorSet, error) {
	p = p.WithDefaults()
	closes := bars.Closes()

	emaFast, err := EMA(closes, p.MACDFast)
	if err != nil {
		return nil, fmt.Errorf("ema fast: %w", err)
	}
	emaSlow, err := EMA(closes, p.MACDSlow)
	if err != nil {
		return nil, fmt.Errorf("ema slow: %w", err)
	}
	rsi, err := RSI(closes, p.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	bands, err := Bollinger(closes, p.BBPeriod, p.BBMultiplier)
	if err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}
	macd, err := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	return &model.IndicatorSet{
		EMAFast:   emaFast,
		EMASlow:   emaSlow,
		RSI:       rsi,
		Bollinger: bands,
		MACD:      macd,
	}, nil
}
