package strategy

import (
	"fmt"
	"math"
	"strings"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
)

// FactorAdvisor blends RSI, MACD, Bollinger %B and window trend into a
// weighted score. Without indicators it falls back to TrendAdvisor.
type FactorAdvisor struct{}

func (FactorAdvisor) Name() string { return "factor" }

func (FactorAdvisor) Advise(in Input) model.Recommendation {
	if in.Indicators == nil || in.Bars.Len() < MinBars {
		return TrendAdvisor{}.Advise(in)
	}
	ind := in.Indicators
	last := in.Bars.At(in.Bars.Len() - 1).Close

	factors := []model.FactorScore{
		scoreRSI(ind.RSI.Last()),
		scoreMACD(ind.MACD.Histogram),
		scoreBollinger(calculator.PercentB(last, ind.Bollinger.Upper.Last(), ind.Bollinger.Lower.Last())),
		scoreTrend(in.Bars),
	}

	total := 0.0
	notes := make([]string, 0, len(factors))
	for _, f := range factors {
		total += f.Weighted
		notes = append(notes, fmt.Sprintf("%s %s", f.Name, f.Commentary))
	}

	action := model.ActionHold
	switch {
	case total >= 0.5:
		action = model.ActionBuy
	case total <= -0.5:
		action = model.ActionSell
	}
	score := int(math.Round(50 + total*25))
	score = max(0, min(100, score))

	return model.Recommendation{
		Action:  action,
		Reason:  fmt.Sprintf("Composite score %+.2f: %s.", total, strings.Join(notes, "; ")),
		Score:   score,
		Factors: factors,
	}
}

func absent(name string, weight float64) model.FactorScore {
	return model.FactorScore{Name: name, Weight: weight, Commentary: "n/a"}
}

// scoreRSI rewards oversold and penalises overbought readings.
// Weight: 0.35
func scoreRSI(v model.Value) model.FactorScore {
	const name, weight = "RSI", 0.35
	rsi, ok := v.Float()
	if !ok {
		return absent(name, weight)
	}
	var score float64
	switch {
	case rsi <= 25:
		score = 2.0
	case rsi <= 30:
		score = 1.5
	case rsi <= 40:
		score = 1.0
	case rsi <= 45:
		score = 0.5
	case rsi <= 55:
		score = 0
	case rsi <= 60:
		score = -0.5
	case rsi <= 70:
		score = -1.0
	case rsi <= 80:
		score = -1.5
	default:
		score = -2.0
	}
	return model.FactorScore{
		Name: name, RawScore: score, Weight: weight, Weighted: score * weight,
		Commentary: fmt.Sprintf("%.0f", rsi),
	}
}

// scoreMACD looks at the histogram sign and whether it just crossed zero.
// Weight: 0.25
func scoreMACD(hist model.Series) model.FactorScore {
	const name, weight = "MACD", 0.25
	n := len(hist)
	if n < 2 || !hist[n-1].Valid || !hist[n-2].Valid {
		return absent(name, weight)
	}
	cur, prev := hist[n-1].V, hist[n-2].V

	var score float64
	var commentary string
	switch {
	case cur > 0 && prev <= 0:
		score, commentary = 2.0, "bullish cross"
	case cur < 0 && prev >= 0:
		score, commentary = -2.0, "bearish cross"
	case cur > 0:
		score, commentary = 1.0, "above signal"
	case cur < 0:
		score, commentary = -1.0, "below signal"
	default:
		commentary = "flat"
	}
	return model.FactorScore{
		Name: name, RawScore: score, Weight: weight, Weighted: score * weight,
		Commentary: commentary,
	}
}

// scoreBollinger treats price at or beyond a band as a reversion signal.
// Weight: 0.20
func scoreBollinger(pb model.Value) model.FactorScore {
	const name, weight = "Bollinger", 0.20
	b, ok := pb.Float()
	if !ok {
		return absent(name, weight)
	}
	var score float64
	switch {
	case b <= 0:
		score = 2.0
	case b <= 0.2:
		score = 1.0
	case b < 0.8:
		score = 0
	case b < 1:
		score = -1.0
	default:
		score = -2.0
	}
	return model.FactorScore{
		Name: name, RawScore: score, Weight: weight, Weighted: score * weight,
		Commentary: fmt.Sprintf("%%B=%.2f", b),
	}
}

// scoreTrend follows the window change used by TrendAdvisor.
// Weight: 0.20
func scoreTrend(bars model.BarSeries) model.FactorScore {
	const name, weight = "Trend", 0.20
	change, ok := windowChange(bars)
	if !ok {
		return absent(name, weight)
	}
	var score float64
	switch {
	case change > 10:
		score = 1.5
	case change > 0:
		score = 0.5
	case change < -10:
		score = -1.5
	case change < 0:
		score = -0.5
	}
	return model.FactorScore{
		Name: name, RawScore: score, Weight: weight, Weighted: score * weight,
		Commentary: fmt.Sprintf("%+.1f%%", change),
	}
}
