package strategy

import (
	"math"
	"testing"

	"MarketLens/internal/model"
)

// indicatorsEndingWith builds a set whose last values drive each factor.
func indicatorsEndingWith(n int, rsi float64, histPrev, histLast, upper, lower float64) *model.IndicatorSet {
	set := &model.IndicatorSet{
		RSI: make(model.Series, n),
		MACD: model.MACD{
			Histogram: make(model.Series, n),
		},
		Bollinger: model.Bands{
			Upper: make(model.Series, n),
			Lower: make(model.Series, n),
		},
	}
	set.RSI[n-1] = model.Some(rsi)
	set.MACD.Histogram[n-2] = model.Some(histPrev)
	set.MACD.Histogram[n-1] = model.Some(histLast)
	set.Bollinger.Upper[n-1] = model.Some(upper)
	set.Bollinger.Lower[n-1] = model.Some(lower)
	return set
}

func TestFactor_OversoldBullishCross(t *testing.T) {
	in := Input{
		Bars:       bars(t, 100, 100, 100, 100, 100, 99),
		Indicators: indicatorsEndingWith(6, 22, -0.1, 0.2, 110, 100),
	}
	rec := FactorAdvisor{}.Advise(in)
	if rec.Action != model.ActionBuy {
		t.Fatalf("expected BUY, got %s (%s)", rec.Action, rec.Reason)
	}
	if rec.Score < 85 || rec.Score > 90 {
		t.Errorf("expected score near 87, got %d", rec.Score)
	}
	if len(rec.Factors) != 4 {
		t.Fatalf("expected 4 factors, got %d", len(rec.Factors))
	}
}

func TestFactor_OverboughtBearishCross(t *testing.T) {
	in := Input{
		Bars:       bars(t, 100, 102, 104, 106, 108, 111),
		Indicators: indicatorsEndingWith(6, 85, 0.2, -0.1, 110, 100),
	}
	rec := FactorAdvisor{}.Advise(in)
	if rec.Action != model.ActionSell {
		t.Fatalf("expected SELL, got %s (%s)", rec.Action, rec.Reason)
	}
	if rec.Score >= 25 {
		t.Errorf("expected score below 25, got %d", rec.Score)
	}
}

func TestFactor_WeightsSumToOne(t *testing.T) {
	in := Input{
		Bars:       bars(t, 100, 101, 102, 103, 104, 105),
		Indicators: indicatorsEndingWith(6, 50, 0.1, 0.1, 110, 100),
	}
	rec := FactorAdvisor{}.Advise(in)
	sum := 0.0
	for _, f := range rec.Factors {
		sum += f.Weight
		if math.Abs(f.Weighted-f.RawScore*f.Weight) > 1e-12 {
			t.Errorf("%s: weighted %.3f != raw %.3f × weight %.2f", f.Name, f.Weighted, f.RawScore, f.Weight)
		}
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("weights sum to %.3f", sum)
	}
}

func TestFactor_AbsentIndicatorsScoreZero(t *testing.T) {
	in := Input{
		Bars:       bars(t, 100, 100, 100, 100, 100, 100),
		Indicators: &model.IndicatorSet{},
	}
	rec := FactorAdvisor{}.Advise(in)
	if rec.Action != model.ActionHold || rec.Score != 50 {
		t.Fatalf("expected HOLD/50, got %s/%d", rec.Action, rec.Score)
	}
	for _, f := range rec.Factors[:3] {
		if f.Commentary != "n/a" || f.Weighted != 0 {
			t.Errorf("%s should be absent, got %+v", f.Name, f)
		}
	}
}

func TestFactor_FallsBackToTrendWithoutIndicators(t *testing.T) {
	in := Input{Bars: bars(t, 100, 101, 103, 104, 105, 107, 108, 110, 111, 112)}
	got := FactorAdvisor{}.Advise(in)
	want := TrendAdvisor{}.Advise(in)
	if got.Action != want.Action || got.Score != want.Score || got.Reason != want.Reason {
		t.Errorf("expected trend fallback %+v, got %+v", want, got)
	}
}
