package strategy

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"MarketLens/internal/model"
)

func bars(t *testing.T, closes ...float64) model.BarSeries {
	t.Helper()
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	out := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	s, err := model.NewBarSeries("TEST", out)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func TestTrend_StrongRiseBuys(t *testing.T) {
	rec := TrendAdvisor{}.Advise(Input{Bars: bars(t, 100, 101, 103, 104, 105, 107, 108, 110, 111, 112)})
	if rec.Action != model.ActionBuy || rec.Score != 75 {
		t.Fatalf("expected BUY/75, got %s/%d", rec.Action, rec.Score)
	}
	if !strings.Contains(rec.Reason, "+12.0%") {
		t.Errorf("reason should embed +12.0%%, got %q", rec.Reason)
	}
}

func TestTrend_FlatHolds(t *testing.T) {
	rec := TrendAdvisor{}.Advise(Input{Bars: bars(t, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100)})
	if rec.Action != model.ActionHold || rec.Score != 50 {
		t.Fatalf("expected HOLD/50, got %s/%d", rec.Action, rec.Score)
	}
	if !strings.Contains(rec.Reason, "+0.0%") {
		t.Errorf("unexpected reason %q", rec.Reason)
	}
}

func TestTrend_SharpFallSells(t *testing.T) {
	rec := TrendAdvisor{}.Advise(Input{Bars: bars(t, 100, 98, 95, 93, 90, 88, 85)})
	if rec.Action != model.ActionSell || rec.Score != 25 {
		t.Fatalf("expected SELL/25, got %s/%d", rec.Action, rec.Score)
	}
	if !strings.Contains(rec.Reason, "-15.0%") {
		t.Errorf("reason should embed -15.0%%, got %q", rec.Reason)
	}
}

func TestTrend_Boundaries(t *testing.T) {
	tests := []struct {
		last   float64
		action model.Action
		score  int
	}{
		{110, model.ActionHold, 50},
		{90, model.ActionHold, 50},
		{110.01, model.ActionBuy, 75},
		{89.99, model.ActionSell, 25},
	}
	for _, tt := range tests {
		rec := TrendAdvisor{}.Advise(Input{Bars: bars(t, 100, 100, 100, 100, 100, tt.last)})
		if rec.Action != tt.action || rec.Score != tt.score {
			t.Errorf("last %.2f: expected %s/%d, got %s/%d", tt.last, tt.action, tt.score, rec.Action, rec.Score)
		}
	}
}

func TestTrend_ShortOrDegenerateWindowIsNeutral(t *testing.T) {
	cases := map[string]model.BarSeries{
		"empty":      {},
		"five bars":  bars(t, 100, 200, 300, 400, 500),
		"zero first": bars(t, 0, 1, 2, 3, 4, 5),
	}
	for name, s := range cases {
		rec := TrendAdvisor{}.Advise(Input{Bars: s})
		if rec.Action != model.ActionHold || rec.Score != 50 || rec.Reason != "Market conditions are neutral." {
			t.Errorf("%s: expected neutral default, got %+v", name, rec)
		}
	}
}

func TestTrend_ScoreIsAlwaysATier(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	for i := 0; i < 200; i++ {
		closes := make([]float64, 6+r.Intn(30))
		p := 50 + r.Float64()*100
		for j := range closes {
			p *= 1 + (r.Float64()-0.5)*0.1
			closes[j] = p
		}
		rec := TrendAdvisor{}.Advise(Input{Bars: bars(t, closes...)})
		switch rec.Score {
		case 25, 50, 75:
		default:
			t.Fatalf("score %d outside {25,50,75}", rec.Score)
		}
	}
}

func TestNew(t *testing.T) {
	for engine, want := range map[string]string{"": "trend", "trend": "trend", "factor": "factor"} {
		a, err := New(engine)
		if err != nil {
			t.Fatalf("New(%q): %v", engine, err)
		}
		if a.Name() != want {
			t.Errorf("New(%q).Name() = %q, want %q", engine, a.Name(), want)
		}
	}
	if _, err := New("oracle"); err == nil {
		t.Error("expected error for unknown engine")
	}
}
