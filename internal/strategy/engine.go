package strategy

import (
	"fmt"

	"MarketLens/internal/model"
)

// MinBars is the shortest window the advisors will judge.
const MinBars = 6

// Input is what an Advisor consumes. Indicators may be nil.
type Input struct {
	Bars       model.BarSeries
	Indicators *model.IndicatorSet
}

// Advisor reduces a bar series to a recommendation.
type Advisor interface {
	Name() string
	Advise(in Input) model.Recommendation
}

// New returns the advisor registered under engine. Empty means "trend".
func New(engine string) (Advisor, error) {
	switch engine {
	case "", "trend":
		return TrendAdvisor{}, nil
	case "factor":
		return FactorAdvisor{}, nil
	default:
		return nil, fmt.Errorf("unknown advice engine %q", engine)
	}
}

// TrendAdvisor classifies the percentage change between the first and last
// close of the window: above +10% buys, below -10% sells, anything else holds.
type TrendAdvisor struct{}

func (TrendAdvisor) Name() string { return "trend" }

func (TrendAdvisor) Advise(in Input) model.Recommendation {
	change, ok := windowChange(in.Bars)
	if !ok {
		return model.NeutralAdvice()
	}
	switch {
	case change > 10:
		return model.Recommendation{
			Action: model.ActionBuy,
			Reason: fmt.Sprintf("Strong upward trend detected (%+.1f%% over period).", change),
			Score:  75,
		}
	case change < -10:
		return model.Recommendation{
			Action: model.ActionSell,
			Reason: fmt.Sprintf("Downward trend detected (%+.1f%% over period).", change),
			Score:  25,
		}
	default:
		return model.Recommendation{
			Action: model.ActionHold,
			Reason: fmt.Sprintf("Price relatively stable (%+.1f%% change).", change),
			Score:  50,
		}
	}
}

// windowChange returns the first-to-last close change in percent. It reports
// false when the window is too short or starts at zero.
func windowChange(bars model.BarSeries) (float64, bool) {
	if bars.Len() < MinBars {
		return 0, false
	}
	first := bars.At(0).Close
	last := bars.At(bars.Len() - 1).Close
	if first == 0 {
		return 0, false
	}
	return (last - first) / first * 100, true
}
