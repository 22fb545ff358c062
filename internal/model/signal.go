package model

import "time"

// Action is the discrete recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"rawScore"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// Recommendation is the output of the advice engine.
type Recommendation struct {
	Action  Action        `json:"action"`
	Reason  string        `json:"reason"`
	Score   int           `json:"score"` // 0 ~ 100
	Factors []FactorScore `json:"factors,omitempty"`
}

// NeutralAdvice is returned when there is not enough history to judge.
func NeutralAdvice() Recommendation {
	return Recommendation{Action: ActionHold, Reason: "Market conditions are neutral.", Score: 50}
}

// Report bundles everything computed for one symbol request.
type Report struct {
	Symbol      string
	Range       string
	Interval    string
	Engine      string
	Quote       *Quote
	Bars        BarSeries
	Indicators  *IndicatorSet // nil when history was too short to compute
	Advice      Recommendation
	Degraded    bool // bars could not be fetched or were rejected
	GeneratedAt time.Time
}
