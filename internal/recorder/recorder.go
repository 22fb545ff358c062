package recorder

import (
	"time"

	"MarketLens/internal/model"
)

// AdviceSnapshot is one recommendation produced for a watchlist symbol.
type AdviceSnapshot struct {
	Symbol    string
	Range     string
	Interval  string
	Engine    string
	Price     float64
	RSI       model.Value
	MACDHist  model.Value
	Action    model.Action
	Score     int
	Reason    string
	Timestamp time.Time
}

// SnapshotFromReport flattens a collected report into a snapshot.
func SnapshotFromReport(r *model.Report) *AdviceSnapshot {
	snap := &AdviceSnapshot{
		Symbol:    r.Symbol,
		Range:     r.Range,
		Interval:  r.Interval,
		Engine:    r.Engine,
		Action:    r.Advice.Action,
		Score:     r.Advice.Score,
		Reason:    r.Advice.Reason,
		Timestamp: r.GeneratedAt,
	}
	if r.Quote != nil {
		snap.Price = r.Quote.Price
	}
	latest := r.Indicators.Latest()
	snap.RSI = latest.RSI
	snap.MACDHist = latest.MACDHist
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	return snap
}

// Recorder persists advice history for later comparison.
type Recorder interface {
	RecordAdvice(snap *AdviceSnapshot) error
	// LastAction returns the most recently recorded action for symbol.
	LastAction(symbol string) (model.Action, bool, error)
	History(symbol string, limit int) ([]AdviceSnapshot, error)
	Close() error
}
