package recorder

import "MarketLens/internal/model"

// NoopRecorder is used when SQLite is not configured. It never remembers an action.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAdvice(_ *AdviceSnapshot) error { return nil }
func (n *NoopRecorder) LastAction(_ string) (model.Action, bool, error) {
	return "", false, nil
}
func (n *NoopRecorder) History(_ string, _ int) ([]AdviceSnapshot, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                     { return nil }
