package calculator

import "MarketLens/internal/model"

const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and the histogram.
// All outputs are full length because EMA has no warm-up; values before
// roughly slow+signal bars are numerically defined but not meaningful.
func MACD(values []float64, fast, slow, signal int) (model.MACD, error) {
	for _, p := range []int{fast, slow, signal} {
		if err := checkInput(values, p); err != nil {
			return model.MACD{}, err
		}
	}
	emaFast := ema(values, fast)
	emaSlow := ema(values, slow)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := ema(line, signal)

	hist := make([]float64, len(values))
	for i := range values {
		hist[i] = line[i] - sig[i]
	}
	return model.MACD{Line: wrap(line), Signal: wrap(sig), Histogram: wrap(hist)}, nil
}
