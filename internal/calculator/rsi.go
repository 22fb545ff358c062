package calculator

import "MarketLens/internal/model"

// DefaultRSIPeriod is the conventional Wilder period.
const DefaultRSIPeriod = 14

// RSI computes the Wilder-smoothed Relative Strength Index. The first `period`
// entries are absent; a series no longer than period is entirely absent.
// A zero average loss reads as RSI 100.
func RSI(values []float64, period int) (model.Series, error) {
	if err := checkInput(values, period); err != nil {
		return nil, err
	}
	out := make(model.Series, len(values))
	if len(values) <= period {
		return out, nil
	}

	// Seed averages over the first `period` changes
	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	p := float64(period)
	avgGain := gains / p
	avgLoss := losses / p
	out[period] = model.Some(rsiFrom(avgGain, avgLoss))

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = model.Some(rsiFrom(avgGain, avgLoss))
	}
	return out, nil
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	switch {
	case rsi < 0:
		return 0
	case rsi > 100:
		return 100
	}
	return rsi
}
