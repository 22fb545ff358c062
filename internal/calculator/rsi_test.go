package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSI_MonotonicRiseIsExactly100(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	got, err := RSI(values, 14)
	require.NoError(t, err)
	require.Len(t, got, 20)

	assert.Equal(t, 14, leadingAbsent(got))
	for i := 14; i < len(got); i++ {
		assert.Equal(t, 100.0, got[i].V, "index %d", i)
		assert.True(t, got[i].Valid)
	}
}

func TestRSI_HandComputed(t *testing.T) {
	// period 2, changes +1 -1 +1
	// seed: avgGain=0.5 avgLoss=0.5 -> RS=1 -> 50
	// next: avgGain=(0.5+1)/2=0.75 avgLoss=0.25 -> RS=3 -> 75
	got, err := RSI([]float64{1, 2, 1, 2}, 2)
	require.NoError(t, err)
	assert.False(t, got[0].Valid)
	assert.False(t, got[1].Valid)
	assertClose(t, "RSI[2]", got[2], 50, 1e-12)
	assertClose(t, "RSI[3]", got[3], 75, 1e-12)
}

func TestRSI_MonotonicFallIsZero(t *testing.T) {
	values := make([]float64, 16)
	for i := range values {
		values[i] = 200 - float64(i)
	}
	got, err := RSI(values, 14)
	require.NoError(t, err)
	assertClose(t, "RSI[14]", got[14], 0, 0)
	assertClose(t, "RSI[15]", got[15], 0, 0)
}

func TestRSI_Bounded(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		values := randomWalk(seed, 120)
		got, err := RSI(values, DefaultRSIPeriod)
		require.NoError(t, err)
		require.Len(t, got, len(values))
		for i, v := range got {
			if !v.Valid {
				assert.Less(t, i, DefaultRSIPeriod)
				continue
			}
			assert.GreaterOrEqual(t, v.V, 0.0)
			assert.LessOrEqual(t, v.V, 100.0)
		}
	}
}

func TestRSI_ShortHistory(t *testing.T) {
	got, err := RSI([]float64{1, 2, 3, 4, 5}, 14)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 5, leadingAbsent(got))

	// exactly period bars still has no change window to seed from
	got, err = RSI(make([]float64, 14), 14)
	require.NoError(t, err)
	assert.Equal(t, 14, leadingAbsent(got))
}

func TestRSI_RejectsBadInput(t *testing.T) {
	_, err := RSI(nil, 14)
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = RSI([]float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
