package technical

import (
	"testing"

	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/models"
	"github.com/stretchr/testify/require"
)

func candlesFromCloses(closes []float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Market:    "KRW-BTC",
			Open:      c,
			High:      c + 2,
			Low:       c - 2,
			Close:     c,
			Timestamp: int64(i) * 86400000,
		}
	}
	return out
}

func TestAnalyzerComputeConstantSeries(t *testing.T) {
	a := NewAnalyzer(config.Default().Analysis.Technical)
	candles := candlesFromCloses(constant(50000000, 30))

	got, err := a.Compute(candles)
	require.NoError(t, err)
	require.Equal(t, 50000000.0, got.SMA20)
	require.Equal(t, 50000000.0, got.EMA10)
	require.Equal(t, 100.0, got.RSI14)
	require.Equal(t, models.MACD{}, got.MACD)
	require.Equal(t, models.Bollinger{Upper: 50000000, Middle: 50000000, Lower: 50000000}, got.Bollinger)
	require.Equal(t, models.Stochastic{K: 50, D: 50}, got.Stochastic)
}

func TestAnalyzerRoundsOnlyAtBoundary(t *testing.T) {
	a := NewAnalyzer(config.Default().Analysis.Technical)
	got, err := a.Compute(candlesFromCloses(sampleCloses))
	require.NoError(t, err)

	m, err := MACD(sampleCloses)
	require.NoError(t, err)
	require.Equal(t, models.Round(m.MACD, 2), got.MACD.MACD)
	require.Equal(t, models.Round(m.Signal, 2), got.MACD.Signal)
	require.Equal(t, models.Round(m.Histogram, 2), got.MACD.Histogram)

	rsi, err := RSI(sampleCloses, 14)
	require.NoError(t, err)
	require.Equal(t, models.Round(rsi, 2), got.RSI14)
	require.GreaterOrEqual(t, got.Stochastic.K, 0.0)
	require.LessOrEqual(t, got.Stochastic.K, 100.0)
}

func TestAnalyzerPropagatesErrors(t *testing.T) {
	a := NewAnalyzer(config.Default().Analysis.Technical)

	_, err := a.Compute(nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = a.Compute(candlesFromCloses(sampleCloses[:20]))
	require.ErrorIs(t, err, ErrInsufficientData)
}
