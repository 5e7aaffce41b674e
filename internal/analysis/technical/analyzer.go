package technical

import (
	"fmt"

	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/models"
)

// Analyzer собирает блок indicators снимка по свечам
type Analyzer struct {
	config config.TechnicalConfig
}

// NewAnalyzer создает новый анализатор технических индикаторов
func NewAnalyzer(cfg config.TechnicalConfig) *Analyzer {
	return &Analyzer{
		config: cfg,
	}
}

// Compute рассчитывает все индикаторы. Свечи должны быть упорядочены
// от старых к новым. Округление до 2 знаков выполняется только здесь,
// промежуточные значения (например, EMA внутри MACD) не округляются.
func (a *Analyzer) Compute(candles []models.Candle) (models.IndicatorSet, error) {
	// Подготавливаем данные для анализа
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	sma, err := SMA(closes, a.config.SMAPeriod)
	if err != nil {
		return models.IndicatorSet{}, fmt.Errorf("SMA(%d): %w", a.config.SMAPeriod, err)
	}
	ema, err := EMA(closes, a.config.EMAPeriod)
	if err != nil {
		return models.IndicatorSet{}, fmt.Errorf("EMA(%d): %w", a.config.EMAPeriod, err)
	}
	rsi, err := RSI(closes, a.config.RSIPeriod)
	if err != nil {
		return models.IndicatorSet{}, fmt.Errorf("RSI(%d): %w", a.config.RSIPeriod, err)
	}
	macd, err := MACDWith(closes, a.config.MACDFast, a.config.MACDSlow, a.config.MACDSignalRatio)
	if err != nil {
		return models.IndicatorSet{}, fmt.Errorf("MACD(%d, %d): %w", a.config.MACDFast, a.config.MACDSlow, err)
	}
	bb, err := BollingerWith(closes, a.config.BBPeriod, a.config.BBMultiplier)
	if err != nil {
		return models.IndicatorSet{}, fmt.Errorf("Bollinger(%d): %w", a.config.BBPeriod, err)
	}
	stoch, err := Stochastic(highs, lows, closes, a.config.StochasticPeriod)
	if err != nil {
		return models.IndicatorSet{}, fmt.Errorf("Stochastic(%d): %w", a.config.StochasticPeriod, err)
	}

	return models.IndicatorSet{
		SMA20: round2(sma),
		EMA10: round2(ema),
		RSI14: round2(rsi),
		MACD: models.MACD{
			MACD:      round2(macd.MACD),
			Signal:    round2(macd.Signal),
			Histogram: round2(macd.Histogram),
		},
		Bollinger: models.Bollinger{
			Upper:  round2(bb.Upper),
			Middle: round2(bb.Middle),
			Lower:  round2(bb.Lower),
		},
		Stochastic: models.Stochastic{
			K: round2(stoch.K),
			D: round2(stoch.D),
		},
	}, nil
}

func round2(v float64) float64 {
	return models.Round(v, 2)
}
