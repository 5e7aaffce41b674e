package technical

import (
	"fmt"
	"math"
)

const DefaultStochasticPeriod = 14

// StochasticValue значения стохастического осциллятора.
// D равен K: сигнальная линия (SMA нескольких последних K) требует
// истории между вызовами, которой здесь нет.
type StochasticValue struct {
	K float64
	D float64
}

// Stochastic положение последнего закрытия в диапазоне high/low последних period свечей.
// При вырожденном диапазоне (high == low) K = 50.
func Stochastic(highs, lows, closes []float64, period int) (StochasticValue, error) {
	if err := checkPeriod(period); err != nil {
		return StochasticValue{}, err
	}
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return StochasticValue{}, fmt.Errorf("%w: длины рядов различаются: highs=%d lows=%d closes=%d",
			ErrInvalidInput, len(highs), len(lows), len(closes))
	}
	for _, s := range [][]float64{highs, lows, closes} {
		if err := checkSeries(s); err != nil {
			return StochasticValue{}, err
		}
	}
	if len(closes) < period {
		return StochasticValue{}, fmt.Errorf("%w: стохастик требует %d значений, получено %d", ErrInsufficientData, period, len(closes))
	}

	h := math.Inf(-1)
	for _, v := range tail(highs, period) {
		h = math.Max(h, v)
	}
	l := math.Inf(1)
	for _, v := range tail(lows, period) {
		l = math.Min(l, v)
	}
	c := closes[len(closes)-1]

	k := 50.0
	if h != l {
		k = (c - l) / (h - l) * 100
		// закрытие за пределами диапазона окна возможно только при несогласованных данных
		k = math.Max(0, math.Min(100, k))
	}
	return StochasticValue{K: k, D: k}, nil
}
