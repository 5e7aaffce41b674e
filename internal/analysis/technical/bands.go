package technical

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
)

const (
	DefaultBollingerPeriod     = 20
	DefaultBollingerMultiplier = 2.0
)

// BollingerBands полосы Боллинджера
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger считает полосы с множителем 2 по последним period значениям.
// Дисперсия генеральная (деление на period). Требует не меньше period значений.
func Bollinger(series []float64, period int) (BollingerBands, error) {
	return BollingerWith(series, period, DefaultBollingerMultiplier)
}

// BollingerWith то же, что Bollinger, с произвольным множителем
func BollingerWith(series []float64, period int, multiplier float64) (BollingerBands, error) {
	if err := checkPeriod(period); err != nil {
		return BollingerBands{}, err
	}
	if err := checkSeries(series); err != nil {
		return BollingerBands{}, err
	}
	if len(series) < period {
		return BollingerBands{}, fmt.Errorf("%w: полосы Боллинджера требуют %d значений, получено %d", ErrInsufficientData, period, len(series))
	}
	if multiplier < 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return BollingerBands{}, fmt.Errorf("%w: множитель %v", ErrInvalidInput, multiplier)
	}

	// talib считает по последнему окну, берем последнюю точку
	upper, middle, lower := talib.BBands(tail(series, period), period, multiplier, multiplier, talib.SMA)
	last := len(middle) - 1
	return BollingerBands{
		Upper:  upper[last],
		Middle: middle[last],
		Lower:  lower[last],
	}, nil
}
