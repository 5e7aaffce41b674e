package technical

import "fmt"

const (
	DefaultMACDFast = 12
	DefaultMACDSlow = 26
	// DefaultSignalRatio сигнальная линия берется как доля текущего MACD.
	// Это приближение 9-периодной EMA от истории MACD: история между
	// вызовами не хранится.
	DefaultSignalRatio = 0.8
)

// MACDValue значения MACD с полной точностью
type MACDValue struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD считает MACD(12, 26) с сигналом 0.8*MACD
func MACD(series []float64) (MACDValue, error) {
	return MACDWith(series, DefaultMACDFast, DefaultMACDSlow, DefaultSignalRatio)
}

// MACDWith считает MACD с заданными периодами и коэффициентом сигнала.
// Требует не меньше slow наблюдений.
func MACDWith(series []float64, fast, slow int, signalRatio float64) (MACDValue, error) {
	if err := checkPeriod(fast); err != nil {
		return MACDValue{}, err
	}
	if err := checkPeriod(slow); err != nil {
		return MACDValue{}, err
	}
	if fast >= slow {
		return MACDValue{}, fmt.Errorf("%w: быстрый период %d должен быть меньше медленного %d", ErrInvalidInput, fast, slow)
	}
	if err := checkSeries(series); err != nil {
		return MACDValue{}, err
	}
	if len(series) < slow {
		return MACDValue{}, fmt.Errorf("%w: MACD требует %d значений, получено %d", ErrInsufficientData, slow, len(series))
	}

	m := ema(series, fast) - ema(series, slow)
	s := m * signalRatio
	return MACDValue{MACD: m, Signal: s, Histogram: m - s}, nil
}
