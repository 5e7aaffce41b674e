// Package technical вычисляет технические индикаторы по ряду цен.
//
// Все функции чистые: не изменяют вход, не хранят состояние между вызовами
// и ожидают ряд, упорядоченный от старых значений к новым. Значения
// возвращаются с полной точностью, округление выполняет Analyzer.
package technical

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput пустой ряд, нечисловые значения или некорректный период
	ErrInvalidInput = errors.New("некорректные входные данные")
	// ErrInsufficientData в ряду меньше наблюдений, чем требует окно индикатора
	ErrInsufficientData = errors.New("недостаточно данных")
)

// checkSeries отклоняет пустой ряд и значения NaN/Inf
func checkSeries(series []float64) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: пустой ряд", ErrInvalidInput)
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: значение %v в позиции %d", ErrInvalidInput, v, i)
		}
	}
	return nil
}

func checkPeriod(period int) error {
	if period < 1 {
		return fmt.Errorf("%w: период должен быть >= 1, получено %d", ErrInvalidInput, period)
	}
	return nil
}

// tail возвращает последние n элементов (весь ряд, если он короче)
func tail(series []float64, n int) []float64 {
	if n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}

// Mean среднее арифметическое
func Mean(xs []float64) (float64, error) {
	if err := checkSeries(xs); err != nil {
		return 0, err
	}
	return mean(xs), nil
}

// Variance дисперсия генеральной совокупности (деление на n)
func Variance(xs []float64) (float64, error) {
	if err := checkSeries(xs); err != nil {
		return 0, err
	}
	return variance(xs, mean(xs)), nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64, m float64) float64 {
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}
