package technical

// SMA простое скользящее среднее последних period значений.
// Если ряд короче периода, окно сокращается до всего ряда.
func SMA(series []float64, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if err := checkSeries(series); err != nil {
		return 0, err
	}
	return mean(tail(series, period)), nil
}

// EMA экспоненциальное скользящее среднее по всему ряду.
// Начальное значение равно series[0] (а не SMA первого окна), поэтому
// результат зависит от порядка: ряд обязан идти от старых цен к новым.
func EMA(series []float64, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if err := checkSeries(series); err != nil {
		return 0, err
	}
	return ema(series, period), nil
}

func ema(series []float64, period int) float64 {
	k := 2 / float64(period+1)
	value := series[0]
	for _, p := range series[1:] {
		value = p*k + value*(1-k)
	}
	return value
}
