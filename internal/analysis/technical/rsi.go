package technical

// NeutralRSI возвращается, когда для расчета RSI не хватает данных
const NeutralRSI = 50.0

// RSI индекс относительной силы со сглаживанием Уайлдера.
// При len(series) < period+1 возвращает NeutralRSI без ошибки.
func RSI(series []float64, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if err := checkSeries(series); err != nil {
		return 0, err
	}
	if len(series) < period+1 {
		return NeutralRSI, nil
	}

	// Начальные средние: простое среднее первых period изменений
	var gains, losses float64
	for i := 1; i <= period; i++ {
		d := series[i] - series[i-1]
		if d >= 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	p := float64(period)
	avgGain, avgLoss := gains/p, losses/p

	// Сглаживание Уайлдера для остальных изменений
	for i := period + 1; i < len(series); i++ {
		gain, loss := 0.0, 0.0
		if d := series[i] - series[i-1]; d >= 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		return 100, nil
	}
	return 100 - 100/(1+avgGain/avgLoss), nil
}
