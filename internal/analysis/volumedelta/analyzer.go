// internal/analysis/volumedelta/analyzer.go
package volumedelta

import (
	"fmt"
	"math"

	"github.com/skalibog/marketsnap/pkg/models"
)

// Analyzer делит объем последних сделок на покупки и продажи
type Analyzer struct{}

// NewAnalyzer создает новый анализатор дельты объемов
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Pressure суммирует объем по стороне агрессора: BID - покупка, ASK - продажа.
// Неизвестная сторона считается ошибкой данных.
func (a *Analyzer) Pressure(trades []models.Trade) (models.TradePressure, error) {
	var p models.TradePressure
	for i, t := range trades {
		if math.IsNaN(t.Volume) || math.IsInf(t.Volume, 0) || t.Volume < 0 {
			return models.TradePressure{}, fmt.Errorf("сделка %d: некорректный объем %v", i, t.Volume)
		}
		switch t.Side {
		case models.SideBid:
			p.BuyVolume += t.Volume
		case models.SideAsk:
			p.SellVolume += t.Volume
		default:
			return models.TradePressure{}, fmt.Errorf("сделка %d: неизвестная сторона %q", i, t.Side)
		}
	}
	return p, nil
}

// Delta разница объемов покупок и продаж, нормированная к [-1, 1]
func Delta(p models.TradePressure) float64 {
	total := p.BuyVolume + p.SellVolume
	if total == 0 {
		return 0
	}
	return (p.BuyVolume - p.SellVolume) / total
}
