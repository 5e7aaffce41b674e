package orderbook

import (
	"fmt"
	"math"

	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/models"
)

// Analyzer сводит стакан заявок к объемам и соотношению bid/ask
type Analyzer struct {
	config config.OrderBookConfig
}

// NewAnalyzer создает новый анализатор стакана заявок
func NewAnalyzer(cfg config.OrderBookConfig) *Analyzer {
	return &Analyzer{
		config: cfg,
	}
}

// Summarize возвращает суммарные объемы и их соотношение.
// Знаменатель ограничен снизу epsilon, чтобы пустая сторона ask не давала деления на ноль.
func (a *Analyzer) Summarize(ob models.OrderBook) (models.OrderBookSummary, error) {
	for name, v := range map[string]float64{"total_bid_size": ob.TotalBidSize, "total_ask_size": ob.TotalAskSize} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return models.OrderBookSummary{}, fmt.Errorf("некорректный объем стакана %s: %v", name, v)
		}
	}

	epsilon := a.config.Epsilon
	if epsilon <= 0 {
		epsilon = 1e-8
	}
	ratio := ob.TotalBidSize / math.Max(ob.TotalAskSize, epsilon)

	return models.OrderBookSummary{
		BidTotal: ob.TotalBidSize,
		AskTotal: ob.TotalAskSize,
		Ratio:    models.Round(ratio, 4),
	}, nil
}
