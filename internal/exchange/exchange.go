package exchange

import (
	"context"
	"fmt"

	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/models"
)

// MarketData сырые данные рынка, нужные для одного снимка.
// Свечи передаются в том порядке, в котором их вернула биржа.
type MarketData struct {
	Ticker    models.Ticker
	Daily     []models.Candle
	FourHour  []models.Candle
	OrderBook models.OrderBook
	Trades    []models.Trade
}

// Collector загружает рыночные данные для инструмента
type Collector interface {
	Collect(ctx context.Context, market string) (*MarketData, error)
}

// Limits количество запрашиваемых свечей и сделок
type Limits struct {
	Daily    int
	FourHour int
	Trades   int
}

// LimitsFrom берет лимиты из конфигурации
func LimitsFrom(cfg config.ExchangeConfig) Limits {
	return Limits{
		Daily:    cfg.DailyCount,
		FourHour: cfg.FourHourCount,
		Trades:   cfg.TradeCount,
	}
}

// NewCollector создает сборщик для источника из конфигурации
func NewCollector(cfg *config.Config) (Collector, error) {
	limits := LimitsFrom(cfg.Exchange)
	switch cfg.Exchange.Source {
	case "upbit":
		return NewUpbitClient(cfg.Upbit, limits), nil
	case "binance":
		return NewBinanceClient(cfg.Binance, limits)
	default:
		return nil, fmt.Errorf("неизвестный источник данных: %q", cfg.Exchange.Source)
	}
}
