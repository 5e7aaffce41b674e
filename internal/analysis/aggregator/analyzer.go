package aggregator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/skalibog/marketsnap/internal/analysis/orderbook"
	"github.com/skalibog/marketsnap/internal/analysis/technical"
	"github.com/skalibog/marketsnap/internal/analysis/volumedelta"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/internal/exchange"
	"github.com/skalibog/marketsnap/pkg/logger"
	"github.com/skalibog/marketsnap/pkg/models"
	"go.uber.org/zap"
)

// Archive принимает готовые снимки (например, InfluxDB)
type Archive interface {
	SaveSnapshot(ctx context.Context, snapshot *models.MarketSnapshot) error
}

// Assembler собирает снимок рынка из сырых данных биржи
type Assembler struct {
	collector       exchange.Collector
	archive         Archive
	clock           models.Clock
	technicalAnal   *technical.Analyzer
	orderbookAnal   *orderbook.Analyzer
	volumeDeltaAnal *volumedelta.Analyzer
}

// Option настраивает Assembler
type Option func(*Assembler)

// WithArchive сохраняет каждый успешно собранный снимок
func WithArchive(archive Archive) Option {
	return func(a *Assembler) {
		a.archive = archive
	}
}

// WithClock подменяет источник времени
func WithClock(clock models.Clock) Option {
	return func(a *Assembler) {
		a.clock = clock
	}
}

// NewAssembler создает сборщик снимков
func NewAssembler(cfg config.AnalysisConfig, collector exchange.Collector, opts ...Option) *Assembler {
	a := &Assembler{
		collector:       collector,
		clock:           time.Now,
		technicalAnal:   technical.NewAnalyzer(cfg.Technical),
		orderbookAnal:   orderbook.NewAnalyzer(cfg.OrderBook),
		volumeDeltaAnal: volumedelta.NewAnalyzer(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build загружает данные и собирает снимок. Ошибка архива не отменяет результат.
func (a *Assembler) Build(ctx context.Context, market string) (*models.MarketSnapshot, error) {
	if a.collector == nil {
		return nil, fmt.Errorf("источник рыночных данных не задан")
	}
	data, err := a.collector.Collect(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки данных %s: %w", market, err)
	}

	snapshot, err := a.Assemble(market, data)
	if err != nil {
		return nil, err
	}

	if a.archive != nil {
		if err := a.archive.SaveSnapshot(ctx, snapshot); err != nil {
			logger.Warn("Предупреждение: снимок не сохранен в архив",
				zap.String("market", market),
				zap.Error(err))
		}
	}
	return snapshot, nil
}

// Assemble собирает снимок из уже загруженных данных.
// Возвращает либо полный снимок, либо ошибку.
func (a *Assembler) Assemble(market string, data *exchange.MarketData) (*models.MarketSnapshot, error) {
	if data == nil {
		return nil, fmt.Errorf("нет данных для %s", market)
	}
	if len(data.Daily) == 0 {
		return nil, fmt.Errorf("дневные свечи для %s: %w", market, technical.ErrInsufficientData)
	}

	daily, err := ordered(data.Daily)
	if err != nil {
		return nil, fmt.Errorf("дневные свечи: %w", err)
	}
	fourHour, err := ordered(data.FourHour)
	if err != nil {
		return nil, fmt.Errorf("4-часовые свечи: %w", err)
	}

	indicators, err := a.technicalAnal.Compute(daily)
	if err != nil {
		logger.Warn("Предупреждение: технический анализ недоступен",
			zap.String("market", market),
			zap.Int("candles", len(daily)),
			zap.Error(err))
		return nil, fmt.Errorf("индикаторы: %w", err)
	}
	logger.Debug("AGGREGATOR: Технический анализ завершен",
		zap.String("market", market),
		zap.Float64("rsi", indicators.RSI14))

	book, err := a.orderbookAnal.Summarize(data.OrderBook)
	if err != nil {
		return nil, fmt.Errorf("стакан: %w", err)
	}

	pressure, err := a.volumeDeltaAnal.Pressure(data.Trades)
	if err != nil {
		return nil, fmt.Errorf("давление сделок: %w", err)
	}

	return &models.MarketSnapshot{
		Timestamp:     models.FormatKST(a.clock()),
		Market:        market,
		CurrentPrice:  data.Ticker.TradePrice,
		ChangeRate24h: data.Ticker.SignedChangeRate,
		Volume24h:     data.Ticker.AccTradeVolume24,
		Indicators:    indicators,
		OrderBook:     book,
		TradePressure: pressure,
		CandlesDaily:  daily,
		Candles4h:     fourHour,
	}, nil
}

// ordered копирует свечи, проверяет значения и сортирует от старых к новым
func ordered(candles []models.Candle) ([]models.Candle, error) {
	out := make([]models.Candle, len(candles))
	copy(out, candles)
	for i, c := range out {
		for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("свеча %d (%s): некорректное значение %v: %w",
					i, c.DateTime, v, technical.ErrInvalidInput)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}
