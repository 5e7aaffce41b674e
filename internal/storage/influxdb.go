// internal/storage/influxdb.go
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/models"
)

const measurement = "snapshots"

// HistoryPoint сохраненные значения одного снимка
type HistoryPoint struct {
	Timestamp     string  `json:"timestamp"`
	CurrentPrice  float64 `json:"current_price"`
	ChangeRate24h float64 `json:"change_rate_24h"`
	SMA20         float64 `json:"sma_20"`
	EMA10         float64 `json:"ema_10"`
	RSI14         float64 `json:"rsi_14"`
	MACD          float64 `json:"macd"`
	StochasticK   float64 `json:"stochastic_k"`
	OrderBookRate float64 `json:"orderbook_ratio"`
}

// History ответ подкоманды history
type History struct {
	Timestamp string         `json:"timestamp"`
	Market    string         `json:"market"`
	Points    []HistoryPoint `json:"points"`
}

// InfluxDBStorage архив снимков в InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(ctx context.Context, cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBStorage{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Organization),
		writeAPI: client.WriteAPIBlocking(cfg.Organization, cfg.Bucket),
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// SaveSnapshot сохраняет ключевые значения снимка одной точкой
func (s *InfluxDBStorage) SaveSnapshot(ctx context.Context, snapshot *models.MarketSnapshot) error {
	ts, err := time.Parse(models.TimestampLayout, snapshot.Timestamp)
	if err != nil {
		return fmt.Errorf("некорректное время снимка %q: %w", snapshot.Timestamp, err)
	}

	ind := snapshot.Indicators
	point := influxdb2.NewPoint(
		measurement,
		map[string]string{
			"market": snapshot.Market,
		},
		map[string]interface{}{
			"current_price":   snapshot.CurrentPrice,
			"change_rate_24h": snapshot.ChangeRate24h,
			"volume_24h":      snapshot.Volume24h,
			"sma_20":          ind.SMA20,
			"ema_10":          ind.EMA10,
			"rsi_14":          ind.RSI14,
			"macd":            ind.MACD.MACD,
			"macd_signal":     ind.MACD.Signal,
			"bb_upper":        ind.Bollinger.Upper,
			"bb_lower":        ind.Bollinger.Lower,
			"stochastic_k":    ind.Stochastic.K,
			"orderbook_ratio": snapshot.OrderBook.Ratio,
			"buy_volume":      snapshot.TradePressure.BuyVolume,
			"sell_volume":     snapshot.TradePressure.SellVolume,
		},
		ts,
	)

	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("ошибка записи снимка: %w", err)
	}
	return nil
}

// GetHistory получает последние сохраненные снимки, от новых к старым
func (s *InfluxDBStorage) GetHistory(ctx context.Context, market string, limit int) ([]HistoryPoint, error) {
	// Формируем Flux-запрос
	query := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -30d)
			|> filter(fn: (r) => r._measurement == "%s")
			|> filter(fn: (r) => r.market == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> keep(columns: ["_time", "current_price", "change_rate_24h", "sma_20", "ema_10", "rsi_14", "macd", "stochastic_k", "orderbook_ratio"])
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, s.bucket, measurement, escapeFlux(market), limit)

	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории: %w", err)
	}
	defer result.Close()

	var points []HistoryPoint
	for result.Next() {
		record := result.Record()
		points = append(points, HistoryPoint{
			Timestamp:     models.FormatKST(record.Time()),
			CurrentPrice:  floatValue(record.ValueByKey("current_price")),
			ChangeRate24h: floatValue(record.ValueByKey("change_rate_24h")),
			SMA20:         floatValue(record.ValueByKey("sma_20")),
			EMA10:         floatValue(record.ValueByKey("ema_10")),
			RSI14:         floatValue(record.ValueByKey("rsi_14")),
			MACD:          floatValue(record.ValueByKey("macd")),
			StochasticK:   floatValue(record.ValueByKey("stochastic_k")),
			OrderBookRate: floatValue(record.ValueByKey("orderbook_ratio")),
		})
	}

	// Проверяем на ошибки при обработке результатов
	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}

	return points, nil
}

func floatValue(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func escapeFlux(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
