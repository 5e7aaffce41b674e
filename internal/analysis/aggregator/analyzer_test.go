package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/skalibog/marketsnap/internal/analysis/technical"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/internal/exchange"
	"github.com/skalibog/marketsnap/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCollector struct {
	data *exchange.MarketData
	err  error
	hits int
}

func (s *stubCollector) Collect(ctx context.Context, market string) (*exchange.MarketData, error) {
	s.hits++
	return s.data, s.err
}

type stubArchive struct {
	saved []*models.MarketSnapshot
	err   error
}

func (s *stubArchive) SaveSnapshot(ctx context.Context, snapshot *models.MarketSnapshot) error {
	s.saved = append(s.saved, snapshot)
	return s.err
}

var fixedNow = time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)

// newestFirst строит свечи в порядке Upbit: от новых к старым
func newestFirst(closes []float64) []models.Candle {
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[len(closes)-1-i] = models.Candle{
			Market:    "KRW-BTC",
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    10,
			Timestamp: int64(i+1) * 1000,
		}
	}
	return candles
}

func rising(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func testData() *exchange.MarketData {
	return &exchange.MarketData{
		Ticker: models.Ticker{
			Market:           "KRW-BTC",
			TradePrice:       129,
			SignedChangeRate: 0.0078,
			AccTradeVolume24: 321.5,
		},
		Daily:     newestFirst(rising(30)),
		FourHour:  newestFirst(rising(42)),
		OrderBook: models.OrderBook{Market: "KRW-BTC", TotalBidSize: 12.5, TotalAskSize: 10},
		Trades: []models.Trade{
			{Volume: 1.5, Side: models.SideBid},
			{Volume: 0.5, Side: models.SideAsk},
		},
	}
}

func newTestAssembler(c exchange.Collector, opts ...Option) *Assembler {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewAssembler(config.Default().Analysis, c, opts...)
}

func TestAssemble(t *testing.T) {
	snap, err := newTestAssembler(nil).Assemble("KRW-BTC", testData())
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01T09:30:00+09:00", snap.Timestamp)
	assert.Equal(t, "KRW-BTC", snap.Market)
	assert.Equal(t, 129.0, snap.CurrentPrice)
	assert.Equal(t, 0.0078, snap.ChangeRate24h)
	assert.Equal(t, 321.5, snap.Volume24h)

	// последние 20 закрытий: 110..129
	assert.Equal(t, 119.5, snap.Indicators.SMA20)
	assert.Equal(t, 100.0, snap.Indicators.RSI14)
	assert.Greater(t, snap.Indicators.MACD.MACD, 0.0)
	assert.InDelta(t, snap.Indicators.MACD.MACD*0.8, snap.Indicators.MACD.Signal, 0.01)
	// окно 14 свечей: high 130, low 115, close 129
	assert.Equal(t, 93.33, snap.Indicators.Stochastic.K)
	assert.Equal(t, snap.Indicators.Stochastic.K, snap.Indicators.Stochastic.D)

	assert.Equal(t, models.OrderBookSummary{BidTotal: 12.5, AskTotal: 10, Ratio: 1.25}, snap.OrderBook)
	assert.Equal(t, models.TradePressure{BuyVolume: 1.5, SellVolume: 0.5}, snap.TradePressure)

	require.Len(t, snap.CandlesDaily, 30)
	require.Len(t, snap.Candles4h, 42)
	for i := 1; i < len(snap.CandlesDaily); i++ {
		assert.Less(t, snap.CandlesDaily[i-1].Timestamp, snap.CandlesDaily[i].Timestamp)
	}
	assert.Equal(t, 100.0, snap.CandlesDaily[0].Close)
	assert.Equal(t, 141.0, snap.Candles4h[41].Close)
}

func TestAssembleDoesNotMutateInput(t *testing.T) {
	data := testData()
	first := data.Daily[0]

	_, err := newTestAssembler(nil).Assemble("KRW-BTC", data)
	require.NoError(t, err)
	assert.Equal(t, first, data.Daily[0])
}

func TestAssembleOrderIndependent(t *testing.T) {
	a := newTestAssembler(nil)
	newest, err := a.Assemble("KRW-BTC", testData())
	require.NoError(t, err)

	data := testData()
	for i, j := 0, len(data.Daily)-1; i < j; i, j = i+1, j-1 {
		data.Daily[i], data.Daily[j] = data.Daily[j], data.Daily[i]
	}
	oldest, err := a.Assemble("KRW-BTC", data)
	require.NoError(t, err)

	assert.Equal(t, newest.Indicators, oldest.Indicators)
}

func TestAssembleJSONShape(t *testing.T) {
	snap, err := newTestAssembler(nil).Assemble("KRW-BTC", testData())
	require.NoError(t, err)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	for _, key := range []string{"timestamp", "market", "current_price", "change_rate_24h", "volume_24h",
		"indicators", "orderbook", "trade_pressure", "candles_daily", "candles_4h"} {
		assert.Contains(t, out, key)
	}
	indicators := out["indicators"].(map[string]interface{})
	for _, key := range []string{"sma_20", "ema_10", "rsi_14", "macd", "bollinger", "stochastic"} {
		assert.Contains(t, indicators, key)
	}
}

func TestAssembleErrors(t *testing.T) {
	a := newTestAssembler(nil)

	t.Run("нет дневных свечей", func(t *testing.T) {
		data := testData()
		data.Daily = nil
		_, err := a.Assemble("KRW-BTC", data)
		require.ErrorIs(t, err, technical.ErrInsufficientData)
	})

	t.Run("мало свечей для MACD", func(t *testing.T) {
		data := testData()
		data.Daily = newestFirst(rising(20))
		snap, err := a.Assemble("KRW-BTC", data)
		require.ErrorIs(t, err, technical.ErrInsufficientData)
		assert.Nil(t, snap)
	})

	t.Run("NaN в свече", func(t *testing.T) {
		data := testData()
		data.Daily[3].Close = math.NaN()
		_, err := a.Assemble("KRW-BTC", data)
		require.ErrorIs(t, err, technical.ErrInvalidInput)
	})

	t.Run("отрицательный объем 4h", func(t *testing.T) {
		data := testData()
		data.FourHour[0].Volume = -1
		_, err := a.Assemble("KRW-BTC", data)
		require.ErrorIs(t, err, technical.ErrInvalidInput)
	})

	t.Run("неизвестная сторона сделки", func(t *testing.T) {
		data := testData()
		data.Trades = append(data.Trades, models.Trade{Volume: 1, Side: "MID"})
		_, err := a.Assemble("KRW-BTC", data)
		require.Error(t, err)
	})

	t.Run("nil", func(t *testing.T) {
		_, err := a.Assemble("KRW-BTC", nil)
		require.Error(t, err)
	})
}

func TestBuild(t *testing.T) {
	collector := &stubCollector{data: testData()}
	archive := &stubArchive{}

	snap, err := newTestAssembler(collector, WithArchive(archive)).Build(context.Background(), "KRW-BTC")
	require.NoError(t, err)
	assert.Equal(t, 1, collector.hits)
	require.Len(t, archive.saved, 1)
	assert.Same(t, snap, archive.saved[0])
}

func TestBuildArchiveFailureKeepsSnapshot(t *testing.T) {
	archive := &stubArchive{err: errors.New("influx down")}

	snap, err := newTestAssembler(&stubCollector{data: testData()}, WithArchive(archive)).
		Build(context.Background(), "KRW-BTC")
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestBuildCollectorError(t *testing.T) {
	archive := &stubArchive{}
	_, err := newTestAssembler(&stubCollector{err: errors.New("timeout")}, WithArchive(archive)).
		Build(context.Background(), "KRW-BTC")
	require.Error(t, err)
	assert.Empty(t, archive.saved)
}
