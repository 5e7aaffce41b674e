package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/logger"
	"github.com/skalibog/marketsnap/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const binanceTestnetURL = "https://testnet.binance.vision"

// BinanceClient клиент спотового рынка Binance
type BinanceClient struct {
	spot   *binance.Client
	limits Limits
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig, limits Limits) (*BinanceClient, error) {
	spotClient := binance.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.Testnet {
		spotClient.BaseURL = binanceTestnetURL
	}
	return &BinanceClient{
		spot:   spotClient,
		limits: limits,
	}, nil
}

// Symbol переводит обозначение рынка Upbit (QUOTE-BASE) в символ Binance (BASEQUOTE)
func Symbol(market string) string {
	parts := strings.SplitN(market, "-", 2)
	if len(parts) != 2 {
		return strings.ToUpper(market)
	}
	return strings.ToUpper(parts[1] + parts[0])
}

// Collect параллельно загружает данные спотового рынка Binance
func (c *BinanceClient) Collect(ctx context.Context, market string) (*MarketData, error) {
	symbol := Symbol(market)
	var data MarketData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := c.GetTicker(gctx, symbol)
		if err != nil {
			return err
		}
		data.Ticker = *t
		return nil
	})
	g.Go(func() error {
		candles, err := c.GetKlines(gctx, symbol, "1d", c.limits.Daily)
		data.Daily = candles
		return err
	})
	g.Go(func() error {
		candles, err := c.GetKlines(gctx, symbol, "4h", c.limits.FourHour)
		data.FourHour = candles
		return err
	})
	g.Go(func() error {
		ob, err := c.GetOrderBook(gctx, symbol, 100)
		if err != nil {
			return err
		}
		data.OrderBook = *ob
		return nil
	})
	g.Go(func() error {
		trades, err := c.GetTrades(gctx, symbol, c.limits.Trades)
		data.Trades = trades
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Данные Binance загружены",
		zap.String("symbol", symbol),
		zap.Int("daily", len(data.Daily)),
		zap.Int("four_hour", len(data.FourHour)))
	return &data, nil
}

// GetTicker получает статистику за 24 часа
func (c *BinanceClient) GetTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	stats, err := c.spot.NewListPriceChangeStatsService().
		Symbol(symbol).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики 24ч: %w", err)
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("статистика для %s не найдена", symbol)
	}
	return convertTicker(symbol, stats[0])
}

// GetKlines получает исторические свечи
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	klines, err := c.spot.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения свечей %s: %w", interval, err)
	}
	return convertKlines(symbol, klines)
}

// GetOrderBook получает стакан заявок и суммирует объемы сторон
func (c *BinanceClient) GetOrderBook(ctx context.Context, symbol string, limit int) (*models.OrderBook, error) {
	ob, err := c.spot.NewDepthService().
		Symbol(symbol).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения стакана: %w", err)
	}

	bids := make([]string, len(ob.Bids))
	for i, bid := range ob.Bids {
		bids[i] = bid.Quantity
	}
	asks := make([]string, len(ob.Asks))
	for i, ask := range ob.Asks {
		asks[i] = ask.Quantity
	}
	return sumDepth(symbol, bids, asks)
}

// GetTrades получает последние сделки
func (c *BinanceClient) GetTrades(ctx context.Context, symbol string, limit int) ([]models.Trade, error) {
	trades, err := c.spot.NewRecentTradesService().
		Symbol(symbol).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сделок: %w", err)
	}
	return convertTrades(trades)
}

func convertTicker(symbol string, s *binance.PriceChangeStats) (*models.Ticker, error) {
	price, err := parseFloat("lastPrice", s.LastPrice)
	if err != nil {
		return nil, err
	}
	percent, err := parseFloat("priceChangePercent", s.PriceChangePercent)
	if err != nil {
		return nil, err
	}
	volume, err := parseFloat("volume", s.Volume)
	if err != nil {
		return nil, err
	}
	return &models.Ticker{
		Market:           symbol,
		TradePrice:       price,
		SignedChangeRate: percent / 100,
		AccTradeVolume24: volume,
	}, nil
}

func convertKlines(symbol string, klines []*binance.Kline) ([]models.Candle, error) {
	candles := make([]models.Candle, len(klines))
	for i, k := range klines {
		var (
			c   = models.Candle{Market: symbol, Timestamp: k.OpenTime}
			err error
		)
		openTime := time.UnixMilli(k.OpenTime)
		c.DateTimeUTC = openTime.UTC().Format("2006-01-02T15:04:05")
		c.DateTime = openTime.In(models.KST).Format("2006-01-02T15:04:05")
		if c.Open, err = parseFloat("open", k.Open); err != nil {
			return nil, err
		}
		if c.High, err = parseFloat("high", k.High); err != nil {
			return nil, err
		}
		if c.Low, err = parseFloat("low", k.Low); err != nil {
			return nil, err
		}
		if c.Close, err = parseFloat("close", k.Close); err != nil {
			return nil, err
		}
		if c.Volume, err = parseFloat("volume", k.Volume); err != nil {
			return nil, err
		}
		if c.AccTradePrice, err = parseFloat("quote volume", k.QuoteAssetVolume); err != nil {
			return nil, err
		}
		candles[i] = c
	}
	return candles, nil
}

func convertTrades(trades []*binance.Trade) ([]models.Trade, error) {
	out := make([]models.Trade, len(trades))
	for i, t := range trades {
		price, err := parseFloat("price", t.Price)
		if err != nil {
			return nil, err
		}
		qty, err := parseFloat("qty", t.Quantity)
		if err != nil {
			return nil, err
		}
		// покупатель-мейкер значит агрессор продавал
		side := models.SideBid
		if t.IsBuyerMaker {
			side = models.SideAsk
		}
		out[i] = models.Trade{
			Price:     price,
			Volume:    qty,
			Side:      side,
			Timestamp: t.Time,
		}
	}
	return out, nil
}

func sumDepth(symbol string, bids, asks []string) (*models.OrderBook, error) {
	ob := &models.OrderBook{Market: symbol}
	for _, q := range bids {
		v, err := parseFloat("bid", q)
		if err != nil {
			return nil, err
		}
		ob.TotalBidSize += v
	}
	for _, q := range asks {
		v, err := parseFloat("ask", q)
		if err != nil {
			return nil, err
		}
		ob.TotalAskSize += v
	}
	return ob, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("поле %s: %w", field, err)
	}
	return v, nil
}
