package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/logger"
	"github.com/skalibog/marketsnap/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UpbitClient клиент REST API Upbit
type UpbitClient struct {
	http      *resty.Client
	accessKey string
	secretKey string
	limits    Limits
}

// NewUpbitClient создает новый клиент Upbit
func NewUpbitClient(cfg config.UpbitConfig, limits Limits) *UpbitClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &UpbitClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		limits:    limits,
	}
}

// Collect параллельно загружает тикер, свечи, стакан и ленту сделок.
// Любая ошибка отменяет остальные запросы: частичный результат не возвращается.
func (c *UpbitClient) Collect(ctx context.Context, market string) (*MarketData, error) {
	var data MarketData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := c.GetTicker(gctx, market)
		if err != nil {
			return err
		}
		data.Ticker = *t
		return nil
	})
	g.Go(func() error {
		candles, err := c.GetDailyCandles(gctx, market, c.limits.Daily)
		data.Daily = candles
		return err
	})
	g.Go(func() error {
		candles, err := c.GetMinuteCandles(gctx, market, 240, c.limits.FourHour)
		data.FourHour = candles
		return err
	})
	g.Go(func() error {
		ob, err := c.GetOrderBook(gctx, market)
		if err != nil {
			return err
		}
		data.OrderBook = *ob
		return nil
	})
	g.Go(func() error {
		trades, err := c.GetTrades(gctx, market, c.limits.Trades)
		data.Trades = trades
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Данные Upbit загружены",
		zap.String("market", market),
		zap.Int("daily", len(data.Daily)),
		zap.Int("four_hour", len(data.FourHour)),
		zap.Int("trades", len(data.Trades)))
	return &data, nil
}

// GetTicker получает текущую цену и изменение за 24 часа
func (c *UpbitClient) GetTicker(ctx context.Context, market string) (*models.Ticker, error) {
	tickers, err := c.GetTickers(ctx, []string{market})
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("тикер для %s не найден", market)
	}
	return &tickers[0], nil
}

// GetTickers получает тикеры нескольких рынков одним запросом
func (c *UpbitClient) GetTickers(ctx context.Context, markets []string) ([]models.Ticker, error) {
	var tickers []models.Ticker
	if err := c.get(ctx, "/ticker", map[string]string{"markets": strings.Join(markets, ",")}, &tickers); err != nil {
		return nil, fmt.Errorf("ошибка получения тикера: %w", err)
	}
	return tickers, nil
}

// GetDailyCandles получает дневные свечи (Upbit отдает от новых к старым)
func (c *UpbitClient) GetDailyCandles(ctx context.Context, market string, count int) ([]models.Candle, error) {
	var candles []models.Candle
	params := map[string]string{"market": market, "count": strconv.Itoa(count)}
	if err := c.get(ctx, "/candles/days", params, &candles); err != nil {
		return nil, fmt.Errorf("ошибка получения дневных свечей: %w", err)
	}
	return candles, nil
}

// GetMinuteCandles получает минутные свечи с шагом unit минут
func (c *UpbitClient) GetMinuteCandles(ctx context.Context, market string, unit, count int) ([]models.Candle, error) {
	var candles []models.Candle
	params := map[string]string{"market": market, "count": strconv.Itoa(count)}
	if err := c.get(ctx, fmt.Sprintf("/candles/minutes/%d", unit), params, &candles); err != nil {
		return nil, fmt.Errorf("ошибка получения %d-минутных свечей: %w", unit, err)
	}
	return candles, nil
}

// GetOrderBook получает сводку стакана
func (c *UpbitClient) GetOrderBook(ctx context.Context, market string) (*models.OrderBook, error) {
	var books []models.OrderBook
	if err := c.get(ctx, "/orderbook", map[string]string{"markets": market}, &books); err != nil {
		return nil, fmt.Errorf("ошибка получения стакана: %w", err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("стакан заявок для %s не найден", market)
	}
	return &books[0], nil
}

// GetTrades получает последние сделки
func (c *UpbitClient) GetTrades(ctx context.Context, market string, count int) ([]models.Trade, error) {
	var trades []models.Trade
	params := map[string]string{"market": market, "count": strconv.Itoa(count)}
	if err := c.get(ctx, "/trades/ticks", params, &trades); err != nil {
		return nil, fmt.Errorf("ошибка получения сделок: %w", err)
	}
	return trades, nil
}

// Account остаток по валюте на счете
type Account struct {
	Currency     string `json:"currency"`
	Balance      string `json:"balance"`
	Locked       string `json:"locked"`
	AvgBuyPrice  string `json:"avg_buy_price"`
	UnitCurrency string `json:"unit_currency"`
}

// GetAccounts получает остатки счета (требует ключи API)
func (c *UpbitClient) GetAccounts(ctx context.Context) ([]Account, error) {
	auth, err := c.authorization("")
	if err != nil {
		return nil, err
	}
	var accounts []Account
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		ForceContentType("application/json").
		SetResult(&accounts).
		Get("/accounts")
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса счетов: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ошибка запроса счетов: статус %d: %s", resp.StatusCode(), resp.String())
	}
	return accounts, nil
}

// OrderResponse ответ биржи на размещение ордера
type OrderResponse struct {
	OK         bool
	StatusCode int
	Body       json.RawMessage
}

// PlaceOrder отправляет ордер. Ответ с ошибкой биржи возвращается в OrderResponse,
// ошибка функции означает сбой транспорта или подписи.
func (c *UpbitClient) PlaceOrder(ctx context.Context, params Params) (*OrderResponse, error) {
	auth, err := c.authorization(params.Encode())
	if err != nil {
		return nil, err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetHeader("Content-Type", "application/json").
		SetBody(params.Map()).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки ордера: %w", err)
	}
	return &OrderResponse{
		OK:         !resp.IsError(),
		StatusCode: resp.StatusCode(),
		Body:       json.RawMessage(resp.Body()),
	}, nil
}

// get выполняет публичный GET-запрос и декодирует JSON в out
func (c *UpbitClient) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		ForceContentType("application/json").
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("запрос %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("запрос %s: статус %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}
