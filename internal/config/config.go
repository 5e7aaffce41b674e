package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/skalibog/marketsnap/pkg/logger"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Upbit     UpbitConfig     `yaml:"upbit"`
	Binance   BinanceConfig   `yaml:"binance"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	News      NewsConfig      `yaml:"news"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Chart     ChartConfig     `yaml:"chart"`
	Trading   TradingConfig   `yaml:"trading"`
	Storage   StorageConfig   `yaml:"storage"`
	UI        UIConfig        `yaml:"ui"`
	Log       logger.Config   `yaml:"log"`
}

// ExchangeConfig выбор источника рыночных данных
type ExchangeConfig struct {
	Source        string `yaml:"source"`
	Market        string `yaml:"market"`
	DailyCount    int    `yaml:"daily_count"`
	FourHourCount int    `yaml:"four_hour_count"`
	TradeCount    int    `yaml:"trade_count"`
}

// UpbitConfig содержит настройки подключения к Upbit
type UpbitConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
}

// AnalysisConfig содержит настройки аналитических модулей
type AnalysisConfig struct {
	Technical TechnicalConfig `yaml:"technical"`
	OrderBook OrderBookConfig `yaml:"orderbook"`
}

// TechnicalConfig периоды технических индикаторов
type TechnicalConfig struct {
	SMAPeriod        int     `yaml:"sma_period"`
	EMAPeriod        int     `yaml:"ema_period"`
	RSIPeriod        int     `yaml:"rsi_period"`
	BBPeriod         int     `yaml:"bb_period"`
	BBMultiplier     float64 `yaml:"bb_multiplier"`
	StochasticPeriod int     `yaml:"stochastic_period"`
	MACDFast         int     `yaml:"macd_fast"`
	MACDSlow         int     `yaml:"macd_slow"`
	MACDSignalRatio  float64 `yaml:"macd_signal_ratio"`
}

// OrderBookConfig настройки сводки стакана
type OrderBookConfig struct {
	Epsilon float64 `yaml:"epsilon"`
}

// NewsConfig настройки поиска новостей
type NewsConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Query      string `yaml:"query"`
	MaxResults int    `yaml:"max_results"`
	Days       int    `yaml:"days"`
}

// SentimentConfig настройки индекса страха и жадности
type SentimentConfig struct {
	URL   string `yaml:"url"`
	Limit int    `yaml:"limit"`
}

// TelegramConfig настройки уведомлений
type TelegramConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	UserID string `yaml:"user_id"`
}

// ChartConfig настройки снятия графика
type ChartConfig struct {
	URL         string `yaml:"url"`
	Dir         string `yaml:"dir"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	WaitSeconds int    `yaml:"wait_seconds"`
}

// TradingConfig защитные ограничения торговли
type TradingConfig struct {
	DryRun         bool  `yaml:"dry_run"`
	EmergencyStop  bool  `yaml:"emergency_stop"`
	MaxTradeAmount int64 `yaml:"max_trade_amount"`
}

// StorageConfig настройки архива снимков
type StorageConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// UIConfig настройки пользовательского интерфейса
type UIConfig struct {
	RefreshSeconds int `yaml:"refresh_seconds"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			Source:        "upbit",
			Market:        "KRW-BTC",
			DailyCount:    30,
			FourHourCount: 42,
			TradeCount:    100,
		},
		Upbit: UpbitConfig{
			BaseURL:        "https://api.upbit.com/v1",
			TimeoutSeconds: 10,
		},
		Analysis: AnalysisConfig{
			Technical: TechnicalConfig{
				SMAPeriod:        20,
				EMAPeriod:        10,
				RSIPeriod:        14,
				BBPeriod:         20,
				BBMultiplier:     2,
				StochasticPeriod: 14,
				MACDFast:         12,
				MACDSlow:         26,
				MACDSignalRatio:  0.8,
			},
			OrderBook: OrderBookConfig{Epsilon: 1e-8},
		},
		News: NewsConfig{
			URL:        "https://api.tavily.com",
			Query:      "비트코인 Bitcoin BTC 시장",
			MaxResults: 10,
			Days:       1,
		},
		Sentiment: SentimentConfig{
			URL:   "https://api.alternative.me",
			Limit: 7,
		},
		Telegram: TelegramConfig{URL: "https://api.telegram.org"},
		Chart: ChartConfig{
			URL:         "https://upbit.com/full_chart?code=CRIX.UPBIT.KRW-BTC",
			Dir:         "data/charts",
			Width:       1920,
			Height:      1080,
			WaitSeconds: 5,
		},
		Trading: TradingConfig{
			DryRun:         true,
			MaxTradeAmount: 100000,
		},
		Storage: StorageConfig{
			URL:    "http://localhost:8086",
			Bucket: "marketsnap",
		},
		UI: UIConfig{RefreshSeconds: 60},
		Log: logger.Config{
			Level:    "info",
			File:     "app.log",
			JSONFile: "app.json.log",
			Truncate: true,
		},
	}
}

// Load загружает конфигурацию из файла поверх значений по умолчанию,
// затем применяет .env и переменные окружения. Отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка загрузки .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv переопределяет секреты и защитные флаги из окружения
func (c *Config) applyEnv() error {
	setString(&c.Upbit.AccessKey, "UPBIT_ACCESS_KEY")
	setString(&c.Upbit.SecretKey, "UPBIT_SECRET_KEY")
	setString(&c.Binance.APIKey, "BINANCE_API_KEY")
	setString(&c.Binance.APISecret, "BINANCE_API_SECRET")
	setString(&c.News.APIKey, "TAVILY_API_KEY")
	setString(&c.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.UserID, "TELEGRAM_USER_ID")
	setString(&c.Storage.Token, "INFLUX_TOKEN")

	var errs error
	errs = multierr.Append(errs, setBool(&c.Trading.DryRun, "DRY_RUN"))
	errs = multierr.Append(errs, setBool(&c.Trading.EmergencyStop, "EMERGENCY_STOP"))
	if v, ok := os.LookupEnv("MAX_TRADE_AMOUNT"); ok && v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("MAX_TRADE_AMOUNT: %w", err))
		} else {
			c.Trading.MaxTradeAmount = n
		}
	}
	return errs
}

// Validate проверяет конфигурацию и возвращает все найденные проблемы сразу
func (c *Config) Validate() error {
	var errs error
	switch c.Exchange.Source {
	case "upbit", "binance":
	default:
		errs = multierr.Append(errs, fmt.Errorf("exchange.source: неизвестный источник %q", c.Exchange.Source))
	}
	if c.Exchange.Market == "" {
		errs = multierr.Append(errs, errors.New("exchange.market: не задан"))
	}
	if c.Exchange.DailyCount < 1 || c.Exchange.FourHourCount < 1 || c.Exchange.TradeCount < 1 {
		errs = multierr.Append(errs, errors.New("exchange: количество свечей и сделок должно быть положительным"))
	}

	t := c.Analysis.Technical
	for name, p := range map[string]int{
		"sma_period":        t.SMAPeriod,
		"ema_period":        t.EMAPeriod,
		"rsi_period":        t.RSIPeriod,
		"bb_period":         t.BBPeriod,
		"stochastic_period": t.StochasticPeriod,
		"macd_fast":         t.MACDFast,
		"macd_slow":         t.MACDSlow,
	} {
		if p < 1 {
			errs = multierr.Append(errs, fmt.Errorf("analysis.technical.%s: период должен быть >= 1, получено %d", name, p))
		}
	}
	if t.MACDFast >= t.MACDSlow {
		errs = multierr.Append(errs, fmt.Errorf("analysis.technical: macd_fast (%d) должен быть меньше macd_slow (%d)", t.MACDFast, t.MACDSlow))
	}
	if c.Analysis.OrderBook.Epsilon <= 0 {
		errs = multierr.Append(errs, errors.New("analysis.orderbook.epsilon: должен быть положительным"))
	}
	if c.Trading.MaxTradeAmount < 0 {
		errs = multierr.Append(errs, errors.New("trading.max_trade_amount: не может быть отрицательным"))
	}
	if c.Storage.Enabled && (c.Storage.URL == "" || c.Storage.Bucket == "") {
		errs = multierr.Append(errs, errors.New("storage: для архива нужны url и bucket"))
	}
	return errs
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		return fmt.Errorf("%s: ожидается true/false, получено %q", key, v)
	}
	return nil
}
