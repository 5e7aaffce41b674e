package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/skalibog/marketsnap/internal/analysis/aggregator"
	"github.com/skalibog/marketsnap/internal/chart"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/internal/exchange"
	"github.com/skalibog/marketsnap/internal/news"
	"github.com/skalibog/marketsnap/internal/notify"
	"github.com/skalibog/marketsnap/internal/portfolio"
	"github.com/skalibog/marketsnap/internal/sentiment"
	"github.com/skalibog/marketsnap/internal/storage"
	"github.com/skalibog/marketsnap/internal/trade"
	"github.com/skalibog/marketsnap/internal/ui"
	"github.com/skalibog/marketsnap/pkg/logger"
	"github.com/skalibog/marketsnap/pkg/models"
	"go.uber.org/zap"
)

var timeNow = time.Now

// command выполняет подкоманду и возвращает значение для вывода в stdout
type command func(ctx context.Context, cfg *config.Config, args []string) (interface{}, error)

var commands = map[string]command{
	"market":    runMarket,
	"news":      runNews,
	"feargreed": runFearGreed,
	"portfolio": runPortfolio,
	"chart":     runChart,
	"notify":    runNotify,
	"trade":     runTrade,
	"history":   runHistory,
	"watch":     runWatch,
}

func marketArg(cfg *config.Config, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.Exchange.Market
}

// newAssembler создает сборщик снимков; архив подключается, только если включен и доступен
func newAssembler(ctx context.Context, cfg *config.Config) (*aggregator.Assembler, func(), error) {
	collector, err := exchange.NewCollector(cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var opts []aggregator.Option
	if cfg.Storage.Enabled {
		store, err := storage.NewInfluxDBStorage(ctx, cfg.Storage)
		if err != nil {
			logger.Warn("Архив снимков недоступен, продолжаем без него", zap.Error(err))
		} else {
			opts = append(opts, aggregator.WithArchive(store))
			cleanup = store.Close
		}
	}
	return aggregator.NewAssembler(cfg.Analysis, collector, opts...), cleanup, nil
}

func runMarket(ctx context.Context, cfg *config.Config, args []string) (interface{}, error) {
	assembler, cleanup, err := newAssembler(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return assembler.Build(ctx, marketArg(cfg, args))
}

func runNews(ctx context.Context, cfg *config.Config, args []string) (interface{}, error) {
	var query string
	if len(args) > 0 {
		query = args[0]
	}
	return news.NewTavilyClient(cfg.News).Collect(ctx, query)
}

func runFearGreed(ctx context.Context, cfg *config.Config, args []string) (interface{}, error) {
	return sentiment.NewFearGreedClient(cfg.Sentiment).Collect(ctx)
}

func runPortfolio(ctx context.Context, cfg *config.Config, args []string) (interface{}, error) {
	client := exchange.NewUpbitClient(cfg.Upbit, exchange.LimitsFrom(cfg.Exchange))
	return portfolio.NewService(client).Get(ctx)
}

func runChart(ctx context.Context, cfg *config.Config, args []string) (interface{}, error) {
	return chart.NewCapturer(cfg.Chart).Capture(ctx)
}

func runNotify(ctx context.Context, cfg *config.Config, args []string) (interface{}, error) {
	if len(args) < 2 || (args[0] != "photo" && len(args) < 3) {
		return nil, fmt.Errorf("%w: notify TYPE TITLE BODY или notify photo PATH [CAPTION]", errUsage)
	}
	notifier, err := notify.NewTelegramNotifier(cfg.Telegram)
	if err != nil {
		return nil, err
	}
	if args[0] == "photo" {
		var caption string
		if len(args) > 2 {
			caption = args[2]
		}
		return notifier.SendPhoto(ctx, args[1], caption)
	}
	return notifier.Send(ctx, args[0], args[1], args[2])
}

func runTrade(ctx context.Context, cfg *config.Config, args []string) (interface{}, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("%w: trade bid|ask MARKET AMOUNT", errUsage)
	}
	client := exchange.NewUpbitClient(cfg.Upbit, exchange.LimitsFrom(cfg.Exchange))
	return trade.NewExecutor(cfg.Trading, client).Execute(ctx, args[0], args[1], args[2])
}

func runHistory(ctx context.Context, cfg *config.Config, args []string) (interface{}, error) {
	flags := flag.NewFlagSet("history", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	limit := flags.Int("limit", 20, "количество снимков")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if !cfg.Storage.Enabled {
		return nil, fmt.Errorf("архив снимков выключен: storage.enabled = false")
	}

	store, err := storage.NewInfluxDBStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	market := marketArg(cfg, flags.Args())
	points, err := store.GetHistory(ctx, market, *limit)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []storage.HistoryPoint{}
	}
	return &storage.History{
		Timestamp: models.FormatKST(timeNow()),
		Market:    market,
		Points:    points,
	}, nil
}

func runWatch(ctx context.Context, cfg *config.Config, args []string) (interface{}, error) {
	assembler, cleanup, err := newAssembler(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := ui.NewTermUI(cfg.UI, cfg.Log.JSONFile, assembler, marketArg(cfg, args)).Run(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}
