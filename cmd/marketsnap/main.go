package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/logger"
	"go.uber.org/zap"
)

const usage = `marketsnap [-config config.yaml] <команда> [аргументы]

Команды:
  market [MARKET]                 снимок рынка с индикаторами
  news [QUERY]                    новости за последние сутки
  feargreed                       индекс страха и жадности
  portfolio                       оценка портфеля Upbit
  chart                           скриншот графика
  notify TYPE TITLE BODY          уведомление в Telegram (trade|analysis|error|status)
  notify photo PATH [CAPTION]     изображение в Telegram
  trade bid|ask MARKET AMOUNT     рыночный ордер с проверками безопасности
  history [-limit N] [MARKET]     сохраненные снимки из InfluxDB
  watch [MARKET]                  панель наблюдения в терминале
`

// errUsage неверные аргументы команды
var errUsage = errors.New("неверные аргументы")

// failedResult результат, который печатается в stdout, но завершает процесс с кодом 1
type failedResult interface {
	Failed() bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Обработка флагов командной строки
	flags := flag.NewFlagSet("marketsnap", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := flags.String("config", "config.yaml", "путь к файлу конфигурации")
	if err := flags.Parse(args); err != nil {
		return writeError(stderr, err)
	}
	if flags.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return writeError(stderr, fmt.Errorf("%w: не указана команда", errUsage))
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		return writeError(stderr, err)
	}
	if err := cfg.Validate(); err != nil {
		return writeError(stderr, fmt.Errorf("некорректная конфигурация: %w", err))
	}

	if err := logger.Init(cfg.Log); err != nil {
		return writeError(stderr, fmt.Errorf("ошибка инициализации логгера: %w", err))
	}
	defer logger.Sync()

	name, cmdArgs := flags.Arg(0), flags.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		return writeError(stderr, fmt.Errorf("%w: неизвестная команда %q", errUsage, name))
	}

	logger.Info("Запуск команды", zap.String("command", name), zap.Strings("args", cmdArgs))
	result, err := cmd(ctx, cfg, cmdArgs)
	if err != nil {
		logger.Error("Команда завершилась с ошибкой", zap.String("command", name), zap.Error(err))
		return writeError(stderr, err)
	}
	if result == nil {
		return 0
	}

	if err := writeJSON(stdout, result); err != nil {
		return writeError(stderr, err)
	}
	if f, ok := result.(failedResult); ok && f.Failed() {
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeError(w io.Writer, err error) int {
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	return 1
}
