package chart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/logger"
	"github.com/skalibog/marketsnap/pkg/models"
	"go.uber.org/zap"
)

const navigateTimeout = 30 * time.Second

// screenshotFunc снимает страницу и возвращает PNG
type screenshotFunc func(ctx context.Context, url string, width, height int, wait time.Duration) ([]byte, error)

// Capturer делает скриншот графика в headless Chrome
type Capturer struct {
	config config.ChartConfig
	shoot  screenshotFunc
	clock  models.Clock
}

// NewCapturer создает Capturer
func NewCapturer(cfg config.ChartConfig) *Capturer {
	return &Capturer{
		config: cfg,
		shoot:  chromeScreenshot,
		clock:  time.Now,
	}
}

// Capture сохраняет скриншот в <dir>/btc_chart_YYYYMMDD_HHMMSS.png
func (c *Capturer) Capture(ctx context.Context) (*models.ChartCapture, error) {
	dir, err := filepath.Abs(c.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("некорректный каталог графиков: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога %s: %w", dir, err)
	}

	now := c.clock()
	path := filepath.Join(dir, fmt.Sprintf("btc_chart_%s.png", now.In(models.KST).Format("20060102_150405")))

	wait := time.Duration(c.config.WaitSeconds) * time.Second
	png, err := c.shoot(ctx, c.config.URL, c.config.Width, c.config.Height, wait)
	if err != nil {
		return nil, fmt.Errorf("ошибка снятия графика: %w", err)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return nil, fmt.Errorf("ошибка сохранения графика: %w", err)
	}

	logger.Info("График сохранен", zap.String("path", path), zap.Int("bytes", len(png)))
	return &models.ChartCapture{
		Timestamp: models.FormatKST(now),
		ChartPath: path,
	}, nil
}

func chromeScreenshot(ctx context.Context, url string, width, height int, wait time.Duration) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(width, height),
		chromedp.Flag("lang", "ko-KR"),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, navigateTimeout+wait)
	defer cancelTimeout()

	var buf []byte
	err := chromedp.Run(taskCtx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(url),
		// ждем отрисовки графика
		chromedp.Sleep(wait),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
