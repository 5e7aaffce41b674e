package chart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skalibog/marketsnap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCapturer(t *testing.T, shoot screenshotFunc) (*Capturer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "charts")
	cfg := config.Default().Chart
	cfg.Dir = dir
	c := NewCapturer(cfg)
	c.shoot = shoot
	c.clock = func() time.Time { return time.Date(2024, 3, 1, 0, 30, 5, 0, time.UTC) }
	return c, dir
}

func TestCapture(t *testing.T) {
	var (
		gotURL  string
		gotW    int
		gotH    int
		gotWait time.Duration
	)
	c, dir := newTestCapturer(t, func(ctx context.Context, url string, w, h int, wait time.Duration) ([]byte, error) {
		gotURL, gotW, gotH, gotWait = url, w, h, wait
		return []byte("\x89PNG"), nil
	})

	res, err := c.Capture(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://upbit.com/full_chart?code=CRIX.UPBIT.KRW-BTC", gotURL)
	assert.Equal(t, 1920, gotW)
	assert.Equal(t, 1080, gotH)
	assert.Equal(t, 5*time.Second, gotWait)

	assert.Equal(t, "2024-03-01T09:30:05+09:00", res.Timestamp)
	assert.Equal(t, filepath.Join(dir, "btc_chart_20240301_093005.png"), res.ChartPath)
	data, err := os.ReadFile(res.ChartPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data)
}

func TestCaptureError(t *testing.T) {
	c, dir := newTestCapturer(t, func(context.Context, string, int, int, time.Duration) ([]byte, error) {
		return nil, errors.New("chrome not found")
	})

	_, err := c.Capture(context.Background())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
