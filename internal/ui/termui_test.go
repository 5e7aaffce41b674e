package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	snap *models.MarketSnapshot
	err  error
}

func (s *stubSource) Build(ctx context.Context, market string) (*models.MarketSnapshot, error) {
	return s.snap, s.err
}

func testSnapshot() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Timestamp:     "2024-03-01T09:30:00+09:00",
		Market:        "KRW-BTC",
		CurrentPrice:  95000000,
		ChangeRate24h: 0.0123,
		Indicators:    models.IndicatorSet{RSI14: 72.5, SMA20: 94000000},
		OrderBook:     models.OrderBookSummary{Ratio: 1.25},
		TradePressure: models.TradePressure{BuyVolume: 3, SellVolume: 1},
	}
}

func TestFormatLogLine(t *testing.T) {
	line := `{"level":"INFO","ts":"01.03.2024 - 09:30:05.000000000+09:00","caller":"x.go:1","msg":"Новости собраны","query":"btc","count":3}`
	assert.Equal(t, "[09:30:05] [INFO] Новости собраны (count: 3) (query: btc)", formatLogLine(line))
	assert.Equal(t, "plain text", formatLogLine("plain text"))
}

func TestLoadLogsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json.log")
	var b strings.Builder
	for i := 0; i < maxLogLines+10; i++ {
		fmt.Fprintf(&b, `{"level":"INFO","ts":"","msg":"m%d"}`+"\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	logs, err := loadLogsFromFile(path)
	require.NoError(t, err)
	require.Len(t, logs, maxLogLines)
	assert.Equal(t, "[] [INFO] m59", logs[len(logs)-1])

	logs, err = loadLogsFromFile(filepath.Join(t.TempDir(), "missing.log"))
	require.NoError(t, err)
	assert.Nil(t, logs)
}

func TestModelSnapshotFlow(t *testing.T) {
	ui := NewTermUI(config.UIConfig{RefreshSeconds: 5}, "", &stubSource{snap: testSnapshot()}, "KRW-BTC")
	m := ui.newModel(context.Background())
	assert.Contains(t, m.View(), "Ожидание данных")

	msg := ui.fetch(context.Background())()
	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)

	view := next.(bubbleModel).View()
	assert.Contains(t, view, "95000000.00")
	assert.Contains(t, view, "72.50")
	assert.Contains(t, view, "1.2500")
	assert.Contains(t, view, "+0.50")
}

func TestModelKeepsLastSnapshotOnError(t *testing.T) {
	ui := NewTermUI(config.UIConfig{}, "", &stubSource{}, "KRW-BTC")
	m := ui.newModel(context.Background())

	next, _ := m.Update(snapshotMsg{snapshot: testSnapshot()})
	next, _ = next.(bubbleModel).Update(refreshMsg{})
	next, _ = next.(bubbleModel).Update(snapshotMsg{err: errors.New("timeout")})

	bm := next.(bubbleModel)
	assert.NotNil(t, bm.snapshot)
	assert.Contains(t, bm.View(), "timeout")
	assert.Contains(t, bm.View(), "95000000.00")
}

func TestModelQuit(t *testing.T) {
	ui := NewTermUI(config.UIConfig{}, "", &stubSource{}, "KRW-BTC")
	_, cmd := ui.newModel(context.Background()).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
