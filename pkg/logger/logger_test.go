package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json.log")
	t.Cleanup(func() { SetLogger(nil) })

	require.NoError(t, Init(Config{
		Level:    "info",
		File:     filepath.Join(dir, "app.log"),
		JSONFile: jsonPath,
		Truncate: true,
	}))

	Debug("скрыто")
	Info("снимок собран", zap.String("market", "KRW-BTC"))
	Sync()

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, "снимок собран", entry["msg"])
	require.Equal(t, "KRW-BTC", entry["market"])
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	require.Error(t, err)
}

func TestGetLoggerWithoutInit(t *testing.T) {
	SetLogger(nil)
	require.NotNil(t, GetLogger())
	Info("не падает без инициализации")
}
