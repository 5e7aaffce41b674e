package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir изолирует .env и файлы логов от рабочего каталога
func inTempDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func errorMessage(t *testing.T, stderr string) string {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace([]byte(stderr)), []byte("\n"))
	var out map[string]string
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out["error"]
}

func TestRunWithoutCommand(t *testing.T) {
	inTempDir(t)
	code, stdout, stderr := runCLI(t)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, errorMessage(t, stderr), "не указана команда")
}

func TestRunUnknownCommand(t *testing.T) {
	inTempDir(t)
	code, _, stderr := runCLI(t, "launch")
	assert.Equal(t, 1, code)
	assert.Contains(t, errorMessage(t, stderr), "launch")
}

func TestRunInvalidConfig(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("exchange:\n  source: kraken\n"), 0o644))

	code, _, stderr := runCLI(t, "market")
	assert.Equal(t, 1, code)
	assert.Contains(t, errorMessage(t, stderr), "kraken")
}

func TestRunTradeDryRun(t *testing.T) {
	inTempDir(t)
	t.Setenv("DRY_RUN", "true")
	t.Setenv("EMERGENCY_STOP", "false")

	code, stdout, _ := runCLI(t, "trade", "bid", "KRW-BTC", "10000")
	require.Equal(t, 0, code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, true, out["success"])
	assert.Equal(t, true, out["dry_run"])
	assert.Equal(t, "bid", out["side"])
	assert.Equal(t, "10000", out["amount"])
	assert.NotContains(t, out, "error")
}

func TestRunTradeEmergencyStopExitsWithError(t *testing.T) {
	inTempDir(t)
	t.Setenv("EMERGENCY_STOP", "true")

	code, stdout, _ := runCLI(t, "trade", "ask", "KRW-BTC", "0.001")
	assert.Equal(t, 1, code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], "EMERGENCY_STOP")
}

func TestRunTradeUsage(t *testing.T) {
	inTempDir(t)
	code, _, stderr := runCLI(t, "trade", "bid")
	assert.Equal(t, 1, code)
	assert.Contains(t, errorMessage(t, stderr), "trade bid|ask")
}

func TestRunNotifyUnconfigured(t *testing.T) {
	inTempDir(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_USER_ID", "")

	code, _, stderr := runCLI(t, "notify", "status", "title", "body")
	assert.Equal(t, 1, code)
	assert.Contains(t, errorMessage(t, stderr), "TELEGRAM_BOT_TOKEN")
}

func TestRunHistoryDisabled(t *testing.T) {
	inTempDir(t)
	code, _, stderr := runCLI(t, "history", "-limit", "5")
	assert.Equal(t, 1, code)
	assert.Contains(t, errorMessage(t, stderr), "storage.enabled")
}
