package ui

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skalibog/marketsnap/internal/analysis/volumedelta"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/logger"
	"github.com/skalibog/marketsnap/pkg/models"
	"go.uber.org/zap"
)

// Стили UI
var (
	// Основные цвета
	primaryColor   = lipgloss.Color("#0077cc")
	secondaryColor = lipgloss.Color("#333333")
	errorColor     = lipgloss.Color("#cc3300")
	successColor   = lipgloss.Color("#33cc33")
	warningColor   = lipgloss.Color("#cccc00")

	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1).
			Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(secondaryColor).
			Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Padding(0, 1)
)

const maxLogLines = 50

// SnapshotSource собирает свежий снимок рынка
type SnapshotSource interface {
	Build(ctx context.Context, market string) (*models.MarketSnapshot, error)
}

// TermUI терминальная панель наблюдения за рынком
type TermUI struct {
	source  SnapshotSource
	market  string
	refresh time.Duration
	logFile string
}

// Сообщения для обновления UI
type (
	refreshMsg  struct{}
	logTickMsg  struct{}
	snapshotMsg struct {
		snapshot *models.MarketSnapshot
		err      error
	}
	logsMsg []string
)

// bubbleModel модель для bubbletea
type bubbleModel struct {
	ui       *TermUI
	ctx      context.Context
	snapshot *models.MarketSnapshot
	lastErr  error
	updated  time.Time
	loading  bool
	logs     []string
	width    int
	height   int
}

// NewTermUI создает панель наблюдения
func NewTermUI(cfg config.UIConfig, logFile string, source SnapshotSource, market string) *TermUI {
	refresh := time.Duration(cfg.RefreshSeconds) * time.Second
	if refresh <= 0 {
		refresh = time.Minute
	}
	return &TermUI{
		source:  source,
		market:  market,
		refresh: refresh,
		logFile: logFile,
	}
}

// Run запускает UI и блокируется до выхода пользователя или отмены ctx
func (ui *TermUI) Run(ctx context.Context) error {
	model := ui.newModel(ctx)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ошибка запуска UI: %w", err)
	}
	return nil
}

func (ui *TermUI) newModel(ctx context.Context) bubbleModel {
	return bubbleModel{
		ui:      ui,
		ctx:     ctx,
		loading: true,
		logs:    []string{"marketsnap запущен. Ожидание данных..."},
		width:   120,
		height:  40,
	}
}

func (ui *TermUI) fetch(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		snap, err := ui.source.Build(ctx, ui.market)
		return snapshotMsg{snapshot: snap, err: err}
	}
}

func (ui *TermUI) readLogs() tea.Cmd {
	return func() tea.Msg {
		lines, err := loadLogsFromFile(ui.logFile)
		if err != nil {
			logger.Warn("Ошибка загрузки логов", zap.Error(err))
			return nil
		}
		return logsMsg(lines)
	}
}

// Методы для bubbletea
func (m bubbleModel) Init() tea.Cmd {
	return tea.Batch(m.ui.fetch(m.ctx), m.ui.readLogs(), logTick())
}

func (m bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.ui.fetch(m.ctx)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotMsg:
		m.loading = false
		m.updated = time.Now()
		if msg.err != nil {
			m.lastErr = msg.err
			logger.Error("Ошибка обновления снимка", zap.String("market", m.ui.market), zap.Error(msg.err))
		} else {
			m.lastErr = nil
			m.snapshot = msg.snapshot
		}
		return m, tea.Tick(m.ui.refresh, func(time.Time) tea.Msg { return refreshMsg{} })

	case refreshMsg:
		if !m.loading {
			m.loading = true
			return m, m.ui.fetch(m.ctx)
		}

	case logTickMsg:
		return m, tea.Batch(m.ui.readLogs(), logTick())

	case logsMsg:
		if len(msg) > 0 {
			m.logs = msg
		}
	}

	return m, nil
}

func (m bubbleModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("marketsnap - %s", m.ui.market))
	footer := footerStyle.Render("Клавиши: R - обновить, Q - выход")

	return appStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			renderSnapshotSection(m.snapshot, m.lastErr, m.loading),
			"\n",
			renderLogsSection(m.logs, m.height),
			"\n",
			footer,
		),
	)
}

func logTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return logTickMsg{} })
}

func renderSnapshotSection(snap *models.MarketSnapshot, lastErr error, loading bool) string {
	header := headerStyle.Render("РЫНОК")
	content := strings.Builder{}

	switch {
	case snap == nil && lastErr != nil:
		content.WriteString(lipgloss.NewStyle().Foreground(errorColor).Render("  Ошибка: "+lastErr.Error()) + "\n")
	case snap == nil:
		content.WriteString("  Ожидание данных...\n")
	default:
		ind := snap.Indicators
		fmt.Fprintf(&content, "  Цена: %s  24ч: %s  Объем 24ч: %.4f\n",
			formatNumber(snap.CurrentPrice), formatChange(snap.ChangeRate24h), snap.Volume24h)
		fmt.Fprintf(&content, "  SMA20: %s  EMA10: %s  RSI14: %s\n",
			formatNumber(ind.SMA20), formatNumber(ind.EMA10), formatRSI(ind.RSI14))
		fmt.Fprintf(&content, "  MACD: %.2f  Сигнал: %.2f  Гистограмма: %.2f\n",
			ind.MACD.MACD, ind.MACD.Signal, ind.MACD.Histogram)
		fmt.Fprintf(&content, "  Боллинджер: %s / %s / %s\n",
			formatNumber(ind.Bollinger.Upper), formatNumber(ind.Bollinger.Middle), formatNumber(ind.Bollinger.Lower))
		fmt.Fprintf(&content, "  Стохастик %%K: %.2f  %%D: %.2f\n", ind.Stochastic.K, ind.Stochastic.D)
		fmt.Fprintf(&content, "  Стакан bid/ask: %.4f  Дельта сделок: %s\n",
			snap.OrderBook.Ratio, formatDelta(volumedelta.Delta(snap.TradePressure)))
		fmt.Fprintf(&content, "  Обновлено: %s", snap.Timestamp)
		if loading {
			content.WriteString("  (обновление...)")
		}
		content.WriteString("\n")
		if lastErr != nil {
			content.WriteString(lipgloss.NewStyle().Foreground(warningColor).Render("  Последнее обновление не удалось: "+lastErr.Error()) + "\n")
		}
	}

	return sectionStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			content.String(),
		),
	)
}

func renderLogsSection(logs []string, height int) string {
	header := headerStyle.Render("ЛОГИ")
	content := strings.Builder{}

	// остальное место занимают заголовок и блок рынка
	maxLogsToShow := height - 22
	if maxLogsToShow < 6 {
		maxLogsToShow = 6
	}
	start := max(0, len(logs)-maxLogsToShow)

	for _, log := range logs[start:] {
		// Выделение по уровню логирования
		switch {
		case strings.Contains(log, "[ERROR]"):
			log = lipgloss.NewStyle().Foreground(errorColor).Render(log)
		case strings.Contains(log, "[INFO]"):
			log = lipgloss.NewStyle().Foreground(successColor).Render(log)
		case strings.Contains(log, "[WARN]"):
			log = lipgloss.NewStyle().Foreground(warningColor).Render(log)
		case strings.Contains(log, "[DEBUG]"):
			log = lipgloss.NewStyle().Foreground(lipgloss.Color("#9999ff")).Render(log)
		}
		content.WriteString("  " + log + "\n")
	}

	return sectionStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			content.String(),
		),
	)
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatChange(rate float64) string {
	text := fmt.Sprintf("%+.2f%%", rate*100)
	switch {
	case rate > 0:
		return lipgloss.NewStyle().Foreground(successColor).Render(text)
	case rate < 0:
		return lipgloss.NewStyle().Foreground(errorColor).Render(text)
	default:
		return text
	}
}

func formatRSI(rsi float64) string {
	text := fmt.Sprintf("%.2f", rsi)
	switch {
	case rsi >= 70:
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true).Render(text)
	case rsi <= 30:
		return lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(text)
	default:
		return text
	}
}

func formatDelta(delta float64) string {
	text := fmt.Sprintf("%+.2f", delta)
	switch {
	case delta > 0:
		return lipgloss.NewStyle().Foreground(successColor).Render(text)
	case delta < 0:
		return lipgloss.NewStyle().Foreground(errorColor).Render(text)
	default:
		return lipgloss.NewStyle().Foreground(warningColor).Render(text)
	}
}

// Регулярное выражение для удаления ANSI-цветов
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// loadLogsFromFile читает последние записи JSON-лога. Отсутствующий файл не ошибка.
func loadLogsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var logs []string
	for scanner.Scan() {
		logs = append(logs, formatLogLine(scanner.Text()))
		if len(logs) > maxLogLines {
			logs = logs[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// formatLogLine приводит запись zap к виду "[15:04:05] [LEVEL] msg (key: value)"
func formatLogLine(line string) string {
	var zapLog map[string]interface{}
	if err := json.Unmarshal([]byte(line), &zapLog); err != nil {
		// Не удалось распарсить JSON, добавляем как есть
		return line
	}

	level, _ := zapLog["level"].(string)
	ts, _ := zapLog["ts"].(string)
	msg, _ := zapLog["msg"].(string)
	level = ansiRegex.ReplaceAllString(level, "")

	timestamp := ""
	if t, err := time.Parse(logger.TimeLayout, ts); err == nil {
		timestamp = t.Format("15:04:05")
	}

	formatted := fmt.Sprintf("[%s] [%s] %s", timestamp, level, msg)

	keys := make([]string, 0, len(zapLog))
	for k := range zapLog {
		if k != "level" && k != "ts" && k != "msg" && k != "caller" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		formatted += fmt.Sprintf(" (%s: %v)", k, zapLog[k])
	}
	return formatted
}
