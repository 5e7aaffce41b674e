package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/logger"
	"github.com/skalibog/marketsnap/pkg/models"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// ErrNotConfigured токен бота или получатель не заданы
var ErrNotConfigured = errors.New("TELEGRAM_BOT_TOKEN или TELEGRAM_USER_ID не заданы")

var emoji = map[string]string{
	"trade":    "💰",
	"analysis": "📊",
	"error":    "🚨",
	"status":   "📋",
}

const defaultEmoji = "💬"

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramNotifier отправляет уведомления одному пользователю
type TelegramNotifier struct {
	sender messageSender
	chat   *tele.Chat
	clock  models.Clock
}

// NewTelegramNotifier создает бота без long polling: нужна только отправка
func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	if cfg.Token == "" || cfg.UserID == "" {
		return nil, ErrNotConfigured
	}
	chatID, err := strconv.ParseInt(cfg.UserID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("некорректный TELEGRAM_USER_ID %q: %w", cfg.UserID, err)
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.URL,
		Token:   cfg.Token,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram бота: %w", err)
	}
	return newNotifier(b, chatID), nil
}

func newNotifier(sender messageSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		chat:   &tele.Chat{ID: chatID},
		clock:  time.Now,
	}
}

// Send отправляет сообщение типа trade|analysis|error|status в MarkdownV2
func (n *TelegramNotifier) Send(ctx context.Context, msgType, title, body string) (*models.NotifyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := Format(msgType, title, body, n.clock())
	if _, err := n.sender.Send(n.chat, text, &tele.SendOptions{ParseMode: tele.ModeMarkdownV2}); err != nil {
		return nil, fmt.Errorf("ошибка отправки в Telegram: %w", err)
	}
	logger.Info("Уведомление отправлено", zap.String("type", msgType), zap.String("title", title))
	return &models.NotifyResult{Success: true, Type: msgType, Title: title}, nil
}

// SendPhoto отправляет изображение с подписью
func (n *TelegramNotifier) SendPhoto(ctx context.Context, path, caption string) (*models.NotifyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("изображение недоступно: %w", err)
	}
	photo := &tele.Photo{File: tele.FromDisk(path), Caption: caption}
	if _, err := n.sender.Send(n.chat, photo); err != nil {
		return nil, fmt.Errorf("ошибка отправки изображения в Telegram: %w", err)
	}
	logger.Info("Изображение отправлено", zap.String("path", path))
	return &models.NotifyResult{Success: true, Type: "photo", Path: path}, nil
}

// Format собирает текст сообщения: эмодзи, заголовок жирным, тело и время KST курсивом
func Format(msgType, title, body string, now time.Time) string {
	e, ok := emoji[msgType]
	if !ok {
		e = defaultEmoji
	}
	ts := now.In(models.KST).Format("2006-01-02 15:04:05") + " KST"
	return fmt.Sprintf("%s *%s*\n\n%s\n\n_%s_", e, EscapeMarkdown(title), EscapeMarkdown(body), EscapeMarkdown(ts))
}

var markdownReplacer = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"~", `\~`,
	"`", "\\`",
	">", `\>`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	"=", `\=`,
	"|", `\|`,
	"{", `\{`,
	"}", `\}`,
	".", `\.`,
	"!", `\!`,
)

// EscapeMarkdown экранирует спецсимволы MarkdownV2
func EscapeMarkdown(s string) string {
	return markdownReplacer.Replace(s)
}
