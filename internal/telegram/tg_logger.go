package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/domain"
)

// TelegramLogger posts operator events to topics of a forum chat.
type TelegramLogger struct {
	bot *bot.Bot
	cfg *config.Config
}

func NewTelegramLogger(b *bot.Bot, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{bot: b, cfg: cfg}
}

type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeRegistration LogType = "registration"
	LogTypeSubscription LogType = "subscription"
	LogTypeFeedback     LogType = "feedback"
)

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := l.getTopicID(logType)
	if topicID == 0 {
		return
	}

	// Truncate if too long
	if len([]rune(message)) > MaxMessageLen {
		message = string([]rune(message)[:MaxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       models.ParseModeMarkdownV1,
		MessageThreadID: topicID,
	}
	_, err := l.bot.SendMessage(ctx, params)
	if err != nil {
		params.ParseMode = ""
		_, err = l.bot.SendMessage(ctx, params)
	}
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, context string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		context, err.Error(), time.Now().Format("2006-01-02 15:04:05"))
	l.Log(LogTypeError, msg)
}

func (l *TelegramLogger) LogRegistration(user *domain.User) {
	msg := fmt.Sprintf("👤 *New Registration*\n\n*ID:* `%d`\n*Name:* %s",
		user.TelegramID, user.DisplayName)
	l.Log(LogTypeRegistration, msg)
}

func (l *TelegramLogger) LogSubscription(user *domain.User, sub *domain.Subscription) {
	until := "unknown"
	if sub.EndDate != nil {
		until = sub.EndDate.UTC().Format("2006-01-02")
	}
	msg := fmt.Sprintf("⭐ *New Subscription*\n\n*User:* `%d`\n*Customer:* `%s`\n*Until:* %s\n*Price:* %s",
		user.TelegramID, user.BillingRef, until, l.cfg.PriceLabel())
	l.Log(LogTypeSubscription, msg)
}

func (l *TelegramLogger) LogFeedback(user *domain.User, text string) {
	msg := fmt.Sprintf("💬 *Feedback*\n\n*User:* `%d`\n\n%s", user.TelegramID, text)
	l.Log(LogTypeFeedback, msg)
}

func (l *TelegramLogger) getTopicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeRegistration:
		return l.cfg.LogTopicRegistration
	case LogTypeSubscription:
		return l.cfg.LogTopicSubscription
	case LogTypeFeedback:
		return l.cfg.LogTopicFeedback
	default:
		return 0
	}
}
