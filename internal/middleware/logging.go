package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// updateInfo is what the logging and recovery middleware know about an update.
type updateInfo struct {
	kind    string
	command string
	chatID  int64
	userID  int64
}

func describeUpdate(update *models.Update) updateInfo {
	switch {
	case update.Message != nil:
		msg := update.Message
		info := updateInfo{kind: "text", chatID: msg.Chat.ID}
		if msg.From != nil {
			info.userID = msg.From.ID
		}
		switch {
		case msg.Voice != nil:
			info.kind = "voice"
		case strings.HasPrefix(msg.Text, "/"):
			info.kind = "command"
			info.command, _, _ = strings.Cut(msg.Text, " ")
		case msg.Text == "":
			info.kind = "other"
		}
		return info
	case update.EditedMessage != nil:
		return updateInfo{kind: "edited_message", chatID: update.EditedMessage.Chat.ID}
	case update.CallbackQuery != nil:
		info := updateInfo{kind: "callback_query", userID: update.CallbackQuery.From.ID}
		if update.CallbackQuery.Message.Message != nil {
			info.chatID = update.CallbackQuery.Message.Message.Chat.ID
		}
		return info
	default:
		return updateInfo{kind: "unknown"}
	}
}

// Logging returns middleware that logs every update with its processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			info := describeUpdate(update)

			next(ctx, b, update)

			attrs := []any{
				"update_id", update.ID,
				"type", info.kind,
				"chat_id", info.chatID,
				"user_id", info.userID,
				"duration", time.Since(start),
			}
			if info.command != "" {
				attrs = append(attrs, "command", info.command)
			}
			slog.Debug("update processed", attrs...)
		}
	}
}
