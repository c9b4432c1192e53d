package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ErrorText is the generic reply when an update could not be processed.
const ErrorText = "Une erreur est survenue. Veuillez réessayer dans un instant."

// Recover returns middleware that turns a handler panic into a log entry and
// a generic reply, so one bad update never stops the polling loop.
func Recover() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				info := describeUpdate(update)
				slog.Error("panic recovered in handler",
					"panic", r,
					"type", info.kind,
					"chat_id", info.chatID,
					"stack", string(debug.Stack()),
				)
				if info.chatID == 0 || info.kind == "edited_message" {
					return
				}
				if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: info.chatID,
					Text:   ErrorText,
				}); err != nil {
					slog.Error("send panic reply", "error", err, "chat_id", info.chatID)
				}
			}()
			next(ctx, b, update)
		}
	}
}
