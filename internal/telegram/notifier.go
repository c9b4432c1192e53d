package telegram

import (
	"context"

	"github.com/go-telegram/bot"
)

// Notifier pushes messages to a user outside of an update handler, for
// instance from the billing webhook.
type Notifier struct {
	bot *bot.Bot
}

func NewNotifier(b *bot.Bot) *Notifier {
	return &Notifier{bot: b}
}

func (n *Notifier) Notify(ctx context.Context, telegramID int64, text string) error {
	return SendLongMessage(ctx, n.bot, telegramID, text, nil)
}
