package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/middleware"
	"github.com/set-night/julie/internal/service"
	tg "github.com/set-night/julie/internal/telegram"
)

// HandleText answers a plain text message.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, chatID, ok := h.userMessage(ctx, b, update)
	if !ok {
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	reply, err := h.chat.Handle(ctx, user, update.Message.Text)
	stopTyping()

	if err != nil {
		h.handleFailure(ctx, b, chatID, user, err)
		return
	}
	h.sendReply(ctx, b, chatID, reply)
}

// sendReply delivers reply as text. Paywall prompts carry a checkout button.
func (h *Handler) sendReply(ctx context.Context, b *bot.Bot, chatID int64, reply *service.Reply) {
	var err error
	switch reply.Kind {
	case service.ReplyPaywall:
		err = tg.SendWithLink(ctx, b, chatID, reply.Text, SubscribeButton, reply.CheckoutURL)
	default:
		err = tg.SendLongMessage(ctx, b, chatID, reply.Text, nil)
	}
	if err != nil {
		slog.Error("send reply", "error", err, "chat_id", chatID, "kind", reply.Kind.String())
	}
}

func (h *Handler) handleFailure(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, err error) {
	if errors.Is(err, domain.ErrEmptyInput) {
		h.send(ctx, b, chatID, EmptyInputText)
		return
	}
	slog.Error("handle message", "error", err, "user_id", user.ID)
	h.logError(err, "handle message")
	h.send(ctx, b, chatID, middleware.ErrorText)
}
