package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/middleware"
	"github.com/set-night/julie/internal/service"
	tg "github.com/set-night/julie/internal/telegram"
)

const (
	WelcomeText        = "Bonjour! Parlez-moi de votre problème."
	UnknownCommandText = "Je ne connais pas cette commande. Écrivez-moi simplement ce qui vous préoccupe."
	NoSubscriptionText = "Vous n'avez pas encore d'abonnement."
	ManageText         = "Gérez votre abonnement depuis le portail client :"
	ManageButtonText   = "Gérer mon abonnement"
	SubscribeButton    = "S'abonner"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, WelcomeText)
}

// handleCancel leaves any pending mode, such as feedback collection.
func (h *Handler) handleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, chatID, ok := h.userMessage(ctx, b, update)
	if !ok {
		return
	}

	if err := h.chat.CancelConversation(ctx, user); err != nil {
		slog.Error("cancel conversation", "error", err, "user_id", user.ID)
		h.send(ctx, b, chatID, middleware.ErrorText)
		return
	}
	h.send(ctx, b, chatID, service.CancelText)
}

func (h *Handler) handleFeedback(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, chatID, ok := h.userMessage(ctx, b, update)
	if !ok {
		return
	}

	if err := h.chat.StartFeedback(ctx, user); err != nil {
		slog.Error("start feedback", "error", err, "user_id", user.ID)
		h.send(ctx, b, chatID, middleware.ErrorText)
		return
	}
	h.send(ctx, b, chatID, service.FeedbackAskText)
}

// handleManage links to the customer portal, or to checkout for users who
// never subscribed.
func (h *Handler) handleManage(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, chatID, ok := h.userMessage(ctx, b, update)
	if !ok {
		return
	}

	var err error
	if user.HasBillingReference() {
		err = tg.SendWithLink(ctx, b, chatID, ManageText, ManageButtonText, h.cfg.PortalURL(user.TelegramID))
	} else {
		err = tg.SendWithLink(ctx, b, chatID, NoSubscriptionText, SubscribeButton, h.cfg.CheckoutURL(user.TelegramID))
	}
	if err != nil {
		slog.Error("send manage link", "error", err, "user_id", user.ID)
	}
}

// HandleUnknown answers commands nobody registered.
func (h *Handler) HandleUnknown(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, UnknownCommandText)
}

// userMessage returns the loaded user and chat of a message update. Updates
// without a message or a resolved user are answered with the generic error.
func (h *Handler) userMessage(ctx context.Context, b *bot.Bot, update *models.Update) (*domain.User, int64, bool) {
	if update.Message == nil {
		return nil, 0, false
	}
	chatID := update.Message.Chat.ID

	user := middleware.GetUser(ctx)
	if user == nil {
		h.send(ctx, b, chatID, middleware.ErrorText)
		return nil, chatID, false
	}
	return user, chatID, true
}

func (h *Handler) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		slog.Error("send message", "error", err, "chat_id", chatID)
	}
}
