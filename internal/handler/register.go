package handler

import (
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Register registers all command and message handlers on the bot instance.
// Unknown commands fall through to the bot's default handler.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypePrefix, h.handleCancel)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/manage", bot.MatchTypePrefix, h.handleManage)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/feedback", bot.MatchTypePrefix, h.handleFeedback)

	// Conversation
	h.bot.RegisterHandlerMatchFunc(isPlainText, h.HandleText)
	h.bot.RegisterHandlerMatchFunc(isVoice, h.HandleVoice)
}

func isPlainText(update *models.Update) bool {
	return update.Message != nil &&
		update.Message.Text != "" &&
		!strings.HasPrefix(update.Message.Text, "/")
}

func isVoice(update *models.Update) bool {
	return update.Message != nil && update.Message.Voice != nil
}
