package handler

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/service"
	tg "github.com/set-night/julie/internal/telegram"
)

const EmptyInputText = "Je n'ai pas bien compris votre message. Pouvez-vous reformuler ?"

// HandleVoice transcribes a voice note, runs it through the conversation and
// answers with a voice note. The downloaded and synthesized audio live in a
// per-update temp dir removed on return.
func (h *Handler) HandleVoice(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, chatID, ok := h.userMessage(ctx, b, update)
	if !ok {
		return
	}
	msg := update.Message

	dir, err := os.MkdirTemp("", "julie-voice-*")
	if err != nil {
		h.handleFailure(ctx, b, chatID, user, fmt.Errorf("create temp dir: %w", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("remove voice temp dir", "error", err, "dir", dir)
		}
	}()

	stopAction := tg.StartChatAction(ctx, b, chatID, models.ChatActionRecordVoice)
	defer stopAction()

	path, err := tg.DownloadToTemp(ctx, b, msg.Voice.FileID, dir, config.MaxVoiceBytes)
	if err != nil {
		stopAction()
		h.handleFailure(ctx, b, chatID, user, fmt.Errorf("download voice: %w", err))
		return
	}

	text, err := h.speech.Transcribe(ctx, path)
	if err != nil {
		stopAction()
		h.handleFailure(ctx, b, chatID, user, fmt.Errorf("transcribe voice: %w", err))
		return
	}

	reply, err := h.chat.Handle(ctx, user, text)
	if err != nil {
		stopAction()
		h.handleFailure(ctx, b, chatID, user, err)
		return
	}

	if reply.Kind != service.ReplyAnswer {
		stopAction()
		h.sendReply(ctx, b, chatID, reply)
		return
	}

	audio, err := h.speech.SynthesizeSpeech(ctx, reply.Text, dir)
	if err == nil {
		err = tg.SendVoiceFile(ctx, b, chatID, audio, &msg.ID)
	}
	stopAction()
	if err != nil {
		slog.Warn("voice reply failed, falling back to text", "error", err, "user_id", user.ID)
		h.sendReply(ctx, b, chatID, reply)
	}
}
