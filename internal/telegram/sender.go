package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const MaxMessageLen = 4096

// SendLongMessage sends a potentially long message, splitting it into parts if needed.
// Falls back to plain text if Markdown parsing fails.
func SendLongMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, replyToID *int) error {
	return sendLongMessage(ctx, b, chatID, text, replyToID, nil, models.ParseModeMarkdownV1)
}

// SendWithLink sends plain text with an inline button opening url. The
// button is attached to the last part.
func SendWithLink(ctx context.Context, b *bot.Bot, chatID int64, text, buttonText, url string) error {
	return sendLongMessage(ctx, b, chatID, text, nil, LinkKeyboard(buttonText, url), "")
}

func sendLongMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, replyToID *int, markup models.ReplyMarkup, parseMode models.ParseMode) error {
	if parseMode != "" {
		text = FixMarkdown(text)
	}
	parts := SplitMessage(text, MaxMessageLen)

	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      part,
			ParseMode: parseMode,
		}
		if replyToID != nil {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID: *replyToID,
			}
			replyToID = nil // only reply to first part
		}
		if markup != nil && i == len(parts)-1 {
			params.ReplyMarkup = markup
		}

		_, err := b.SendMessage(ctx, params)
		if err != nil && parseMode != "" {
			// Fallback to plain text
			slog.Warn("markdown send failed, falling back to plain text", "error", err)
			params.ParseMode = ""
			_, err = b.SendMessage(ctx, params)
		}
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}

	return nil
}

// SendVoiceFile uploads the OGG/Opus file at path as a voice note.
func SendVoiceFile(ctx context.Context, b *bot.Bot, chatID int64, path string, replyToID *int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open voice file: %w", err)
	}
	defer f.Close()

	params := &bot.SendVoiceParams{
		ChatID: chatID,
		Voice:  &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
	}
	if replyToID != nil {
		params.ReplyParameters = &models.ReplyParameters{MessageID: *replyToID}
	}

	if _, err := b.SendVoice(ctx, params); err != nil {
		return fmt.Errorf("send voice: %w", err)
	}
	return nil
}

// StartTyping sends "typing..." action every 4 seconds until the returned cancel function is called.
func StartTyping(ctx context.Context, b *bot.Bot, chatID int64) context.CancelFunc {
	return StartChatAction(ctx, b, chatID, models.ChatActionTyping)
}

// StartChatAction repeats action every 4 seconds until the returned cancel
// function is called.
func StartChatAction(ctx context.Context, b *bot.Bot, chatID int64, action models.ChatAction) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(4 * time.Second)
		defer ticker.Stop()
		// Send immediately
		b.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: action,
		})
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.SendChatAction(ctx, &bot.SendChatActionParams{
					ChatID: chatID,
					Action: action,
				})
			}
		}
	}()
	return cancel
}
