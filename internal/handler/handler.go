package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/service"
)

// ChatService runs inbound messages through the conversation workflow.
type ChatService interface {
	Handle(ctx context.Context, user *domain.User, text string) (*service.Reply, error)
	StartFeedback(ctx context.Context, user *domain.User) error
	CancelConversation(ctx context.Context, user *domain.User) error
}

// SpeechService converts voice notes to text and answers back to audio.
type SpeechService interface {
	Transcribe(ctx context.Context, path string) (string, error)
	SynthesizeSpeech(ctx context.Context, text, dir string) (string, error)
}

// Handler holds all dependencies needed by command and message handlers.
type Handler struct {
	bot    *bot.Bot
	cfg    *config.Config
	chat   ChatService
	speech SpeechService
	audit  service.Audit
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot    *bot.Bot
	Cfg    *config.Config
	Chat   ChatService
	Speech SpeechService
	Audit  service.Audit
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:    deps.Bot,
		cfg:    deps.Cfg,
		chat:   deps.Chat,
		speech: deps.Speech,
		audit:  deps.Audit,
	}
}

func (h *Handler) logError(err error, context string) {
	if h.audit != nil {
		h.audit.LogError(err, context)
	}
}
