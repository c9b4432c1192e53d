package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/repository"
)

// Generator produces the assistant's answer.
type Generator interface {
	Generate(ctx context.Context, history, message string) (string, error)
}

// ReplyKind tells the transport how to deliver a Reply.
type ReplyKind int

const (
	ReplyAnswer ReplyKind = iota
	ReplyPaywall
	ReplyFeedbackAck
	ReplyFailure
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyAnswer:
		return "answer"
	case ReplyPaywall:
		return "paywall"
	case ReplyFeedbackAck:
		return "feedback_ack"
	case ReplyFailure:
		return "failure"
	default:
		return fmt.Sprintf("ReplyKind(%d)", int(k))
	}
}

// Reply is what the transport should send back for one inbound message.
type Reply struct {
	Kind        ReplyKind
	Text        string
	CheckoutURL string // set for ReplyPaywall
}

const (
	FeedbackAckText   = "Merci pour votre retour ! Nous pouvons reprendre notre conversation quand vous voulez."
	FeedbackAskText   = "Je vous écoute : qu'aimeriez-vous améliorer ? Votre prochain message sera transmis à l'équipe."
	CancelText        = "Bye! I hope we can talk again some day."
	ApologyText       = "Désolée, je n'arrive pas à répondre pour le moment. Pouvez-vous réessayer dans quelques instants ?"
	paywallTextFormat = "Vous avez atteint la limite de messages gratuits. " +
		"Abonnez-vous pour %s par mois afin de continuer à parler avec moi : %s"
)

type ChatService struct {
	store Store
	ai    Generator
	cfg   *config.Config
	audit Audit
	now   func() time.Time
}

func NewChatService(store Store, ai Generator, cfg *config.Config, audit Audit) *ChatService {
	if audit == nil {
		audit = nopAudit{}
	}
	return &ChatService{
		store: store,
		ai:    ai,
		cfg:   cfg,
		audit: audit,
		now:   time.Now,
	}
}

// Handle runs one inbound message from user through the conversation
// workflow. A returned error means persistence failed; generation failures
// come back as a ReplyFailure reply.
func (s *ChatService) Handle(ctx context.Context, user *domain.User, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyInput
	}

	var (
		feedback bool
		allowed  bool
	)
	err := s.store.InTx(ctx, func(repo repository.Repository) error {
		current, err := repo.GetUserByTelegramID(ctx, user.TelegramID)
		if err != nil {
			return err
		}

		if current.AwaitingFeedback() {
			feedback = true
			if _, err := repo.RecordFeedback(ctx, current.ID, text); err != nil {
				return err
			}
			return repo.SetConversationMode(ctx, current.ID, domain.ModeNormal)
		}

		// The count is taken before the insert so it only covers earlier
		// messages: with a threshold of 5 the sixth message is paywalled.
		allowed, err = MayContinue(ctx, repo, current.ID, s.cfg.FreeMessageThreshold, s.now())
		if err != nil {
			return err
		}
		_, err = repo.RecordMessage(ctx, current.ID, text, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("persist input: %w", err)
	}

	if feedback {
		user.Mode = domain.ModeNormal
		slog.Info("feedback received", "user_id", user.ID)
		s.audit.LogFeedback(user, text)
		return &Reply{Kind: ReplyFeedbackAck, Text: FeedbackAckText}, nil
	}

	if !allowed {
		return s.paywall(ctx, user)
	}
	return s.answer(ctx, user, text)
}

func (s *ChatService) paywall(ctx context.Context, user *domain.User) (*Reply, error) {
	checkoutURL := s.cfg.CheckoutURL(user.TelegramID)
	prompt := fmt.Sprintf(paywallTextFormat, s.cfg.PriceLabel(), checkoutURL)

	if _, err := s.store.RecordMessage(ctx, user.ID, prompt, false); err != nil {
		return nil, fmt.Errorf("persist paywall: %w", err)
	}
	slog.Info("paywall shown", "user_id", user.ID)
	return &Reply{Kind: ReplyPaywall, Text: prompt, CheckoutURL: checkoutURL}, nil
}

func (s *ChatService) answer(ctx context.Context, user *domain.User, text string) (*Reply, error) {
	history, err := BuildHistory(ctx, s.store, user.ID, s.cfg.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("build history: %w", err)
	}

	genCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	answer, err := s.ai.Generate(genCtx, history, text)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty answer")
	}
	if err != nil {
		if !errors.Is(err, domain.ErrExternalService) {
			err = fmt.Errorf("%w: %w", domain.ErrExternalService, err)
		}
		slog.Error("generation failed", "error", err, "user_id", user.ID)
		s.audit.LogError(err, fmt.Sprintf("generate answer for user %d", user.TelegramID))
		return &Reply{Kind: ReplyFailure, Text: ApologyText}, nil
	}

	if _, err := s.store.RecordMessage(ctx, user.ID, answer, false); err != nil {
		return nil, fmt.Errorf("persist answer: %w", err)
	}
	return &Reply{Kind: ReplyAnswer, Text: answer}, nil
}

// StartFeedback switches the user into feedback collection: the next message
// is stored as feedback instead of being answered.
func (s *ChatService) StartFeedback(ctx context.Context, user *domain.User) error {
	if err := s.store.SetConversationMode(ctx, user.ID, domain.ModeAwaitingFeedback); err != nil {
		return fmt.Errorf("start feedback: %w", err)
	}
	user.Mode = domain.ModeAwaitingFeedback
	return nil
}

// CancelConversation drops any pending mode.
func (s *ChatService) CancelConversation(ctx context.Context, user *domain.User) error {
	if err := s.store.SetConversationMode(ctx, user.ID, domain.ModeNormal); err != nil {
		return fmt.Errorf("cancel conversation: %w", err)
	}
	user.Mode = domain.ModeNormal
	return nil
}
