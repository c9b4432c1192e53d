package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/repository"
)

// Notifier delivers a text message to a chat.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, text string) error
}

const (
	UnknownUserText        = "Utilisateur inconnu. Envoyez /start au bot puis réessayez."
	AlreadySubscribedText  = "Vous avez déjà un abonnement actif."
	PaymentSucceededText   = "Votre paiement a bien été reçu. Merci !"
	PaymentCanceledText    = "Votre paiement a été annulé. Si vous souhaitez continuer à utiliser le service, veuillez réessayer."
	subscriptionActiveText = "Votre abonnement est actif jusqu'au %s. Nous pouvons reprendre notre conversation !"
)

type BillingService struct {
	store    Store
	gateway  PaymentGateway
	notifier Notifier
	cfg      *config.Config
	audit    Audit
	now      func() time.Time
}

func NewBillingService(store Store, gateway PaymentGateway, notifier Notifier, cfg *config.Config, audit Audit) *BillingService {
	if audit == nil {
		audit = nopAudit{}
	}
	return &BillingService{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		audit:    audit,
		now:      time.Now,
	}
}

// StartCheckout provisions the Stripe customer on first use and opens a
// subscription checkout for the user.
func (s *BillingService) StartCheckout(ctx context.Context, telegramID int64) (*CheckoutSession, error) {
	user, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	if !user.HasBillingReference() {
		ref, err := s.gateway.CreateCustomer(ctx, telegramID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrExternalService, err)
		}
		if err := s.store.SetBillingReference(ctx, user.ID, ref); err != nil {
			return nil, fmt.Errorf("save billing reference: %w", err)
		}
		user.BillingRef = ref
		slog.Info("billing customer created", "user_id", user.ID, "customer", ref)
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerRef: user.BillingRef,
		PriceRef:    s.cfg.StripePriceID,
		SuccessURL:  s.cfg.SuccessURL(telegramID),
		CancelURL:   s.cfg.CancelURL(telegramID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExternalService, err)
	}
	slog.Info("checkout session created", "user_id", user.ID, "session_id", sess.ID)
	return sess, nil
}

// RedirectToCheckout returns the checkout URL for the user. Unknown users and
// users with an active subscription are told so in the chat and get
// ErrUserNotFound or ErrAlreadySubscribed instead.
func (s *BillingService) RedirectToCheckout(ctx context.Context, telegramID int64) (string, error) {
	user, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.notify(ctx, nil, telegramID, UnknownUserText)
		return "", err
	}
	if err != nil {
		return "", err
	}

	latest, err := s.store.LatestSubscription(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if latest.ActiveAt(s.now()) {
		slog.Info("user already subscribed", "user_id", user.ID)
		s.notify(ctx, user, telegramID, AlreadySubscribedText)
		return "", domain.ErrAlreadySubscribed
	}

	sess, err := s.StartCheckout(ctx, telegramID)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// PaymentSucceeded tells the user the checkout went through. The subscription
// itself is created by the invoice.paid webhook.
func (s *BillingService) PaymentSucceeded(ctx context.Context, telegramID int64, sessionID string) error {
	user, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	slog.Info("checkout completed", "user_id", user.ID, "session_id", sessionID)
	s.notify(ctx, user, telegramID, PaymentSucceededText)
	return nil
}

func (s *BillingService) PaymentCanceled(ctx context.Context, telegramID int64) error {
	user, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	slog.Info("checkout canceled", "user_id", user.ID)
	s.notify(ctx, user, telegramID, PaymentCanceledText)
	return nil
}

// HandlePaymentEvent applies a verified payment event. invoice.paid creates a
// subscription row for the owning user; events for unknown customers are
// logged, reported to the admin chat and dropped. An invoice without a period
// end creates nothing and fails with domain.ErrMalformedEvent. Other event
// types are ignored.
func (s *BillingService) HandlePaymentEvent(ctx context.Context, ev *PaymentEvent) error {
	if ev.Type != EventInvoicePaid {
		slog.Debug("payment event ignored", "event_id", ev.ID, "type", ev.Type)
		return nil
	}
	if ev.PeriodEnd == nil {
		return fmt.Errorf("%w: event %s has no period end", domain.ErrMalformedEvent, ev.ID)
	}

	var (
		user *domain.User
		sub  *domain.Subscription
	)
	err := s.store.InTx(ctx, func(repo repository.Repository) error {
		var err error
		user, err = repo.FindUserByBillingReference(ctx, ev.CustomerRef)
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrOrphanPaymentEvent
		}
		if err != nil {
			return err
		}
		sub, err = repo.CreateSubscription(ctx, user.ID, ev.PeriodStart, ev.PeriodEnd)
		return err
	})
	if errors.Is(err, domain.ErrOrphanPaymentEvent) {
		slog.Warn("payment event dropped", "event_id", ev.ID, "customer", ev.CustomerRef, "error", err)
		s.audit.LogError(err, fmt.Sprintf("payment event %s for customer %s", ev.ID, ev.CustomerRef))
		return nil
	}
	if err != nil {
		return fmt.Errorf("handle %s: %w", ev.Type, err)
	}

	slog.Info("subscription created", "user_id", user.ID, "subscription_id", sub.ID, "event_id", ev.ID)
	s.audit.LogSubscription(user, sub)
	s.notify(ctx, user, user.TelegramID, fmt.Sprintf(subscriptionActiveText, ev.PeriodEnd.UTC().Format("02/01/2006")))
	return nil
}

// OpenCustomerPortal returns a Stripe billing portal URL for a user who has
// checked out at least once.
func (s *BillingService) OpenCustomerPortal(ctx context.Context, telegramID int64) (string, error) {
	user, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return "", err
	}
	if !user.HasBillingReference() {
		return "", domain.ErrNoBillingReference
	}

	url, err := s.gateway.CreateBillingPortalSession(ctx, user.BillingRef, s.cfg.HomeURL())
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExternalService, err)
	}
	return url, nil
}

// notify records the text as an outbound message when the user is known and
// then sends it. Failures are logged; billing never fails because of them.
func (s *BillingService) notify(ctx context.Context, user *domain.User, telegramID int64, text string) {
	if user != nil {
		if _, err := s.store.RecordMessage(ctx, user.ID, text, false); err != nil {
			slog.Error("failed to record notification", "error", err, "user_id", user.ID)
		}
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, telegramID, text); err != nil {
		slog.Error("failed to notify user", "error", err, "telegram_id", telegramID)
		s.audit.LogError(err, "notify "+strconv.FormatInt(telegramID, 10))
	}
}
