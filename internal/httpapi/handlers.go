package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/service"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Home sends browsers back to the bot chat.
func (a *API) Home(w http.ResponseWriter, r *http.Request) {
	a.redirect(w, r, a.cfg.HomeURL())
}

func (a *API) RedirectToStripe(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := a.userID(w, r)
	if !ok {
		return
	}

	url, err := a.billing.RedirectToCheckout(r.Context(), telegramID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrAlreadySubscribed):
		// The user was told in the chat.
		a.redirect(w, r, a.cfg.HomeURL())
	case err != nil:
		slog.Error("redirect to checkout", "error", err, "telegram_id", telegramID)
		a.jsonError(w, statusFor(err), "could not start checkout")
	default:
		a.redirect(w, r, url)
	}
}

func (a *API) Success(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := a.userID(w, r)
	if !ok {
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if err := a.billing.PaymentSucceeded(r.Context(), telegramID, sessionID); err != nil {
		slog.Warn("payment success page", "error", err, "telegram_id", telegramID)
	}
	a.redirect(w, r, a.cfg.HomeURL())
}

func (a *API) Cancel(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := a.userID(w, r)
	if !ok {
		return
	}
	if err := a.billing.PaymentCanceled(r.Context(), telegramID); err != nil {
		slog.Warn("payment cancel page", "error", err, "telegram_id", telegramID)
	}
	a.redirect(w, r, a.cfg.HomeURL())
}

func (a *API) CustomerPortal(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := a.userID(w, r)
	if !ok {
		return
	}

	url, err := a.billing.OpenCustomerPortal(r.Context(), telegramID)
	switch {
	case errors.Is(err, domain.ErrNoBillingReference):
		a.jsonError(w, http.StatusBadRequest, "no subscription found for this user")
	case err != nil:
		slog.Error("open customer portal", "error", err, "telegram_id", telegramID)
		a.jsonError(w, statusFor(err), "could not open customer portal")
	default:
		a.redirect(w, r, url)
	}
}

// Webhook verifies and applies a Stripe event. Only verified events reach
// the billing workflow. Events that can never be applied are acknowledged so
// Stripe stops retrying them.
func (a *API) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, config.MaxWebhookBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.jsonError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		a.jsonError(w, http.StatusBadRequest, "could not read payload")
		return
	}

	event, err := service.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"), a.cfg.StripeWebhookSecret)
	if err != nil {
		slog.Warn("webhook rejected", "error", err)
		a.jsonError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	ev, err := service.ParsePaymentEvent(event)
	if err != nil {
		slog.Warn("webhook event dropped", "error", err, "event_id", event.ID)
		a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	err = a.billing.HandlePaymentEvent(r.Context(), ev)
	switch {
	case errors.Is(err, domain.ErrMalformedEvent), errors.Is(err, domain.ErrInvalidPeriod):
		slog.Warn("webhook event dropped", "error", err, "event_id", ev.ID)
		a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	case err != nil:
		slog.Error("handle payment event", "error", err, "event_id", ev.ID)
		a.jsonError(w, http.StatusInternalServerError, "could not process event")
		return
	}

	a.json(w, http.StatusOK, map[string]string{"status": "success"})
}

// userID reads the user_id query parameter, answering 400 when it is absent
// or malformed.
func (a *API) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || id == 0 {
		a.jsonError(w, http.StatusBadRequest, "invalid user_id")
		return 0, false
	}
	return id, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
