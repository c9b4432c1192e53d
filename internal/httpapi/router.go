package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/service"
)

// Billing is the part of the billing workflow exposed over HTTP.
type Billing interface {
	RedirectToCheckout(ctx context.Context, telegramID int64) (string, error)
	PaymentSucceeded(ctx context.Context, telegramID int64, sessionID string) error
	PaymentCanceled(ctx context.Context, telegramID int64) error
	OpenCustomerPortal(ctx context.Context, telegramID int64) (string, error)
	HandlePaymentEvent(ctx context.Context, ev *service.PaymentEvent) error
}

type API struct {
	billing Billing
	cfg     *config.Config
}

func NewAPI(billing Billing, cfg *config.Config) *API {
	return &API{billing: billing, cfg: cfg}
}

// NewRouter builds the billing HTTP surface: checkout redirects, Stripe
// return pages, the customer portal and the Stripe webhook.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger,
	)

	r.Get("/healthz", api.Health)
	r.Get("/", api.Home)

	r.Get("/redirect_to_stripe", api.RedirectToStripe)
	r.Get("/success", api.Success)
	r.Get("/cancel", api.Cancel)
	r.Get("/create-customer-portal-session", api.CustomerPortal)

	r.Post("/webhook", api.Webhook)

	return r
}

func (a *API) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) jsonError(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

func (a *API) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}
