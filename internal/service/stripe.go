package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/set-night/julie/internal/config"
	"github.com/stripe/stripe-go/v84"
)

// PaymentGateway is the payment processor as the billing workflow sees it.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, telegramID int64) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	CreateBillingPortalSession(ctx context.Context, customerRef, returnURL string) (string, error)
}

// CheckoutParams describes a subscription checkout for one customer.
type CheckoutParams struct {
	CustomerRef string
	PriceRef    string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is a created checkout and the URL the user pays at.
type CheckoutSession struct {
	ID  string
	URL string
}

type StripeGateway struct {
	sc *stripe.Client
}

func NewStripeGateway(apiKey string) *StripeGateway {
	return &StripeGateway{sc: stripe.NewClient(apiKey)}
}

// CreateCustomer provisions a Stripe customer tagged with the chat identity.
// The idempotency key makes concurrent first checkouts of one user resolve to
// the same customer within Stripe's idempotency window.
func (g *StripeGateway) CreateCustomer(ctx context.Context, telegramID int64) (string, error) {
	id := strconv.FormatInt(telegramID, 10)
	params := &stripe.CustomerCreateParams{
		Metadata: map[string]string{"user_id": id},
	}
	params.SetIdempotencyKey("customer-" + id)

	ctx, cancel := context.WithTimeout(ctx, config.PaymentTimeout)
	defer cancel()

	customer, err := g.sc.V1Customers.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return customer.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Customer:           stripe.String(p.CustomerRef),
		PaymentMethodTypes: []*string{stripe.String("card")},
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(p.PriceRef),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}

	ctx, cancel := context.WithTimeout(ctx, config.PaymentTimeout)
	defer cancel()

	sess, err := g.sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) CreateBillingPortalSession(ctx context.Context, customerRef, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(customerRef),
		ReturnURL: stripe.String(returnURL),
	}

	ctx, cancel := context.WithTimeout(ctx, config.PaymentTimeout)
	defer cancel()

	sess, err := g.sc.V1BillingPortalSessions.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}
