package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/set-night/julie/internal/domain"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

const EventInvoicePaid = "invoice.paid"

// PaymentEvent is the part of a Stripe event the billing workflow acts on.
type PaymentEvent struct {
	ID          string
	Type        string
	CustomerRef string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// VerifyWebhook checks the Stripe-Signature header against secret and
// decodes the event. It depends only on its arguments.
func VerifyWebhook(payload []byte, header, secret string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %w", domain.ErrWebhookVerification, err)
	}
	return event, nil
}

type invoiceEvent struct {
	Customer customerRef `json:"customer"`
	Lines    struct {
		Data []struct {
			Period struct {
				Start int64 `json:"start"`
				End   int64 `json:"end"`
			} `json:"period"`
		} `json:"data"`
	} `json:"lines"`
}

// customerRef accepts both the plain id and the expanded customer object.
type customerRef string

func (c *customerRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*c = customerRef(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = customerRef(obj.ID)
	return nil
}

// ParsePaymentEvent extracts the customer and billing period from an
// invoice.paid event. Other event types come back with only ID and Type set.
// An invoice.paid without a customer or a billing period end is reported as
// domain.ErrMalformedEvent.
func ParsePaymentEvent(event stripe.Event) (*PaymentEvent, error) {
	ev := &PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if ev.Type != EventInvoicePaid {
		return ev, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", domain.ErrMalformedEvent, event.ID)
	}

	invoice, err := parseEventData[invoiceEvent](event)
	if err != nil {
		return nil, fmt.Errorf("%w: parse invoice: %w", domain.ErrMalformedEvent, err)
	}
	ev.CustomerRef = string(invoice.Customer)
	if ev.CustomerRef == "" {
		return nil, fmt.Errorf("%w: invoice event %s has no customer", domain.ErrMalformedEvent, event.ID)
	}

	if len(invoice.Lines.Data) > 0 {
		period := invoice.Lines.Data[0].Period
		if period.Start > 0 {
			start := time.Unix(period.Start, 0).UTC()
			ev.PeriodStart = &start
		}
		if period.End > 0 {
			end := time.Unix(period.End, 0).UTC()
			ev.PeriodEnd = &end
		}
	}
	if ev.PeriodEnd == nil {
		return nil, fmt.Errorf("%w: invoice event %s has no billing period", domain.ErrMalformedEvent, event.ID)
	}
	return ev, nil
}

func parseEventData[T any](event stripe.Event) (*T, error) {
	var data T
	if err := json.Unmarshal(event.Data.Raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
