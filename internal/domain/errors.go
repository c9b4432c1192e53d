package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrNoBillingReference  = errors.New("user has no billing reference")
	ErrExternalService     = errors.New("external service failure")
	ErrWebhookVerification = errors.New("webhook verification failed")
	ErrOrphanPaymentEvent  = errors.New("payment event references unknown billing reference")
	ErrMalformedEvent      = errors.New("payment event is malformed")
	ErrAlreadySubscribed   = errors.New("user already has an active subscription")
	ErrInvalidPeriod       = errors.New("subscription end date is before start date")
	ErrEmptyInput          = errors.New("empty input")
)
