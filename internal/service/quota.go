package service

import (
	"context"
	"fmt"
	"time"

	"github.com/set-night/julie/internal/domain"
)

// QuotaReader is the read side the quota decision needs.
type QuotaReader interface {
	CountUserMessages(ctx context.Context, userID int64) (int, error)
	LatestSubscription(ctx context.Context, userID int64) (*domain.Subscription, error)
}

// Decide reports whether a user with count prior inbound messages may keep
// chatting. Below the threshold the subscription is irrelevant; at or above
// it only a latest subscription ending strictly after now allows.
func Decide(count, threshold int, latest *domain.Subscription, now time.Time) bool {
	if count < threshold {
		return true
	}
	return latest.ActiveAt(now)
}

// MayContinue reads the counters for userID and applies Decide. The
// subscription is only fetched once the free messages are used up.
func MayContinue(ctx context.Context, r QuotaReader, userID int64, threshold int, now time.Time) (bool, error) {
	count, err := r.CountUserMessages(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("count messages: %w", err)
	}
	if count < threshold {
		return true, nil
	}

	latest, err := r.LatestSubscription(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("latest subscription: %w", err)
	}
	return Decide(count, threshold, latest, now), nil
}
