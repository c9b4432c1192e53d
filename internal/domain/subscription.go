package domain

import "time"

// Subscription is one paid billing period. Start and end stay nil until the
// payment event that resolves them arrives.
type Subscription struct {
	ID        int64
	UserID    int64
	StartDate *time.Time
	EndDate   *time.Time
	CreatedAt time.Time
}

// ActiveAt reports whether the period ends strictly after now.
func (s *Subscription) ActiveAt(now time.Time) bool {
	if s == nil || s.EndDate == nil {
		return false
	}
	return s.EndDate.UTC().After(now.UTC())
}
