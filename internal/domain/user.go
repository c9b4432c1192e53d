package domain

import "time"

// ConversationMode is the per-user state that decides how the next inbound
// message is routed.
type ConversationMode string

const (
	ModeNormal           ConversationMode = "normal"
	ModeAwaitingFeedback ConversationMode = "awaiting_feedback"
)

func (m ConversationMode) Valid() bool {
	return m == ModeNormal || m == ModeAwaitingFeedback
}

type User struct {
	ID          int64
	TelegramID  int64
	BillingRef  string
	DisplayName string
	Mode        ConversationMode
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasBillingReference reports whether a payment customer was provisioned.
func (u *User) HasBillingReference() bool {
	return u.BillingRef != ""
}

func (u *User) AwaitingFeedback() bool {
	return u.Mode == ModeAwaitingFeedback
}
