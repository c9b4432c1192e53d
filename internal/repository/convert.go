package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/repository/sqlc"
)

// pgTimestamptzToTime converts pgtype.Timestamptz to time.Time.
func pgTimestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if ts.Valid {
		return ts.Time
	}
	return time.Time{}
}

// pgTimestamptzToTimePtr converts pgtype.Timestamptz to *time.Time.
func pgTimestamptzToTimePtr(ts pgtype.Timestamptz) *time.Time {
	if ts.Valid {
		t := ts.Time
		return &t
	}
	return nil
}

// timePtrToPgTimestamptz converts *time.Time to pgtype.Timestamptz.
func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func stringToPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptrToString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func rowToUser(row sqlc.User) *domain.User {
	return &domain.User{
		ID:          row.ID,
		TelegramID:  row.TelegramID,
		BillingRef:  ptrToString(row.BillingRef),
		DisplayName: row.DisplayName,
		Mode:        domain.ConversationMode(row.ConversationMode),
		CreatedAt:   pgTimestamptzToTime(row.CreatedAt),
		UpdatedAt:   pgTimestamptzToTime(row.UpdatedAt),
	}
}

func rowToMessage(row sqlc.Message) domain.Message {
	return domain.Message{
		ID:        row.ID,
		UserID:    row.UserID,
		Content:   row.Content,
		FromUser:  row.FromUser,
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToSubscription(row sqlc.Subscription) *domain.Subscription {
	return &domain.Subscription{
		ID:        row.ID,
		UserID:    row.UserID,
		StartDate: pgTimestamptzToTimePtr(row.StartDate),
		EndDate:   pgTimestamptzToTimePtr(row.EndDate),
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToFeedback(row sqlc.Feedback) *domain.Feedback {
	return &domain.Feedback{
		ID:        row.ID,
		UserID:    row.UserID,
		Content:   row.Content,
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
	}
}
