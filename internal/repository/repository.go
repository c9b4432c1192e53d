package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/repository/sqlc"
)

// Postgres error codes mapped onto domain errors.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Repository is the persistence contract used by the services. Every method
// runs against whatever handle it was built on: the pool, or a transaction
// handed out by Store.InTx.
type Repository interface {
	// GetOrCreateUser returns the user for telegramID, inserting it first if
	// needed. created is true only for the call that inserted the row.
	GetOrCreateUser(ctx context.Context, telegramID int64, displayName string) (user *domain.User, created bool, err error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	FindUserByBillingReference(ctx context.Context, ref string) (*domain.User, error)
	SetBillingReference(ctx context.Context, userID int64, ref string) error
	SetConversationMode(ctx context.Context, userID int64, mode domain.ConversationMode) error

	RecordMessage(ctx context.Context, userID int64, content string, fromUser bool) (*domain.Message, error)
	// RecentMessages returns at most limit messages, oldest first.
	RecentMessages(ctx context.Context, userID int64, limit int) ([]domain.Message, error)
	CountUserMessages(ctx context.Context, userID int64) (int, error)

	// LatestSubscription returns the newest subscription that has an end date,
	// or nil without error when there is none.
	LatestSubscription(ctx context.Context, userID int64) (*domain.Subscription, error)
	CreateSubscription(ctx context.Context, userID int64, start, end *time.Time) (*domain.Subscription, error)

	RecordFeedback(ctx context.Context, userID int64, content string) (*domain.Feedback, error)

	WipeAll(ctx context.Context) error
}

type queriesRepository struct {
	queries *sqlc.Queries
}

// New returns a Repository that runs queries directly on db.
func New(db sqlc.DBTX) Repository {
	return &queriesRepository{queries: sqlc.New(db)}
}

func (r *queriesRepository) GetOrCreateUser(ctx context.Context, telegramID int64, displayName string) (*domain.User, bool, error) {
	row, err := r.queries.GetUserByTelegramID(ctx, telegramID)
	if err == nil {
		return rowToUser(row), false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	row, err = r.queries.CreateUser(ctx, sqlc.CreateUserParams{
		TelegramID:  telegramID,
		DisplayName: displayName,
	})
	if err == nil {
		return rowToUser(row), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	// ON CONFLICT DO NOTHING returned nothing: a concurrent request won.
	row, err = r.queries.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, fmt.Errorf("get user after conflict: %w", err)
	}
	return rowToUser(row), false, nil
}

func (r *queriesRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	row, err := r.queries.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return rowToUser(row), nil
}

func (r *queriesRepository) FindUserByBillingReference(ctx context.Context, ref string) (*domain.User, error) {
	if ref == "" {
		return nil, domain.ErrUserNotFound
	}
	row, err := r.queries.GetUserByBillingRef(ctx, &ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by billing ref: %w", err)
	}
	return rowToUser(row), nil
}

func (r *queriesRepository) SetBillingReference(ctx context.Context, userID int64, ref string) error {
	if err := r.queries.SetUserBillingRef(ctx, sqlc.SetUserBillingRefParams{
		ID:         userID,
		BillingRef: stringToPtr(ref),
	}); err != nil {
		return fmt.Errorf("set billing ref: %w", err)
	}
	return nil
}

func (r *queriesRepository) SetConversationMode(ctx context.Context, userID int64, mode domain.ConversationMode) error {
	if !mode.Valid() {
		return fmt.Errorf("set conversation mode: unknown mode %q", mode)
	}
	if err := r.queries.SetUserConversationMode(ctx, sqlc.SetUserConversationModeParams{
		ID:               userID,
		ConversationMode: string(mode),
	}); err != nil {
		return fmt.Errorf("set conversation mode: %w", err)
	}
	return nil
}

func (r *queriesRepository) RecordMessage(ctx context.Context, userID int64, content string, fromUser bool) (*domain.Message, error) {
	row, err := r.queries.CreateMessage(ctx, sqlc.CreateMessageParams{
		UserID:   userID,
		Content:  content,
		FromUser: fromUser,
	})
	if err != nil {
		return nil, fmt.Errorf("create message: %w", mapPgError(err))
	}
	msg := rowToMessage(row)
	return &msg, nil
}

func (r *queriesRepository) RecentMessages(ctx context.Context, userID int64, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.queries.GetRecentMessages(ctx, sqlc.GetRecentMessagesParams{
		UserID: userID,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("get recent messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, rowToMessage(row))
	}
	// The query returns newest first.
	slices.Reverse(messages)
	return messages, nil
}

func (r *queriesRepository) CountUserMessages(ctx context.Context, userID int64) (int, error) {
	count, err := r.queries.CountUserMessages(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count user messages: %w", err)
	}
	return int(count), nil
}

func (r *queriesRepository) LatestSubscription(ctx context.Context, userID int64) (*domain.Subscription, error) {
	row, err := r.queries.GetLatestSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest subscription: %w", err)
	}
	return rowToSubscription(row), nil
}

func (r *queriesRepository) CreateSubscription(ctx context.Context, userID int64, start, end *time.Time) (*domain.Subscription, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, domain.ErrInvalidPeriod
	}
	row, err := r.queries.CreateSubscription(ctx, sqlc.CreateSubscriptionParams{
		UserID:    userID,
		StartDate: timePtrToPgTimestamptz(start),
		EndDate:   timePtrToPgTimestamptz(end),
	})
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", mapPgError(err))
	}
	return rowToSubscription(row), nil
}

func (r *queriesRepository) RecordFeedback(ctx context.Context, userID int64, content string) (*domain.Feedback, error) {
	row, err := r.queries.CreateFeedback(ctx, sqlc.CreateFeedbackParams{
		UserID:  userID,
		Content: content,
	})
	if err != nil {
		return nil, fmt.Errorf("create feedback: %w", mapPgError(err))
	}
	return rowToFeedback(row), nil
}

func (r *queriesRepository) WipeAll(ctx context.Context) error {
	if err := r.queries.WipeAll(ctx); err != nil {
		return fmt.Errorf("wipe all: %w", err)
	}
	return nil
}

// mapPgError turns constraint violations into domain errors and leaves
// everything else untouched.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgForeignKeyViolation:
		return domain.ErrUserNotFound
	case pgCheckViolation:
		return domain.ErrInvalidPeriod
	}
	return err
}
