package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/julie/internal/domain"
)

type ctxKey string

const UserKey ctxKey = "user"

// UserResolver finds or creates the user behind a chat identity.
type UserResolver interface {
	FindOrCreate(ctx context.Context, telegramID int64, displayName string) (*domain.User, bool, error)
}

// GetUser extracts user from context.
func GetUser(ctx context.Context) *domain.User {
	u, ok := ctx.Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return u
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserLoader returns middleware that loads the sender into context, creating
// the user on first contact.
func UserLoader(users UserResolver) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from == nil || from.IsBot {
				next(ctx, b, update)
				return
			}

			user, _, err := users.FindOrCreate(ctx, from.ID, DisplayName(from))
			if err != nil {
				slog.Error("failed to load user", "error", err, "telegram_id", from.ID)
			} else {
				ctx = WithUser(ctx, user)
			}

			next(ctx, b, update)
		}
	}
}

// DisplayName prefers the full name and falls back to the username.
func DisplayName(u *models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// UserResolverFunc adapts a plain function to UserResolver.
type UserResolverFunc func(ctx context.Context, telegramID int64, displayName string) (*domain.User, bool, error)

func (f UserResolverFunc) FindOrCreate(ctx context.Context, telegramID int64, displayName string) (*domain.User, bool, error) {
	return f(ctx, telegramID, displayName)
}
