package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/set-night/julie/internal/domain"
)

type UserService struct {
	store Store
	audit Audit
}

func NewUserService(store Store, audit Audit) *UserService {
	if audit == nil {
		audit = nopAudit{}
	}
	return &UserService{store: store, audit: audit}
}

// FindOrCreate resolves the chat identity to a user, creating it on first
// contact.
func (s *UserService) FindOrCreate(ctx context.Context, telegramID int64, displayName string) (*domain.User, bool, error) {
	user, created, err := s.store.GetOrCreateUser(ctx, telegramID, displayName)
	if err != nil {
		return nil, false, fmt.Errorf("find or create user: %w", err)
	}
	if created {
		slog.Info("user registered", "user_id", user.ID, "telegram_id", telegramID)
		s.audit.LogRegistration(user)
	}
	return user, created, nil
}
