package service

import (
	"context"

	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/repository"
)

// Store is the persistence the services need: the repository contract plus
// scoped transactions. *repository.Store satisfies it.
type Store interface {
	repository.Repository
	InTx(ctx context.Context, fn func(repo repository.Repository) error) error
}

// Audit receives operator-facing events. The Telegram admin log implements it.
type Audit interface {
	LogError(err error, context string)
	LogRegistration(user *domain.User)
	LogSubscription(user *domain.User, sub *domain.Subscription)
	LogFeedback(user *domain.User, text string)
}

type nopAudit struct{}

func (nopAudit) LogError(error, string)                             {}
func (nopAudit) LogRegistration(*domain.User)                       {}
func (nopAudit) LogSubscription(*domain.User, *domain.Subscription) {}
func (nopAudit) LogFeedback(*domain.User, string)                   {}
