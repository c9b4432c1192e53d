package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/domain"
)

// HistoryReader fetches the newest messages of a user.
type HistoryReader interface {
	RecentMessages(ctx context.Context, userID int64, limit int) ([]domain.Message, error)
}

// BuildHistory renders the last window messages of the user, oldest first,
// one "<label>: <content>" line per message.
func BuildHistory(ctx context.Context, r HistoryReader, userID int64, window int) (string, error) {
	if window <= 0 {
		return "", nil
	}
	msgs, err := r.RecentMessages(ctx, userID, window)
	if err != nil {
		return "", fmt.Errorf("recent messages: %w", err)
	}

	msgs = chronological(msgs)
	if len(msgs) > window {
		msgs = msgs[len(msgs)-window:]
	}
	return RenderHistory(msgs), nil
}

// RenderHistory formats msgs in chronological order.
func RenderHistory(msgs []domain.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range chronological(msgs) {
		label := config.HistoryAssistantLabel
		if m.FromUser {
			label = config.HistoryUserLabel
		}
		lines = append(lines, label+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// chronological returns a sorted copy ordered by creation time, then id.
func chronological(msgs []domain.Message) []domain.Message {
	sorted := slices.Clone(msgs)
	slices.SortStableFunc(sorted, func(a, b domain.Message) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return sorted
}
