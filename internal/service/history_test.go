package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/set-night/julie/internal/domain"
)

type staticHistory []domain.Message

func (h staticHistory) RecentMessages(context.Context, int64, int) ([]domain.Message, error) {
	return h, nil
}

func TestBuildHistoryKeepsChronologicalOrder(t *testing.T) {
	store := newMemStore()
	user, _, _ := store.GetOrCreateUser(context.Background(), 1, "Alice")
	for _, text := range []string{"A", "B", "C", "D"} {
		store.RecordMessage(context.Background(), user.ID, text, true)
	}

	got, err := BuildHistory(context.Background(), store, user.ID, 2)
	if err != nil {
		t.Fatalf("BuildHistory: %v", err)
	}
	want := "utilisateur: C\nutilisateur: D"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildHistoryReordersNewestFirstInput(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newestFirst := staticHistory{
		{ID: 3, Content: "ça va mieux", FromUser: true, CreatedAt: base.Add(3 * time.Minute)},
		{ID: 2, Content: "Comment allez-vous ?", FromUser: false, CreatedAt: base.Add(2 * time.Minute)},
		{ID: 1, Content: "bonjour", FromUser: true, CreatedAt: base.Add(time.Minute)},
	}

	got, err := BuildHistory(context.Background(), newestFirst, 1, 6)
	if err != nil {
		t.Fatalf("BuildHistory: %v", err)
	}
	want := "utilisateur: bonjour\ntoi: Comment allez-vous ?\nutilisateur: ça va mieux"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildHistoryNeverExceedsWindow(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var msgs staticHistory
	for i := range 10 {
		msgs = append(msgs, domain.Message{ID: int64(i + 1), Content: "m", FromUser: i%2 == 0, CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}

	got, err := BuildHistory(context.Background(), msgs, 1, 3)
	if err != nil {
		t.Fatalf("BuildHistory: %v", err)
	}
	if n := len(strings.Split(got, "\n")); n != 3 {
		t.Errorf("got %d lines, want 3", n)
	}
}

func TestRenderHistoryTieBreaksOnID(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := RenderHistory([]domain.Message{
		{ID: 8, Content: "second", FromUser: false, CreatedAt: at},
		{ID: 7, Content: "first", FromUser: true, CreatedAt: at},
	})
	if want := "utilisateur: first\ntoi: second"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildHistoryEmpty(t *testing.T) {
	got, err := BuildHistory(context.Background(), staticHistory{}, 1, 6)
	if err != nil || got != "" {
		t.Fatalf("got %q, %v; want empty", got, err)
	}
	got, err = BuildHistory(context.Background(), staticHistory{{Content: "x"}}, 1, 0)
	if err != nil || got != "" {
		t.Fatalf("window 0: got %q, %v; want empty", got, err)
	}
}
