package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/domain"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		FreeMessageThreshold: 5,
		HistoryWindow:        6,
		Domain:               "julie.example.com",
		BotUsername:          "julie_bot",
		StripePriceID:        "price_123",
		SubscriptionPrice:    decimal.RequireFromString("9.99"),
		SubscriptionCurrency: "€",
	}
}

type chatFixture struct {
	svc   *ChatService
	store *memStore
	gen   *fakeGenerator
	audit *recordingAudit
	user  *domain.User
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	store := newMemStore()
	gen := &fakeGenerator{answer: "Je vous écoute."}
	audit := &recordingAudit{}
	svc := NewChatService(store, gen, testConfig(), audit)
	svc.now = func() time.Time { return fixedNow }

	user, _, err := store.GetOrCreateUser(context.Background(), 42, "Alice")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &chatFixture{svc: svc, store: store, gen: gen, audit: audit, user: user}
}

func (f *chatFixture) send(t *testing.T, text string) *Reply {
	t.Helper()
	reply, err := f.svc.Handle(context.Background(), f.user, text)
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
	return reply
}

func TestHandlePaywallAfterFreeMessages(t *testing.T) {
	f := newChatFixture(t)

	for i := range 5 {
		if reply := f.send(t, "message"); reply.Kind != ReplyAnswer {
			t.Fatalf("message %d: got %v, want answer", i+1, reply.Kind)
		}
	}
	if f.gen.calls != 5 {
		t.Fatalf("generator called %d times, want 5", f.gen.calls)
	}

	reply := f.send(t, "sixième message")
	if reply.Kind != ReplyPaywall {
		t.Fatalf("6th message: got %v, want paywall", reply.Kind)
	}
	if f.gen.calls != 5 {
		t.Errorf("generator called for paywalled message")
	}
	wantURL := "https://julie.example.com/redirect_to_stripe?user_id=42"
	if reply.CheckoutURL != wantURL {
		t.Errorf("CheckoutURL = %q, want %q", reply.CheckoutURL, wantURL)
	}
	if !strings.Contains(reply.Text, wantURL) || !strings.Contains(reply.Text, "9.99€") {
		t.Errorf("paywall text %q lacks link or price", reply.Text)
	}

	msgs := f.store.userMessages(f.user.ID)
	last := msgs[len(msgs)-1]
	if last.FromUser || last.Content != reply.Text {
		t.Errorf("paywall prompt not persisted as outbound message: %+v", last)
	}
	if prev := msgs[len(msgs)-2]; !prev.FromUser || prev.Content != "sixième message" {
		t.Errorf("paywalled input not persisted: %+v", prev)
	}
}

func TestHandleResumesWithActiveSubscription(t *testing.T) {
	f := newChatFixture(t)
	for range 6 {
		f.send(t, "bonjour")
	}

	start := fixedNow.Add(-time.Hour)
	end := fixedNow.Add(30 * 24 * time.Hour)
	if _, err := f.store.CreateSubscription(context.Background(), f.user.ID, &start, &end); err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}

	if reply := f.send(t, "je suis de retour"); reply.Kind != ReplyAnswer {
		t.Fatalf("got %v, want answer", reply.Kind)
	}
}

func TestHandleExpiredSubscriptionPaywalls(t *testing.T) {
	f := newChatFixture(t)
	for range 5 {
		f.send(t, "bonjour")
	}

	start := fixedNow.Add(-60 * 24 * time.Hour)
	end := fixedNow.Add(-30 * 24 * time.Hour)
	f.store.CreateSubscription(context.Background(), f.user.ID, &start, &end)

	if reply := f.send(t, "encore"); reply.Kind != ReplyPaywall {
		t.Fatalf("got %v, want paywall", reply.Kind)
	}
}

func TestHandleFeedbackBranch(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	if err := f.svc.StartFeedback(ctx, f.user); err != nil {
		t.Fatalf("StartFeedback: %v", err)
	}

	reply := f.send(t, "L'application est très utile")
	if reply.Kind != ReplyFeedbackAck || reply.Text != FeedbackAckText {
		t.Fatalf("got %+v, want feedback ack", reply)
	}
	if f.gen.calls != 0 {
		t.Error("generator must not run for feedback")
	}
	if len(f.store.feedback) != 1 || f.store.feedback[0].Content != "L'application est très utile" {
		t.Errorf("feedback not stored: %+v", f.store.feedback)
	}
	if msgs := f.store.userMessages(f.user.ID); len(msgs) != 0 {
		t.Errorf("feedback stored as chat message: %+v", msgs)
	}
	stored, _ := f.store.GetUserByTelegramID(ctx, 42)
	if stored.Mode != domain.ModeNormal {
		t.Errorf("mode = %q, want normal", stored.Mode)
	}
	if len(f.audit.feedback) != 1 {
		t.Errorf("feedback not forwarded to audit log")
	}

	if reply := f.send(t, "bonjour"); reply.Kind != ReplyAnswer {
		t.Fatalf("after feedback: got %v, want answer", reply.Kind)
	}
}

func TestHandleFeedbackBypassesPaywall(t *testing.T) {
	f := newChatFixture(t)
	for range 6 {
		f.send(t, "bonjour")
	}
	f.svc.StartFeedback(context.Background(), f.user)

	if reply := f.send(t, "trop cher"); reply.Kind != ReplyFeedbackAck {
		t.Fatalf("got %v, want feedback ack", reply.Kind)
	}
}

func TestHandleGenerationFailureKeepsInput(t *testing.T) {
	f := newChatFixture(t)
	f.gen.err = errBoom

	reply := f.send(t, "allô ?")
	if reply.Kind != ReplyFailure || reply.Text != ApologyText {
		t.Fatalf("got %+v, want apology", reply)
	}

	msgs := f.store.userMessages(f.user.ID)
	if len(msgs) != 1 || !msgs[0].FromUser {
		t.Fatalf("messages = %+v, want only the inbound message", msgs)
	}
	if f.audit.errors != 1 {
		t.Errorf("audit errors = %d, want 1", f.audit.errors)
	}
}

func TestHandleEmptyAnswerIsFailure(t *testing.T) {
	f := newChatFixture(t)
	f.gen.answer = "   "

	if reply := f.send(t, "allô ?"); reply.Kind != ReplyFailure {
		t.Fatalf("got %v, want failure", reply.Kind)
	}
}

func TestHandlePassesBoundedHistory(t *testing.T) {
	f := newChatFixture(t)
	f.svc.cfg.FreeMessageThreshold = 100

	for _, text := range []string{"un", "deux", "trois", "quatre"} {
		f.send(t, text)
	}

	history := f.gen.history[len(f.gen.history)-1]
	lines := strings.Split(history, "\n")
	if len(lines) != 6 {
		t.Fatalf("history has %d lines, want 6: %q", len(lines), history)
	}
	if lines[len(lines)-1] != "utilisateur: quatre" {
		t.Errorf("last history line = %q, want the current message", lines[len(lines)-1])
	}
	if f.gen.messages[len(f.gen.messages)-1] != "quatre" {
		t.Errorf("generator got message %q", f.gen.messages[len(f.gen.messages)-1])
	}
}

func TestHandleInputPersistenceFailure(t *testing.T) {
	f := newChatFixture(t)
	f.store.failRecordMessage = errBoom

	_, err := f.svc.Handle(context.Background(), f.user, "bonjour")
	if !errors.Is(err, errBoom) {
		t.Fatalf("got %v, want boom", err)
	}
	if f.gen.calls != 0 {
		t.Error("generator must not run when the input was not persisted")
	}
}

func TestHandleRejectsEmptyInput(t *testing.T) {
	f := newChatFixture(t)
	if _, err := f.svc.Handle(context.Background(), f.user, "  \n "); !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("got %v, want ErrEmptyInput", err)
	}
}

func TestHandleUnknownUser(t *testing.T) {
	f := newChatFixture(t)
	ghost := &domain.User{ID: 99, TelegramID: 999}
	if _, err := f.svc.Handle(context.Background(), ghost, "bonjour"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestCancelConversation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	f.svc.StartFeedback(ctx, f.user)

	if err := f.svc.CancelConversation(ctx, f.user); err != nil {
		t.Fatalf("CancelConversation: %v", err)
	}
	if reply := f.send(t, "bonjour"); reply.Kind != ReplyAnswer {
		t.Fatalf("got %v, want answer after cancel", reply.Kind)
	}
	if len(f.store.feedback) != 0 {
		t.Error("message stored as feedback after cancel")
	}
}
