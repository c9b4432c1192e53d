package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/set-night/julie/internal/domain"
	"github.com/set-night/julie/internal/repository"
)

// memStore is an in-memory Store. InTx snapshots the state and restores it
// when fn fails, so tests can observe all-or-nothing behavior.
type memStore struct {
	mu            sync.Mutex
	clock         func() time.Time
	nextID        int64
	users         map[int64]*domain.User // by telegram id
	messages      []domain.Message
	subscriptions []domain.Subscription
	feedback      []domain.Feedback

	failRecordMessage error
	failOnCall        int // fail the n-th RecordMessage call (1-based), 0 = every call
	recordCalls       int
}

func newMemStore() *memStore {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int64
	return &memStore{
		users: map[int64]*domain.User{},
		clock: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

type memSnapshot struct {
	nextID        int64
	users         map[int64]domain.User
	messages      []domain.Message
	subscriptions []domain.Subscription
	feedback      []domain.Feedback
}

func (s *memStore) snapshot() memSnapshot {
	users := make(map[int64]domain.User, len(s.users))
	for k, u := range s.users {
		users[k] = *u
	}
	return memSnapshot{
		nextID:        s.nextID,
		users:         users,
		messages:      slices.Clone(s.messages),
		subscriptions: slices.Clone(s.subscriptions),
		feedback:      slices.Clone(s.feedback),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.nextID = snap.nextID
	s.users = map[int64]*domain.User{}
	for k, u := range snap.users {
		s.users[k] = &u
	}
	s.messages = snap.messages
	s.subscriptions = snap.subscriptions
	s.feedback = snap.feedback
}

func (s *memStore) InTx(ctx context.Context, fn func(repo repository.Repository) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) GetOrCreateUser(_ context.Context, telegramID int64, displayName string) (*domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[telegramID]; ok {
		c := *u
		return &c, false, nil
	}
	now := s.clock()
	u := &domain.User{
		ID:          s.id(),
		TelegramID:  telegramID,
		DisplayName: displayName,
		Mode:        domain.ModeNormal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.users[telegramID] = u
	c := *u
	return &c, true, nil
}

func (s *memStore) GetUserByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[telegramID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *memStore) userByID(id int64) *domain.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *memStore) FindUserByBillingReference(_ context.Context, ref string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if ref != "" && u.BillingRef == ref {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memStore) SetBillingReference(_ context.Context, userID int64, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByID(userID)
	if u == nil {
		return domain.ErrUserNotFound
	}
	u.BillingRef = ref
	return nil
}

func (s *memStore) SetConversationMode(_ context.Context, userID int64, mode domain.ConversationMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByID(userID)
	if u == nil {
		return domain.ErrUserNotFound
	}
	u.Mode = mode
	return nil
}

func (s *memStore) RecordMessage(_ context.Context, userID int64, content string, fromUser bool) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordCalls++
	if s.failRecordMessage != nil && (s.failOnCall == 0 || s.failOnCall == s.recordCalls) {
		return nil, s.failRecordMessage
	}
	if s.userByID(userID) == nil {
		return nil, domain.ErrUserNotFound
	}
	m := domain.Message{
		ID:        s.id(),
		UserID:    userID,
		Content:   content,
		FromUser:  fromUser,
		CreatedAt: s.clock(),
	}
	s.messages = append(s.messages, m)
	return &m, nil
}

func (s *memStore) RecentMessages(_ context.Context, userID int64, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if s.messages[i].UserID == userID {
			out = append(out, s.messages[i])
		}
	}
	slices.Reverse(out)
	return out, nil
}

func (s *memStore) CountUserMessages(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.UserID == userID && m.FromUser {
			n++
		}
	}
	return n, nil
}

func (s *memStore) LatestSubscription(_ context.Context, userID int64) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.subscriptions) - 1; i >= 0; i-- {
		if s.subscriptions[i].UserID == userID && s.subscriptions[i].EndDate != nil {
			c := s.subscriptions[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateSubscription(_ context.Context, userID int64, start, end *time.Time) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start != nil && end != nil && end.Before(*start) {
		return nil, domain.ErrInvalidPeriod
	}
	if s.userByID(userID) == nil {
		return nil, domain.ErrUserNotFound
	}
	sub := domain.Subscription{
		ID:        s.id(),
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		CreatedAt: s.clock(),
	}
	s.subscriptions = append(s.subscriptions, sub)
	return &sub, nil
}

func (s *memStore) RecordFeedback(_ context.Context, userID int64, content string) (*domain.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userByID(userID) == nil {
		return nil, domain.ErrUserNotFound
	}
	f := domain.Feedback{ID: s.id(), UserID: userID, Content: content, CreatedAt: s.clock()}
	s.feedback = append(s.feedback, f)
	return &f, nil
}

func (s *memStore) WipeAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(memSnapshot{users: map[int64]domain.User{}})
	return nil
}

func (s *memStore) userMessages(userID int64) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

type fakeGenerator struct {
	calls    int
	history  []string
	messages []string
	answer   string
	err      error
}

func (g *fakeGenerator) Generate(_ context.Context, history, message string) (string, error) {
	g.calls++
	g.history = append(g.history, history)
	g.messages = append(g.messages, message)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type sentNotification struct {
	telegramID int64
	text       string
}

type fakeNotifier struct {
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, telegramID int64, text string) error {
	n.sent = append(n.sent, sentNotification{telegramID: telegramID, text: text})
	return n.err
}

type fakeGateway struct {
	customers     int
	checkouts     []CheckoutParams
	portalReturns []string
	customerErr   error
	checkoutErr   error
}

func (g *fakeGateway) CreateCustomer(context.Context, int64) (string, error) {
	if g.customerErr != nil {
		return "", g.customerErr
	}
	g.customers++
	return "cus_new", nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if g.checkoutErr != nil {
		return nil, g.checkoutErr
	}
	g.checkouts = append(g.checkouts, p)
	return &CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.com/c/pay/cs_test"}, nil
}

func (g *fakeGateway) CreateBillingPortalSession(_ context.Context, customerRef, returnURL string) (string, error) {
	g.portalReturns = append(g.portalReturns, returnURL)
	return "https://billing.stripe.com/p/session/" + customerRef, nil
}

type recordingAudit struct {
	errors        int
	registrations int
	subscriptions int
	feedback      []string
}

func (a *recordingAudit) LogError(error, string)                             { a.errors++ }
func (a *recordingAudit) LogRegistration(*domain.User)                       { a.registrations++ }
func (a *recordingAudit) LogSubscription(*domain.User, *domain.Subscription) { a.subscriptions++ }
func (a *recordingAudit) LogFeedback(_ *domain.User, text string)            { a.feedback = append(a.feedback, text) }

var errBoom = errors.New("boom")
