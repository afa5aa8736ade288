package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/pkg/logger"
	"github.com/nimasrn/time-capsule/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errStore = errors.New("store unavailable")

// memStore is an in-memory MessageStore preserving insertion order.
type memStore struct {
	mu        sync.Mutex
	messages  map[uuid.UUID]*model.Message
	order     []uuid.UUID
	failMark  map[uuid.UUID]int
	queryErr  error
	findCalls int
	markCalls []uuid.UUID
	lastNow   time.Time
	findHook  func(ctx context.Context) error
}

func newMemStore(msgs ...*model.Message) *memStore {
	s := &memStore{
		messages: make(map[uuid.UUID]*model.Message),
		failMark: make(map[uuid.UUID]int),
	}
	for _, m := range msgs {
		s.messages[m.ID] = m
		s.order = append(s.order, m.ID)
	}
	return s
}

// failMarkTimes makes MarkDelivered fail n times for id; n < 0 fails forever.
func (s *memStore) failMarkTimes(id uuid.UUID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMark[id] = n
}

func (s *memStore) FindDue(ctx context.Context, now time.Time) ([]*model.Message, error) {
	if s.findHook != nil {
		if err := s.findHook(ctx); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	s.lastNow = now
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var due []*model.Message
	for _, id := range s.order {
		m := s.messages[id]
		if m.IsDue(now) {
			cp := *m
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (s *memStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls = append(s.markCalls, id)
	if n, ok := s.failMark[id]; ok && n != 0 {
		if n > 0 {
			s.failMark[id] = n - 1
		}
		return errStore
	}
	if m, ok := s.messages[id]; ok {
		m.IsDelivered = true
		m.UpdatedAt = time.Now()
	}
	return nil
}

func (s *memStore) delivered(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id].IsDelivered
}

func (s *memStore) marks() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.markCalls...)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Name() string { return "mock" }

func (m *MockNotifier) Deliver(ctx context.Context, msg *model.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// recordingNotifier remembers delivery order and can be told to fail or panic.
type recordingNotifier struct {
	mu     sync.Mutex
	seen   []uuid.UUID
	fail   map[uuid.UUID]error
	panics map[uuid.UUID]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{fail: map[uuid.UUID]error{}, panics: map[uuid.UUID]bool{}}
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Deliver(ctx context.Context, m *model.Message) error {
	n.mu.Lock()
	n.seen = append(n.seen, m.ID)
	err, p := n.fail[m.ID], n.panics[m.ID]
	n.mu.Unlock()
	if p {
		panic("notifier exploded")
	}
	return err
}

func (n *recordingNotifier) calls() []uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uuid.UUID(nil), n.seen...)
}

func newMessage(deliveryDate time.Time, delivered bool) *model.Message {
	return &model.Message{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		ChildID:      uuid.New(),
		Title:        "For later",
		Content:      "Open me when you are older",
		Type:         model.MessageTypeText,
		DeliveryDate: deliveryDate,
		IsDelivered:  delivered,
	}
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Replace(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redis.Wrap("tc:", client)
}
