package realtime

import (
	"context"
	"sync"
	"time"

	"socialex/internal/app/conversation"
	"socialex/internal/app/user"
)

type emitted struct {
	event   string
	payload any
}

// fakeConn records emitted events in memory.
type fakeConn struct {
	id string

	mu     sync.Mutex
	events []emitted
	closed bool
	full   bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(event string, payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.full {
		return false
	}
	c.events = append(c.events, emitted{event: event, payload: payload})
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// payloads returns the payloads of every event named event, in emission order.
func (c *fakeConn) payloads(event string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []any
	for _, e := range c.events {
		if e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}

func (c *fakeConn) count(event string) int {
	return len(c.payloads(event))
}

func (c *fakeConn) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// faultyConvStore wraps a conversation store and fails selected operations.
type faultyConvStore struct {
	conversation.Store

	getErr          error
	findOrCreateErr error
	appendErr       error
	markReadErr     error
}

func (s *faultyConvStore) Get(ctx context.Context, id string) (conversation.Conversation, error) {
	if s.getErr != nil {
		return conversation.Conversation{}, s.getErr
	}
	return s.Store.Get(ctx, id)
}

func (s *faultyConvStore) FindOrCreate(ctx context.Context, a, b string) (conversation.Conversation, error) {
	if s.findOrCreateErr != nil {
		return conversation.Conversation{}, s.findOrCreateErr
	}
	return s.Store.FindOrCreate(ctx, a, b)
}

func (s *faultyConvStore) AppendMessage(ctx context.Context, id string, msg conversation.Message) (conversation.Message, error) {
	if s.appendErr != nil {
		return conversation.Message{}, s.appendErr
	}
	return s.Store.AppendMessage(ctx, id, msg)
}

func (s *faultyConvStore) MarkRead(ctx context.Context, id string, readerID string) (int, error) {
	if s.markReadErr != nil {
		return 0, s.markReadErr
	}
	return s.Store.MarkRead(ctx, id, readerID)
}

// userStoreFunc adapts a function to user.Store.
type userStoreFunc func(ctx context.Context, id string) (user.User, error)

func (f userStoreFunc) GetUser(ctx context.Context, id string) (user.User, error) {
	return f(ctx, id)
}

// newGraph returns a user store where a follows b and b follows a, and c follows a.
func newGraph() *user.MemoryStore {
	s := user.NewMemoryStore()
	s.Put(user.User{ID: "a", Username: "alice"})
	s.Put(user.User{ID: "b", Username: "bob"})
	s.Put(user.User{ID: "c", Username: "carol"})
	s.Put(user.User{ID: "loner", Username: "loner"})
	s.Follow("a", "b")
	s.Follow("b", "a")
	s.Follow("c", "a")
	return s
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
