package conversation

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"socialex/internal/pkg/randx"
)

// MemoryStore keeps conversations in process memory. It is used in development mode and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*Conversation
	pairs map[[2]string]string

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		convs: make(map[string]*Conversation),
		pairs: make(map[[2]string]string),
		now:   time.Now,
	}
}

// FindOrCreate implements Store.
func (s *MemoryStore) FindOrCreate(_ context.Context, a, b string) (Conversation, error) {
	pair, err := Pair(a, b)
	if err != nil {
		return Conversation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.pairs[pair]; ok {
		return clone(s.convs[id], true), nil
	}

	now := s.now()
	c := &Conversation{
		ID:              randx.ID(),
		Participants:    pair,
		LastMessageTime: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.convs[c.ID] = c
	s.pairs[pair] = c.ID

	return clone(c, true), nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.convs[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return clone(c, true), nil
}

// AppendMessage implements Store.
func (s *MemoryStore) AppendMessage(_ context.Context, id string, msg Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[id]
	if !ok {
		return Message{}, ErrNotFound
	}

	msg.ID = randx.ID()
	c.Messages = append(c.Messages, msg)
	c.LastMessage, c.LastMessageTime = msg.Body, msg.Timestamp
	c.UpdatedAt = s.now()

	return msg, nil
}

// MarkRead implements Store.
func (s *MemoryStore) MarkRead(_ context.Context, id string, readerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[id]
	if !ok {
		return 0, ErrNotFound
	}

	changed := 0
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.Sender != readerID && !m.IsRead {
			m.IsRead = true
			changed++
		}
	}

	return changed, nil
}

// ListForUser implements Store.
func (s *MemoryStore) ListForUser(_ context.Context, userID string) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, 0)
	for _, c := range s.convs {
		if c.HasParticipant(userID) {
			out = append(out, clone(c, false))
		}
	}

	slices.SortFunc(out, func(x, y Conversation) int {
		return cmp.Or(
			y.LastMessageTime.Compare(x.LastMessageTime),
			cmp.Compare(x.ID, y.ID),
		)
	})

	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[id]
	if !ok {
		return ErrNotFound
	}

	delete(s.pairs, c.Participants)
	delete(s.convs, id)

	return nil
}

func clone(c *Conversation, withMessages bool) Conversation {
	out := *c
	out.Messages = nil
	if withMessages {
		out.Messages = slices.Clone(c.Messages)
	}
	return out
}
