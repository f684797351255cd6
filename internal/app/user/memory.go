package user

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore is an in-process Store used in development mode and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*User)}
}

// Put inserts or replaces the profile fields of u. Follow edges already recorded are kept.
func (s *MemoryStore) Put(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		s.users[u.ID] = &User{ID: u.ID, Username: u.Username, ProfilePic: u.ProfilePic}
		return
	}
	existing.Username = u.Username
	existing.ProfilePic = u.ProfilePic
}

// Follow records that follower follows followee, creating bare records for unknown ids.
func (s *MemoryStore) Follow(follower, followee string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.ensure(follower)
	b := s.ensure(followee)

	if !slices.Contains(a.Following, followee) {
		a.Following = append(a.Following, followee)
	}
	if !slices.Contains(b.Followers, follower) {
		b.Followers = append(b.Followers, follower)
	}
}

// GetUser implements Store.
func (s *MemoryStore) GetUser(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}

	return User{
		ID:         u.ID,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
		Following:  slices.Clone(u.Following),
		Followers:  slices.Clone(u.Followers),
	}, nil
}

func (s *MemoryStore) ensure(id string) *User {
	u, ok := s.users[id]
	if !ok {
		u = &User{ID: id}
		s.users[id] = u
	}
	return u
}

// SeedDevelopment loads the two demo accounts used by the front end in development mode.
func SeedDevelopment(s *MemoryStore) {
	s.Put(User{ID: "1", Username: "john_doe", ProfilePic: "https://via.placeholder.com/150/007bff/ffffff?text=JD"})
	s.Put(User{ID: "2", Username: "jane_smith", ProfilePic: "https://via.placeholder.com/150/28a745/ffffff?text=JS"})
	s.Follow("1", "2")
	s.Follow("2", "1")
}
