package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"socialex/internal/app/conversation"
	"socialex/internal/app/user"
	"socialex/internal/pkg/errs"
	"socialex/internal/pkg/logx"
)

// DefaultStoreTimeout bounds every store call made while handling one event.
const DefaultStoreTimeout = 5 * time.Second

// HubConfig tunes a Hub.
type HubConfig struct {
	// Audience selects who hears about presence transitions.
	Audience Audience

	// EnforceRoomMembership rejects join-chat for conversations the user is not part of.
	EnforceRoomMembership bool

	// StoreTimeout bounds store calls per event. Zero selects DefaultStoreTimeout.
	StoreTimeout time.Duration
}

// Hub owns the realtime components and the sessions that drive them.
type Hub struct {
	users user.Store
	convs conversation.Store
	cfg   HubConfig

	registry *Registry
	rooms    *Rooms
	presence *Presence
	router   *MessageRouter
	typing   *TypingRelay

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[*Session]struct{}
	closing  atomic.Bool

	logger zerolog.Logger
}

// NewHub wires a Hub over the user and conversation stores.
func NewHub(users user.Store, convs conversation.Store, cfg HubConfig) *Hub {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}

	registry := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		users:    users,
		convs:    convs,
		cfg:      cfg,
		registry: registry,
		rooms:    NewRooms(),
		presence: NewPresence(users, registry, cfg.Audience),
		router:   NewMessageRouter(convs, registry),
		typing:   NewTypingRelay(registry),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[*Session]struct{}),
		logger:   logx.Component("hub"),
	}
}

// NewSession starts tracking conn. pinnedUserID, when set, is the only identity the
// connection may claim with user-connect.
func (h *Hub) NewSession(conn Conn, pinnedUserID string) *Session {
	s := newSession(h, conn, pinnedUserID)

	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()

	return s
}

// EndSession closes s and stops tracking it.
func (h *Hub) EndSession(s *Session) {
	s.Close()

	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

// IsOnline reports whether userID has a registered connection.
func (h *Hub) IsOnline(userID string) bool {
	_, ok := h.registry.Lookup(userID)
	return ok
}

// OnlineCount returns the number of registered users.
func (h *Hub) OnlineCount() int {
	return h.registry.Len()
}

func (h *Hub) isRegistered(userID string, conn Conn) bool {
	current, ok := h.registry.Lookup(userID)
	return ok && current == conn
}

// ChatDeleted tells every connection in the room of chatID that the chat is gone and
// dissolves the room. It returns the number of notices queued.
func (h *Hub) ChatDeleted(chatID string) int {
	sent := h.rooms.Broadcast(chatID, EventChatDeleted, ChatDeletedPayload{ChatID: chatID}, "")
	h.rooms.Drop(chatID)

	h.logger.Info().Str("chat_id", chatID).Int("notified", sent).Msg("Chat deleted")
	return sent
}

// Shutdown closes every tracked connection and cancels in-flight store calls.
// Presence is not propagated for connections closed by shutdown.
func (h *Hub) Shutdown() {
	if !h.closing.CompareAndSwap(false, true) {
		return
	}

	h.mu.Lock()
	conns := make([]Conn, 0, len(h.sessions))
	for s := range h.sessions {
		conns = append(conns, s.conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	h.cancel()

	h.logger.Info().Int("connections", len(conns)).Msg("Hub shut down")
}

func (h *Hub) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(h.ctx, h.cfg.StoreTimeout)
}

// identify registers conn for userID and announces the user online.
// A connection already registered for userID is replaced without being closed.
func (h *Hub) identify(ctx context.Context, userID string, conn Conn) {
	if previous := h.registry.Register(userID, conn); previous != nil && previous != conn {
		h.logger.Info().
			Str("user_id", userID).
			Str("previous_conn_id", previous.ID()).
			Str("conn_id", conn.ID()).
			Msg("Connection replaced")
	}

	n := h.presence.Online(ctx, userID)
	h.logger.Debug().Str("user_id", userID).Int("notified", n).Msg("User connected")
}

// release drops the registration of userID held by conn and announces the user offline
// when that registration was still current.
func (h *Hub) release(ctx context.Context, userID string, conn Conn) {
	if !h.registry.Release(userID, conn) {
		return
	}
	if h.closing.Load() {
		return
	}

	n := h.presence.Offline(ctx, userID)
	h.logger.Debug().Str("user_id", userID).Int("notified", n).Msg("User disconnected")
}

func (h *Hub) joinRoom(ctx context.Context, userID string, conn Conn, chatID string) error {
	if h.cfg.EnforceRoomMembership {
		conv, err := h.convs.Get(ctx, chatID)
		if errors.Is(err, conversation.ErrNotFound) {
			return errs.NewError(errs.ErrChatNotFound)
		}
		if err != nil {
			return errs.NewError(errs.ErrUnknown, err)
		}
		if !conv.HasParticipant(userID) {
			h.logger.Warn().
				Str("user_id", userID).
				Str("chat_id", chatID).
				Msg("Join rejected: not a participant")
			return errs.NewError(errs.ErrNotParticipant)
		}
	}

	if h.rooms.Join(conn, chatID) {
		h.logger.Debug().Str("user_id", userID).Str("chat_id", chatID).Msg("Joined chat room")
	}
	return nil
}
