package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"socialex/internal/pkg/errs"
	"socialex/internal/pkg/logx"
	"socialex/internal/pkg/metrics"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateAnonymous is a connection that has not sent user-connect yet.
	StateAnonymous State = iota

	// StateIdentified is a connection bound to a user identity.
	StateIdentified

	// StateClosed is a connection whose transport is gone.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateIdentified:
		return "identified"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// eventHandler handles one inbound event for an identified session.
type eventHandler struct {
	handle func(s *Session, ctx context.Context, data json.RawMessage) error

	// reportAs is the event that carries handler errors back to the client.
	reportAs string
}

var handlers = map[string]eventHandler{
	EventJoinChat:    {handle: (*Session).joinChat, reportAs: EventChatError},
	EventSendMessage: {handle: (*Session).sendMessage, reportAs: EventMessageError},
	EventMarkRead:    {handle: (*Session).markRead, reportAs: EventMessageError},
	EventTyping:      {handle: (*Session).typing, reportAs: EventChatError},
	EventStopTyping:  {handle: (*Session).stopTyping, reportAs: EventChatError},
}

// Session is the per-connection protocol state machine.
// Events of one Session are expected to arrive from a single goroutine, in order.
type Session struct {
	hub  *Hub
	conn Conn

	// pinned is the identity proven by the transport, if any. user-connect must match it.
	pinned string

	mu     sync.Mutex
	state  State
	userID string

	logger zerolog.Logger
}

func newSession(hub *Hub, conn Conn, pinnedUserID string) *Session {
	return &Session{
		hub:    hub,
		conn:   conn,
		pinned: pinnedUserID,
		state:  StateAnonymous,
		logger: logx.Component("session").With().Str("conn_id", conn.ID()).Logger(),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID returns the bound identity, or "" while anonymous.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Handle decodes a raw envelope and dispatches it.
func (s *Session) Handle(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		s.logger.Warn().Err(err).Int("size", len(raw)).Msg("Client sent invalid envelope")
		metrics.Events.WithLabelValues("invalid", "error").Inc()
		s.reportError(EventChatError, errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	s.Dispatch(env.Event, env.Data)
}

// Dispatch runs the handler of event. Errors and panics are reported to this connection only.
func (s *Session) Dispatch(event string, data json.RawMessage) {
	label := event
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().
				Str("event", event).
				Interface("panic", rec).
				Msg("Recovered from panic in event handler")
			metrics.Events.WithLabelValues(label, "panic").Inc()
			s.reportError(EventChatError, errs.NewError(errs.ErrUnknown))
		}
	}()

	ctx, cancel := s.hub.opContext()
	defer cancel()

	if event == EventUserConnect {
		s.finish(label, EventChatError, s.identify(ctx, data))
		return
	}

	h, ok := handlers[event]
	if !ok {
		label = "unknown"
		s.logger.Warn().Str("event", event).Msg("Client sent unknown event")
		s.finish(label, EventChatError, errs.NewError(errs.ErrUnknownEvent))
		return
	}

	if s.State() != StateIdentified {
		s.finish(label, EventChatError, errs.NewError(errs.ErrNotIdentified))
		return
	}

	s.finish(label, h.reportAs, h.handle(s, ctx, data))
}

func (s *Session) finish(label string, reportAs string, err error) {
	if err == nil {
		metrics.Events.WithLabelValues(label, "ok").Inc()
		return
	}
	metrics.Events.WithLabelValues(label, "error").Inc()

	var pe payloadError
	if errors.As(err, &pe) {
		reportAs = EventChatError
	}
	s.reportError(reportAs, err)
}

func (s *Session) reportError(event string, err error) {
	ce := errs.From(err)

	s.logger.Debug().
		Str("user_id", s.UserID()).
		Str("event", event).
		Int("code", ce.Code).
		Msg(ce.Message)

	if event == EventMessageError {
		emit(s.conn, EventMessageError, MessageErrorPayload{Error: ce.Message})
		return
	}
	emit(s.conn, EventChatError, ChatErrorPayload{Code: ce.Code, Error: ce.Message})
}

// identify binds the session to the user named by data.
// An identified session may identify again; the previous identity is released first.
// Repeating the current identity is a no-op unless another connection has since taken it over.
func (s *Session) identify(ctx context.Context, data json.RawMessage) error {
	userID, err := decodeID(data, "userId")
	if err != nil {
		return err
	}
	if userID == "" {
		userID = s.pinned
	}
	if userID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if s.pinned != "" && userID != s.pinned {
		s.logger.Warn().
			Str("pinned_user_id", s.pinned).
			Str("requested_user_id", userID).
			Msg("Identity does not match connection token")
		return errs.NewError(errs.ErrIdentityMismatch)
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	previous := s.userID
	if previous == userID && s.hub.isRegistered(userID, s.conn) {
		// Already bound and still current.
		s.mu.Unlock()
		return nil
	}
	s.state = StateIdentified
	s.userID = userID
	s.mu.Unlock()

	if previous != "" && previous != userID {
		s.hub.release(ctx, previous, s.conn)
		s.hub.rooms.LeaveAll(s.conn)
	}

	s.hub.identify(ctx, userID, s.conn)
	return nil
}

func (s *Session) joinChat(ctx context.Context, data json.RawMessage) error {
	chatID, err := decodeID(data, "chatId")
	if err != nil {
		return err
	}
	if chatID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return s.hub.joinRoom(ctx, s.UserID(), s.conn, chatID)
}

func (s *Session) sendMessage(ctx context.Context, data json.RawMessage) error {
	var in SendMessagePayload
	if err := decodePayload(data, &in); err != nil {
		return err
	}
	return s.hub.router.Send(ctx, s.UserID(), s.conn, in)
}

func (s *Session) markRead(ctx context.Context, data json.RawMessage) error {
	var in MarkReadPayload
	if err := decodePayload(data, &in); err != nil {
		return err
	}
	return s.hub.router.MarkRead(ctx, s.UserID(), in)
}

func (s *Session) typing(_ context.Context, data json.RawMessage) error {
	var in TypingPayload
	if err := decodePayload(data, &in); err != nil {
		return err
	}
	s.hub.typing.Typing(s.UserID(), in)
	return nil
}

func (s *Session) stopTyping(_ context.Context, data json.RawMessage) error {
	var in TypingPayload
	if err := decodePayload(data, &in); err != nil {
		return err
	}
	s.hub.typing.StopTyping(s.UserID(), in)
	return nil
}

// Close ends the session: the identity is released, presence goes offline when this
// connection was still the registered one, and every room membership ends.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	userID := s.userID
	s.state = StateClosed
	s.mu.Unlock()

	ctx, cancel := s.hub.opContext()
	defer cancel()

	if userID != "" {
		s.hub.release(ctx, userID, s.conn)
	}
	left := s.hub.rooms.LeaveAll(s.conn)

	s.logger.Debug().
		Str("user_id", userID).
		Int("rooms_left", left).
		Msg("Session closed")
}

// payloadError marks malformed event data. It is always reported as chat-error.
type payloadError struct {
	err error
}

func (e payloadError) Error() string { return e.err.Error() }

func (e payloadError) Unwrap() error { return e.err }

func invalidPayload(code int) error {
	return payloadError{err: errs.NewError(code)}
}

// decodeID accepts either a bare JSON string or an object carrying the id under key.
func decodeID(data json.RawMessage, key string) (string, error) {
	if len(data) == 0 || string(data) == "null" {
		return "", nil
	}

	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return strings.TrimSpace(id), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", invalidPayload(errs.ErrInvalidJSONFormat)
	}
	raw, ok := obj[key]
	if !ok {
		return "", nil
	}
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", invalidPayload(errs.ErrInvalidParams)
	}
	return strings.TrimSpace(id), nil
}

func decodePayload(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return invalidPayload(errs.ErrInvalidParams)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return invalidPayload(errs.ErrInvalidParams)
		}
		return invalidPayload(errs.ErrInvalidJSONFormat)
	}
	return nil
}
