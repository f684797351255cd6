package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialex/internal/app/conversation"
	"socialex/internal/app/user"
	"socialex/internal/pkg/errs"
)

func newTestHub(t *testing.T, users user.Store, convs conversation.Store) *Hub {
	t.Helper()
	h := NewHub(users, convs, HubConfig{EnforceRoomMembership: true, StoreTimeout: time.Second})
	t.Cleanup(h.Shutdown)
	return h
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(Envelope{Event: event, Data: raw})
	require.NoError(t, err)
	return out
}

func connect(t *testing.T, h *Hub, userID string) (*Session, *fakeConn) {
	t.Helper()
	conn := newFakeConn("conn-" + userID)
	s := h.NewSession(conn, "")
	s.Handle(frame(t, EventUserConnect, userID))
	require.Equal(t, StateIdentified, s.State())
	return s, conn
}

func chatErrorCode(t *testing.T, conn *fakeConn) int {
	t.Helper()
	got := conn.payloads(EventChatError)
	require.NotEmpty(t, got)
	return got[len(got)-1].(ChatErrorPayload).Code
}

func TestSession_AnonymousEventsAreRejected(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	conn := newFakeConn("c1")
	s := h.NewSession(conn, "")

	for _, event := range []string{EventJoinChat, EventSendMessage, EventMarkRead, EventTyping, EventStopTyping} {
		s.Handle(frame(t, event, map[string]string{"chatId": "x", "receiverId": "b", "message": "hi"}))
		assert.Equal(t, errs.ErrNotIdentified, chatErrorCode(t, conn), event)
	}

	assert.Equal(t, StateAnonymous, s.State())
	assert.Zero(t, conn.count(EventMessageSent))
	assert.Zero(t, h.OnlineCount())
}

func TestSession_InvalidFrames(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	s, conn := connect(t, h, "a")

	s.Handle([]byte("not json"))
	assert.Equal(t, errs.ErrInvalidJSONFormat, chatErrorCode(t, conn))

	s.Handle(frame(t, "dance", nil))
	assert.Equal(t, errs.ErrUnknownEvent, chatErrorCode(t, conn))

	s.Handle(frame(t, EventSendMessage, "just a string"))
	assert.Equal(t, errs.ErrInvalidParams, chatErrorCode(t, conn))
	assert.Zero(t, conn.count(EventMessageError))
}

func TestSession_ConnectAnnouncesPresence(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())

	_, b := connect(t, h, "b")
	assert.Zero(t, b.total())

	_, _ = connect(t, h, "a")

	assert.True(t, h.IsOnline("a"))
	assert.Equal(t, []any{PresencePayload{UserID: "a", Username: "alice"}}, b.payloads(EventFriendOnline))
}

func TestSession_RepeatedConnectAnnouncesOnce(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	_, b := connect(t, h, "b")

	a, _ := connect(t, h, "a")
	a.Handle(frame(t, EventUserConnect, "a"))
	a.Handle(frame(t, EventUserConnect, map[string]string{"userId": "a"}))

	assert.Equal(t, 1, b.count(EventFriendOnline))
	assert.True(t, h.IsOnline("a"))
}

func TestSession_RepeatedConnectReclaimsReplacedIdentity(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	_, b := connect(t, h, "b")

	first, firstConn := connect(t, h, "a")
	second := h.NewSession(newFakeConn("conn-a-2"), "")
	second.Handle(frame(t, EventUserConnect, "a"))
	b.reset()

	first.Handle(frame(t, EventUserConnect, "a"))

	assert.True(t, h.isRegistered("a", firstConn))
	assert.Equal(t, 1, b.count(EventFriendOnline))
}

func TestSession_ConnectAcceptsObjectPayload(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	s := h.NewSession(newFakeConn("c1"), "")

	s.Handle(frame(t, EventUserConnect, map[string]string{"userId": "a"}))

	assert.Equal(t, "a", s.UserID())
	assert.True(t, h.IsOnline("a"))
}

func TestSession_ConnectRequiresID(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	conn := newFakeConn("c1")
	s := h.NewSession(conn, "")

	s.Handle(frame(t, EventUserConnect, ""))

	assert.Equal(t, errs.ErrInvalidParams, chatErrorCode(t, conn))
	assert.Equal(t, StateAnonymous, s.State())
}

func TestSession_PinnedIdentity(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	conn := newFakeConn("c1")
	s := h.NewSession(conn, "a")

	s.Handle(frame(t, EventUserConnect, "b"))
	assert.Equal(t, errs.ErrIdentityMismatch, chatErrorCode(t, conn))
	assert.False(t, h.IsOnline("b"))

	s.Handle(frame(t, EventUserConnect, nil))
	assert.Equal(t, "a", s.UserID())
	assert.True(t, h.IsOnline("a"))
}

func TestSession_CloseAnnouncesOffline(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	_, b := connect(t, h, "b")
	a, _ := connect(t, h, "a")

	h.EndSession(a)

	assert.False(t, h.IsOnline("a"))
	assert.Equal(t, []any{PresencePayload{UserID: "a"}}, b.payloads(EventFriendOffline))
	assert.Equal(t, StateClosed, a.State())

	h.EndSession(a)
	assert.Equal(t, 1, b.count(EventFriendOffline))
}

func TestSession_CloseWithZeroFollowers(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	s, conn := connect(t, h, "loner")

	assert.NotPanics(t, func() { h.EndSession(s) })
	assert.False(t, h.IsOnline("loner"))
	assert.Zero(t, conn.count(EventChatError))
}

func TestSession_StaleConnectionCloseKeepsNewer(t *testing.T) {
	h := newTestHub(t, newGraph(), conversation.NewMemoryStore())
	_, b := connect(t, h, "b")

	first, firstConn := connect(t, h, "a")
	second := h.NewSession(newFakeConn("conn-a-2"), "")
	second.Handle(frame(t, EventUserConnect, "a"))

	assert.False(t, firstConn.isClosed())
	b.reset()

	h.EndSession(first)

	assert.True(t, h.IsOnline("a"))
	assert.Zero(t, b.count(EventFriendOffline))

	h.EndSession(second)
	assert.False(t, h.IsOnline("a"))
	assert.Equal(t, 1, b.count(EventFriendOffline))
}

func TestSession_ReidentifyReleasesPreviousIdentity(t *testing.T) {
	convs := conversation.NewMemoryStore()
	h := newTestHub(t, newGraph(), convs)
	conv, err := convs.FindOrCreate(context.Background(), "a", "b")
	require.NoError(t, err)

	s, conn := connect(t, h, "a")
	s.Handle(frame(t, EventJoinChat, conv.ID))
	require.True(t, h.rooms.IsMember(conn, conv.ID))

	s.Handle(frame(t, EventUserConnect, "c"))

	assert.Equal(t, "c", s.UserID())
	assert.False(t, h.IsOnline("a"))
	assert.True(t, h.IsOnline("c"))
	assert.False(t, h.rooms.IsMember(conn, conv.ID))
}

func TestSession_JoinChatEnforcesMembership(t *testing.T) {
	convs := conversation.NewMemoryStore()
	h := newTestHub(t, newGraph(), convs)
	conv, err := convs.FindOrCreate(context.Background(), "a", "b")
	require.NoError(t, err)

	s, conn := connect(t, h, "c")

	s.Handle(frame(t, EventJoinChat, conv.ID))
	assert.Equal(t, errs.ErrNotParticipant, chatErrorCode(t, conn))
	assert.False(t, h.rooms.IsMember(conn, conv.ID))

	s.Handle(frame(t, EventJoinChat, "missing"))
	assert.Equal(t, errs.ErrChatNotFound, chatErrorCode(t, conn))

	a, aConn := connect(t, h, "a")
	a.Handle(frame(t, EventJoinChat, map[string]string{"chatId": conv.ID}))
	assert.True(t, h.rooms.IsMember(aConn, conv.ID))
	assert.Zero(t, aConn.count(EventChatError))
}

func TestSession_JoinChatWithoutEnforcement(t *testing.T) {
	h := NewHub(newGraph(), conversation.NewMemoryStore(), HubConfig{})
	t.Cleanup(h.Shutdown)

	s, conn := connect(t, h, "c")
	s.Handle(frame(t, EventJoinChat, "anything"))

	assert.True(t, h.rooms.IsMember(conn, "anything"))
	assert.Zero(t, conn.count(EventChatError))
}

func TestSession_CloseLeavesRooms(t *testing.T) {
	convs := conversation.NewMemoryStore()
	h := newTestHub(t, newGraph(), convs)
	conv, err := convs.FindOrCreate(context.Background(), "a", "b")
	require.NoError(t, err)

	s, conn := connect(t, h, "a")
	s.Handle(frame(t, EventJoinChat, conv.ID))

	h.EndSession(s)

	assert.False(t, h.rooms.IsMember(conn, conv.ID))
	assert.Empty(t, h.rooms.Members(conv.ID))
}

func TestSession_MessageFlow(t *testing.T) {
	convs := conversation.NewMemoryStore()
	h := newTestHub(t, newGraph(), convs)
	a, aConn := connect(t, h, "a")
	b, bConn := connect(t, h, "b")

	a.Handle(frame(t, EventTyping, TypingPayload{ReceiverID: "b"}))
	a.Handle(frame(t, EventSendMessage, SendMessagePayload{ReceiverID: "b", Message: "hello"}))
	a.Handle(frame(t, EventStopTyping, TypingPayload{ReceiverID: "b"}))

	assert.Equal(t, 1, bConn.count(EventUserTyping))
	assert.Equal(t, 1, bConn.count(EventUserStopTyping))

	received := bConn.payloads(EventReceiveMessage)
	require.Len(t, received, 1)
	chatID := received[0].(ReceiveMessagePayload).ChatID
	assert.Equal(t, 1, aConn.count(EventMessageSent))

	b.Handle(frame(t, EventMarkRead, MarkReadPayload{ChatID: chatID}))
	assert.Equal(t, []any{MessagesReadPayload{ChatID: chatID, ReadBy: "b"}}, aConn.payloads(EventMessagesRead))

	conv, err := convs.Get(context.Background(), chatID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.True(t, conv.Messages[0].IsRead)
}

func TestSession_MessageErrorsGoToSenderOnly(t *testing.T) {
	convs := &faultyConvStore{Store: conversation.NewMemoryStore(), appendErr: errors.New("write failed")}
	h := newTestHub(t, newGraph(), convs)
	a, aConn := connect(t, h, "a")
	_, bConn := connect(t, h, "b")
	bConn.reset()

	a.Handle(frame(t, EventSendMessage, SendMessagePayload{ReceiverID: "b", Message: "hello"}))

	got := aConn.payloads(EventMessageError)
	require.Len(t, got, 1)
	assert.Equal(t, errs.NewError(errs.ErrMessageSendFailed).Message, got[0].(MessageErrorPayload).Error)
	assert.Zero(t, aConn.count(EventMessageSent))
	assert.Zero(t, bConn.total())

	a.Handle(frame(t, EventMarkRead, MarkReadPayload{ChatID: "missing"}))
	assert.Equal(t, 2, aConn.count(EventMessageError))
}

func TestSession_PanicIsContained(t *testing.T) {
	users := userStoreFunc(func(context.Context, string) (user.User, error) {
		panic("boom")
	})
	h := newTestHub(t, users, conversation.NewMemoryStore())
	conn := newFakeConn("c1")
	s := h.NewSession(conn, "")

	assert.NotPanics(t, func() { s.Handle(frame(t, EventUserConnect, "a")) })
	assert.Equal(t, errs.ErrUnknown, chatErrorCode(t, conn))
}

func TestHub_ChatDeleted(t *testing.T) {
	convs := conversation.NewMemoryStore()
	h := newTestHub(t, newGraph(), convs)
	conv, err := convs.FindOrCreate(context.Background(), "a", "b")
	require.NoError(t, err)

	a, aConn := connect(t, h, "a")
	b, bConn := connect(t, h, "b")
	a.Handle(frame(t, EventJoinChat, conv.ID))
	b.Handle(frame(t, EventJoinChat, conv.ID))

	assert.Equal(t, 2, h.ChatDeleted(conv.ID))
	assert.Equal(t, []any{ChatDeletedPayload{ChatID: conv.ID}}, aConn.payloads(EventChatDeleted))
	assert.Equal(t, 1, bConn.count(EventChatDeleted))
	assert.Empty(t, h.rooms.Members(conv.ID))
}

func TestHub_Shutdown(t *testing.T) {
	h := NewHub(newGraph(), conversation.NewMemoryStore(), HubConfig{})
	_, b := connect(t, h, "b")
	a, aConn := connect(t, h, "a")

	h.Shutdown()
	h.Shutdown()

	assert.True(t, aConn.isClosed())
	assert.True(t, b.isClosed())

	h.EndSession(a)
	assert.False(t, h.IsOnline("a"))
}
