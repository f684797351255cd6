/*
Package realtime implements the live chat and presence layer.

Clients talk to the server over a WebSocket carrying JSON envelopes of the form
{"event": "<name>", "data": <payload>}. The package maps user identities to live
connections (Registry), tells a user's social graph about online/offline transitions
(Presence), scopes connections into per-conversation rooms (Rooms), persists and routes
messages (MessageRouter) and relays typing notices (TypingRelay). A Hub owns one instance
of each and drives a Session state machine per connection.
*/
package realtime

import (
	"encoding/json"

	"socialex/internal/app/conversation"
)

// Client to server events.
const (
	EventUserConnect = "user-connect"
	EventJoinChat    = "join-chat"
	EventSendMessage = "send-message"
	EventMarkRead    = "mark-messages-read"
	EventTyping      = "typing"
	EventStopTyping  = "stop-typing"
)

// Server to client events.
const (
	EventFriendOnline   = "friend-online"
	EventFriendOffline  = "friend-offline"
	EventReceiveMessage = "receive-message"
	EventMessageSent    = "message-sent"
	EventMessageError   = "message-error"
	EventMessagesRead   = "messages-read"
	EventUserTyping     = "user-typing"
	EventUserStopTyping = "user-stop-typing"
	EventChatError      = "chat-error"
	EventChatDeleted    = "chat-deleted"
)

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the data of send-message.
type SendMessagePayload struct {
	ChatID      string `json:"chatId"`
	ReceiverID  string `json:"receiverId"`
	Message     string `json:"message"`
	MessageType string `json:"messageType,omitempty"`
}

// MarkReadPayload is the data of mark-messages-read.
type MarkReadPayload struct {
	ChatID string `json:"chatId"`
}

// TypingPayload is the data of typing and stop-typing.
type TypingPayload struct {
	ChatID     string `json:"chatId"`
	ReceiverID string `json:"receiverId"`
}

// PresencePayload is the data of friend-online and friend-offline.
type PresencePayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

// ReceiveMessagePayload is the data of receive-message.
type ReceiveMessagePayload struct {
	ChatID   string               `json:"chatId"`
	Message  conversation.Message `json:"message"`
	SenderID string               `json:"senderId"`
}

// MessageSentPayload is the data of message-sent.
type MessageSentPayload struct {
	ChatID  string               `json:"chatId"`
	Message conversation.Message `json:"message"`
}

// MessageErrorPayload is the data of message-error.
type MessageErrorPayload struct {
	Error string `json:"error"`
}

// MessagesReadPayload is the data of messages-read.
type MessagesReadPayload struct {
	ChatID string `json:"chatId"`
	ReadBy string `json:"readBy"`
}

// TypingNoticePayload is the data of user-typing and user-stop-typing.
type TypingNoticePayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// ChatErrorPayload is the data of chat-error.
type ChatErrorPayload struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// ChatDeletedPayload is the data of chat-deleted.
type ChatDeletedPayload struct {
	ChatID string `json:"chatId"`
}
