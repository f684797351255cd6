/*
Package conversation defines two-party chat threads and the stores that persist them.

A Conversation is keyed by its unordered participant pair: {A,B} and {B,A} name the same
thread, and a store never holds more than one thread per pair. Messages are append-only
except for their read flag, which only ever moves from unread to read. The lastMessage and
lastMessageTime fields are a denormalized summary of the message sequence, written in the
same transaction as each append, and can always be rebuilt from the messages themselves.
*/
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no conversation exists for an id.
	ErrNotFound = errors.New("conversation not found")

	// ErrSameParticipant is returned when both sides of a pair are the same user.
	ErrSameParticipant = errors.New("conversation needs two distinct participants")

	// ErrInvalidKind is returned for message kinds other than text, image and file.
	ErrInvalidKind = errors.New("invalid message kind")
)

// Kind classifies a message payload. The realtime layer treats it as opaque metadata.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// ParseKind validates s. The empty string means KindText.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindText, nil
	case KindText, KindImage, KindFile:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Message is a single entry of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"message"`
	Kind      Kind      `json:"messageType"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}

// Conversation is a persisted thread between exactly two participants.
type Conversation struct {
	ID              string    `json:"id"`
	Participants    [2]string `json:"participants"`
	Messages        []Message `json:"messages,omitempty"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c Conversation) HasParticipant(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// Other returns the participant that is not userID. ok is false when userID does not participate.
func (c Conversation) Other(userID string) (other string, ok bool) {
	switch userID {
	case c.Participants[0]:
		return c.Participants[1], true
	case c.Participants[1]:
		return c.Participants[0], true
	}
	return "", false
}

// DeriveSummary rebuilds lastMessage and lastMessageTime from the message sequence.
// A conversation without messages reports its creation time.
func (c Conversation) DeriveSummary() (lastMessage string, lastMessageTime time.Time) {
	if n := len(c.Messages); n > 0 {
		last := c.Messages[n-1]
		return last.Body, last.Timestamp
	}
	return "", c.CreatedAt
}

// Pair returns the canonical (sorted) form of an unordered participant pair.
func Pair(a, b string) ([2]string, error) {
	if a == "" || b == "" {
		return [2]string{}, errors.New("participant id is empty")
	}
	if a == b {
		return [2]string{}, ErrSameParticipant
	}
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}, nil
}

// Store persists conversations. Writes are visible to subsequent reads from the same process.
type Store interface {
	// FindOrCreate returns the conversation of the unordered pair {a, b}, creating it if needed.
	FindOrCreate(ctx context.Context, a, b string) (Conversation, error)

	// Get returns the conversation with all of its messages in append order.
	Get(ctx context.Context, id string) (Conversation, error)

	// AppendMessage assigns msg an id, appends it and updates the summary in one transaction.
	AppendMessage(ctx context.Context, id string, msg Message) (Message, error)

	// MarkRead flags every unread message not sent by readerID as read and returns how many changed.
	MarkRead(ctx context.Context, id string, readerID string) (int, error)

	// ListForUser returns the summaries (without messages) of every conversation userID
	// participates in, most recent lastMessageTime first.
	ListForUser(ctx context.Context, userID string) ([]Conversation, error)

	// Delete removes the conversation and its messages.
	Delete(ctx context.Context, id string) error
}
