package realtime

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"socialex/internal/app/conversation"
	"socialex/internal/pkg/errs"
	"socialex/internal/pkg/logx"
)

// MaxMessageBytes is the largest accepted message body.
const MaxMessageBytes = 5000

// MessageRouter persists messages and routes them to the live participants.
type MessageRouter struct {
	store    conversation.Store
	registry *Registry
	now      func() time.Time
	logger   zerolog.Logger
}

// NewMessageRouter returns a MessageRouter writing to store and delivering through registry.
func NewMessageRouter(store conversation.Store, registry *Registry) *MessageRouter {
	return &MessageRouter{
		store:    store,
		registry: registry,
		now:      time.Now,
		logger:   logx.Component("message-router"),
	}
}

// Send persists a message from senderID and delivers it.
//
// Blank bodies, a missing receiver and messages to oneself are ignored without error.
// On success the receiver, when online, gets receive-message and the sender always gets
// message-sent. A non-nil error means nothing was persisted and nothing was delivered.
func (r *MessageRouter) Send(ctx context.Context, senderID string, sender Conn, in SendMessagePayload) error {
	if strings.TrimSpace(in.Message) == "" || in.ReceiverID == "" || in.ReceiverID == senderID {
		return nil
	}

	if len(in.Message) > MaxMessageBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	kind, err := conversation.ParseKind(in.MessageType)
	if err != nil {
		return errs.NewError(errs.ErrMessageTypeInvalid)
	}

	conv, err := r.resolve(ctx, senderID, in)
	if err != nil {
		return err
	}

	msg, err := r.store.AppendMessage(ctx, conv.ID, conversation.Message{
		Sender:    senderID,
		Body:      in.Message,
		Kind:      kind,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		r.logger.Error().Err(err).
			Str("chat_id", conv.ID).
			Str("sender_id", senderID).
			Msg("Send message error")
		return errs.NewError(errs.ErrMessageSendFailed)
	}

	if receiver, ok := r.registry.Lookup(in.ReceiverID); ok {
		emit(receiver, EventReceiveMessage, ReceiveMessagePayload{
			ChatID:   conv.ID,
			Message:  msg,
			SenderID: senderID,
		})
	}

	emit(sender, EventMessageSent, MessageSentPayload{ChatID: conv.ID, Message: msg})

	r.logger.Debug().
		Str("chat_id", conv.ID).
		Str("sender_id", senderID).
		Str("receiver_id", in.ReceiverID).
		Msg("Message sent")

	return nil
}

// resolve returns the conversation a message belongs to.
// A supplied chatId must name the conversation of exactly sender and receiver; a chatId
// that no longer exists falls back to find-or-create for the pair.
func (r *MessageRouter) resolve(ctx context.Context, senderID string, in SendMessagePayload) (conversation.Conversation, error) {
	if in.ChatID != "" {
		conv, err := r.store.Get(ctx, in.ChatID)
		switch {
		case err == nil:
			other, ok := conv.Other(senderID)
			if !ok {
				return conversation.Conversation{}, errs.NewError(errs.ErrNotParticipant)
			}
			if other != in.ReceiverID {
				return conversation.Conversation{}, errs.NewError(errs.ErrReceiverMismatch)
			}
			return conv, nil
		case !errors.Is(err, conversation.ErrNotFound):
			r.logger.Error().Err(err).Str("chat_id", in.ChatID).Msg("Failed to load chat for message")
			return conversation.Conversation{}, errs.NewError(errs.ErrMessageSendFailed)
		}
	}

	conv, err := r.store.FindOrCreate(ctx, senderID, in.ReceiverID)
	if err != nil {
		r.logger.Error().Err(err).
			Str("sender_id", senderID).
			Str("receiver_id", in.ReceiverID).
			Msg("Failed to find or create chat")
		return conversation.Conversation{}, errs.NewError(errs.ErrMessageSendFailed)
	}

	return conv, nil
}

// MarkRead marks every message readerID has received in chatID as read and tells the
// other participant, when online, with messages-read. Repeated calls notify again.
func (r *MessageRouter) MarkRead(ctx context.Context, readerID string, in MarkReadPayload) error {
	if in.ChatID == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	conv, err := r.store.Get(ctx, in.ChatID)
	if errors.Is(err, conversation.ErrNotFound) {
		return errs.NewError(errs.ErrChatNotFound)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("chat_id", in.ChatID).Msg("Mark messages read error")
		return errs.NewError(errs.ErrMarkReadFailed)
	}

	other, ok := conv.Other(readerID)
	if !ok {
		return errs.NewError(errs.ErrNotParticipant)
	}

	changed, err := r.store.MarkRead(ctx, conv.ID, readerID)
	if err != nil {
		r.logger.Error().Err(err).Str("chat_id", conv.ID).Msg("Mark messages read error")
		return errs.NewError(errs.ErrMarkReadFailed)
	}

	if conn, ok := r.registry.Lookup(other); ok {
		emit(conn, EventMessagesRead, MessagesReadPayload{ChatID: conv.ID, ReadBy: readerID})
	}

	r.logger.Debug().
		Str("chat_id", conv.ID).
		Str("reader_id", readerID).
		Int("changed", changed).
		Msg("Messages marked read")

	return nil
}
