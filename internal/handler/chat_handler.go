/*
Package handler provides HTTP handler functions for the chat list and chat history endpoints.
*/
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"socialex/internal/app/conversation"
	"socialex/internal/app/user"
	"socialex/internal/configs"
	"socialex/internal/pkg/auth/jwt"
	"socialex/internal/pkg/errs"
	"socialex/internal/pkg/logx"
	"socialex/internal/pkg/req"
	"socialex/internal/pkg/resp"
)

// Participant is the public profile of a chat participant.
type Participant struct {
	ID         string `json:"id"`
	Username   string `json:"username,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
	Online     bool   `json:"online"`
}

// ChatView is a conversation as returned by the REST endpoints.
type ChatView struct {
	ID              string                 `json:"id"`
	Participants    []Participant          `json:"participants"`
	LastMessage     string                 `json:"lastMessage"`
	LastMessageTime time.Time              `json:"lastMessageTime"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	Messages        []conversation.Message `json:"messages,omitempty"`
	TotalMessages   *int                   `json:"totalMessages,omitempty"`
}

// StartChatInput is the body of POST /api/chats.
type StartChatInput struct {
	ParticipantID string `json:"participantId"`
}

// HandleListChats returns the caller's chats, most recently active first.
func HandleListChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		convs, err := deps.Convs.ListForUser(r.Context(), identity.UserID)
		if err != nil {
			logx.Error(err, "Get user chats error", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		chats := make([]ChatView, 0, len(convs))
		for _, c := range convs {
			chats = append(chats, chatView(r.Context(), deps, c))
		}

		resp.RespondSuccess(w, r, map[string]any{"chats": chats})
	}
}

// HandleStartChat finds or creates the chat between the caller and participantId.
func HandleStartChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		var input StartChatInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.ParticipantID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if input.ParticipantID == identity.UserID {
			resp.RespondError(w, r, errs.NewError(errs.ErrSelfChat))
			return
		}

		if _, err := deps.Users.GetUser(r.Context(), input.ParticipantID); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "Start chat error: participant lookup failed", "participant_id", input.ParticipantID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		conv, err := deps.Convs.FindOrCreate(r.Context(), identity.UserID, input.ParticipantID)
		if err != nil {
			logx.Error(err, "Start chat error", "user_id", identity.UserID, "participant_id", input.ParticipantID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		conv.Messages = nil

		resp.RespondMessage(w, r, "Chat ready", map[string]any{
			"chat": chatView(r.Context(), deps, conv),
		})
	}
}

// HandleGetMessages returns one page of a chat's history.
// Page 1 holds the most recent messages; each page is in chronological order.
func HandleGetMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, customErr := req.QueryInt(r, "page", 1)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		limit, customErr := req.QueryInt(r, "limit", deps.Config.HistoryPageSize)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if limit > configs.MaxHistoryPageSize {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		conv, ok := loadParticipantChat(w, r, deps)
		if !ok {
			return
		}

		window := conversation.Window(conv.Messages, page, limit)
		conv.Messages = nil

		view := chatView(r.Context(), deps, conv)
		view.Messages = window.Messages
		view.TotalMessages = &window.TotalMessages

		resp.RespondSuccess(w, r, map[string]any{
			"chat":        view,
			"currentPage": window.CurrentPage,
			"totalPages":  window.TotalPages,
		})
	}
}

// HandleDeleteChat deletes a chat the caller participates in and notifies its room.
func HandleDeleteChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, ok := loadParticipantChat(w, r, deps)
		if !ok {
			return
		}

		if err := deps.Convs.Delete(r.Context(), conv.ID); err != nil {
			if errors.Is(err, conversation.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrChatNotFound))
				return
			}
			logx.Error(err, "Delete chat error", "chat_id", conv.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Hub.ChatDeleted(conv.ID)

		resp.RespondMessage(w, r, "Chat deleted successfully", nil)
	}
}

// loadParticipantChat loads the chat named by the chatId URL parameter and checks that the
// caller participates in it. On failure the error response has been written.
func loadParticipantChat(w http.ResponseWriter, r *http.Request, deps *AppDeps) (conversation.Conversation, bool) {
	identity := jwt.GetPayloadFromContext(r)
	chatID := chi.URLParam(r, "chatId")

	conv, err := deps.Convs.Get(r.Context(), chatID)
	if errors.Is(err, conversation.ErrNotFound) {
		resp.RespondError(w, r, errs.NewError(errs.ErrChatNotFound))
		return conversation.Conversation{}, false
	}
	if err != nil {
		logx.Error(err, "Load chat error", "chat_id", chatID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return conversation.Conversation{}, false
	}

	if !conv.HasParticipant(identity.UserID) {
		logx.Warn("Chat access rejected: not a participant", "chat_id", chatID, "user_id", identity.UserID)
		resp.RespondError(w, r, errs.NewError(errs.ErrNotParticipant))
		return conversation.Conversation{}, false
	}

	return conv, true
}

func chatView(ctx context.Context, deps *AppDeps, c conversation.Conversation) ChatView {
	view := ChatView{
		ID:              c.ID,
		Participants:    make([]Participant, 0, len(c.Participants)),
		LastMessage:     c.LastMessage,
		LastMessageTime: c.LastMessageTime,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}

	for _, id := range c.Participants {
		p := Participant{ID: id, Online: deps.Hub.IsOnline(id)}
		if u, err := deps.Users.GetUser(ctx, id); err == nil {
			p.Username, p.ProfilePic = u.Username, u.ProfilePic
		} else if !errors.Is(err, user.ErrNotFound) {
			logx.Warn("Participant lookup failed", "user_id", id, "error", err.Error())
		}
		view.Participants = append(view.Participants, p)
	}

	return view
}
