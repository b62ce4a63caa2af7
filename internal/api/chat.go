package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/wildscan/internal/chat"
	"github.com/ashureev/wildscan/internal/domain"
	"github.com/go-chi/chi/v5"
)

const defaultSessionTitle = "New conversation"

// ListSessions returns the device's sessions, most recently updated first.
// With ?grouped=1 the sessions are bucketed by date instead.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.deviceChats(r.Context()).List()
	if sessions == nil {
		sessions = []*domain.ChatSession{}
	}

	if g := r.URL.Query().Get("grouped"); g == "1" || g == "true" {
		groups := chat.GroupByDate(sessions, h.now())
		if groups == nil {
			groups = []chat.Group{}
		}
		JSON(w, http.StatusOK, map[string]any{"groups": groups})
		return
	}
	JSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// CreateSession starts a new conversation. The assistant's welcome message is
// added unless welcome is false. Only newChat sessions, the ones the user asked
// for, count towards the chat session statistic; the session the chat screen
// opens on its own does not.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Welcome *bool  `json:"welcome"`
		NewChat bool   `json:"newChat"`
	}
	if !decode(w, r, &req, true) {
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultSessionTitle
	}

	chats := h.deviceChats(r.Context())
	if req.NewChat {
		sess, err := chats.NewChat(r.Context(), title)
		if err != nil {
			slog.Error("Failed to start new chat", "error", err)
			Error(w, http.StatusInternalServerError, "failed to start conversation")
			return
		}
		JSON(w, http.StatusCreated, sess)
		return
	}
	if req.Welcome != nil && !*req.Welcome {
		JSON(w, http.StatusCreated, chats.Create(r.Context(), title))
		return
	}

	sess, err := chats.StartConversation(r.Context(), title)
	if err != nil {
		slog.Error("Failed to start conversation", "error", err)
		Error(w, http.StatusInternalServerError, "failed to start conversation")
		return
	}
	JSON(w, http.StatusCreated, sess)
}

// GetSession returns one session with its messages.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deviceChats(r.Context()).Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		sessionError(w, err)
		return
	}
	JSON(w, http.StatusOK, sess)
}

// DeleteSession removes a session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.deviceChats(r.Context()).Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AppendMessage adds a message to a session without asking the assistant.
func (h *Handler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type     domain.MessageType `json:"type"`
		Content  string             `json:"content"`
		ImageURL string             `json:"imageUrl"`
	}
	if !decode(w, r, &req, false) {
		return
	}
	if !req.Type.Valid() {
		Error(w, http.StatusBadRequest, "type must be \"user\" or \"ai\"")
		return
	}

	msg, err := h.deviceChats(r.Context()).Append(r.Context(), chi.URLParam(r, "sessionID"), domain.ChatMessage{
		Type:     req.Type,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		sessionError(w, err)
		return
	}
	JSON(w, http.StatusCreated, msg)
}

// SendMessage asks the assistant for a reply and appends the user's message
// and the reply together. Nothing is stored when the assistant fails, so a
// client can retry without duplicating its message.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string `json:"content"`
		ImageURL string `json:"imageUrl"`
	}
	if !decode(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Content) == "" && req.ImageURL == "" {
		Error(w, http.StatusBadRequest, "content or imageUrl is required")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	chats := h.deviceChats(r.Context())

	if _, err := chats.Get(sessionID); err != nil {
		sessionError(w, err)
		return
	}

	sentAt := h.now()
	reply, err := h.assistant.Respond(r.Context(), req.Content, req.ImageURL != "")
	if err != nil {
		slog.Error("Assistant reply failed", "error", err, "session_id", sessionID)
		Error(w, http.StatusServiceUnavailable, "assistant unavailable")
		return
	}

	userMsg, err := chats.Append(r.Context(), sessionID, domain.ChatMessage{
		Type:      domain.MessageTypeUser,
		Content:   req.Content,
		ImageURL:  req.ImageURL,
		Timestamp: sentAt,
	})
	if err != nil {
		sessionError(w, err)
		return
	}

	aiMsg, err := chats.Append(r.Context(), sessionID, domain.ChatMessage{
		Type:    domain.MessageTypeAI,
		Content: reply,
	})
	if err != nil {
		sessionError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]domain.ChatMessage{
		"message": userMsg,
		"reply":   aiMsg,
	})
}

func sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, chat.ErrSessionNotFound) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	slog.Error("Chat operation failed", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
