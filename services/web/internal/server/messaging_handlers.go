package server

import (
	"errors"
	"net/http"

	"qanunai/pkg/domain"
	"qanunai/services/web/internal/messaging"
	"qanunai/services/web/internal/notify"
)

type sendMessageRequest struct {
	ReceiverID     int64  `json:"receiverId"`
	Content        string `json:"content"`
	ConsultationID *int64 `json:"consultationId,omitempty"`
}

type peerRequest struct {
	UserID int64 `json:"userId"`
}

type threadResponse struct {
	UserID   int64                  `json:"userId"`
	Messages []domain.DirectMessage `json:"messages"`
	Stale    bool                   `json:"stale,omitempty"`
}

// summaries returns the caller's inbox, polling it once when the pollers
// have not completed a first fetch yet.
func (s *Server) summaries(r *http.Request, c caller) *messaging.Inbox {
	inbox := s.inbox(c)
	if !inbox.Loaded() || r.URL.Query().Get("refresh") == "1" {
		_ = inbox.RefreshSummaries(r.Context())
	}
	return inbox
}

// A failed poll keeps serving the previous snapshot, flagged stale. Only a
// feed that never loaded answers with an error.
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request, c caller) {
	inbox := s.summaries(r, c)
	conversations, err := inbox.Conversations()
	if err != nil && !inbox.Loaded() {
		writeBackendError(w, err)
		return
	}
	if conversations == nil {
		conversations = []domain.ConversationSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations, "stale": err != nil})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request, c caller) {
	inbox := s.summaries(r, c)
	count, err := inbox.UnreadCount()
	if err != nil && !inbox.Loaded() {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count, "stale": err != nil})
}

func (s *Server) handleThread(w http.ResponseWriter, r *http.Request, c caller) {
	inbox := s.inbox(c)
	peer, messages, err := inbox.Thread()
	if errors.Is(err, messaging.ErrNoThread) {
		userID, ok := queryID(r, "userId")
		if !ok {
			writeError(w, http.StatusBadRequest, "no conversation is open")
			return
		}
		messages, err = inbox.Open(r.Context(), userID)
		peer = userID
	} else if userID, ok := queryID(r, "userId"); ok && userID != peer {
		messages, err = inbox.Open(r.Context(), userID)
		peer = userID
	}
	if messages == nil {
		messages = []domain.DirectMessage{}
	}
	if err != nil && len(messages) == 0 {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threadResponse{UserID: peer, Messages: messages, Stale: err != nil})
}

func (s *Server) handleOpenThread(w http.ResponseWriter, r *http.Request, c caller) {
	var req peerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	messages, err := s.inbox(c).Open(r.Context(), req.UserID)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if messages == nil {
		messages = []domain.DirectMessage{}
	}
	writeJSON(w, http.StatusOK, threadResponse{UserID: req.UserID, Messages: messages})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, c caller) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ReceiverID <= 0 {
		writeError(w, http.StatusBadRequest, "receiverId is required")
		return
	}
	msg, err := s.inbox(c).Send(r.Context(), req.ReceiverID, req.Content, req.ConsultationID)
	if err != nil {
		if errors.Is(err, messaging.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		writeNotice(w, err, notify.MessageFailed(err))
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, c caller) {
	var req peerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if err := s.inbox(c).MarkRead(r.Context(), req.UserID); err != nil {
		writeBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
