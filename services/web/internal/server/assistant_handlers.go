package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"qanunai/internal/util"
	"qanunai/pkg/domain"
	"qanunai/services/web/internal/assistant"
	"qanunai/services/web/internal/querycache"
)

type assistantSendRequest struct {
	Message string `json:"message"`
}

type assistantOpenRequest struct {
	DocumentID *int64 `json:"documentId"`
}

type assistantSendResponse struct {
	Turn     domain.Turn        `json:"turn"`
	Snapshot assistant.Snapshot `json:"conversation"`
}

func (s *Server) handleAssistantSnapshot(w http.ResponseWriter, _ *http.Request, c caller) {
	writeJSON(w, http.StatusOK, s.conversation(c).Snapshot())
}

func (s *Server) handleAssistantSend(w http.ResponseWriter, r *http.Request, c caller) {
	if !s.allowRate(w, r, s.assistantLimiter, c.sid, "too many assistant messages") {
		s.audit(r, "web.assistant.send", "rate_limited")
		return
	}
	var req assistantSendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	conv := s.conversation(c)
	// The reply is kept even if the browser goes away before it arrives.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.assistantTimeout)
	defer cancel()
	turn, err := conv.Send(ctx, s.assistantBackend(c), req.Message)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "message is required")
		return
	case errors.Is(err, assistant.ErrBusy), errors.Is(err, assistant.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "assistant unavailable")
		return
	}
	writeJSON(w, http.StatusOK, assistantSendResponse{Turn: turn, Snapshot: conv.Snapshot()})
}

func (s *Server) handleAssistantOpen(w http.ResponseWriter, r *http.Request, c caller) {
	var req assistantOpenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	conv := s.conversation(c)
	if req.DocumentID == nil {
		if r.URL.Path == "/api/assistant/document" {
			writeError(w, http.StatusBadRequest, "documentId is required")
			return
		}
		conv.OpenGlobal()
		writeJSON(w, http.StatusOK, conv.Snapshot())
		return
	}
	doc, err := s.api.GetDocument(r.Context(), c.token(), *req.DocumentID)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	conv.OpenWithDocument(domain.DocumentContext{
		ID:        doc.ID,
		Name:      doc.Name,
		Summary:   doc.Summary,
		RiskLevel: doc.RiskLevel,
		RiskCount: doc.RiskCount,
	})
	writeJSON(w, http.StatusOK, conv.Snapshot())
}

func (s *Server) handleAssistantClearDocument(w http.ResponseWriter, _ *http.Request, c caller) {
	conv := s.conversation(c)
	conv.ClearDocument()
	writeJSON(w, http.StatusOK, conv.Snapshot())
}

func (s *Server) handleAssistantSuggestions(w http.ResponseWriter, r *http.Request, c caller) {
	documentID, _ := queryID(r, "documentId")
	key := querycache.Key{Session: c.sid, Kind: querycache.ChatSuggestions, ID: strconv.FormatInt(documentID, 10)}
	suggestions, err := querycache.Get(r.Context(), s.queries, key, func(ctx context.Context) ([]string, error) {
		return s.api.ChatSuggestions(ctx, c.token(), documentID)
	})
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (s *Server) handleAssistantClearHistory(w http.ResponseWriter, r *http.Request, c caller) {
	conv := s.conversation(c)
	dropped := conv.Reset()
	for _, id := range []string{dropped.Document, dropped.General, dropped.LawyerSearch} {
		if id == "" {
			continue
		}
		if err := s.api.ClearChatHistory(r.Context(), c.token(), id); err != nil {
			util.LoggerFromContext(r.Context()).Warn("clear chat history failed", "session_id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, conv.Snapshot())
}
