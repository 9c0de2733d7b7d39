package server

import (
	"net/http"
	"strings"

	"qanunai/pkg/domain"
	"qanunai/services/web/internal/apiclient"
	"qanunai/services/web/internal/gate"
	"qanunai/services/web/internal/notify"
	"qanunai/services/web/internal/session"
)

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.loginLimiter, s.clientIP(r), "too many login attempts") {
		s.audit(r, "web.admin.login", "rate_limited")
		return
	}
	var req adminLoginRequest
	if !decodeJSON(w, r, &req) {
		s.audit(r, "web.admin.login", "fail", "reason", "invalid_json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	sid := s.ensureSID(w, r)
	admin, err := s.sessions.AdminLogin(r.Context(), sid, req.Email, req.Password)
	if err != nil {
		s.audit(r, "web.admin.login", "fail", "reason", err.Error())
		writeNotice(w, err, notify.AdminLoginFailed(err))
		return
	}
	s.audit(r, "web.admin.login", "success", "admin_id", admin.User.ID)
	writeJSON(w, http.StatusOK, map[string]any{"admin": admin.User, "next": gate.AdminDashboardPath})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.existingSID(r)
	if ok {
		if err := s.sessions.AdminLogout(r.Context(), sid); err != nil {
			writeError(w, http.StatusServiceUnavailable, "session store unavailable")
			return
		}
	}
	s.audit(r, "web.admin.logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	dashboard, err := s.admin.AdminDashboard(r.Context(), admin.AccessToken)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleAdminLawyers(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	status := domain.LawyerStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	lawyers, err := s.admin.AdminLawyers(r.Context(), admin.AccessToken, status)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if lawyers == nil {
		lawyers = []domain.Lawyer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": lawyers, "count": len(lawyers)})
}

func (s *Server) handleAdminLawyer(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	lawyer, err := s.admin.AdminLawyer(r.Context(), admin.AccessToken, id)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lawyer)
}

func (s *Server) handleApproveLawyer(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.admin.ApproveLawyer(r.Context(), admin.AccessToken, id); err != nil {
		s.audit(r, "web.admin.lawyer.approve", "fail", "lawyer_id", id, "reason", err.Error())
		writeNotice(w, err, notify.ApproveFailed(err))
		return
	}
	s.audit(r, "web.admin.lawyer.approve", "success", "lawyer_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRejectLawyer(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.admin.RejectLawyer(r.Context(), admin.AccessToken, id, strings.TrimSpace(req.Reason)); err != nil {
		s.audit(r, "web.admin.lawyer.reject", "fail", "lawyer_id", id, "reason", err.Error())
		writeNotice(w, err, notify.RejectFailed(err))
		return
	}
	s.audit(r, "web.admin.lawyer.reject", "success", "lawyer_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	role := domain.ParseRole(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("role"))))
	users, err := s.admin.AdminUsers(r.Context(), admin.AccessToken, role)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users, "count": len(users)})
}

func (s *Server) handleAdminLegalUpdates(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	updates, err := s.admin.AdminLegalUpdates(r.Context(), admin.AccessToken)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if updates == nil {
		updates = []domain.LegalUpdate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": updates, "count": len(updates)})
}

func (s *Server) handleCreateLegalUpdate(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	var in apiclient.LegalUpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Headline) == "" {
		writeError(w, http.StatusBadRequest, "headline is required")
		return
	}
	update, err := s.admin.CreateLegalUpdate(r.Context(), admin.AccessToken, in)
	if err != nil {
		writeNotice(w, err, notify.UpdateSaveFailed(err))
		return
	}
	writeJSON(w, http.StatusCreated, update)
}

func (s *Server) handleUpdateLegalUpdate(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in apiclient.LegalUpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	update, err := s.admin.UpdateLegalUpdate(r.Context(), admin.AccessToken, id, in)
	if err != nil {
		writeNotice(w, err, notify.UpdateSaveFailed(err))
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (s *Server) handleDeleteLegalUpdate(w http.ResponseWriter, r *http.Request, admin session.AdminState) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.admin.DeleteLegalUpdate(r.Context(), admin.AccessToken, id); err != nil {
		writeNotice(w, err, notify.DeleteFailed(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
