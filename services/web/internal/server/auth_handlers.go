package server

import (
	"context"
	"net/http"
	"strings"

	"qanunai/internal/util"
	"qanunai/pkg/domain"
	"qanunai/services/web/internal/apiclient"
	"qanunai/services/web/internal/gate"
	"qanunai/services/web/internal/notify"
	"qanunai/services/web/internal/querycache"
	"qanunai/services/web/internal/session"
	"qanunai/services/web/internal/validate"
)

type loginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

type sessionResponse struct {
	Session              domain.Session `json:"session"`
	User                 *domain.User   `json:"user,omitempty"`
	Admin                bool           `json:"admin"`
	Next                 string         `json:"next,omitempty"`
	RequiresVerification bool           `json:"requiresVerification,omitempty"`
	Notice               *notify.Notice `json:"notice,omitempty"`
}

func newSessionResponse(state session.State, notice *notify.Notice) sessionResponse {
	view := state.Session()
	resp := sessionResponse{Session: view, User: state.User, Notice: notice}
	if view.Authenticated {
		resp.Next = gate.HomePath(view)
	}
	return resp
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sid := s.ensureSID(w, r)
	state, err := s.sessions.EnsureFresh(r.Context(), sid)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	admin, err := s.sessions.AdminState(r.Context(), sid)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	resp := newSessionResponse(state, nil)
	resp.Admin = admin.Authenticated()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.loginLimiter, s.clientIP(r), "too many login attempts") {
		s.audit(r, "web.login", "rate_limited")
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		s.audit(r, "web.login", "fail", "reason", "invalid_json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleUser
	}
	sid := s.ensureSID(w, r)
	state, err := s.sessions.Login(r.Context(), sid, req.Email, req.Password, req.Role)
	if err != nil {
		s.audit(r, "web.login", "fail", "reason", err.Error())
		writeNotice(w, err, notify.LoginFailed(err))
		return
	}
	s.forgetUser(sid)
	s.audit(r, "web.login", "success", "user_id", state.User.ID, "role", string(state.Role))
	writeJSON(w, http.StatusOK, newSessionResponse(state, nil))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.registerLimiter, s.clientIP(r), "too many registration attempts") {
		s.audit(r, "web.register", "rate_limited")
		return
	}
	var reg domain.Registration
	if !decodeJSON(w, r, &reg) {
		s.audit(r, "web.register", "fail", "reason", "invalid_json")
		return
	}
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validate.Registration(reg); err != nil {
		writeNotice(w, err, notify.RegisterFailed(err))
		return
	}
	sid := s.ensureSID(w, r)
	state, needsVerification, err := s.sessions.Register(r.Context(), sid, reg)
	if err != nil {
		s.audit(r, "web.register", "fail", "reason", err.Error())
		writeNotice(w, err, notify.RegisterFailed(err))
		return
	}
	s.forgetUser(sid)
	s.audit(r, "web.register", "success", "user_id", state.User.ID, "role", string(state.Role))
	notice := notify.AccountCreated
	if state.Role == domain.RoleLawyer {
		notice = notify.ApplicationSent
	}
	resp := newSessionResponse(state, &notice)
	resp.RequiresVerification = needsVerification
	if needsVerification {
		resp.Next = gate.VerifyEmailPath
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.existingSID(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.sessions.Logout(r.Context(), sid); err != nil {
		s.audit(r, "web.logout", "fail", "reason", err.Error())
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	s.forgetUser(sid)
	s.audit(r, "web.logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request, c caller) {
	var req verifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.VerificationCode(req.Code); err != nil {
		writeNotice(w, err, notify.VerifyFailed(err))
		return
	}
	state, err := s.sessions.VerifyEmail(r.Context(), c.sid, strings.TrimSpace(req.Code))
	if err != nil {
		s.audit(r, "web.verify_email", "fail", "reason", err.Error())
		writeNotice(w, err, notify.VerifyFailed(err))
		return
	}
	s.queries.Invalidate(c.sid, querycache.CurrentUser)
	s.audit(r, "web.verify_email", "success", "user_id", state.User.ID)
	notice := notify.EmailVerified
	writeJSON(w, http.StatusOK, newSessionResponse(state, &notice))
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request, c caller) {
	if _, err := s.api.ResendVerification(r.Context(), c.token()); err != nil {
		writeNotice(w, err, notify.ResendFailed(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notice": notify.CodeSent})
}

func (s *Server) handleVerificationStatus(w http.ResponseWriter, r *http.Request, c caller) {
	verified, err := s.api.VerificationStatus(r.Context(), c.token())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isVerified": verified})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, c caller) {
	key := querycache.Key{Session: c.sid, Kind: querycache.CurrentUser}
	user, err := querycache.Get(r.Context(), s.queries, key, func(ctx context.Context) (domain.User, error) {
		return s.api.Me(ctx, c.token())
	})
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request, c caller) {
	var patch apiclient.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	user, err := s.api.UpdateProfile(r.Context(), c.token(), patch)
	if err != nil {
		writeNotice(w, err, notify.ProfileFailed(err))
		return
	}
	if _, err := s.sessions.UpdateUser(r.Context(), c.sid, user); err != nil {
		util.LoggerFromContext(r.Context()).Warn("store updated user failed", "error", err)
	}
	s.queries.Invalidate(c.sid, querycache.CurrentUser)
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "notice": notify.ProfileUpdated})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, c caller) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OldPassword == "" {
		writeError(w, http.StatusBadRequest, "oldPassword is required")
		return
	}
	if err := validate.Password(req.NewPassword, req.ConfirmPassword); err != nil {
		writeNotice(w, err, notify.PasswordFailed(err))
		return
	}
	if err := s.api.ChangePassword(r.Context(), c.token(), req.OldPassword, req.NewPassword); err != nil {
		s.audit(r, "web.password.change", "fail", "reason", err.Error())
		writeNotice(w, err, notify.PasswordFailed(err))
		return
	}
	s.audit(r, "web.password.change", "success", "user_id", c.state.User.ID)
	w.WriteHeader(http.StatusNoContent)
}
