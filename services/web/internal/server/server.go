package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"qanunai/internal/ratelimit"
	"qanunai/internal/util"
	"qanunai/services/web/internal/apiclient"
	"qanunai/services/web/internal/assistant"
	"qanunai/services/web/internal/messaging"
	"qanunai/services/web/internal/notify"
	"qanunai/services/web/internal/querycache"
	"qanunai/services/web/internal/session"
	"qanunai/services/web/internal/upload"
	"qanunai/services/web/internal/validate"
)

const serviceName = "web"

// Config wires required dependencies for the HTTP server.
type Config struct {
	API                         *apiclient.Client
	Admin                       *apiclient.Client
	Persister                   session.Persister
	Redis                       redis.Scripter
	RefreshLeeway               time.Duration
	SessionTTL                  time.Duration
	SessionCookieName           string
	SessionCookieSecure         bool
	PollIntervals               messaging.Intervals
	LoginRateLimitPerMinute     int
	AssistantRateLimitPerMinute int
	MaxUploadBytes              int64
	AllowedExtensions           []string
	AllowedOrigins              []string
	TrustedProxyCIDRs           []string
	AssistantTimeout            time.Duration
}

// Server is the web gateway: gated pages plus the JSON API the front end calls.
type Server struct {
	api              *apiclient.Client
	admin            *apiclient.Client
	sessions         *session.Store
	workspaces       *workspaces
	queries          *querycache.Cache
	uploads          *upload.Checker
	trusted          *util.TrustedProxies
	mux              *http.ServeMux
	cookieName       string
	cookieSecure     bool
	sessionTTL       time.Duration
	allowedOrigins   []string
	assistantTimeout time.Duration
	loginLimiter     *ratelimit.FixedWindowLimiter
	registerLimiter  *ratelimit.FixedWindowLimiter
	assistantLimiter *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.API == nil {
		return nil, errors.New("server: api client is required")
	}
	if cfg.Persister == nil {
		return nil, errors.New("server: session persister is required")
	}
	if cfg.Admin == nil {
		cfg.Admin = cfg.API
	}
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}
	assistantLimit := cfg.AssistantRateLimitPerMinute
	if assistantLimit <= 0 {
		assistantLimit = 30
	}
	rateWindow := time.Minute
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		limiter, err := ratelimit.New(cfg.Redis, "qanun:web:ratelimit:"+name, limit, rateWindow)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	loginLimiter, err := newLimiter("login", loginLimit)
	if err != nil {
		return nil, err
	}
	registerLimiter, err := newLimiter("register", loginLimit)
	if err != nil {
		return nil, err
	}
	assistantLimiter, err := newLimiter("assistant", assistantLimit)
	if err != nil {
		return nil, err
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	cookieName := cfg.SessionCookieName
	if cookieName == "" {
		cookieName = "qanun_sid"
	}
	assistantTimeout := cfg.AssistantTimeout
	if assistantTimeout <= 0 {
		assistantTimeout = 2 * apiclient.DefaultTimeout
	}

	s := &Server{
		api:              cfg.API,
		admin:            cfg.Admin,
		queries:          querycache.New(nil),
		uploads:          upload.NewChecker(cfg.MaxUploadBytes, cfg.AllowedExtensions),
		trusted:          trusted,
		mux:              http.NewServeMux(),
		cookieName:       cookieName,
		cookieSecure:     cfg.SessionCookieSecure,
		sessionTTL:       sessionTTL,
		allowedOrigins:   cfg.AllowedOrigins,
		assistantTimeout: assistantTimeout,
		loginLimiter:     loginLimiter,
		registerLimiter:  registerLimiter,
		assistantLimiter: assistantLimiter,
	}
	s.sessions = session.NewStore(cfg.Persister, backendAuth{Client: cfg.API, admin: cfg.Admin}, cfg.RefreshLeeway)
	s.workspaces = newWorkspaces(cfg.API, cfg.PollIntervals, workspaceIdleTTL)
	s.sessions.OnSignedOut(s.forgetUser)
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = util.WithCORS(s.allowedOrigins, h)
	h = util.WithSecurityHeaders(h)
	h = util.WithRequestLog(serviceName, h)
	return util.WithRequestID(h)
}

// forgetUser discards everything the gateway holds for the signed-in user
// of sid: assistant turns and flow ids, the inbox pollers and cached queries.
func (s *Server) forgetUser(sid string) {
	s.workspaces.drop(sid)
	s.queries.Forget(sid)
}

// Close stops every background poller.
func (s *Server) Close() {
	s.workspaces.closeAll()
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// session & auth
	s.mux.HandleFunc("GET /api/session", s.handleSession)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.Handle("POST /api/auth/verify-email", s.authenticated(s.handleVerifyEmail))
	s.mux.Handle("POST /api/auth/resend-verification", s.authenticated(s.handleResendVerification))
	s.mux.Handle("GET /api/auth/verification-status", s.authenticated(s.handleVerificationStatus))
	s.mux.Handle("GET /api/users/me", s.authenticated(s.handleMe))
	s.mux.Handle("PATCH /api/users/me", s.authenticated(s.handleUpdateMe))
	s.mux.Handle("POST /api/users/me/password", s.authenticated(s.handleChangePassword))

	// assistant
	s.mux.Handle("GET /api/assistant/messages", s.authenticated(s.handleAssistantSnapshot))
	s.mux.Handle("POST /api/assistant/messages", s.authenticated(s.handleAssistantSend))
	s.mux.Handle("POST /api/assistant/open", s.authenticated(s.handleAssistantOpen))
	s.mux.Handle("POST /api/assistant/document", s.authenticated(s.handleAssistantOpen))
	s.mux.Handle("DELETE /api/assistant/document", s.authenticated(s.handleAssistantClearDocument))
	s.mux.Handle("GET /api/assistant/suggestions", s.authenticated(s.handleAssistantSuggestions))
	s.mux.Handle("DELETE /api/assistant/history", s.authenticated(s.handleAssistantClearHistory))

	// messaging
	s.mux.Handle("GET /api/messages/conversations", s.authenticated(s.handleConversations))
	s.mux.Handle("GET /api/messages/unread-count", s.authenticated(s.handleUnreadCount))
	s.mux.Handle("GET /api/messages", s.authenticated(s.handleThread))
	s.mux.Handle("POST /api/messages", s.authenticated(s.handleSendMessage))
	s.mux.Handle("POST /api/messages/open", s.authenticated(s.handleOpenThread))
	s.mux.Handle("POST /api/messages/mark-read", s.authenticated(s.handleMarkRead))

	// documents
	s.mux.Handle("GET /api/documents", s.authenticated(s.handleListDocuments))
	s.mux.Handle("POST /api/documents", s.authenticated(s.handleUploadDocument))
	s.mux.Handle("GET /api/documents/{id}", s.authenticated(s.handleGetDocument))
	s.mux.Handle("DELETE /api/documents/{id}", s.authenticated(s.handleDeleteDocument))
	s.mux.Handle("POST /api/documents/{id}/analyze", s.authenticated(s.handleAnalyzeDocument))
	s.mux.Handle("GET /api/documents/{id}/analysis", s.authenticated(s.handleDocumentAnalysis))

	// lawyers & consultations
	s.mux.Handle("GET /api/lawyers", s.authenticated(s.handleListLawyers))
	s.mux.Handle("GET /api/lawyers/{id}", s.authenticated(s.handleGetLawyer))
	s.mux.Handle("GET /api/lawyer-profile", s.authenticated(s.handleMyLawyerProfile))
	s.mux.Handle("POST /api/lawyer-profile", s.authenticated(s.handleSaveLawyerProfile))
	s.mux.Handle("PATCH /api/lawyer-profile", s.authenticated(s.handleSaveLawyerProfile))
	s.mux.Handle("GET /api/lawyer-profile/stats", s.authenticated(s.handleLawyerStats))
	s.mux.Handle("GET /api/consultations", s.authenticated(s.handleListConsultations))
	s.mux.Handle("POST /api/consultations", s.authenticated(s.handleCreateConsultation))
	s.mux.Handle("GET /api/consultations/{id}", s.authenticated(s.handleGetConsultation))
	s.mux.Handle("PUT /api/consultations/{id}/status", s.authenticated(s.handleConsultationStatus))

	// legal updates
	s.mux.Handle("GET /api/legal-updates", s.authenticated(s.handleLegalUpdates))
	s.mux.Handle("GET /api/legal-updates/{id}", s.authenticated(s.handleLegalUpdate))

	// admin portal
	s.mux.HandleFunc("POST /api/admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("POST /api/admin/logout", s.handleAdminLogout)
	s.mux.Handle("GET /api/admin/dashboard", s.adminOnly(s.handleAdminDashboard))
	s.mux.Handle("GET /api/admin/lawyers", s.adminOnly(s.handleAdminLawyers))
	s.mux.Handle("GET /api/admin/lawyers/{id}", s.adminOnly(s.handleAdminLawyer))
	s.mux.Handle("POST /api/admin/lawyers/{id}/approve", s.adminOnly(s.handleApproveLawyer))
	s.mux.Handle("POST /api/admin/lawyers/{id}/reject", s.adminOnly(s.handleRejectLawyer))
	s.mux.Handle("GET /api/admin/users", s.adminOnly(s.handleAdminUsers))
	s.mux.Handle("GET /api/admin/legal-updates", s.adminOnly(s.handleAdminLegalUpdates))
	s.mux.Handle("POST /api/admin/legal-updates", s.adminOnly(s.handleCreateLegalUpdate))
	s.mux.Handle("PUT /api/admin/legal-updates/{id}", s.adminOnly(s.handleUpdateLegalUpdate))
	s.mux.Handle("DELETE /api/admin/legal-updates/{id}", s.adminOnly(s.handleDeleteLegalUpdate))

	// pages
	s.mux.HandleFunc("GET /", s.handlePage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caller is the signed-in user of an API request.
type caller struct {
	sid   string
	state session.State
}

func (c caller) token() string { return c.state.AccessToken }

type userHandler func(http.ResponseWriter, *http.Request, caller)

func (s *Server) authenticated(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, ok := s.existingSID(r)
		if !ok {
			s.audit(r, "web.authorize", "fail", "reason", "missing_session")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		state, err := s.sessions.EnsureFresh(r.Context(), sid)
		if err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
			util.LoggerFromContext(r.Context()).Error("load session failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "session store unavailable")
			return
		}
		if !state.Authenticated() {
			s.audit(r, "web.authorize", "fail", "reason", "signed_out")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, caller{sid: sid, state: state})
	})
}

type adminHandler func(http.ResponseWriter, *http.Request, session.AdminState)

func (s *Server) adminOnly(next adminHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, ok := s.existingSID(r)
		if !ok {
			s.audit(r, "web.admin.authorize", "fail", "reason", "missing_session")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		admin, err := s.sessions.AdminState(r.Context(), sid)
		if err != nil {
			util.LoggerFromContext(r.Context()).Error("load admin session failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "session store unavailable")
			return
		}
		if !admin.Authenticated() {
			s.audit(r, "web.admin.authorize", "fail", "reason", "missing_admin_credential")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, admin)
	})
}

// backendAuth lets the admin login go to its own base URL.
type backendAuth struct {
	*apiclient.Client
	admin *apiclient.Client
}

func (b backendAuth) AdminLogin(ctx context.Context, email, password string) (apiclient.AdminAuthResult, error) {
	return b.admin.AdminLogin(ctx, email, password)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func queryID(r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeNotice answers a failed mutation with the notice the user should see.
func writeNotice(w http.ResponseWriter, err error, notice notify.Notice) {
	writeJSON(w, statusOf(err), map[string]any{"error": notice.Description, "notice": notice})
}

// writeBackendError maps a backend failure to a JSON error.
func writeBackendError(w http.ResponseWriter, err error) {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		writeError(w, apiErr.Status, apiErr.Message)
		return
	}
	writeError(w, statusOf(err), "backend unavailable")
}

func statusOf(err error) int {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrUnknownRole):
		return http.StatusForbidden
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case isClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", s.clientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, key, msg string) bool {
	if limiter.Allow(r.Context(), r.URL.Path+"|"+key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func (s *Server) clientIP(r *http.Request) string {
	return util.ClientIP(r, s.trusted)
}

func isClientError(err error) bool {
	if _, ok := validate.AsFailure(err); ok {
		return true
	}
	return errors.Is(err, messaging.ErrEmptyMessage) ||
		errors.Is(err, assistant.ErrEmptyMessage) ||
		errors.Is(err, upload.ErrUnsupportedType) ||
		errors.Is(err, upload.ErrEmptyFile) ||
		errors.Is(err, upload.ErrUnreadablePDF)
}
