package server

import (
	"net/http"

	"qanunai/internal/util"
	"qanunai/pkg/domain"
	"qanunai/services/web/internal/gate"
	"qanunai/services/web/internal/session"
)

// pageModel is what a static front end needs to render a page the gate let through.
type pageModel struct {
	Route   string            `json:"route"`
	Scope   string            `json:"scope"`
	Params  map[string]string `json:"params,omitempty"`
	Session domain.Session    `json:"session"`
	User    *domain.User      `json:"user,omitempty"`
	Admin   *domain.AdminUser `json:"admin,omitempty"`
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	match, ok := gate.Resolve(r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	sid := s.ensureSID(w, r)
	ctx := r.Context()

	var state session.State
	var admin session.AdminState
	var err error
	switch match.Route.Scope {
	case gate.ScopeAdmin:
		admin, err = s.sessions.AdminState(ctx, sid)
	default:
		state, err = s.sessions.EnsureFresh(ctx, sid)
	}
	if err != nil {
		util.LoggerFromContext(ctx).Error("load session failed", "error", err, "route", match.Route.Name)
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}

	view := state.Session()
	decision := match.Decide(view, admin.Authenticated())
	if !decision.Render {
		s.audit(r, "web.gate", "redirect", "route", match.Route.Name, "scope", match.Route.Scope.String(), "location", decision.Redirect)
		http.Redirect(w, r, decision.Redirect, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, pageModel{
		Route:   match.Route.Name,
		Scope:   match.Route.Scope.String(),
		Params:  match.Params,
		Session: view,
		User:    state.User,
		Admin:   admin.User,
	})
}
