package gate

import (
	"testing"

	"qanunai/pkg/domain"
)

var (
	verifiedUser   = domain.Session{Authenticated: true, Role: domain.RoleUser, Verified: true}
	verifiedLawyer = domain.Session{Authenticated: true, Role: domain.RoleLawyer, Verified: true, LawyerStatus: domain.LawyerVerified}
	pendingLawyer  = domain.Session{Authenticated: true, Role: domain.RoleLawyer, Verified: true, LawyerStatus: domain.LawyerPending}
)

func TestEvaluateUnauthenticatedAlwaysGoesToLogin(t *testing.T) {
	guards := []domain.RouteGuard{userGuard, lawyerGuard, verifyGuard, pendingGuard}
	sessions := []domain.Session{
		{},
		{Role: domain.RoleUser, Verified: true},
		{Role: domain.RoleLawyer, Verified: true, LawyerStatus: domain.LawyerVerified},
		{Authenticated: true, Verified: true},
		{Authenticated: true, Role: "user", Verified: true},
		{Authenticated: true, Role: "ADMIN", Verified: true},
		{Authenticated: true, Role: "LAWYER ", Verified: true, LawyerStatus: domain.LawyerVerified},
	}
	for _, guard := range guards {
		for _, session := range sessions {
			got := Evaluate(session, guard)
			if got.Render || got.Redirect != LoginPath {
				t.Fatalf("session %+v guard %+v: expected login redirect, got %+v", session, guard, got)
			}
		}
	}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name    string
		session domain.Session
		guard   domain.RouteGuard
		want    Decision
	}{
		{"unverified user", domain.Session{Authenticated: true, Role: domain.RoleUser}, userGuard, redirect(VerifyEmailPath)},
		{"unverified user on wrong role route", domain.Session{Authenticated: true, Role: domain.RoleUser}, lawyerGuard, redirect(VerifyEmailPath)},
		{"unverified lawyer", domain.Session{Authenticated: true, Role: domain.RoleLawyer, LawyerStatus: domain.LawyerVerified}, lawyerGuard, redirect(VerifyEmailPath)},
		{"unverified user on verify page", domain.Session{Authenticated: true, Role: domain.RoleUser}, verifyGuard, render()},
		{"user on user route", verifiedUser, userGuard, render()},
		{"user on lawyer route", verifiedUser, lawyerGuard, redirect(UserHomePath)},
		{"user on pending page", verifiedUser, pendingGuard, redirect(UserHomePath)},
		{"verified lawyer on user route", verifiedLawyer, userGuard, redirect(LawyerHomePath)},
		{"pending lawyer on user route", pendingLawyer, userGuard, redirect(LawyerPendingPath)},
		{"rejected lawyer on user route", domain.Session{Authenticated: true, Role: domain.RoleLawyer, Verified: true, LawyerStatus: domain.LawyerRejected}, userGuard, redirect(LawyerPendingPath)},
		{"pending lawyer on lawyer route", pendingLawyer, lawyerGuard, redirect(LawyerPendingPath)},
		{"pending lawyer on pending page", pendingLawyer, pendingGuard, render()},
		{"unverified pending lawyer on pending page", domain.Session{Authenticated: true, Role: domain.RoleLawyer, LawyerStatus: domain.LawyerPending}, pendingGuard, render()},
		{"pending lawyer on verify page", pendingLawyer, verifyGuard, redirect(LawyerPendingPath)},
		{"verified lawyer on lawyer route", verifiedLawyer, lawyerGuard, render()},
		{"verified lawyer on pending page", verifiedLawyer, pendingGuard, render()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.session, tc.guard); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestEvaluateAdmin(t *testing.T) {
	if got := EvaluateAdmin(false); got.Redirect != AdminLoginPath {
		t.Fatalf("expected admin login redirect, got %+v", got)
	}
	if got := EvaluateAdmin(true); !got.Render {
		t.Fatalf("expected render, got %+v", got)
	}
}

func TestHomePath(t *testing.T) {
	if got := HomePath(verifiedUser); got != UserHomePath {
		t.Fatalf("user home = %q", got)
	}
	if got := HomePath(verifiedLawyer); got != LawyerHomePath {
		t.Fatalf("lawyer home = %q", got)
	}
	if got := HomePath(pendingLawyer); got != LawyerPendingPath {
		t.Fatalf("pending lawyer home = %q", got)
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		path   string
		name   string
		scope  Scope
		params map[string]string
	}{
		{"/", "home", ScopePublic, nil},
		{"/login", "login", ScopePublic, nil},
		{"/app", "dashboard", ScopeUser, nil},
		{"/app/documents/7", "document-analysis", ScopeUser, map[string]string{"id": "7"}},
		{"/app/documents/7/", "document-analysis", ScopeUser, map[string]string{"id": "7"}},
		{"/lawyer/pending", "lawyer-pending", ScopeUser, nil},
		{"/lawyer/dashboard", "lawyer-dashboard", ScopeUser, nil},
		{"/admin-portal/login", "admin-login", ScopePublic, nil},
		{"/admin-portal/lawyers/12/reject", "admin-lawyer-reject", ScopeAdmin, map[string]string{"id": "12"}},
		{"/admin-portal/legal-updates/new", "admin-legal-update-new", ScopeAdmin, nil},
		{"/admin-portal/legal-updates/3/edit", "admin-legal-update-edit", ScopeAdmin, map[string]string{"id": "3"}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			m, ok := Resolve(tc.path)
			if !ok {
				t.Fatalf("no route for %s", tc.path)
			}
			if m.Route.Name != tc.name || m.Route.Scope != tc.scope {
				t.Fatalf("expected %s/%s, got %s/%s", tc.name, tc.scope, m.Route.Name, m.Route.Scope)
			}
			for k, v := range tc.params {
				if m.Params[k] != v {
					t.Fatalf("param %s: expected %q, got %q", k, v, m.Params[k])
				}
			}
		})
	}
	for _, path := range []string{"/nope", "/app/documents/7/extra", "/admin-portal/unknown"} {
		if _, ok := Resolve(path); ok {
			t.Fatalf("expected no route for %s", path)
		}
	}
}

func TestMatchDecideKeepsScopesApart(t *testing.T) {
	adminPage, _ := Resolve("/admin-portal/users")
	if got := adminPage.Decide(verifiedUser, false); got.Redirect != AdminLoginPath {
		t.Fatalf("user session must not open admin pages, got %+v", got)
	}
	if got := adminPage.Decide(domain.Session{}, true); !got.Render {
		t.Fatalf("admin credential should render admin page, got %+v", got)
	}

	userPage, _ := Resolve("/app/documents/7")
	if got := userPage.Decide(domain.Session{}, true); got.Redirect != LoginPath {
		t.Fatalf("admin credential must not open user pages, got %+v", got)
	}
	if got := userPage.Decide(verifiedUser, false); !got.Render {
		t.Fatalf("expected render, got %+v", got)
	}

	publicPage, _ := Resolve("/register")
	if got := publicPage.Decide(domain.Session{}, false); !got.Render {
		t.Fatalf("public page should render, got %+v", got)
	}
}
