package gate

import (
	"strings"

	"qanunai/pkg/domain"
)

// Scope says which credential a page needs.
type Scope int

const (
	ScopePublic Scope = iota
	ScopeUser
	ScopeAdmin
)

func (s Scope) String() string {
	switch s {
	case ScopeUser:
		return "user"
	case ScopeAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Route is one page of the application.
type Route struct {
	Name    string
	Pattern string
	Scope   Scope
	Guard   domain.RouteGuard
}

// Match is a resolved request path.
type Match struct {
	Route  Route
	Params map[string]string
}

var (
	userGuard    = domain.RouteGuard{AllowedRoles: []domain.Role{domain.RoleUser}}
	lawyerGuard  = domain.RouteGuard{AllowedRoles: []domain.Role{domain.RoleLawyer}}
	verifyGuard  = domain.RouteGuard{AllowedRoles: []domain.Role{domain.RoleUser, domain.RoleLawyer}, AllowUnverified: true}
	pendingGuard = domain.RouteGuard{AllowedRoles: []domain.Role{domain.RoleLawyer}, AllowUnverified: true, AllowPending: true}
)

func public(name, pattern string) Route { return Route{Name: name, Pattern: pattern} }

func user(name, pattern string) Route {
	return Route{Name: name, Pattern: pattern, Scope: ScopeUser, Guard: userGuard}
}

func lawyer(name, pattern string) Route {
	return Route{Name: name, Pattern: pattern, Scope: ScopeUser, Guard: lawyerGuard}
}

func admin(name, pattern string) Route {
	return Route{Name: name, Pattern: pattern, Scope: ScopeAdmin}
}

// Routes is the page table.
var Routes = []Route{
	public("home", "/"),
	public("login", LoginPath),
	public("register", "/register"),
	public("admin-login", AdminLoginPath),
	{Name: "verify-email", Pattern: VerifyEmailPath, Scope: ScopeUser, Guard: verifyGuard},

	user("dashboard", "/app"),
	user("dashboard", UserHomePath),
	user("documents", "/app/documents"),
	user("document-analysis", "/app/documents/:id"),
	user("lawyers", "/app/lawyers"),
	user("messages", "/app/messages"),
	user("updates", "/app/updates"),
	user("profile", "/app/profile"),
	user("settings", "/app/settings"),

	{Name: "lawyer-pending", Pattern: LawyerPendingPath, Scope: ScopeUser, Guard: pendingGuard},
	lawyer("lawyer-dashboard", "/lawyer"),
	lawyer("lawyer-dashboard", LawyerHomePath),
	lawyer("lawyer-consultations", "/lawyer/consultations"),
	lawyer("lawyer-messages", "/lawyer/messages"),
	lawyer("lawyer-profile", "/lawyer/profile"),
	lawyer("lawyer-settings", "/lawyer/settings"),

	admin("admin-dashboard", "/admin-portal"),
	admin("admin-dashboard", AdminDashboardPath),
	admin("admin-lawyers", "/admin-portal/lawyers"),
	admin("admin-lawyer-detail", "/admin-portal/lawyers/:id"),
	admin("admin-lawyer-reject", "/admin-portal/lawyers/:id/reject"),
	admin("admin-users", "/admin-portal/users"),
	admin("admin-legal-updates", "/admin-portal/legal-updates"),
	admin("admin-legal-update-new", "/admin-portal/legal-updates/new"),
	admin("admin-legal-update-edit", "/admin-portal/legal-updates/:id/edit"),
}

// Resolve finds the route for path. When several patterns match, the one
// with the most literal segments wins.
func Resolve(path string) (Match, bool) {
	segments := splitPath(path)
	best := -1
	var match Match
	for _, route := range Routes {
		params, literals, ok := matchPattern(splitPath(route.Pattern), segments)
		if !ok || literals <= best {
			continue
		}
		best = literals
		match = Match{Route: route, Params: params}
	}
	return match, best >= 0
}

// Decide evaluates the route's gate for the given credentials.
func (m Match) Decide(session domain.Session, hasAdminCredential bool) Decision {
	switch m.Route.Scope {
	case ScopeUser:
		return Evaluate(session, m.Route.Guard)
	case ScopeAdmin:
		return EvaluateAdmin(hasAdminCredential)
	default:
		return render()
	}
}

func matchPattern(pattern, segments []string) (map[string]string, int, bool) {
	if len(pattern) != len(segments) {
		return nil, 0, false
	}
	params := map[string]string{}
	literals := 0
	for i, part := range pattern {
		if strings.HasPrefix(part, ":") {
			if segments[i] == "" {
				return nil, 0, false
			}
			params[part[1:]] = segments[i]
			continue
		}
		if part != segments[i] {
			return nil, 0, false
		}
		literals++
	}
	return params, literals, true
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
