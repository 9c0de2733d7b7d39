// Package gate decides whether a page may render for the current session.
package gate

import "qanunai/pkg/domain"

const (
	LoginPath          = "/login"
	VerifyEmailPath    = "/verify-email"
	UserHomePath       = "/app/dashboard"
	LawyerHomePath     = "/lawyer/dashboard"
	LawyerPendingPath  = "/lawyer/pending"
	AdminLoginPath     = "/admin-portal/login"
	AdminDashboardPath = "/admin-portal/dashboard"
)

// Decision is the outcome of a gate evaluation: render, or redirect to Redirect.
type Decision struct {
	Render   bool   `json:"render"`
	Redirect string `json:"redirect,omitempty"`
}

func render() Decision { return Decision{Render: true} }

func redirect(path string) Decision { return Decision{Redirect: path} }

// Evaluate applies the guard to the session. The checks run in a fixed order
// and the first failing one picks the redirect target. A session without a
// known role counts as signed out.
func Evaluate(session domain.Session, guard domain.RouteGuard) Decision {
	if !session.Authenticated || domain.ParseRole(string(session.Role)) == "" {
		return redirect(LoginPath)
	}
	if !guard.AllowUnverified && !session.Verified {
		return redirect(VerifyEmailPath)
	}
	if !guard.Allows(session.Role) {
		switch session.Role {
		case domain.RoleUser:
			return redirect(UserHomePath)
		case domain.RoleLawyer:
			return redirect(lawyerHome(session.LawyerStatus))
		}
	}
	if session.Role == domain.RoleLawyer && !guard.AllowPending && session.LawyerStatus != domain.LawyerVerified {
		return redirect(LawyerPendingPath)
	}
	return render()
}

// HomePath is the landing page for an authenticated session.
func HomePath(session domain.Session) string {
	if session.Role == domain.RoleLawyer {
		return lawyerHome(session.LawyerStatus)
	}
	return UserHomePath
}

func lawyerHome(status domain.LawyerStatus) string {
	if status != domain.LawyerVerified {
		return LawyerPendingPath
	}
	return LawyerHomePath
}

// EvaluateAdmin gates the admin portal on the presence of an admin credential.
// The user session plays no part in it.
func EvaluateAdmin(hasAdminCredential bool) Decision {
	if !hasAdminCredential {
		return redirect(AdminLoginPath)
	}
	return render()
}
