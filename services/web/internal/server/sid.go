package server

import (
	"net/http"
	"strings"

	"qanunai/internal/util"
)

// existingSID returns the browser's session id when it carries one.
func (s *Server) existingSID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return "", false
	}
	sid := strings.TrimSpace(cookie.Value)
	if !validSID(sid) {
		return "", false
	}
	return sid, true
}

// ensureSID returns the browser's session id, issuing a new cookie when
// it has none.
func (s *Server) ensureSID(w http.ResponseWriter, r *http.Request) string {
	if sid, ok := s.existingSID(r); ok {
		return sid
	}
	sid := util.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func validSID(sid string) bool {
	if len(sid) < 16 || len(sid) > 64 {
		return false
	}
	for _, r := range sid {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
