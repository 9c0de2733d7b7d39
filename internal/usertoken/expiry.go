package usertoken

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// DefaultLeeway is how long before expiry an access token is considered stale.
const DefaultLeeway = 30 * time.Second

var errNoExpiry = errors.New("token has no exp claim")

// ExpiresAt reads the exp claim of an access token without verifying its
// signature. The backend owns the signing key; the gateway only needs the
// expiry to decide when to refresh.
func ExpiresAt(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, errors.New("empty token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errNoExpiry
	}
	return exp.Time, nil
}

// NeedsRefresh reports whether token expires within leeway of now.
// Tokens that cannot be parsed or carry no exp are left alone; the backend
// rejects them on use and the gate handles the resulting logout.
func NeedsRefresh(token string, now time.Time, leeway time.Duration) bool {
	if leeway <= 0 {
		leeway = DefaultLeeway
	}
	exp, err := ExpiresAt(token)
	if err != nil {
		return false
	}
	return !now.Add(leeway).Before(exp)
}
