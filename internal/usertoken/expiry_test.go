package usertoken

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestExpiresAtReadsClaimWithoutKey(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	token := signToken(t, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	got, err := ExpiresAt(token)
	if err != nil {
		t.Fatalf("expires at: %v", err)
	}
	if !got.Equal(exp) {
		t.Fatalf("exp = %v, want %v", got, exp)
	}
}

func TestExpiresAtRejectsGarbage(t *testing.T) {
	if _, err := ExpiresAt("not-a-jwt"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := ExpiresAt(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
	noExp := signToken(t, jwt.RegisteredClaims{Subject: "7"})
	if _, err := ExpiresAt(noExp); err == nil {
		t.Fatalf("expected error for token without exp")
	}
}

func TestNeedsRefresh(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{name: "fresh", exp: now.Add(10 * time.Minute), want: false},
		{name: "inside leeway", exp: now.Add(10 * time.Second), want: true},
		{name: "expired", exp: now.Add(-time.Minute), want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token := signToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(tc.exp)})
			if got := NeedsRefresh(token, now, time.Minute); got != tc.want {
				t.Fatalf("NeedsRefresh = %v, want %v", got, tc.want)
			}
		})
	}
	if NeedsRefresh("opaque-token", now, time.Minute) {
		t.Fatalf("opaque tokens should not trigger refresh")
	}
}
