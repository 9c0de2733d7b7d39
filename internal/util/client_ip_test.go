package util

import (
	"net/http/httptest"
	"testing"
)

func TestClientIPWalksForwardedChain(t *testing.T) {
	proxies, err := NewTrustedProxies([]string{"172.16.0.0/12", "192.0.2.7"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}

	cases := map[string]struct {
		peer    string
		chain   string
		proxies *TrustedProxies
		want    string
	}{
		"forwarded header ignored without proxies": {"203.0.113.40:5100", "198.51.100.2", nil, "203.0.113.40"},
		"forwarded header ignored from stranger":   {"203.0.113.40:5100", "198.51.100.2", proxies, "203.0.113.40"},
		"proxy peer forwards client":               {"172.16.4.1:5100", "198.51.100.2", proxies, "198.51.100.2"},
		"rightmost untrusted hop wins":             {"172.16.4.1:5100", "203.0.113.9, 198.51.100.2, 192.0.2.7", proxies, "198.51.100.2"},
		"unparseable hop falls back to peer":       {"172.16.4.1:5100", "not-an-ip", proxies, "172.16.4.1"},
		"fully trusted chain yields first hop":     {"172.16.4.1:5100", "172.20.0.3, 172.20.0.4", proxies, "172.20.0.3"},
		"peer without port":                        {"203.0.113.40", "", nil, "203.0.113.40"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "http://qanun.example/api/auth/login", nil)
			r.RemoteAddr = tc.peer
			if tc.chain != "" {
				r.Header.Set("X-Forwarded-For", tc.chain)
			}
			if got := ClientIP(r, tc.proxies); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewTrustedProxiesRejectsBadEntries(t *testing.T) {
	if _, err := NewTrustedProxies([]string{"300.1.1.1/8"}); err == nil {
		t.Fatal("expected error for invalid cidr")
	}
	if _, err := NewTrustedProxies([]string{"proxy.internal"}); err == nil {
		t.Fatal("expected error for hostname entry")
	}
	if tp, err := NewTrustedProxies([]string{" ", ""}); err != nil || tp != nil {
		t.Fatalf("blank entries should trust nobody, got %v %v", tp, err)
	}
}
