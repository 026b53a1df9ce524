package server

import (
	"net"
	"net/http/httptest"
	"testing"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		trusted []string
		want    string
	}{
		{
			name:    "untrusted proxy ignores forwarded",
			remote:  "198.51.100.10:1234",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.5"},
			trusted: []string{"203.0.113.1"},
			want:    "198.51.100.10",
		},
		{
			name:    "trusted proxy right-most untrusted",
			remote:  "203.0.113.10:1234",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 203.0.113.11, 192.0.2.20"},
			trusted: []string{"203.0.113.10", "203.0.113.11"},
			want:    "192.0.2.20",
		},
		{
			name:    "all trusted uses left-most",
			remote:  "203.0.113.10:1234",
			headers: map[string]string{"Forwarded": `for=192.0.2.1, for=192.0.2.2`},
			trusted: []string{"203.0.113.10", "192.0.2.0/24"},
			want:    "192.0.2.1",
		},
		{
			name:    "forwarded ipv6 with port",
			remote:  "10.0.0.1:80",
			headers: map[string]string{"Forwarded": `for="[2001:db8::1]:4711"`},
			trusted: []string{"10.0.0.0/8"},
			want:    "2001:db8::1",
		},
		{
			name:    "forwarded wins over x-forwarded-for",
			remote:  "10.0.0.1:80",
			headers: map[string]string{"Forwarded": "for=192.0.2.9", "X-Forwarded-For": "192.0.2.8"},
			trusted: []string{"10.0.0.1"},
			want:    "192.0.2.9",
		},
		{
			name:    "unknown hops are skipped",
			remote:  "10.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": "unknown"},
			trusted: []string{"10.0.0.1"},
			want:    "10.0.0.1",
		},
		{
			name:   "no proxies configured",
			remote: "192.0.2.33:5555",
			want:   "192.0.2.33",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://desk.example", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			got := clientIPFromRequest(req, newProxyMatcher(tt.trusted, nil))
			if got == nil || !got.Equal(net.ParseIP(tt.want)) {
				t.Errorf("clientIP = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestProxyMatcherSkipsInvalidEntries(t *testing.T) {
	if m := newProxyMatcher([]string{"", "not-an-ip", "10.0.0.0/99"}, nil); m != nil {
		t.Error("matcher with no valid entries should be nil")
	}
	m := newProxyMatcher([]string{"bogus", "10.1.0.0/16"}, nil)
	if !m.IsTrusted(net.ParseIP("10.1.2.3")) || m.IsTrusted(net.ParseIP("10.2.0.1")) {
		t.Error("CIDR matching")
	}
}
