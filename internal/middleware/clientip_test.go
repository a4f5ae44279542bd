package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIPResolver_ClientIP(t *testing.T) {
	resolver, err := NewClientIPResolver([]string{"10.0.0.0/8", " 172.16.0.5 ", ""})
	require.NoError(t, err)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.168.1.1:1234", nil, "192.168.1.1"},
		{"remote addr without port", "192.168.1.1", nil, "192.168.1.1"},
		{"untrusted peer ignores x-forwarded-for", "192.0.2.9:1", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "192.0.2.9"},
		{"untrusted peer ignores x-real-ip", "192.0.2.9:1", map[string]string{"X-Real-IP": "203.0.113.7"}, "192.0.2.9"},
		{"trusted peer x-forwarded-for", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "203.0.113.9"},
		{"rightmost untrusted hop wins", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.1, 203.0.113.9, 10.0.0.2"}, "203.0.113.9"},
		{"single trusted ip entry", "172.16.0.5:1", map[string]string{"X-Forwarded-For": "203.0.113.4"}, "203.0.113.4"},
		{"all hops trusted", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "10.0.0.3, 10.0.0.2"}, "10.0.0.3"},
		{"trusted peer x-real-ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
		{"trusted peer without headers", "10.0.0.1:1", nil, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, resolver.ClientIP(req))
		})
	}
}

func TestClientIPResolver_NilTrustsNobody(t *testing.T) {
	var resolver *ClientIPResolver

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	assert.Equal(t, "10.0.0.1", resolver.ClientIP(req))
}

func TestNewClientIPResolver_RejectsBadEntries(t *testing.T) {
	for _, entry := range []string{"not-an-ip", "10.0.0.0/99"} {
		_, err := NewClientIPResolver([]string{entry})
		assert.Error(t, err, entry)
	}
}
