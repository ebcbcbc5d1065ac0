package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/andyvr/iamauth/middleware"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarding chain uses first entry",
			forwarded:  "203.0.113.7, 10.0.0.1, 10.0.0.2",
			realIP:     "198.51.100.1",
			remoteAddr: "10.0.0.2:44321",
			want:       "203.0.113.7",
		},
		{
			name:       "single forwarded entry",
			forwarded:  "203.0.113.7",
			remoteAddr: "10.0.0.2:44321",
			want:       "203.0.113.7",
		},
		{
			name:       "real ip fallback",
			realIP:     "198.51.100.1",
			remoteAddr: "10.0.0.2:44321",
			want:       "198.51.100.1",
		},
		{
			name:       "peer address fallback strips port",
			remoteAddr: "192.0.2.9:55555",
			want:       "192.0.2.9",
		},
		{
			name:       "peer address without port",
			remoteAddr: "192.0.2.9",
			want:       "192.0.2.9",
		},
		{
			name:       "blank forwarded header ignored",
			forwarded:  "   ",
			remoteAddr: "192.0.2.9:55555",
			want:       "192.0.2.9",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				r.Header.Set("X-Real-IP", tc.realIP)
			}

			if got := middleware.ClientIP(r); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
