package marketdata

import (
	"net/http/httptest"
	"testing"
)

func TestShouldForceRefresh(t *testing.T) {
	auth := NewRefreshAuth("s3cret")

	tests := []struct {
		name   string
		target string
		token  string
		want   bool
	}{
		{"refresh=1 with token", "/api/quotes?refresh=1", "s3cret", true},
		{"refresh=true with token", "/api/quotes?refresh=true", "s3cret", true},
		{"refresh=yes with token", "/api/quotes?refresh=YES", "s3cret", true},
		{"force=1 with token", "/api/quotes?force=1", "s3cret", true},
		{"refresh=0", "/api/quotes?refresh=0", "s3cret", false},
		{"no query", "/api/quotes", "s3cret", false},
		{"wrong token", "/api/quotes?refresh=1", "wrong", false},
		{"missing token", "/api/quotes?refresh=1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.token != "" {
				r.Header.Set(RefreshTokenHeader, tt.token)
			}
			if got := auth.ShouldForceRefresh(r); got != tt.want {
				t.Errorf("ShouldForceRefresh = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldForceRefreshFailsClosedWithoutConfiguredToken(t *testing.T) {
	auth := NewRefreshAuth("")

	r := httptest.NewRequest("GET", "/api/quotes?refresh=1", nil)
	r.Header.Set(RefreshTokenHeader, "")
	if auth.ShouldForceRefresh(r) {
		t.Error("empty configured token must disable forced refresh entirely")
	}
}
