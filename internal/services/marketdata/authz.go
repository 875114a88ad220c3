package marketdata

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RefreshTokenHeader carries the shared secret for a forced cache refresh.
const RefreshTokenHeader = "X-Cache-Refresh-Token"

// RefreshAuth gates caller-requested forced refreshes behind a shared
// secret. With no token configured, forced refresh is categorically
// disabled — the gate fails closed, never open.
type RefreshAuth struct {
	token string
}

// NewRefreshAuth creates a RefreshAuth for the configured token. An empty
// token disables forced refresh entirely.
func NewRefreshAuth(token string) *RefreshAuth {
	return &RefreshAuth{token: token}
}

// ShouldForceRefresh reports whether the request both asks for a refresh
// (refresh/force query parameter set to a truthy spelling) and presents
// the matching shared-secret header.
func (a *RefreshAuth) ShouldForceRefresh(r *http.Request) bool {
	return refreshRequested(r) && a.authorized(r)
}

func refreshRequested(r *http.Request) bool {
	query := r.URL.Query()
	raw := query.Get("refresh")
	if raw == "" {
		raw = query.Get("force")
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (a *RefreshAuth) authorized(r *http.Request) bool {
	if a.token == "" {
		return false
	}
	header := r.Header.Get(RefreshTokenHeader)
	return subtle.ConstantTimeCompare([]byte(header), []byte(a.token)) == 1
}
