// Package token acquires bearer tokens for the issuance API from the
// platform-managed identity endpoint.
package token

import (
	"context"
	"net/http"
	"time"
)

// DefaultLifetime applies when neither the response nor the JWT says when
// the token expires.
const DefaultLifetime = 5 * time.Minute

// AccessToken is a bearer value and its expiry.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// FreshAt reports whether the token is still usable at now, treating it as
// expired skew early.
func (t AccessToken) FreshAt(now time.Time, skew time.Duration) bool {
	return t.Value != "" && now.Add(skew).Before(t.ExpiresAt)
}

// Provider yields a bearer token for the issuance API.
type Provider interface {
	Token(ctx context.Context) (AccessToken, error)
}

// HTTPDoer is the subset of *http.Client the provider needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
