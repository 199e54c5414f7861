// Package admin guards operator-only demo endpoints, such as switching the
// active user, behind a shared secret.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "medcred/pkg/domain-errors"
	"medcred/pkg/platform/httputil"
	"medcred/pkg/requestcontext"
	"medcred/pkg/secrets"
)

// HeaderName carries the operator secret.
const HeaderName = "X-Admin-Token"

// RequireToken rejects requests whose X-Admin-Token does not match
// expected. expected may be a bcrypt hash of the token. An empty expected
// token disables the check.
func RequireToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !matches(r.Header.Get(HeaderName), expected) {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matches(token, expected string) bool {
	if token == "" {
		return false
	}
	if secrets.IsHash(expected) {
		return secrets.Verify(token, expected) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}
