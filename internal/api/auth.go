package api

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/kalambet/jobassist/internal/assistant"
)

// Headers carrying the caller identity. They are set by the trusted gateway
// in front of the server, after it has authenticated the session.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) || subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(token)) != 1 {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type subjectKey struct{}

// WithSubject resolves the caller from the identity headers. A request
// without a user id is keyed by its remote host and carries no role.
func WithSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subj := assistant.Subject{
			ID:   strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Role: strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole))),
		}
		if subj.ID == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			subj = assistant.Subject{ID: assistant.AnonymousPrefix + host}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, subj)))
	})
}

// RequireUser rejects callers without a user id. Anonymous subjects share an
// id per host, so they must not read or write per-user state.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subj, ok := SubjectFrom(r.Context()); !ok || subj.Anonymous() {
			httpError(w, http.StatusUnauthorized, "authentication_error", "sign in to use the assistant")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SubjectFrom returns the caller stored by WithSubject.
func SubjectFrom(ctx context.Context) (assistant.Subject, bool) {
	subj, ok := ctx.Value(subjectKey{}).(assistant.Subject)
	return subj, ok
}
