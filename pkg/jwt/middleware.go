package jwt

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{ name string }

var claimsContextKey = &contextKey{name: "jwt_claims"}

// ClaimsFromContext returns the verified claims placed in the context by
// Middleware. The second return value is false for unauthenticated requests.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(Claims)
	return claims, ok
}

// ContextWithClaims stores verified claims in the context. Exposed for tests
// and non-HTTP entry points.
func ContextWithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// TokenFromRequest extracts the credential from an HTTP request. The
// Authorization header wins; the "token" query parameter is accepted as a
// fallback because EventSource clients cannot set request headers.
func TokenFromRequest(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", ErrInvalidToken
		}
		return parts[1], nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

// Middleware verifies the request credential and injects the claims into the
// request context. Requests without a valid token are rejected with 401.
func Middleware(verifier *Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := TokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}
