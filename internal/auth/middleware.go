// ABOUTME: HTTP middleware enforcing bearer-token auth on operator routes
// ABOUTME: Stores the verified operator id in the request context

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const operatorKey contextKey = "operator"

// OperatorFromContext returns the operator id set by the middleware,
// or empty when the request was not authenticated.
func OperatorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(operatorKey).(string)
	return id
}

// Middleware wraps an http.Handler and rejects requests without a
// valid bearer token.
func Middleware(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			operatorID, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("token rejected", "path", r.URL.Path, "error", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey, operatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
