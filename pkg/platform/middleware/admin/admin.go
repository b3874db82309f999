// Package admin guards operator-only routes with a bearer token.
package admin

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "claimbridge/pkg/domain-errors"
	"claimbridge/pkg/requestcontext"
)

// Claims is what the middleware needs from a verified token.
type Claims struct {
	Subject string
	TokenID string
}

// TokenValidator verifies a raw bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RequireAdmin rejects requests without a valid admin bearer token and
// records the token subject in the request context.
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "admin access denied - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "admin access denied - invalid token",
					"error", err,
					"request_id", requestID,
				)
				if dErrors.HasCode(err, dErrors.CodeForbidden) {
					writeJSONError(w, http.StatusForbidden, "forbidden", "Token does not grant admin access")
					return
				}
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			logger.InfoContext(ctx, "admin access granted",
				"subject", claims.Subject,
				"token_id", claims.TokenID,
				"request_id", requestID,
			)
			ctx = requestcontext.WithAdminSubject(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","error_description":"` + description + `"}`))
}
