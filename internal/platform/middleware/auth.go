package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "commune/pkg/domain"
	dErrors "commune/pkg/domain-errors"
	"commune/pkg/platform/httputil"
	"commune/pkg/requestcontext"
)

// Claims is what the token validator hands back: the verified member identity.
type Claims struct {
	MemberID string
}

// TokenValidator verifies a bearer token and returns its claims. The core
// trusts the validator to supply a correctly-attributed caller identity; the
// signing and funding of identities happens entirely outside this service.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// verified member identity into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "rejected token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid or expired token"))
				return
			}

			member, err := id.ParseMemberID(claims.MemberID)
			if err != nil {
				logger.WarnContext(ctx, "token carries invalid member id",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid token claims"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithMemberID(ctx, member)))
		})
	}
}
