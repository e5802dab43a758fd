package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
	"dealgate/pkg/platform/httputil"
	"dealgate/pkg/requestcontext"
)

// ActorAuth extracts the authenticated actor from a bearer token. The service
// consumes identity established elsewhere: the token's subject claim is the
// actor ID. Requests without a token pass through unauthenticated; handlers
// that require an actor reject them.
func ActorAuth(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			actorID, err := actorFromToken(token, signingKey)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "rejected bearer token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx := requestcontext.WithActorID(r.Context(), actorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// actorFromToken validates the token signature and parses the subject claim.
func actorFromToken(raw string, signingKey []byte) (id.ActorID, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.Newf(dErrors.CodeUnauthorized, "unexpected signing method %v", t.Header["alg"])
		}
		return signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return id.ActorID{}, err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return id.ActorID{}, err
	}
	return id.ParseActorID(subject)
}
