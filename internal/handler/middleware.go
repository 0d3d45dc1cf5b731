package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/port"
	"github.com/boddenberg/comissoes-bfa/internal/service"
)

type contextKey string

const (
	actorKey   contextKey = "actor"
	sessionKey contextKey = "sessionID"
)

// JWTAuthMiddleware validates Bearer tokens, loads the session and injects
// the actor and the upstream token into the request context.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Token de autenticação não fornecido")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Formato de token inválido")
				return
			}

			claims, sess, err := authSvc.Authenticate(r.Context(), parts[1])
			if err != nil {
				logger.Warn("auth: rejected token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				handleServiceError(w, err, logger)
				return
			}

			actor := sess.User
			if actor.ID == "" {
				actor = *claims.Actor()
			}

			ctx := context.WithValue(r.Context(), actorKey, &actor)
			ctx = context.WithValue(ctx, sessionKey, claims.ID)
			ctx = port.WithUpstreamToken(ctx, sess.UpstreamToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the authenticated user, or nil.
func ActorFromContext(ctx context.Context) *domain.User {
	v, _ := ctx.Value(actorKey).(*domain.User)
	return v
}

// SessionIDFromContext returns the jti of the current session.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey).(string)
	return v
}
