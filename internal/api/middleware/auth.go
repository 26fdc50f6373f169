package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/api/jsonrpcx"
	"github.com/danghamo/warpgate/internal/domain/actor"
	"github.com/danghamo/warpgate/pkg/logger"
)

type claimsContextKey struct{}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	jwtService *actor.JWTService
	logger     *logger.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtService *actor.JWTService, logger *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     logger.WithComponent("auth-middleware"),
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth returns a middleware that requires JWT authentication
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			m.logger.Debug("Missing or malformed Authorization header")
			jsonrpcx.WithError(w, r, nil, jsonrpcx.Unauthorized, "Missing or invalid Authorization header")
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			m.logger.Debug("Invalid JWT token", zap.Error(err))
			jsonrpcx.WithError(w, r, nil, jsonrpcx.Unauthorized, "Invalid or expired token")
			return
		}

		m.logger.Debug("JWT authentication successful",
			zap.String("actorId", claims.ActorID),
			zap.Bool("host", claims.IsHost()))

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireStreamAuth authenticates event stream requests. Browsers cannot set
// headers on an EventSource, so the token may also come as ?token=.
func (m *AuthMiddleware) RequireStreamAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			m.logger.Debug("Invalid stream token", zap.Error(err))
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims stores the caller's claims in ctx
func WithClaims(ctx context.Context, claims *actor.JWTClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// GetClaims extracts the caller's claims from ctx
func GetClaims(ctx context.Context) (*actor.JWTClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*actor.JWTClaims)
	return claims, ok && claims != nil
}
