package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"keepwise/pkg/auth"
	pkgerrors "keepwise/pkg/errors"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"
)

// Limiter admits or rejects a request for key
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// AuthConfig wires the authentication middleware
type AuthConfig struct {
	Validator   *auth.JWTValidator
	IPLimiter   Limiter
	UserLimiter Limiter
	// IPLimit and UserLimit are requests per minute, reported on rejection
	IPLimit   int
	UserLimit int
	// TrustGateway accepts the subject of a JWT already verified by an API
	// Gateway authorizer. Only enable it behind the gateway.
	TrustGateway bool
}

// Authenticate validates the bearer token, applies per IP and per user rate
// limits and stores the caller in the request context.
func Authenticate(cfg AuthConfig, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			if !allow(r.Context(), cfg.IPLimiter, clientIP, logger) {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(cfg.IPLimit, "minute"))
				return
			}

			user, err := authenticate(r, cfg)
			if err != nil {
				logger.Warn("Authentication failed",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(unauthorizedMessage(err)))
				return
			}

			if !allow(r.Context(), cfg.UserLimiter, user.UserID, logger) {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(cfg.UserLimit, "minute"))
				return
			}

			ctx := auth.SetUserInContext(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, cfg AuthConfig) (*auth.UserContext, error) {
	if cfg.TrustGateway {
		if user, ok := gatewayUser(r.Context()); ok {
			return user, nil
		}
	}

	token := extractToken(r)
	if token == "" {
		return nil, auth.ErrMissingToken
	}
	if cfg.Validator == nil {
		return nil, auth.ErrInvalidToken
	}

	claims, err := cfg.Validator.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &auth.UserContext{UserID: claims.UserID, Email: claims.Email, Roles: claims.Roles}, nil
}

// gatewayUser reads the JWT authorizer claims attached by API Gateway
func gatewayUser(ctx context.Context) (*auth.UserContext, bool) {
	rc, ok := core.GetAPIGatewayV2ContextFromContext(ctx)
	if !ok || rc.Authorizer == nil || rc.Authorizer.JWT == nil {
		return nil, false
	}
	claims := rc.Authorizer.JWT.Claims
	sub := claims["sub"]
	if sub == "" {
		return nil, false
	}
	return &auth.UserContext{
		UserID: sub,
		Email:  claims["email"],
		Roles:  rc.Authorizer.JWT.Scopes,
	}, true
}

func allow(ctx context.Context, limiter Limiter, key string, logger *zap.Logger) bool {
	if limiter == nil {
		return true
	}
	ok, err := limiter.Allow(ctx, key)
	if err != nil {
		// fail open; a broken limiter must not lock everyone out
		logger.Error("Rate limiter error", zap.Error(err))
		return true
	}
	return ok
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "Missing authentication token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "Invalid token signature"
	default:
		return "Invalid token"
	}
}

func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
