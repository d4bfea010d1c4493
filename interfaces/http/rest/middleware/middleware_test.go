package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"keepwise/pkg/auth"
	pkgerrors "keepwise/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "middleware-test-secret"

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func newValidator(t *testing.T) *auth.JWTValidator {
	t.Helper()
	v, err := auth.NewJWTValidator(auth.JWTConfig{SigningMethod: "HS256", SecretKey: testSecret, Issuer: "keepwise"})
	require.NoError(t, err)
	return v
}

// mintToken signs directly so tests can produce already expired tokens
func mintToken(t *testing.T, userID string, expiry time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &auth.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "keepwise",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// whoami echoes the authenticated user id
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(user.UserID))
})

func serveAuth(cfg AuthConfig, req *http.Request) *httptest.ResponseRecorder {
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	rr := httptest.NewRecorder()
	Authenticate(cfg, errs, zap.NewNop())(whoami).ServeHTTP(rr, req)
	return rr
}

func TestAuthenticate(t *testing.T) {
	validator := newValidator(t)

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, "user-1", time.Hour))

		rr := serveAuth(AuthConfig{Validator: validator}, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "user-1", rr.Body.String())
	})

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "Missing authentication token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "Missing authentication token"},
		{"expired", "Bearer " + mintToken(t, "user-1", -time.Minute), "Token has expired"},
		{"garbage", "Bearer abc.def.ghi", "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rr := serveAuth(AuthConfig{Validator: validator}, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.message)
		})
	}
}

func TestAuthenticate_RateLimits(t *testing.T) {
	validator := newValidator(t)
	token := mintToken(t, "user-1", time.Hour)

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	t.Run("ip limit checked before the token", func(t *testing.T) {
		ipLimiter := &stubLimiter{allow: false}
		req := newReq()
		req.Header.Del("Authorization")

		rr := serveAuth(AuthConfig{Validator: validator, IPLimiter: ipLimiter, IPLimit: 5}, req)
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, []string{"203.0.113.7"}, ipLimiter.keys)
	})

	t.Run("user limit keyed by subject", func(t *testing.T) {
		userLimiter := &stubLimiter{allow: false}

		rr := serveAuth(AuthConfig{Validator: validator, UserLimiter: userLimiter, UserLimit: 5}, newReq())
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, []string{"user-1"}, userLimiter.keys)
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		broken := &stubLimiter{err: errors.New("store down")}

		rr := serveAuth(AuthConfig{Validator: validator, IPLimiter: broken, UserLimiter: broken}, newReq())
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestAuthenticate_TrustsGatewayAuthorizer(t *testing.T) {
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)

	gatewayEvent := events.APIGatewayV2HTTPRequest{
		RawPath: "/whoami",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   http.MethodGet,
				Path:     "/whoami",
				SourceIP: "198.51.100.4",
			},
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{"sub": "gateway-user", "email": "g@example.com"},
				},
			},
		},
	}

	proxy := func(trust bool) events.APIGatewayV2HTTPResponse {
		router := chi.NewRouter()
		router.Use(Authenticate(AuthConfig{Validator: newValidator(t), TrustGateway: trust}, errs, zap.NewNop()))
		router.Get("/whoami", whoami)

		resp, err := chiadapter.NewV2(router).ProxyWithContextV2(context.Background(), gatewayEvent)
		require.NoError(t, err)
		return resp
	}

	resp := proxy(true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gateway-user", resp.Body)

	resp = proxy(false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer   abc ", "abc"},
		{"Token abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tt.header)
		assert.Equal(t, tt.want, extractToken(req), tt.header)
	}
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type recorderFunc func(method, route string, status int, duration time.Duration)

func (f recorderFunc) RecordHTTP(method, route string, status int, duration time.Duration) {
	f(method, route, status, duration)
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	var got []recordedRequest
	recorder := recorderFunc(func(method, route string, status int, _ time.Duration) {
		got = append(got, recordedRequest{method, route, status})
	})

	router := chi.NewRouter()
	router.Use(Metrics(recorder))
	router.Get("/memories/{id}", func(w http.ResponseWriter, r *http.Request) {})
	router.Delete("/links/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/memories/123", nil),
		httptest.NewRequest(http.MethodDelete, "/links/456", nil),
	} {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, []recordedRequest{
		{http.MethodGet, "/memories/{id}", http.StatusOK},
		{http.MethodDelete, "/links/{id}", http.StatusNotFound},
	}, got)
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logged := Logger(zap.New(core))

	ok := logged(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	failing := logged(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tags", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/api/tags", entries[1].ContextMap()["path"])
}
