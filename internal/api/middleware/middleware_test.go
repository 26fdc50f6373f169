package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danghamo/warpgate/internal/api/jsonrpcx"
	"github.com/danghamo/warpgate/internal/domain/actor"
	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/pkg/logger"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *jsonrpcx.JSONRPCError {
	t.Helper()
	var resp jsonrpcx.JSONRPCResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mw("first"), mw("second"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestErrorAdapter_WritesAttachedError(t *testing.T) {
	h := ErrorAdapter(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a derived request still reaches the slot
		r = r.WithContext(context.WithValue(r.Context(), struct{}{}, "x"))
		jsonrpcx.WithDomainError(w, r, 7, shared.ErrNotFound("warp 'x'"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	rpcErr := decodeError(t, w)
	assert.Equal(t, jsonrpcx.NotFound, rpcErr.Code)
	assert.Contains(t, rpcErr.Message, "warp 'x'")
}

func TestErrorAdapter_PassesSuccess(t *testing.T) {
	h := ErrorAdapter(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonrpcx.Success(w, 1, "ok")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	var resp jsonrpcx.JSONRPCResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Error)
	assert.Equal(t, "ok", resp.Result)
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, jsonrpcx.InternalError, decodeError(t, w).Code)
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/warp.List", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, 1, 2, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, request("10.0.0.1").Code)

	limited := request("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, jsonrpcx.RateLimited, decodeError(t, limited).Code)

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, request("10.0.0.2").Code)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}

func TestLogging_KeepsFlusher(t *testing.T) {
	var flushable bool
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushable = w.(http.Flusher)
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, flushable)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func newAuth(t *testing.T) (*AuthMiddleware, *actor.JWTService) {
	t.Helper()
	jwtService := actor.NewJWTService("middleware-test-secret", "warpgate-test", time.Hour)
	return NewAuthMiddleware(jwtService, logger.NewNop()), jwtService
}

func TestRequireAuth(t *testing.T) {
	auth, jwtService := newAuth(t)
	token, err := jwtService.GenerateToken(actor.Actor{ID: "alice", Tags: []string{"staff"}})
	require.NoError(t, err)

	var seen *actor.JWTClaims
	h := ErrorAdapter(logger.NewNop())(auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetClaims(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + token},
		{"bad token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, jsonrpcx.Unauthorized, decodeError(t, w).Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.ActorID)
	assert.Equal(t, []string{"staff"}, seen.Tags)
}

func TestRequireStreamAuth_QueryToken(t *testing.T) {
	auth, jwtService := newAuth(t)
	token, err := jwtService.GenerateToken(actor.Actor{ID: "alice"})
	require.NoError(t, err)

	h := auth.RequireStreamAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream?token="+token, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream?token=bad", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
