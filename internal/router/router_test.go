package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"usersvc/internal/auth"
	"usersvc/internal/config"
	"usersvc/internal/handler"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	resolver := auth.NewResolver(auth.NewJWTService("router-secret"), nil)
	Register(e, &config.Config{AppEnv: "test"}, zap.NewNop(), resolver, handler.NewUserHandler(nil))
	return e
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		headers     map[string]string
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "health",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "banner",
			method:     http.MethodGet,
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:        "unknown route",
			method:      http.MethodGet,
			path:        "/nope",
			wantStatus:  http.StatusNotFound,
			wantMessage: "route not found",
		},
		{
			name:       "profile without credentials",
			method:     http.MethodGet,
			path:       "/api/users/profile",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "admin list as client",
			method:     http.MethodGet,
			path:       "/api/users",
			headers:    map[string]string{auth.HeaderUserID: "u1", auth.HeaderUserRoles: "CLIENT"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin create without credentials",
			method:     http.MethodPost,
			path:       "/api/users",
			wantStatus: http.StatusUnauthorized,
		},
	}

	e := newTestEcho()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus < 400, body["success"])
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
			}
			assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		})
	}
}

func TestRegister_SecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "plain error hides details",
			err:         errors.New("dial tcp: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
		{
			name:        "string message",
			err:         echo.NewHTTPError(http.StatusMethodNotAllowed),
			wantStatus:  http.StatusMethodNotAllowed,
			wantMessage: "Method Not Allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(zap.NewNop())(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}
