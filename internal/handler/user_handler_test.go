package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"usersvc/internal/auth"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/middleware"
	"usersvc/internal/model"
	"usersvc/internal/service"
	"usersvc/internal/validation"
)

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, in service.CreateUserInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, in service.UpdateProfileInput) (*model.User, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdateMarketingConsent(ctx context.Context, id uuid.UUID, consent *bool) (*model.User, error) {
	args := m.Called(ctx, id, consent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, id uuid.UUID, in service.ChangePasswordInput) error {
	args := m.Called(ctx, id, in)
	return args.Error(0)
}

func (m *MockUserService) VerifyCredentials(ctx context.Context, in service.VerifyCredentialsInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// newTestServer mounts the handler behind gateway-header authentication.
func newTestServer(svc service.UserService) *echo.Echo {
	e := echo.New()
	e.Validator = validation.NewEchoValidator()
	resolver := auth.NewResolver(auth.NewJWTService("unused"), nil)
	h := NewUserHandler(svc)

	users := e.Group("/api/users", middleware.Authenticate(resolver, nil))
	users.GET("/profile", h.GetProfile)
	users.PUT("/profile", h.UpdateProfile)
	users.PUT("/marketing-consent", h.UpdateMarketingConsent)
	users.PUT("/password", h.ChangePassword)
	users.DELETE("", h.DeleteUser)

	admin := users.Group("", middleware.RequireRoles(string(model.RoleAdmin)))
	admin.GET("", h.ListUsers)
	admin.POST("", h.CreateUser)
	admin.GET("/:id", h.GetUserByID)
	admin.POST("/credentials/verify", h.VerifyCredentials)
	return e
}

func do(e *echo.Echo, method, path, body, userID, roles string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(auth.HeaderUserID, userID)
	}
	if roles != "" {
		req.Header.Set(auth.HeaderUserRoles, roles)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleUser(id uuid.UUID) *model.User {
	return &model.User{
		ID:           id,
		Email:        "jane@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		FirstName:    "Jane",
		LastName:     "Doe",
		Role:         model.RoleClient,
		IsActive:     true,
	}
}

func TestUserHandler_GetProfile(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		userID     string
		setupMock  func(*MockUserService)
		wantStatus int
	}{
		{
			name:   "found",
			userID: id.String(),
			setupMock: func(m *MockUserService) {
				m.On("GetUser", mock.Anything, id).Return(sampleUser(id), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "not found",
			userID: id.String(),
			setupMock: func(m *MockUserService) {
				m.On("GetUser", mock.Anything, id).Return(nil, apperrors.ErrUserNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "gateway id is not a user id",
			userID:     "not-a-uuid",
			setupMock:  func(m *MockUserService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unauthenticated",
			setupMock:  func(m *MockUserService) {},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			tt.setupMock(svc)

			rec := do(newTestServer(svc), http.MethodGet, "/api/users/profile", "", tt.userID, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantStatus == http.StatusOK, body["success"])
			svc.AssertExpectations(t)
		})
	}
}

func TestUserHandler_ProfileNeverExposesPassword(t *testing.T) {
	id := uuid.New()
	svc := new(MockUserService)
	svc.On("GetUser", mock.Anything, id).Return(sampleUser(id), nil)

	rec := do(newTestServer(svc), http.MethodGet, "/api/users/profile", "", id.String(), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.NotContains(t, rec.Body.String(), "password")
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "Jane Doe", data["fullName"])
	assert.Equal(t, "jane@example.com", data["email"])
}

func TestUserHandler_UpdateProfile_IgnoresPrivilegedFields(t *testing.T) {
	id := uuid.New()
	svc := new(MockUserService)
	svc.On("UpdateProfile", mock.Anything, id, mock.MatchedBy(func(in service.UpdateProfileInput) bool {
		return in.FirstName != nil && *in.FirstName == "Janet"
	})).Return(sampleUser(id), nil)

	body := `{"firstName":"Janet","password":"hijack123","role":"ADMIN","isActive":false}`
	rec := do(newTestServer(svc), http.MethodPut, "/api/users/profile", body, id.String(), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "profile updated", decode(t, rec)["message"])
	svc.AssertExpectations(t)
}

func TestUserHandler_UpdateProfile_ValidationErrors(t *testing.T) {
	id := uuid.New()
	svc := new(MockUserService)
	svc.On("UpdateProfile", mock.Anything, id, mock.Anything).
		Return(nil, apperrors.NewValidationError("email must be a valid email address", "firstName cannot exceed 100 characters"))

	rec := do(newTestServer(svc), http.MethodPut, "/api/users/profile", `{"email":"x"}`, id.String(), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["errors"], 2)
}

func TestUserHandler_UpdateMarketingConsent(t *testing.T) {
	id := uuid.New()
	stamp := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockUserService)
		wantStatus int
	}{
		{
			name: "granted",
			body: `{"marketingConsent":true}`,
			setupMock: func(m *MockUserService) {
				user := sampleUser(id)
				user.MarketingConsent = true
				user.MarketingConsentUpdatedAt = &stamp
				m.On("UpdateMarketingConsent", mock.Anything, id, mock.MatchedBy(func(v *bool) bool { return v != nil && *v })).
					Return(user, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "field missing",
			body:       `{}`,
			setupMock:  func(m *MockUserService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"marketingConsent":"yes"}`,
			setupMock:  func(m *MockUserService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			tt.setupMock(svc)

			rec := do(newTestServer(svc), http.MethodPut, "/api/users/marketing-consent", tt.body, id.String(), "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				data := decode(t, rec)["data"].(map[string]interface{})
				assert.Equal(t, true, data["marketingConsent"])
				assert.Equal(t, "2025-05-01T12:00:00Z", data["marketingConsentUpdatedAt"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestUserHandler_ChangePassword(t *testing.T) {
	id := uuid.New()
	svc := new(MockUserService)
	svc.On("ChangePassword", mock.Anything, id, service.ChangePasswordInput{CurrentPassword: "password123", NewPassword: "newpassword"}).
		Return(apperrors.ErrInvalidCredentials)

	body := `{"currentPassword":"password123","newPassword":"newpassword"}`
	rec := do(newTestServer(svc), http.MethodPut, "/api/users/password", body, id.String(), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertExpectations(t)
}

func TestUserHandler_DeleteUser(t *testing.T) {
	id := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("DeleteUser", mock.Anything, id).Return(nil)

		rec := do(newTestServer(svc), http.MethodDelete, "/api/users", "", id.String(), "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user deleted", decode(t, rec)["message"])
	})

	t.Run("already gone", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("DeleteUser", mock.Anything, id).Return(apperrors.ErrUserNotFound)

		rec := do(newTestServer(svc), http.MethodDelete, "/api/users", "", id.String(), "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUserHandler_AdminRoutes(t *testing.T) {
	adminID := uuid.New().String()
	target := uuid.New()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		roles      string
		setupMock  func(*MockUserService)
		wantStatus int
		check      func(*testing.T, map[string]interface{})
	}{
		{
			name:   "list with count",
			method: http.MethodGet,
			path:   "/api/users",
			roles:  "admin",
			setupMock: func(m *MockUserService) {
				m.On("ListUsers", mock.Anything).Return([]model.User{*sampleUser(uuid.New()), *sampleUser(uuid.New())}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(2), body["count"])
				assert.Len(t, body["data"], 2)
			},
		},
		{
			name:   "empty list still reports count",
			method: http.MethodGet,
			path:   "/api/users",
			roles:  "ADMIN",
			setupMock: func(m *MockUserService) {
				m.On("ListUsers", mock.Anything).Return([]model.User{}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(0), body["count"])
			},
		},
		{
			name:       "client forbidden",
			method:     http.MethodGet,
			path:       "/api/users",
			roles:      "client",
			setupMock:  func(m *MockUserService) {},
			wantStatus: http.StatusForbidden,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "CLIENT", body["userRole"])
			},
		},
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/api/users",
			body:   `{"email":"new@example.com","password":"password123","firstName":"New","lastName":"User"}`,
			roles:  "ADMIN",
			setupMock: func(m *MockUserService) {
				m.On("CreateUser", mock.Anything, mock.MatchedBy(func(in service.CreateUserInput) bool {
					return in.Email == "new@example.com" && in.Password == "password123"
				})).Return(sampleUser(target), nil)
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "user created", body["message"])
			},
		},
		{
			name:   "create duplicate email",
			method: http.MethodPost,
			path:   "/api/users",
			body:   `{"email":"taken@example.com","password":"password123","firstName":"New","lastName":"User"}`,
			roles:  "ADMIN",
			setupMock: func(m *MockUserService) {
				m.On("CreateUser", mock.Anything, mock.Anything).Return(nil, apperrors.ErrEmailExists)
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "email already exists", body["message"])
			},
		},
		{
			name:   "get by id",
			method: http.MethodGet,
			path:   "/api/users/" + target.String(),
			roles:  "ADMIN",
			setupMock: func(m *MockUserService) {
				m.On("GetUser", mock.Anything, target).Return(sampleUser(target), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "get by malformed id",
			method:     http.MethodGet,
			path:       "/api/users/12345",
			roles:      "ADMIN",
			setupMock:  func(m *MockUserService) {},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "INVALID_ID", body["code"])
			},
		},
		{
			name:   "verify credentials rejected",
			method: http.MethodPost,
			path:   "/api/users/credentials/verify",
			body:   `{"email":"jane@example.com","password":"wrongpass"}`,
			roles:  "ADMIN",
			setupMock: func(m *MockUserService) {
				m.On("VerifyCredentials", mock.Anything, service.VerifyCredentialsInput{Email: "jane@example.com", Password: "wrongpass"}).
					Return(nil, apperrors.ErrInvalidCredentials)
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			tt.setupMock(svc)

			rec := do(newTestServer(svc), tt.method, tt.path, tt.body, adminID, tt.roles)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, decode(t, rec))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHealthAndRoot(t *testing.T) {
	e := echo.New()
	e.GET("/health", Health)
	e.GET("/", Root)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	endpoints := decode(t, rec)["endpoints"].(map[string]interface{})
	assert.Equal(t, "/api/users", endpoints["users"])
}
