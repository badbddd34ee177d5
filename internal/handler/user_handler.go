package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "usersvc/internal/errors"
	"usersvc/internal/service"
)

// UserHandler serves the /users endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a user handler.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// MarketingConsentRequest is the body of a consent update.
type MarketingConsentRequest struct {
	MarketingConsent *bool `json:"marketingConsent" validate:"required"`
}

// ConsentState is returned after a consent update.
type ConsentState struct {
	MarketingConsent          bool       `json:"marketingConsent"`
	MarketingConsentUpdatedAt *time.Time `json:"marketingConsentUpdatedAt"`
}

// GetProfile godoc
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=UserView}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/users/profile [get]
func (h *UserHandler) GetProfile(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}

	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, success("", newUserView(user)))
}

// UpdateProfile godoc
// @Summary Update own profile
// @Description Password, role and activation cannot be changed here.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} Response{data=UserView}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/users/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}

	var req service.UpdateProfileInput
	if err := c.Bind(&req); err != nil {
		return badRequestBody()
	}

	user, err := h.svc.UpdateProfile(c.Request().Context(), id, req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, success("profile updated", newUserView(user)))
}

// UpdateMarketingConsent godoc
// @Summary Update marketing consent
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body MarketingConsentRequest true "Consent"
// @Success 200 {object} Response{data=ConsentState}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/users/marketing-consent [put]
func (h *UserHandler) UpdateMarketingConsent(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}

	var req MarketingConsentRequest
	if err := c.Bind(&req); err != nil {
		return badRequestBody()
	}
	if err := c.Validate(&req); err != nil {
		return fail(err)
	}

	user, err := h.svc.UpdateMarketingConsent(c.Request().Context(), id, req.MarketingConsent)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, success("marketing preference updated", ConsentState{
		MarketingConsent:          user.MarketingConsent,
		MarketingConsentUpdatedAt: user.MarketingConsentUpdatedAt,
	}))
}

// ChangePassword godoc
// @Summary Change own password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ChangePasswordInput true "Current and new password"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/users/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}

	var req service.ChangePasswordInput
	if err := c.Bind(&req); err != nil {
		return badRequestBody()
	}

	if err := h.svc.ChangePassword(c.Request().Context(), id, req); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, success("password updated", nil))
}

// DeleteUser godoc
// @Summary Delete own account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/users [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}

	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, success("user deleted", nil))
}

// ListUsers godoc
// @Summary List users
// @Description Newest first. Admin only.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]UserView}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ForbiddenResponse
// @Router /api/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	count := len(users)
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Count:   &count,
		Data:    newUserViews(users),
	})
}

// CreateUser godoc
// @Summary Create user
// @Description Admin only. Registration with tokens belongs to the Auth service.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateUserInput true "User payload"
// @Success 201 {object} Response{data=UserView}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ForbiddenResponse
// @Router /api/users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req service.CreateUserInput
	if err := c.Bind(&req); err != nil {
		return badRequestBody()
	}

	user, err := h.svc.CreateUser(c.Request().Context(), req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, success("user created", newUserView(user)))
}

// GetUserByID godoc
// @Summary Get user by id
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} Response{data=UserView}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ForbiddenResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(apperrors.ErrInvalidUserID)
	}

	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, success("", newUserView(user)))
}

// VerifyCredentials godoc
// @Summary Verify email and password
// @Description Used by the Auth service at login. Stamps lastLogin on success.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.VerifyCredentialsInput true "Credentials"
// @Success 200 {object} Response{data=UserView}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ForbiddenResponse
// @Router /api/users/credentials/verify [post]
func (h *UserHandler) VerifyCredentials(c echo.Context) error {
	var req service.VerifyCredentialsInput
	if err := c.Bind(&req); err != nil {
		return badRequestBody()
	}

	user, err := h.svc.VerifyCredentials(c.Request().Context(), req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, success("credentials verified", newUserView(user)))
}
