package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "usersvc/internal/errors"
	"usersvc/internal/middleware"
	"usersvc/internal/model"
)

// Response is the success envelope shared by every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// UserView is a user as rendered to clients, with the derived full name.
type UserView struct {
	*model.User
	FullName string `json:"fullName"`
}

func newUserView(u *model.User) UserView {
	return UserView{User: u, FullName: u.FullName()}
}

func newUserViews(users []model.User) []UserView {
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, newUserView(&users[i]))
	}
	return views
}

func success(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}

// fail converts a domain error into the echo error carrying the envelope.
func fail(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequestBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Message: "invalid request body",
		Code:    "INVALID_BODY",
	})
}

// callerID returns the authenticated caller's record id.
func callerID(c echo.Context) (uuid.UUID, error) {
	principal, found := middleware.PrincipalFrom(c)
	if !found {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Message: "user not authenticated",
			Code:    "UNAUTHENTICATED",
		})
	}
	id, err := uuid.Parse(principal.Subject())
	if err != nil {
		return uuid.Nil, fail(apperrors.ErrInvalidUserID)
	}
	return id, nil
}
