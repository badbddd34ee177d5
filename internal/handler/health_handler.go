package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Endpoints lists the service's entry points on the banner.
type Endpoints struct {
	Health  string `json:"health"`
	Users   string `json:"users"`
	APIDocs string `json:"apiDocs"`
}

// BannerResponse is returned by the root endpoint.
type BannerResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Endpoints Endpoints `json:"endpoints"`
}

// Health godoc
// @Summary Health check
// @Tags general
// @Produce json
// @Success 200 {object} Response
// @Router /health [get]
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, success("users service is running", nil))
}

// Root godoc
// @Summary Service banner
// @Tags general
// @Produce json
// @Success 200 {object} BannerResponse
// @Router / [get]
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, BannerResponse{
		Success: true,
		Message: "Welcome to the users management service",
		Endpoints: Endpoints{
			Health:  "/health",
			Users:   "/api/users",
			APIDocs: "/swagger/index.html",
		},
	})
}
