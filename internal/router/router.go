package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"usersvc/internal/auth"
	"usersvc/internal/config"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/handler"
	"usersvc/internal/middleware"
	"usersvc/internal/model"
	"usersvc/internal/validation"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	resolver *auth.Resolver,
	userHandler *handler.UserHandler,
) {
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Validator = validation.NewEchoValidator()

	e.Use(echomw.RequestID())
	e.Use(requestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echo.WrapMiddleware(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.IsProduction(),
	}).Handler))

	e.GET("/", handler.Root)
	e.GET("/health", handler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Every /api/users route needs an identity.
	users := e.Group("/api/users", middleware.Authenticate(resolver, log))
	users.GET("/profile", userHandler.GetProfile)
	users.PUT("/profile", userHandler.UpdateProfile)
	users.PUT("/marketing-consent", userHandler.UpdateMarketingConsent)
	users.PUT("/password", userHandler.ChangePassword)
	users.DELETE("", userHandler.DeleteUser)

	admin := users.Group("", middleware.RequireRoles(string(model.RoleAdmin)))
	admin.GET("", userHandler.ListUsers)
	admin.POST("", userHandler.CreateUser)
	admin.POST("/credentials/verify", userHandler.VerifyCredentials)
	admin.GET("/:id", userHandler.GetUserByID)
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Status >= http.StatusInternalServerError {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

// ErrorHandler renders every error in the response envelope. Handler errors
// already carry an ErrorResponse; echo's own errors (unknown route, bad
// method) are converted here.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		var body interface{} = apperrors.ErrorResponse{Message: "internal server error", Code: "INTERNAL_ERROR"}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch msg := he.Message.(type) {
			case apperrors.ErrorResponse, apperrors.ForbiddenResponse:
				body = msg
			case string:
				body = apperrors.ErrorResponse{Message: msg}
			default:
				body = apperrors.ErrorResponse{Message: http.StatusText(status)}
			}
			if he == echo.ErrNotFound {
				body = apperrors.ErrorResponse{Message: "route not found", Code: "ROUTE_NOT_FOUND"}
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed", zap.Error(err), zap.String("path", c.Request().URL.Path))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", zap.Error(err))
		}
	}
}
