// Package httpapi exposes the evaluation facade over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Victor-armando18/service-promotions/internal/interfaces"
	"github.com/Victor-armando18/service-promotions/internal/platform/logging"
)

// NewServer builds an echo instance with the service middleware and routes.
func NewServer(svc interfaces.EvaluationFacade, logger *zap.Logger) *echo.Echo {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodPatch, http.MethodOptions, http.MethodGet},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.RequestID())
	e.Use(contextLogger(logger))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("requestId", v.RequestID),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	RegisterRoutes(e, svc)
	return e
}

// contextLogger attaches a request-scoped logger to the request context so
// that the usecase layer logs with the request id.
func contextLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithLogger(c.Request().Context(), base.With(zap.String("requestId", id)))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RegisterRoutes mounts the evaluation and rule management endpoints.
func RegisterRoutes(e *echo.Echo, svc interfaces.EvaluationFacade) {
	h := &handlers{svc: svc}
	e.POST("/evaluations", h.evaluate)
	e.PATCH("/evaluations", h.patchAndEvaluate)
	e.POST("/evaluations/batch", h.evaluateBatch)
	e.GET("/rules", h.currentRules)
	e.PATCH("/rules", h.patchRules)
	e.POST("/rules/reload", h.reloadRules)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})
}
