package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/services/metrics"
)

// staffMiddleware only lets school staff through and puts the acting staff member in the request context.
func staffMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if !claims.IsStaff() {
				return errHttpForbidden
			}
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(core.WithActor(req.Context(), claims.Actor())))
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// metricsMiddleware records the duration of every request.
func metricsMiddleware(m *metricsvc.Prometheus) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			if err != nil {
				ctx.Error(err) // commits the error response so its status is known
			}
			m.ObserveRequest(ctx.Request().Method, ctx.Path(), ctx.Response().Status, start)
			return nil
		}
	}
}
