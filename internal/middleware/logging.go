package middleware

import (
	"context"
	"errors"
	"time"

	"twitt/internal/models"
	"twitt/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ContextMiddleware copies the request and trace ids from fiber locals into the
// request context so that observability.FromContext picks them up downstream.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = context.WithValue(ctx, observability.RequestIDKey, rid)
		}
		if tid, ok := c.Locals("traceID").(string); ok && tid != "" {
			ctx = context.WithValue(ctx, observability.TraceIDKey, tid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusOf(err)
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", len(c.Response().Body())),
		}

		log := observability.FromContext(c.UserContext())
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request failed", append(fields, zap.Error(err))...)
		case err != nil:
			log.Info("request rejected", append(fields, zap.String("reason", err.Error()))...)
		default:
			log.Info("request processed", fields...)
		}
		return err
	}
}

// StatusOf maps a handler error to the HTTP status the error boundary will send.
func StatusOf(err error) int {
	if appErr, ok := models.AsAppError(err); ok {
		return appErr.Status()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
