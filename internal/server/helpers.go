package server

import (
	"errors"
	"io"

	"twitt/internal/middleware"
	"twitt/internal/models"
	"twitt/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPageSize    = 20
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// respondError is the only place errors become HTTP responses. It doubles as
// the fiber ErrorHandler, so framework errors (unknown route, oversized body,
// recovered panics) use the same envelope.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	item, msg := "Server", "Something went wrong."

	var fe *fiber.Error
	if appErr, ok := models.AsAppError(err); ok {
		status = appErr.Status()
		if status < fiber.StatusInternalServerError {
			item, msg = appErr.Item, appErr.Message
		}
	} else if errors.As(err, &fe) {
		status = fe.Code
		if status < fiber.StatusInternalServerError {
			item, msg = "Request", fe.Message
		}
	}

	if status >= fiber.StatusInternalServerError {
		observability.FromContext(c.UserContext()).Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(models.APIResponse{
		Success: false,
		Message: msg,
		Errors:  &models.ErrorDetail{Item: item, Message: msg},
	})
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// currentUser returns the authenticated user id. Routes using it sit behind
// AuthRequired, so a miss is a wiring bug.
func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, models.ErrAuthRequired
	}
	return id, nil
}

// readFormFile returns the bytes of an uploaded file, or nil when the field is
// absent or the body is not multipart. Size is bounded by the app BodyLimit.
func readFormFile(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return data, nil
}
