package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried by AppError.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
	CodeUnavailable  = "UNAVAILABLE"
)

// AppError is the typed failure returned by service operations. Item names
// the field or resource the message refers to.
type AppError struct {
	Code    string
	Item    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Item, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Item, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error code to an HTTP status.
func (e *AppError) Status() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError reports a missing or malformed input.
func NewValidationError(item, message string) *AppError {
	return &AppError{Code: CodeValidation, Item: item, Message: message}
}

// NewNotFoundError reports a referenced resource that does not exist.
func NewNotFoundError(item, message string) *AppError {
	return &AppError{Code: CodeNotFound, Item: item, Message: message}
}

// NewUnauthorizedError reports failed authentication.
func NewUnauthorizedError(item, message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Item: item, Message: message}
}

// NewForbiddenError reports an authenticated actor lacking permission.
func NewForbiddenError() *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Item:    "Permission",
		Message: "You do not have permission to perform this action.",
	}
}

// NewInternalError wraps an unexpected failure. Its message is never shown to clients.
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Item:    "Server",
		Message: "Something went wrong.",
		Err:     err,
	}
}

// AsAppError extracts an *AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an *AppError with the given code.
func IsCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Domain errors shared across services.
var (
	ErrPostIDRequired      = NewValidationError("Post Id", "Please enter post id.")
	ErrPostIDInvalid       = NewValidationError("Invalid Post Id", "Post Id is not a valid UUID")
	ErrPostNotFound        = NewNotFoundError("Post", "Post does not exists.")
	ErrCommentIDRequired   = NewValidationError("Comment Id", "Please enter comment id.")
	ErrCommentIDInvalid    = NewValidationError("Invalid Comment Id", "Comment Id is not a valid UUID")
	ErrCommentRequired     = NewValidationError("comment", "Please add comment.")
	ErrCommentTooLong      = NewValidationError("comment", "Comment must not exceed 255 characters.")
	ErrCommentNotFound     = NewNotFoundError("Comment", "comment does not exists")
	ErrFollowerIDMissing   = NewValidationError("Follower Id", "Please enter follower id.")
	ErrFollowerIDInvalid   = NewValidationError("Invalid Follower Id", "Follower Id is not a valid UUID")
	ErrFollowSelf          = NewValidationError("Follower Id", "You cannot follow yourself.")
	ErrUserNotFound        = NewNotFoundError("User not Exists", "User does not exists")
	ErrEmailExists         = NewValidationError("Email", "Email Already Exists!")
	ErrUsernameExists      = NewValidationError("Username", "Username Already Exists!")
	ErrPasswordMismatch    = NewValidationError("confirm password", "Password and confirm password didn't match")
	ErrBadCredentials      = NewUnauthorizedError("Authentication", "Email or password is incorrect.")
	ErrInvalidToken        = NewUnauthorizedError("Token", "Token is invalid or expired")
	ErrAuthRequired        = NewUnauthorizedError("Authentication", "Authentication credentials were not provided.")
	ErrRateLimited         = &AppError{Code: CodeRateLimited, Item: "Rate limit", Message: "Too many requests, try again later."}
	ErrRateLimitDown       = &AppError{Code: CodeUnavailable, Item: "Rate limit", Message: "Service temporarily unavailable."}
	ErrRealtimeUnavailable = &AppError{Code: CodeUnavailable, Item: "WebSocket", Message: "Real-time notifications are unavailable."}
	ErrImageRequired       = NewValidationError("image", "Please upload an image.")
	ErrImageInvalid        = NewValidationError("image", "Upload a valid image.")
	ErrCaptionRequired     = NewValidationError("caption", "Please add caption.")
	ErrFollowingIDInvalid  = NewValidationError("Invalid Following Id", "Following Id is not a valid UUID")
	ErrUserIDInvalid       = NewValidationError("Invalid User Id", "User Id is not a valid UUID")
)
