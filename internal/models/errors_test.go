package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Status(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidationError("Post Id", "Please enter post id."), http.StatusBadRequest},
		{NewNotFoundError("Post", "Post does not exists."), http.StatusNotFound},
		{NewUnauthorizedError("Authentication", "nope"), http.StatusUnauthorized},
		{NewForbiddenError(), http.StatusForbidden},
		{NewInternalError(errors.New("db down")), http.StatusInternalServerError},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrRateLimitDown, http.StatusServiceUnavailable},
		{&AppError{Code: "SOMETHING_ELSE"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Status())
		})
	}
}

func TestAsAppError_UnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("create like: %w", ErrPostNotFound)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Post", appErr.Item)
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeNotFound))
}

func TestNewInternalError_HidesCause(t *testing.T) {
	cause := errors.New("pq: relation does not exist")
	err := NewInternalError(cause)

	assert.Equal(t, "Something went wrong.", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestBase_BeforeCreateAssignsID(t *testing.T) {
	b := &Base{}
	require.NoError(t, b.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, b.ID)

	fixed := uuid.New()
	b2 := &Base{ID: fixed}
	require.NoError(t, b2.BeforeCreate(nil))
	assert.Equal(t, fixed, b2.ID)
}
