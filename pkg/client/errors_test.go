package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{http.StatusOK, ""},
		{http.StatusNoContent, ""},
		{http.StatusNotModified, ""},
		{http.StatusBadRequest, ErrorClassClient},
		{http.StatusNotFound, ErrorClassClient},
		{http.StatusTooManyRequests, ErrorClassRateLimit},
		{http.StatusInternalServerError, ErrorClassServer},
		{http.StatusServiceUnavailable, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, classifyStatus(tt.status))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, shouldRetry(ErrorClassServer))
	assert.True(t, shouldRetry(ErrorClassRateLimit))
	assert.True(t, shouldRetry(ErrorClassNetwork))
	assert.False(t, shouldRetry(ErrorClassClient))
	assert.False(t, shouldRetry(""))
}

func TestIdempotent(t *testing.T) {
	assert.True(t, idempotent(http.MethodGet))
	assert.True(t, idempotent(http.MethodDelete))
	assert.False(t, idempotent(http.MethodPost))
	assert.False(t, idempotent(http.MethodPatch))
}

func TestAPIError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &APIError{
		Method:     http.MethodGet,
		Endpoint:   "/space-objects",
		ErrorClass: ErrorClassNetwork,
		Message:    "request failed",
		Err:        cause,
	}

	assert.Contains(t, err.Error(), "catalog network error")
	assert.Contains(t, err.Error(), "GET /space-objects")
	assert.ErrorIs(t, err, cause)

	plain := &APIError{Method: http.MethodDelete, Endpoint: "/space-objects/{id}", StatusCode: 404, ErrorClass: ErrorClassClient, Message: "not found"}
	assert.Equal(t, "catalog client error: DELETE /space-objects/{id} (status 404): not found", plain.Error())
}

func TestIsNotFound(t *testing.T) {
	wrapped := fmt.Errorf("delete: %w", &APIError{StatusCode: http.StatusNotFound})
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(&APIError{StatusCode: http.StatusInternalServerError}))
	assert.False(t, IsNotFound(errors.New("boom")))
}
