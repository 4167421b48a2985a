package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", fmt.Errorf("amount: %w", ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("bill b1: %w", ErrNotFound), http.StatusNotFound},
		{"duplicate", ErrDuplicate, http.StatusConflict},
		{"conflict", fmt.Errorf("already reversed: %w", ErrConflict), http.StatusConflict},
		{"integrity", fmt.Errorf("unbalanced: %w", ErrIntegrity), http.StatusUnprocessableEntity},
		{"app error 500", NewAppError(500, "failed to commit", errors.New("conn reset")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestNewAppError_WrapsInternal(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAppError(500, "failed to begin transaction", cause)

	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}
