package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, http.StatusOK},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"password mismatch", ErrPasswordMismatch, http.StatusBadRequest},
		{"invalid role", ErrInvalidRole, http.StatusBadRequest},
		{"invalid status", ErrInvalidStatus, http.StatusBadRequest},
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized},
		{"invalid refresh token", ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"invalid reset token", ErrInvalidResetToken, http.StatusUnauthorized},
		{"invalid otp", ErrInvalidOTP, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"invite email mismatch", ErrInviteEmailMismatch, http.StatusForbidden},
		{"admin removal", ErrAdminRemoval, http.StatusForbidden},
		{"user not found", ErrUserNotFound, http.StatusNotFound},
		{"org not found", ErrOrgNotFound, http.StatusNotFound},
		{"item not found", ErrItemNotFound, http.StatusNotFound},
		{"email exists", ErrEmailExists, http.StatusConflict},
		{"sku exists", ErrSKUExists, http.StatusConflict},
		{"token already used", ErrTokenAlreadyUsed, http.StatusConflict},
		{"already member", ErrAlreadyMember, http.StatusConflict},
		{"insufficient stock", ErrInsufficientStock, http.StatusConflict},
		{"too many attempts", ErrTooManyAttempts, http.StatusTooManyRequests},
		{"service unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"internal", ErrInternal, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("ToHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrappedErrorKeepsStatus(t *testing.T) {
	wrapped := WrapError(ErrInvalidRefreshToken, errors.New("record not found"))

	if got := ToHTTPStatus(wrapped); got != http.StatusUnauthorized {
		t.Errorf("wrapped error status = %d, want %d", got, http.StatusUnauthorized)
	}
	if !errors.Is(wrapped, ErrInvalidRefreshToken) {
		t.Error("wrapped error should match its sentinel via errors.Is")
	}
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	inner := fmt.Errorf("db says: %w", WrapError(ErrEmailExists, errors.New("duplicate key")))

	if !errors.Is(inner, ErrEmailExists) {
		t.Error("deeply wrapped error should match sentinel by code")
	}
	if errors.Is(inner, ErrInvalidCredentials) {
		t.Error("wrapped error must not match a different sentinel")
	}
}

func TestGetErrorMessage(t *testing.T) {
	if got := GetErrorMessage(ErrInvalidCredentials); got != "incorrect email or password" {
		t.Errorf("GetErrorMessage() = %q", got)
	}
	if got := GetErrorMessage(WrapError(ErrInternal, errors.New("pq: connection refused"))); got != "internal server error" {
		t.Errorf("wrapped message should hide internals, got %q", got)
	}
	if got := GetErrorMessage(nil); got != "" {
		t.Errorf("nil error message = %q, want empty", got)
	}
}
