package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on the error code so wrapped copies compare equal to the
// predefined sentinel values.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// User errors
	ErrUserNotFound = NewDomainError("USER_NOT_FOUND", "user not found")
	ErrEmailExists  = NewDomainError("EMAIL_EXISTS", "email already exists")
	// Deliberately generic so callers cannot probe which emails are registered
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "incorrect email or password")
	ErrSelfDeletion       = NewDomainError("SELF_DELETION", "users cannot delete themselves")

	// Authentication errors
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "unauthorized")
	ErrInvalidToken        = NewDomainError("INVALID_TOKEN", "invalid or expired token")
	ErrTokenExpired        = NewDomainError("TOKEN_EXPIRED", "token has expired")
	ErrInvalidRefreshToken = NewDomainError("INVALID_REFRESH_TOKEN", "invalid refresh token")
	ErrInvalidResetToken   = NewDomainError("INVALID_RESET_TOKEN", "invalid or expired reset token")
	ErrInvalidOTP          = NewDomainError("INVALID_OTP", "invalid or expired verification code")
	ErrTooManyAttempts     = NewDomainError("TOO_MANY_ATTEMPTS", "too many verification attempts")

	// Invitation errors
	ErrInviteEmailMismatch = NewDomainError("INVITE_EMAIL_MISMATCH", "invitation was issued for a different email")
	ErrTokenAlreadyUsed    = NewDomainError("TOKEN_ALREADY_USED", "invitation token has already been used")
	ErrInvitePending       = NewDomainError("INVITE_PENDING", "an invitation for this email is already pending")
	ErrInvalidRole         = NewDomainError("INVALID_ROLE", "role is not one of admin, manager, staff")

	// Organization errors
	ErrOrgNotFound       = NewDomainError("ORG_NOT_FOUND", "organization not found")
	ErrNotMember         = NewDomainError("NOT_MEMBER", "user is not a member of the organization")
	ErrAlreadyMember     = NewDomainError("ALREADY_MEMBER", "user already belongs to an organization")
	ErrForbidden         = NewDomainError("FORBIDDEN", "operation requires organization admin")
	ErrAdminRemoval      = NewDomainError("ADMIN_REMOVAL", "organization admin cannot be removed")
	ErrItemNotFound      = NewDomainError("ITEM_NOT_FOUND", "item not found")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "not enough stock to satisfy the request")
	ErrSKUExists         = NewDomainError("SKU_EXISTS", "sku already exists in organization")
	ErrOrderNotFound     = NewDomainError("ORDER_NOT_FOUND", "order not found")
	ErrDeliveryNotFound  = NewDomainError("DELIVERY_NOT_FOUND", "delivery not found")
	ErrInvalidStatus     = NewDomainError("INVALID_STATUS", "illegal order status transition")

	// Validation errors
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "invalid input")
	ErrPasswordMismatch = NewDomainError("PASSWORD_MISMATCH", "password and confirmation do not match")

	// System errors
	ErrInternal           = NewDomainError("INTERNAL_ERROR", "internal server error")
	ErrServiceUnavailable = NewDomainError("SERVICE_UNAVAILABLE", "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

// domainErrorToHTTPStatus maps specific domain errors to HTTP status codes
func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "INVALID_INPUT", "PASSWORD_MISMATCH", "INVALID_ROLE", "INVALID_STATUS":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "INVALID_TOKEN", "TOKEN_EXPIRED",
		"INVALID_REFRESH_TOKEN", "INVALID_RESET_TOKEN", "INVALID_OTP":
		return http.StatusUnauthorized

	// 403 Forbidden
	case "SELF_DELETION", "FORBIDDEN", "INVITE_EMAIL_MISMATCH", "ADMIN_REMOVAL", "NOT_MEMBER":
		return http.StatusForbidden

	// 404 Not Found
	case "USER_NOT_FOUND", "ORG_NOT_FOUND", "ITEM_NOT_FOUND", "ORDER_NOT_FOUND", "DELIVERY_NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "EMAIL_EXISTS", "SKU_EXISTS", "TOKEN_ALREADY_USED", "ALREADY_MEMBER", "INVITE_PENDING",
		"INSUFFICIENT_STOCK":
		return http.StatusConflict

	// 429 Too Many Requests
	case "TOO_MANY_ATTEMPTS":
		return http.StatusTooManyRequests

	// 503 Service Unavailable
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
