package model

import (
	"errors"
	"strings"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	err := NewInvalidCredentialsError()
	if got := err.Error(); !strings.HasPrefix(got, "[INVALID_CREDENTIALS] ") {
		t.Errorf("Error() = %q, want prefix [INVALID_CREDENTIALS]", got)
	}

	var target *APIError
	if !errors.As(error(err), &target) {
		t.Fatal("errors.As で *APIError を取り出せない")
	}
}

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		code     string
		category string
	}{
		{"invalid credentials", NewInvalidCredentialsError(), ErrCodeInvalidCredentials, "auth"},
		{"unauthenticated", NewUnauthenticatedError(), ErrCodeUnauthenticated, "auth"},
		{"session expired", NewSessionExpiredError(), ErrCodeSessionExpired, "auth"},
		{"insufficient role", NewInsufficientRoleError(RoleAdmin), ErrCodeInsufficientRole, "auth"},
		{"pending", NewSessionPendingError(), ErrCodeSessionPending, "auth"},
		{"invalid input", NewInvalidInputError("email is required"), ErrCodeInvalidInput, "validation"},
		{"email taken", NewEmailTakenError(), ErrCodeEmailTaken, "validation"},
		{"invalid token", NewInvalidTokenError(), ErrCodeInvalidToken, "auth"},
		{"rate limited", NewRateLimitedError(), ErrCodeRateLimited, "system"},
		{"internal", NewInternalError(), ErrCodeInternal, "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Category != tt.category {
				t.Errorf("Category = %q, want %q", tt.err.Category, tt.category)
			}
			if tt.err.Message == "" || tt.err.Action == "" {
				t.Errorf("Message and Action must be set: %+v", tt.err)
			}
		})
	}
}

func TestNewInsufficientRoleError_NamesRequiredRole(t *testing.T) {
	err := NewInsufficientRoleError(RoleRestaurant)
	if !strings.Contains(err.Message, "RESTAURANT") {
		t.Errorf("Message = %q, want it to name RESTAURANT", err.Message)
	}
}

func TestNewInvalidInputError_IncludesReason(t *testing.T) {
	err := NewInvalidInputError("password is too short")
	if !strings.Contains(err.Message, "password is too short") {
		t.Errorf("Message = %q, want reason", err.Message)
	}
}
