package auth

import "github.com/example/worklog-dashboard/domain/identity"

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool            `json:"valid"`
	Claims identity.Claims `json:"claims,omitempty"`
	Error  string          `json:"error,omitempty"`
}
