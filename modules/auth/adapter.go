package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/worklog-dashboard/domain/identity"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for identity validation.
// This is the port other modules use to resolve a bearer token to claims.
type AuthPort interface {
	ValidateToken(ctx context.Context, token string) (*identity.Claims, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

// ValidateToken validates a bearer token and returns the caller's claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*identity.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx, a.container, "validate-token",
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return nil, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %s", resp.Error)
	}

	claims := resp.Claims
	return &claims, nil
}
