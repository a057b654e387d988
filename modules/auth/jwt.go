package auth

import (
	"errors"
	"time"

	"github.com/example/worklog-dashboard/domain/identity"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// JWTConfig holds JWT validation configuration. Tokens are issued by the
// external authentication service; this service only validates them against
// the shared secret.
type JWTConfig struct {
	SecretKey     string
	Issuer        string
	TokenDuration time.Duration
}

// DefaultJWTConfig returns a default JWT configuration.
// In production, the secret key should be loaded from environment variables.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:     "your-secret-key-change-in-production",
		Issuer:        "worklog-auth",
		TokenDuration: 15 * time.Minute,
	}
}

// JWTClaims is the wire shape of the claims this service consumes.
type JWTClaims struct {
	UserID string `json:"user_id"`
	TeamID string `json:"team_id,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager validates bearer tokens and extracts caller identities.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWTManager with the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{config: config}
}

// ValidateToken validates the token and returns the caller's identity.
func (m *JWTManager) ValidateToken(tokenString string) (*identity.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	role := identity.Role(claims.Role)
	if role == "" {
		role = identity.RoleMember
	}
	return &identity.Claims{
		UserID: claims.UserID,
		TeamID: claims.TeamID,
		Role:   role,
	}, nil
}

// GenerateToken mints a token for the given identity. The production issuer
// lives in the external authentication service; this is for local runs and
// tests, which need tokens the validator accepts.
func (m *JWTManager) GenerateToken(id identity.Claims) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: id.UserID,
		TeamID: id.TeamID,
		Role:   string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}
