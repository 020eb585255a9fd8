package auth

import (
	"context"

	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
)

// TokenService defines the contract for JWT token management
type TokenService interface {
	GenerateAccessToken(sub TokenSubject) (string, error)
	GenerateRefreshToken(sub TokenSubject) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
	AccessTokenTTLSeconds() int
}

// UserLoader resolves the user behind a token on every request.
type UserLoader interface {
	GetByID(ctx context.Context, id kernel.UserID) (*user.User, error)
}

// AuditService defines the contract for authentication audit logging
type AuditService interface {
	LogLoginAttempt(ctx context.Context, userID kernel.UserID, method string, success bool, ip string, userAgent string)
	LogLogout(ctx context.Context, userID kernel.UserID, ip string)
	LogTokenRefresh(ctx context.Context, userID kernel.UserID, ip string)
	LogOTPVerification(ctx context.Context, identifier string, purpose string, success bool, ip string)
	LogAccountCreated(ctx context.Context, userID kernel.UserID, role kernel.Role, ip string)
}
