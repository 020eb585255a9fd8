package auth

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
)

// ============================================================================
// Token Types
// ============================================================================

// TokenType separates access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenSubject is what gets signed into a token.
type TokenSubject struct {
	UserID      kernel.UserID
	Role        kernel.Role
	PhoneNumber string
	Email       string
}

// TokenClaims represents validated JWT claims
type TokenClaims struct {
	UserID      kernel.UserID `json:"user_id"`
	Role        kernel.Role   `json:"role"`
	PhoneNumber string        `json:"phone_number"`
	Email       string        `json:"email,omitempty"`
	Type        TokenType     `json:"typ"`
	IssuedAt    time.Time     `json:"iat"`
	ExpiresAt   time.Time     `json:"exp"`
}

// AuthContext converts access-token claims into the per-request context.
func (c *TokenClaims) AuthContext() *kernel.AuthContext {
	return &kernel.AuthContext{
		UserID:      c.UserID,
		Role:        c.Role,
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
	}
}

// TokenPair is returned after a successful OTP verification or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidRefreshToken   = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid refresh token")
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
	CodeTokenValidationFailed = ErrRegistry.Register("TOKEN_VALIDATION_FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Token validation failed")
	CodeInvalidRequest        = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid request body")
)

// Helper functions
func ErrInvalidRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidRefreshToken)
}

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrTokenValidationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenValidationFailed)
}

func ErrInvalidRequest(msg string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeInvalidRequest, msg)
}
