package auth

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// JWTService implements TokenService with HS256 tokens
type JWTService struct {
	secretKey       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
	now             func() time.Time
}

// NewJWTService creates the JWT service; zero values fall back to defaults
func NewJWTService(secretKey string, accessTokenTTL, refreshTokenTTL time.Duration, issuer string) *JWTService {
	if accessTokenTTL == 0 {
		accessTokenTTL = 30 * time.Minute
	}
	if refreshTokenTTL == 0 {
		refreshTokenTTL = 7 * 24 * time.Hour
	}
	if issuer == "" {
		issuer = "contractorconnect"
	}

	return &JWTService{
		secretKey:       []byte(secretKey),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		issuer:          issuer,
		now:             time.Now,
	}
}

// JWTClaims are the custom claims carried by both token types
type JWTClaims struct {
	UserID      kernel.UserID `json:"user_id"`
	Role        kernel.Role   `json:"role"`
	PhoneNumber string        `json:"phone_number"`
	Email       string        `json:"email,omitempty"`
	Type        TokenType     `json:"typ"`
	jwt.RegisteredClaims
}

func (j *JWTService) audience(t TokenType) string {
	return j.issuer + "-" + string(t)
}

func (j *JWTService) AccessTokenTTLSeconds() int {
	return int(j.accessTokenTTL.Seconds())
}

// GenerateAccessToken signs a short-lived access token
func (j *JWTService) GenerateAccessToken(sub TokenSubject) (string, error) {
	return j.sign(sub, TokenTypeAccess, j.accessTokenTTL)
}

// GenerateRefreshToken signs a long-lived refresh token
func (j *JWTService) GenerateRefreshToken(sub TokenSubject) (string, error) {
	return j.sign(sub, TokenTypeRefresh, j.refreshTokenTTL)
}

func (j *JWTService) sign(sub TokenSubject, typ TokenType, ttl time.Duration) (string, error) {
	now := j.now()

	claims := JWTClaims{
		UserID:      sub.UserID,
		Role:        sub.Role,
		PhoneNumber: sub.PhoneNumber,
		Email:       sub.Email,
		Type:        typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   sub.UserID.String(),
			Audience:  []string{j.audience(typ)},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}

	return tokenString, nil
}

// ValidateAccessToken rejects refresh tokens and anything not signed by us
func (j *JWTService) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	return j.validate(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken rejects access tokens
func (j *JWTService) ValidateRefreshToken(tokenString string) (*TokenClaims, error) {
	claims, err := j.validate(tokenString, TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken().WithDetail("error", err.Error())
	}
	return claims, nil
}

func (j *JWTService) validate(tokenString string, want TokenType) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience(want)),
		jwt.WithTimeFunc(j.now),
	)

	if err != nil {
		return nil, ErrTokenValidationFailed().WithDetail("error", err.Error())
	}

	if !token.Valid {
		return nil, ErrTokenValidationFailed().WithDetail("error", "token is invalid")
	}

	jwtClaims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, ErrTokenValidationFailed().WithDetail("error", "invalid claims type")
	}
	if jwtClaims.Type != want {
		return nil, ErrTokenValidationFailed().WithDetail("error", "wrong token type")
	}
	if jwtClaims.UserID.IsEmpty() || !jwtClaims.Role.IsValid() {
		return nil, ErrTokenValidationFailed().WithDetail("error", "missing subject or role")
	}

	return &TokenClaims{
		UserID:      jwtClaims.UserID,
		Role:        jwtClaims.Role,
		PhoneNumber: jwtClaims.PhoneNumber,
		Email:       jwtClaims.Email,
		Type:        jwtClaims.Type,
		IssuedAt:    jwtClaims.IssuedAt.Time,
		ExpiresAt:   jwtClaims.ExpiresAt.Time,
	}, nil
}
