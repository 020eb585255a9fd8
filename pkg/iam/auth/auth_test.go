package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

const secret = "test-secret-key"

func newTokens() *auth.JWTService {
	return auth.NewJWTService(secret, time.Minute, time.Hour, "contractorconnect-test")
}

func subject(id string, role kernel.Role) auth.TokenSubject {
	return auth.TokenSubject{UserID: kernel.NewUserID(id), Role: role, PhoneNumber: "+919876543210"}
}

// --- JWT tests ---

func TestJWT_AccessRoundTrip(t *testing.T) {
	tokens := newTokens()

	token, err := tokens.GenerateAccessToken(auth.TokenSubject{
		UserID:      kernel.NewUserID("u-1"),
		Role:        kernel.RoleSociety,
		PhoneNumber: "+919876543210",
		Email:       "board@greenpark.in",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := tokens.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != kernel.NewUserID("u-1") || claims.Role != kernel.RoleSociety {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Email != "board@greenpark.in" || claims.Type != auth.TokenTypeAccess {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		t.Fatalf("expected expiry after issue time, got %v / %v", claims.IssuedAt, claims.ExpiresAt)
	}
	if tokens.AccessTokenTTLSeconds() != 60 {
		t.Fatalf("expected 60s TTL, got %d", tokens.AccessTokenTTLSeconds())
	}
}

func TestJWT_TokenTypesAreNotInterchangeable(t *testing.T) {
	tokens := newTokens()
	sub := subject("u-1", kernel.RoleContractor)

	access, _ := tokens.GenerateAccessToken(sub)
	refresh, _ := tokens.GenerateRefreshToken(sub)

	if _, err := tokens.ValidateAccessToken(refresh); !errx.IsCode(err, auth.CodeTokenValidationFailed) {
		t.Fatalf("expected refresh token to be rejected as access token, got %v", err)
	}
	if _, err := tokens.ValidateRefreshToken(access); !errx.IsCode(err, auth.CodeInvalidRefreshToken) {
		t.Fatalf("expected access token to be rejected as refresh token, got %v", err)
	}
	if claims, err := tokens.ValidateRefreshToken(refresh); err != nil || claims.Type != auth.TokenTypeRefresh {
		t.Fatalf("expected valid refresh token, got %+v / %v", claims, err)
	}
}

func TestJWT_RejectsForeignAndExpiredTokens(t *testing.T) {
	sub := subject("u-1", kernel.RoleSociety)

	other := auth.NewJWTService("another-secret", time.Minute, time.Hour, "contractorconnect-test")
	foreign, _ := other.GenerateAccessToken(sub)
	if _, err := newTokens().ValidateAccessToken(foreign); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}

	otherIssuer := auth.NewJWTService(secret, time.Minute, time.Hour, "someone-else")
	token, _ := otherIssuer.GenerateAccessToken(sub)
	if _, err := newTokens().ValidateAccessToken(token); err == nil {
		t.Fatal("expected token from another issuer to be rejected")
	}

	expired := auth.NewJWTService(secret, -time.Second, time.Hour, "contractorconnect-test")
	token, _ = expired.GenerateAccessToken(sub)
	if _, err := expired.ValidateAccessToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}

	if _, err := newTokens().ValidateAccessToken("not-a-jwt"); err == nil {
		t.Fatal("expected garbage to be rejected")
	}
}

func TestJWT_RequiresKnownRole(t *testing.T) {
	tokens := newTokens()
	token, _ := tokens.GenerateAccessToken(subject("u-1", kernel.Role("superuser")))
	if _, err := tokens.ValidateAccessToken(token); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}

// --- Middleware tests ---

// stubUsers serves users from a map.
type stubUsers map[kernel.UserID]*user.User

func (s stubUsers) GetByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, user.ErrNotFound()
	}
	return u, nil
}

func newApp(mw *auth.TokenMiddleware) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			e := errx.FromError(err)
			return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse(""))
		},
	})

	app.Get("/whoami", mw.Authenticate(), func(c *fiber.Ctx) error {
		ac, err := auth.GetAuthContext(c)
		if err != nil {
			return err
		}
		return c.JSON(ac)
	})
	app.Get("/admin", mw.Authenticate(), mw.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/unguarded", func(c *fiber.Ctx) error {
		if _, err := auth.GetAuthContext(c); err != nil {
			return err
		}
		return c.SendString("ok")
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, header string) (int, errx.HTTPErrorResponse, kernel.AuthContext) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set(fiber.HeaderAuthorization, header)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	defer resp.Body.Close()

	var errBody errx.HTTPErrorResponse
	var ac kernel.AuthContext
	if resp.StatusCode >= 400 {
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
	} else if path == "/whoami" {
		_ = json.NewDecoder(resp.Body).Decode(&ac)
	}
	return resp.StatusCode, errBody, ac
}

func TestAuthenticate_TokenChecks(t *testing.T) {
	tokens := newTokens()
	app := newApp(auth.NewAuthMiddleware(tokens, nil))

	if status, body, _ := call(t, app, "/whoami", ""); status != http.StatusUnauthorized || body.Code != iam.CodeUnauthorized.Code {
		t.Fatalf("expected 401 %s without a token, got %d %s", iam.CodeUnauthorized.Code, status, body.Code)
	}
	if status, body, _ := call(t, app, "/whoami", "Bearer garbage"); status != http.StatusUnauthorized || body.Code != iam.CodeInvalidToken.Code {
		t.Fatalf("expected 401 %s for a bad token, got %d %s", iam.CodeInvalidToken.Code, status, body.Code)
	}

	refresh, _ := tokens.GenerateRefreshToken(subject("u-1", kernel.RoleSociety))
	if status, _, _ := call(t, app, "/whoami", "Bearer "+refresh); status != http.StatusUnauthorized {
		t.Fatalf("expected refresh token to be refused, got %d", status)
	}

	access, _ := tokens.GenerateAccessToken(subject("u-1", kernel.RoleSociety))
	status, _, ac := call(t, app, "/whoami", "bearer "+access)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if ac.UserID != kernel.NewUserID("u-1") || ac.Role != kernel.RoleSociety {
		t.Fatalf("unexpected auth context %+v", ac)
	}

	if status, _, _ := call(t, app, "/unguarded", ""); status != http.StatusUnauthorized {
		t.Fatalf("expected GetAuthContext to fail without Authenticate, got %d", status)
	}
}

func TestAuthenticate_CookieFallback(t *testing.T) {
	tokens := newTokens()
	app := newApp(auth.NewAuthMiddleware(tokens, nil))
	access, _ := tokens.GenerateAccessToken(subject("u-1", kernel.RoleContractor))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected cookie token to authenticate, got %d", resp.StatusCode)
	}
}

func TestAuthenticate_ChecksAccount(t *testing.T) {
	tokens := newTokens()
	users := stubUsers{
		"active":    {ID: "active", Role: kernel.RoleAdmin, Status: user.StatusActive, IsActive: true},
		"suspended": {ID: "suspended", Role: kernel.RoleSociety, Status: user.StatusSuspended, IsActive: true},
	}
	app := newApp(auth.NewAuthMiddleware(tokens, users))

	// the token still says society; the stored role wins
	access, _ := tokens.GenerateAccessToken(subject("active", kernel.RoleSociety))
	status, _, ac := call(t, app, "/whoami", "Bearer "+access)
	if status != http.StatusOK || ac.Role != kernel.RoleAdmin {
		t.Fatalf("expected stored admin role, got %d %+v", status, ac)
	}

	suspended, _ := tokens.GenerateAccessToken(subject("suspended", kernel.RoleSociety))
	if status, body, _ := call(t, app, "/whoami", "Bearer "+suspended); status != http.StatusForbidden || body.Code != user.CodeInactive.Code {
		t.Fatalf("expected 403 %s for suspended user, got %d %s", user.CodeInactive.Code, status, body.Code)
	}

	gone, _ := tokens.GenerateAccessToken(subject("deleted", kernel.RoleSociety))
	if status, body, _ := call(t, app, "/whoami", "Bearer "+gone); status != http.StatusUnauthorized || body.Code != iam.CodeInvalidToken.Code {
		t.Fatalf("expected 401 for unknown user, got %d %s", status, body.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	tokens := newTokens()
	app := newApp(auth.NewAuthMiddleware(tokens, nil))

	society, _ := tokens.GenerateAccessToken(subject("u-1", kernel.RoleSociety))
	if status, body, _ := call(t, app, "/admin", "Bearer "+society); status != http.StatusForbidden || body.Code != iam.CodeAccessDenied.Code {
		t.Fatalf("expected 403 %s, got %d %s", iam.CodeAccessDenied.Code, status, body.Code)
	}

	admin, _ := tokens.GenerateAccessToken(subject("u-2", kernel.RoleAdmin))
	if status, _, _ := call(t, app, "/admin", "Bearer "+admin); status != http.StatusOK {
		t.Fatalf("expected admin to pass, got %d", status)
	}
}
