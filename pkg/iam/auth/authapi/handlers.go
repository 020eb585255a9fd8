package authapi

import (
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user/usersrv"
	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the passwordless OTP flow under /api/v1/auth.
type Handlers struct {
	service    *authsrv.AuthService
	users      *usersrv.UserService
	middleware *auth.TokenMiddleware
}

func NewHandlers(service *authsrv.AuthService, users *usersrv.UserService, middleware *auth.TokenMiddleware) *Handlers {
	return &Handlers{
		service:    service,
		users:      users,
		middleware: middleware,
	}
}

// RegisterRoutes mounts the auth endpoints.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	g := router.Group("/auth")

	g.Post("/register", h.Register)
	g.Post("/login", h.Login)
	g.Post("/verify-otp", h.VerifyOTP)
	g.Post("/resend-otp", h.ResendOTP)
	g.Post("/refresh", h.Refresh)

	g.Get("/me", h.middleware.Authenticate(), h.Me)
	g.Post("/logout", h.middleware.Authenticate(), h.Logout)
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

func (r loginRequest) identifier() string {
	if r.PhoneNumber != "" {
		return r.PhoneNumber
	}
	return r.Email
}

type verifyRequest struct {
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	OTPCode     string `json:"otp_code"`
	Purpose     string `json:"purpose"`
}

type resendRequest struct {
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Purpose     string `json:"purpose"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func meta(c *fiber.Ctx) authsrv.RequestMeta {
	return authsrv.RequestMeta{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

func parsePurpose(s string, fallback otp.Purpose) (otp.Purpose, error) {
	if s == "" {
		return fallback, nil
	}
	return otp.ParsePurpose(s)
}

// Register handles POST /auth/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req authsrv.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrInvalidRequest("invalid JSON body")
	}

	challenge, err := h.service.Register(c.UserContext(), req, meta(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(challenge)
}

// Login handles POST /auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrInvalidRequest("invalid JSON body")
	}

	challenge, err := h.service.Login(c.UserContext(), req.identifier())
	if err != nil {
		return err
	}
	return c.JSON(challenge)
}

// VerifyOTP handles POST /auth/verify-otp
func (h *Handlers) VerifyOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrInvalidRequest("invalid JSON body")
	}

	purpose, err := parsePurpose(req.Purpose, otp.PurposeLogin)
	if err != nil {
		return err
	}

	identifier := loginRequest{PhoneNumber: req.PhoneNumber, Email: req.Email}.identifier()
	session, err := h.service.VerifyOTP(c.UserContext(), identifier, req.OTPCode, purpose, meta(c))
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// ResendOTP handles POST /auth/resend-otp
func (h *Handlers) ResendOTP(c *fiber.Ctx) error {
	var req resendRequest
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrInvalidRequest("invalid JSON body")
	}

	purpose, err := parsePurpose(req.Purpose, otp.PurposeLogin)
	if err != nil {
		return err
	}

	identifier := loginRequest{PhoneNumber: req.PhoneNumber, Email: req.Email}.identifier()
	challenge, err := h.service.ResendOTP(c.UserContext(), identifier, purpose)
	if err != nil {
		return err
	}
	return c.JSON(challenge)
}

// Refresh handles POST /auth/refresh
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return auth.ErrInvalidRequest("refresh_token is required")
	}

	session, err := h.service.Refresh(c.UserContext(), req.RefreshToken, meta(c))
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// Me handles GET /auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	authContext, err := auth.GetAuthContext(c)
	if err != nil {
		return err
	}

	u, err := h.users.GetByID(c.UserContext(), authContext.UserID)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// Logout handles POST /auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	authContext, err := auth.GetAuthContext(c)
	if err != nil {
		return err
	}

	h.service.Logout(c.UserContext(), authContext.UserID, meta(c))
	return c.JSON(fiber.Map{"message": "Successfully logged out"})
}
