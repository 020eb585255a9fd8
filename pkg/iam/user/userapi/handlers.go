package userapi

import (
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Handlers serves /api/v1/users.
type Handlers struct {
	users *usersrv.UserService
}

func NewHandlers(users *usersrv.UserService) *Handlers {
	return &Handlers{users: users}
}

// RegisterRoutes mounts the user endpoints behind authentication.
func (h *Handlers) RegisterRoutes(router fiber.Router, mw *auth.TokenMiddleware) {
	g := router.Group("/users", mw.Authenticate())

	g.Get("/me", h.GetMe)
	g.Put("/me", h.UpdateMe)
	g.Delete("/me", h.DeactivateMe)
	g.Get("/:id", h.GetByID)
}

// GetMe handles GET /users/me
func (h *Handlers) GetMe(c *fiber.Ctx) error {
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

// UpdateMe handles PUT /users/me
func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	authContext, err := auth.GetAuthContext(c)
	if err != nil {
		return err
	}

	var req usersrv.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrInvalidRequest("invalid JSON body")
	}

	u, err := h.users.UpdateProfile(c.UserContext(), authContext.UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// DeactivateMe handles DELETE /users/me
func (h *Handlers) DeactivateMe(c *fiber.Ctx) error {
	authContext, err := auth.GetAuthContext(c)
	if err != nil {
		return err
	}

	if err := h.users.Deactivate(c.UserContext(), authContext.UserID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID handles GET /users/:id
func (h *Handlers) GetByID(c *fiber.Ctx) error {
	u, err := h.users.GetByID(c.UserContext(), kernel.NewUserID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(u)
}
