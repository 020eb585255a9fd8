package marketapi

import (
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/marketsrv"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
	"github.com/gofiber/fiber/v2"
)

// RequestHandlers serves /api/v1/requests.
type RequestHandlers struct {
	requests *marketsrv.RequestService
}

func NewRequestHandlers(requests *marketsrv.RequestService) *RequestHandlers {
	return &RequestHandlers{requests: requests}
}

func (h *RequestHandlers) RegisterRoutes(router fiber.Router, mw *auth.TokenMiddleware) {
	g := router.Group("/requests", mw.Authenticate())

	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/search", h.Search)
	g.Get("/my-requests", h.MyRequests)
	g.Get("/assigned", mw.RequireRoles(kernel.RoleContractor), h.Assigned)
	g.Get("/:id", h.Get)
	g.Put("/:id", h.Update)
	g.Patch("/:id/status", h.TransitionStatus)
	g.Delete("/:id", h.Delete)
	g.Post("/:id/images", h.AttachImage)
	g.Get("/:id/images/:name", h.GetImage)
}

func actor(c *fiber.Ctx) (kernel.Actor, error) {
	authContext, err := auth.GetAuthContext(c)
	if err != nil {
		return kernel.Actor{}, err
	}
	return authContext.Actor(), nil
}

func pagination(c *fiber.Ctx) kernel.PaginationOptions {
	return kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 0),
	}
}

func listInput(c *fiber.Ctx) marketsrv.ListRequestsInput {
	return marketsrv.ListRequestsInput{
		Status:            c.Query("status"),
		Category:          c.Query("category"),
		City:              c.Query("city"),
		State:             c.Query("state"),
		Query:             c.Query("q"),
		PaginationOptions: pagination(c),
	}
}

func requestID(c *fiber.Ctx) workrequest.ID {
	return workrequest.ID(c.Params("id"))
}

// Create handles POST /requests
func (h *RequestHandlers) Create(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var req marketsrv.CreateRequestInput
	if err := c.BodyParser(&req); err != nil {
		return market.Validation("invalid JSON body")
	}

	created, err := h.requests.Create(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List handles GET /requests?status=&category=&city=&state=&page=&page_size=
func (h *RequestHandlers) List(c *fiber.Ctx) error {
	page, err := h.requests.List(c.UserContext(), listInput(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Search handles GET /requests/search?q=
func (h *RequestHandlers) Search(c *fiber.Ctx) error {
	page, err := h.requests.Search(c.UserContext(), listInput(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// MyRequests handles GET /requests/my-requests
func (h *RequestHandlers) MyRequests(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	page, err := h.requests.MyRequests(c.UserContext(), a, listInput(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Assigned handles GET /requests/assigned
func (h *RequestHandlers) Assigned(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	page, err := h.requests.AssignedRequests(c.UserContext(), a, listInput(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Get handles GET /requests/:id
func (h *RequestHandlers) Get(c *fiber.Ctx) error {
	req, err := h.requests.Get(c.UserContext(), requestID(c))
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// Update handles PUT /requests/:id
func (h *RequestHandlers) Update(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var req marketsrv.UpdateRequestInput
	if err := c.BodyParser(&req); err != nil {
		return market.Validation("invalid JSON body")
	}

	updated, err := h.requests.Update(c.UserContext(), a, requestID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// TransitionStatus handles PATCH /requests/:id/status
func (h *RequestHandlers) TransitionStatus(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var req marketsrv.TransitionInput
	if err := c.BodyParser(&req); err != nil {
		return market.Validation("invalid JSON body")
	}

	updated, err := h.requests.TransitionStatus(c.UserContext(), a, requestID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// Delete handles DELETE /requests/:id
func (h *RequestHandlers) Delete(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.requests.Delete(c.UserContext(), a, requestID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AttachImage handles POST /requests/:id/images (multipart field "image")
func (h *RequestHandlers) AttachImage(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return market.Validation("multipart field \"image\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return market.Validation("unreadable upload")
	}
	defer f.Close()

	updated, err := h.requests.AttachImage(c.UserContext(), a, requestID(c), marketsrv.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(updated)
}

// GetImage handles GET /requests/:id/images/:name
func (h *RequestHandlers) GetImage(c *fiber.Ctx) error {
	rc, info, err := h.requests.OpenImage(c.UserContext(), requestID(c), c.Params("name"))
	if err != nil {
		return err
	}
	if info.ContentType != "" {
		c.Set(fiber.HeaderContentType, info.ContentType)
	}
	return c.SendStream(rc, int(info.Size))
}
