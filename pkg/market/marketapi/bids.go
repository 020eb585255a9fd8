package marketapi

import (
	"github.com/Abraxas-365/contractorconnect/pkg/iam/auth"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/bid"
	"github.com/Abraxas-365/contractorconnect/pkg/market/marketsrv"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
	"github.com/gofiber/fiber/v2"
)

// BidHandlers serves /api/v1/bids.
type BidHandlers struct {
	bids *marketsrv.BidService
}

func NewBidHandlers(bids *marketsrv.BidService) *BidHandlers {
	return &BidHandlers{bids: bids}
}

func (h *BidHandlers) RegisterRoutes(router fiber.Router, mw *auth.TokenMiddleware) {
	g := router.Group("/bids", mw.Authenticate())

	g.Post("/", mw.RequireRoles(kernel.RoleContractor), h.Submit)
	g.Get("/my-bids", mw.RequireRoles(kernel.RoleContractor), h.MyBids)
	g.Get("/request/:request_id", h.ListForRequest)
	g.Get("/request/:request_id/statistics", h.Statistics)
	g.Get("/:id", h.Get)
	g.Put("/:id", h.Update)
	g.Patch("/:id/accept", h.Accept)
	g.Patch("/:id/withdraw", h.Withdraw)
	g.Delete("/:id", h.Delete)
}

func bidID(c *fiber.Ctx) bid.ID {
	return bid.ID(c.Params("id"))
}

func bidList(c *fiber.Ctx) marketsrv.ListBidsInput {
	return marketsrv.ListBidsInput{
		Status:            c.Query("status"),
		PaginationOptions: pagination(c),
	}
}

// Submit handles POST /bids
func (h *BidHandlers) Submit(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var req marketsrv.SubmitBidInput
	if err := c.BodyParser(&req); err != nil {
		return market.Validation("invalid JSON body")
	}

	b, err := h.bids.SubmitBid(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

// MyBids handles GET /bids/my-bids?status=
func (h *BidHandlers) MyBids(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	page, err := h.bids.MyBids(c.UserContext(), a, bidList(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// ListForRequest handles GET /bids/request/:request_id
func (h *BidHandlers) ListForRequest(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	page, err := h.bids.ListBidsForRequest(c.UserContext(), a, workrequest.ID(c.Params("request_id")), bidList(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Statistics handles GET /bids/request/:request_id/statistics
func (h *BidHandlers) Statistics(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	stats, err := h.bids.Statistics(c.UserContext(), a, workrequest.ID(c.Params("request_id")))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Get handles GET /bids/:id
func (h *BidHandlers) Get(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	b, err := h.bids.GetBid(c.UserContext(), a, bidID(c))
	if err != nil {
		return err
	}
	return c.JSON(b)
}

// Update handles PUT /bids/:id
func (h *BidHandlers) Update(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var req marketsrv.UpdateBidInput
	if err := c.BodyParser(&req); err != nil {
		return market.Validation("invalid JSON body")
	}

	b, err := h.bids.UpdateBid(c.UserContext(), a, bidID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(b)
}

// Accept handles PATCH /bids/:id/accept
func (h *BidHandlers) Accept(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	b, err := h.bids.AcceptBid(c.UserContext(), a, bidID(c))
	if err != nil {
		return err
	}
	return c.JSON(b)
}

// Withdraw handles PATCH /bids/:id/withdraw
func (h *BidHandlers) Withdraw(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	b, err := h.bids.WithdrawBid(c.UserContext(), a, bidID(c))
	if err != nil {
		return err
	}
	return c.JSON(b)
}

// Delete handles DELETE /bids/:id
func (h *BidHandlers) Delete(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.bids.DeleteBid(c.UserContext(), a, bidID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
