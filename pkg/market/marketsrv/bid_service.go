package marketsrv

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/bid"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
	"github.com/google/uuid"
)

type SubmitBidInput struct {
	RequestID workrequest.ID `json:"request_id"`
	Amount    float64        `json:"amount"`
	Proposal  string         `json:"proposal"`
}

type UpdateBidInput struct {
	Amount   *float64 `json:"amount,omitempty"`
	Proposal *string  `json:"proposal,omitempty"`
}

type ListBidsInput struct {
	Status string
	kernel.PaginationOptions
}

// BidService runs the bid side of the transition engine. Every state change
// is a conditional write, so a competing writer surfaces as MARKET_INVALID_STATE.
type BidService struct {
	bids     bid.Repository
	requests workrequest.Repository
	cfg      config.MarketConfig
	settings
}

func NewBidService(bids bid.Repository, requests workrequest.Repository, cfg config.MarketConfig, opts ...Option) *BidService {
	return &BidService{
		bids:     bids,
		requests: requests,
		cfg:      cfg,
		settings: applyOptions(opts),
	}
}

func (s *BidService) SubmitBid(ctx context.Context, actor kernel.Actor, in SubmitBidInput) (*bid.Bid, error) {
	if !actor.IsContractor() {
		return nil, market.Forbidden("only contractors can submit bids")
	}

	req, err := s.requests.FindByID(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if !req.IsOpen() {
		return nil, market.InvalidState(fmt.Sprintf("request is %s, not open for bids", req.Status))
	}
	if req.IsOwnedBy(actor.UserID) {
		return nil, market.InvalidOperation("cannot bid on your own request")
	}

	if err := bid.ValidateAmount(in.Amount, s.cfg.MinBidAmount); err != nil {
		return nil, err
	}
	proposal, err := bid.NormalizeProposal(in.Proposal, s.cfg.MinProposalLength)
	if err != nil {
		return nil, err
	}

	active, err := s.bids.HasActive(ctx, req.ID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, market.DuplicateBid()
	}

	now := s.now().UTC()
	b := &bid.Bid{
		ID:           bid.ID(uuid.NewString()),
		RequestID:    req.ID,
		ContractorID: actor.UserID,
		Amount:       in.Amount,
		Proposal:     proposal,
		Status:       bid.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The pre-check races with concurrent submits; Create is the authority.
	if err := s.bids.Create(ctx, b); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"bid_id":        b.ID,
		"request_id":    b.RequestID,
		"contractor_id": b.ContractorID,
	}).Info("Bid submitted")

	return b, nil
}

// AcceptBid accepts a pending bid, rejects its pending siblings and assigns
// the bidder to the request in one unit.
func (s *BidService) AcceptBid(ctx context.Context, actor kernel.Actor, id bid.ID) (*bid.Bid, error) {
	b, err := s.bids.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.FindByID(ctx, b.RequestID)
	if err != nil {
		return nil, err
	}
	if !req.CanBeManagedBy(actor) {
		return nil, market.Forbidden("only the request owner or an admin can accept bids")
	}
	if !b.IsPending() {
		return nil, market.InvalidState(fmt.Sprintf("bid is %s, not pending", b.Status))
	}
	if !req.IsOpen() {
		return nil, market.InvalidState(fmt.Sprintf("request is %s, not open", req.Status))
	}

	accepted, err := s.bids.Accept(ctx, id, s.now().UTC())
	if err != nil {
		logx.WithContext(ctx).WithFields(logx.Fields{"bid_id": id, "request_id": req.ID}).WithError(err).Warn("Bid acceptance failed")
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"bid_id":        accepted.ID,
		"request_id":    accepted.RequestID,
		"contractor_id": accepted.ContractorID,
		"actor_id":      actor.UserID,
	}).Info("Bid accepted, request in progress")

	return accepted, nil
}

func (s *BidService) WithdrawBid(ctx context.Context, actor kernel.Actor, id bid.ID) (*bid.Bid, error) {
	b, err := s.bids.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsSubmittedBy(actor.UserID) {
		return nil, market.Forbidden("only the submitting contractor can withdraw a bid")
	}
	if !b.IsPending() {
		return nil, market.InvalidState(fmt.Sprintf("bid is %s, not pending", b.Status))
	}

	withdrawn, err := s.bids.SetStatus(ctx, id, bid.StatusPending, bid.StatusWithdrawn, s.now().UTC())
	if err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{"bid_id": id, "request_id": b.RequestID}).Info("Bid withdrawn")
	return withdrawn, nil
}

func (s *BidService) UpdateBid(ctx context.Context, actor kernel.Actor, id bid.ID, in UpdateBidInput) (*bid.Bid, error) {
	b, err := s.bids.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsSubmittedBy(actor.UserID) {
		return nil, market.Forbidden("only the submitting contractor can edit a bid")
	}
	if !b.IsPending() {
		return nil, market.InvalidState(fmt.Sprintf("bid is %s, not pending", b.Status))
	}

	if in.Amount != nil {
		if err := bid.ValidateAmount(*in.Amount, s.cfg.MinBidAmount); err != nil {
			return nil, err
		}
		b.Amount = *in.Amount
	}
	if in.Proposal != nil {
		p, err := bid.NormalizeProposal(*in.Proposal, s.cfg.MinProposalLength)
		if err != nil {
			return nil, err
		}
		b.Proposal = p
	}

	b.UpdatedAt = s.now().UTC()
	if err := s.bids.UpdateTerms(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBid removes a bid. Accepted bids stay as the record of the award.
func (s *BidService) DeleteBid(ctx context.Context, actor kernel.Actor, id bid.ID) error {
	b, err := s.bids.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !b.IsSubmittedBy(actor.UserID) && !actor.IsAdmin() {
		return market.Forbidden("only the submitting contractor or an admin can delete a bid")
	}
	if b.Status == bid.StatusAccepted {
		return market.InvalidState("accepted bids cannot be deleted")
	}

	if err := s.bids.Delete(ctx, id, b.Status); err != nil {
		return err
	}
	logx.WithContext(ctx).WithFields(logx.Fields{"bid_id": id, "actor_id": actor.UserID}).Info("Bid deleted")
	return nil
}

// GetBid is visible to the submitter, the owner of the request and admins.
func (s *BidService) GetBid(ctx context.Context, actor kernel.Actor, id bid.ID) (*bid.Bid, error) {
	b, err := s.bids.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.IsSubmittedBy(actor.UserID) || actor.IsAdmin() {
		return b, nil
	}
	req, err := s.requests.FindByID(ctx, b.RequestID)
	if err != nil {
		return nil, err
	}
	if !req.IsOwnedBy(actor.UserID) {
		return nil, market.Forbidden("not allowed to view this bid")
	}
	return b, nil
}

// ListBidsForRequest shows the owner and admins every bid; a contractor only
// sees their own.
func (s *BidService) ListBidsForRequest(ctx context.Context, actor kernel.Actor, requestID workrequest.ID, in ListBidsInput) (kernel.Paginated[bid.Bid], error) {
	var empty kernel.Paginated[bid.Bid]

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return empty, err
	}

	f := bid.ListFilter{RequestID: requestID}
	switch {
	case req.CanBeManagedBy(actor):
	case actor.IsContractor():
		f.ContractorID = actor.UserID
	default:
		return empty, market.Forbidden("not allowed to view bids on this request")
	}

	if in.Status != "" {
		st, err := bid.ParseStatus(in.Status)
		if err != nil {
			return empty, err
		}
		f.Status = st
	}
	return s.bids.List(ctx, f, in.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize))
}

// MyBids lists the acting contractor's bids, newest first.
func (s *BidService) MyBids(ctx context.Context, actor kernel.Actor, in ListBidsInput) (kernel.Paginated[bid.Bid], error) {
	var empty kernel.Paginated[bid.Bid]
	if !actor.IsContractor() {
		return empty, market.Forbidden("only contractors have bids")
	}

	f := bid.ListFilter{ContractorID: actor.UserID}
	if in.Status != "" {
		st, err := bid.ParseStatus(in.Status)
		if err != nil {
			return empty, err
		}
		f.Status = st
	}
	return s.bids.List(ctx, f, in.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize))
}

func (s *BidService) Statistics(ctx context.Context, actor kernel.Actor, requestID workrequest.ID) (bid.Statistics, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return bid.Statistics{}, err
	}
	if !req.CanBeManagedBy(actor) {
		return bid.Statistics{}, market.Forbidden("only the request owner or an admin can view bid statistics")
	}
	return s.bids.Statistics(ctx, requestID)
}
