package marketinfra

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/bid"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
)

// MemoryStore keeps requests and bids behind one mutex so accept-bid is
// atomic across both, mirroring the Postgres transaction. Development and tests only.
type MemoryStore struct {
	mu       sync.Mutex
	requests map[workrequest.ID]workrequest.WorkRequest
	bids     map[bid.ID]bid.Bid
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[workrequest.ID]workrequest.WorkRequest),
		bids:     make(map[bid.ID]bid.Bid),
	}
}

// Requests returns the workrequest.Repository view of the store.
func (s *MemoryStore) Requests() *MemoryRequestRepository { return &MemoryRequestRepository{s: s} }

// Bids returns the bid.Repository view of the store.
func (s *MemoryStore) Bids() *MemoryBidRepository { return &MemoryBidRepository{s: s} }

func cloneRequest(r workrequest.WorkRequest) workrequest.WorkRequest {
	r.Images = append([]string(nil), r.Images...)
	return r
}

func paginate[T any](items []T, opts kernel.PaginationOptions) kernel.Paginated[T] {
	total := len(items)
	start := opts.Offset()
	if start > total {
		start = total
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}
	page := append([]T{}, items[start:end]...)
	return kernel.NewPaginated(page, opts.Page, opts.PageSize, total)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// ============================================================================
// Requests
// ============================================================================

type MemoryRequestRepository struct {
	s *MemoryStore
}

func (r *MemoryRequestRepository) Create(ctx context.Context, req *workrequest.WorkRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.requests[req.ID] = cloneRequest(*req)
	return nil
}

func (r *MemoryRequestRepository) FindByID(ctx context.Context, id workrequest.ID) (*workrequest.WorkRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, market.RequestNotFound(id.String())
	}
	out := cloneRequest(req)
	return &out, nil
}

func matchesRequest(req workrequest.WorkRequest, f workrequest.ListFilter) bool {
	if f.Status != "" && req.Status != f.Status {
		return false
	}
	if f.Category != "" && req.Category != f.Category {
		return false
	}
	if f.City != "" && !containsFold(req.City, f.City) {
		return false
	}
	if f.State != "" && !containsFold(req.State, f.State) {
		return false
	}
	if !f.SocietyID.IsEmpty() && req.SocietyID != f.SocietyID {
		return false
	}
	if !f.AssignedContractorID.IsEmpty() && !req.IsAssignedTo(f.AssignedContractorID) {
		return false
	}
	if f.Query != "" {
		skills := ""
		if req.RequiredSkills != nil {
			skills = *req.RequiredSkills
		}
		if !containsFold(req.Title, f.Query) && !containsFold(req.Description, f.Query) && !containsFold(skills, f.Query) {
			return false
		}
	}
	return true
}

func (r *MemoryRequestRepository) List(ctx context.Context, f workrequest.ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[workrequest.WorkRequest], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []workrequest.WorkRequest
	for _, req := range r.s.requests {
		if matchesRequest(req, f) {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, opts), nil
}

func (r *MemoryRequestRepository) Update(ctx context.Context, req *workrequest.WorkRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.requests[req.ID]
	if !ok {
		return market.RequestNotFound(req.ID.String())
	}
	next := cloneRequest(*req)
	next.Status = cur.Status
	next.AssignedContractorID = cur.AssignedContractorID
	next.StartedAt = cur.StartedAt
	next.CompletedAt = cur.CompletedAt
	next.Images = cur.Images
	next.SocietyID = cur.SocietyID
	next.CreatedAt = cur.CreatedAt
	r.s.requests[req.ID] = next
	return nil
}

func (r *MemoryRequestRepository) UpdateStatus(ctx context.Context, req *workrequest.WorkRequest, from workrequest.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.requests[req.ID]
	if !ok {
		return market.RequestNotFound(req.ID.String())
	}
	if cur.Status != from {
		return market.InvalidState("request status changed concurrently").
			WithDetail("expected", string(from)).
			WithDetail("actual", string(cur.Status))
	}
	cur.Status = req.Status
	cur.AssignedContractorID = req.AssignedContractorID
	cur.StartedAt = req.StartedAt
	cur.CompletedAt = req.CompletedAt
	cur.UpdatedAt = req.UpdatedAt
	r.s.requests[req.ID] = cur
	return nil
}

func (r *MemoryRequestRepository) AppendImage(ctx context.Context, id workrequest.ID, path string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.requests[id]
	if !ok {
		return market.RequestNotFound(id.String())
	}
	cur = cloneRequest(cur)
	cur.AddImage(path, at)
	r.s.requests[id] = cur
	return nil
}

func (r *MemoryRequestRepository) Delete(ctx context.Context, id workrequest.ID, from workrequest.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.requests[id]
	if !ok {
		return market.RequestNotFound(id.String())
	}
	if cur.Status != from {
		return market.InvalidState("request status changed concurrently").
			WithDetail("expected", string(from)).
			WithDetail("actual", string(cur.Status))
	}
	delete(r.s.requests, id)
	for bidID, b := range r.s.bids {
		if b.RequestID == id {
			delete(r.s.bids, bidID)
		}
	}
	return nil
}

// ============================================================================
// Bids
// ============================================================================

type MemoryBidRepository struct {
	s *MemoryStore
}

func (r *MemoryBidRepository) hasActiveLocked(requestID workrequest.ID, contractorID kernel.UserID) bool {
	for _, b := range r.s.bids {
		if b.RequestID == requestID && b.ContractorID == contractorID && b.Status.IsActive() {
			return true
		}
	}
	return false
}

func (r *MemoryBidRepository) Create(ctx context.Context, b *bid.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[b.RequestID]; !ok {
		return market.RequestNotFound(b.RequestID.String())
	}
	if b.Status.IsActive() && r.hasActiveLocked(b.RequestID, b.ContractorID) {
		return market.DuplicateBid().
			WithDetail("request_id", b.RequestID.String()).
			WithDetail("contractor_id", b.ContractorID.String())
	}
	r.s.bids[b.ID] = *b
	return nil
}

func (r *MemoryBidRepository) FindByID(ctx context.Context, id bid.ID) (*bid.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bids[id]
	if !ok {
		return nil, market.BidNotFound(id.String())
	}
	return &b, nil
}

func (r *MemoryBidRepository) HasActive(ctx context.Context, requestID workrequest.ID, contractorID kernel.UserID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.hasActiveLocked(requestID, contractorID), nil
}

func (r *MemoryBidRepository) filtered(f bid.ListFilter) []bid.Bid {
	var out []bid.Bid
	for _, b := range r.s.bids {
		if f.RequestID != "" && b.RequestID != f.RequestID {
			continue
		}
		if !f.ContractorID.IsEmpty() && b.ContractorID != f.ContractorID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryBidRepository) List(ctx context.Context, f bid.ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[bid.Bid], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return paginate(r.filtered(f), opts), nil
}

func (r *MemoryBidRepository) Statistics(ctx context.Context, requestID workrequest.ID) (bid.Statistics, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return bid.ComputeStatistics(r.filtered(bid.ListFilter{RequestID: requestID})), nil
}

func (r *MemoryBidRepository) UpdateTerms(ctx context.Context, b *bid.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.bids[b.ID]
	if !ok {
		return market.BidNotFound(b.ID.String())
	}
	if cur.Status != bid.StatusPending {
		return market.InvalidState("only pending bids can be updated").WithDetail("status", string(cur.Status))
	}
	cur.Amount = b.Amount
	cur.Proposal = b.Proposal
	cur.UpdatedAt = b.UpdatedAt
	r.s.bids[b.ID] = cur
	return nil
}

func (r *MemoryBidRepository) SetStatus(ctx context.Context, id bid.ID, from, to bid.Status, at time.Time) (*bid.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.bids[id]
	if !ok {
		return nil, market.BidNotFound(id.String())
	}
	if cur.Status != from {
		return nil, market.InvalidState("bid status changed concurrently").
			WithDetail("expected", string(from)).
			WithDetail("actual", string(cur.Status))
	}
	cur.Status = to
	cur.UpdatedAt = at
	r.s.bids[id] = cur
	return &cur, nil
}

func (r *MemoryBidRepository) Delete(ctx context.Context, id bid.ID, from bid.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.bids[id]
	if !ok {
		return market.BidNotFound(id.String())
	}
	if cur.Status != from {
		return market.InvalidState("bid status changed concurrently").
			WithDetail("expected", string(from)).
			WithDetail("actual", string(cur.Status))
	}
	delete(r.s.bids, id)
	return nil
}

func (r *MemoryBidRepository) Accept(ctx context.Context, id bid.ID, at time.Time) (*bid.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	target, ok := r.s.bids[id]
	if !ok {
		return nil, market.BidNotFound(id.String())
	}
	if target.Status != bid.StatusPending {
		return nil, market.InvalidState("bid is no longer pending").WithDetail("status", string(target.Status))
	}
	req, ok := r.s.requests[target.RequestID]
	if !ok {
		return nil, market.RequestNotFound(target.RequestID.String())
	}
	if req.Status != workrequest.StatusOpen {
		return nil, market.InvalidState("request is no longer open").WithDetail("status", string(req.Status))
	}

	// All checks passed under the lock; apply the three writes together.
	target.Status = bid.StatusAccepted
	target.UpdatedAt = at
	r.s.bids[id] = target

	for otherID, other := range r.s.bids {
		if otherID != id && other.RequestID == target.RequestID && other.Status == bid.StatusPending {
			other.Status = bid.StatusRejected
			other.UpdatedAt = at
			r.s.bids[otherID] = other
		}
	}

	contractor := target.ContractorID
	req.Status = workrequest.StatusInProgress
	req.AssignedContractorID = &contractor
	req.StartedAt = &at
	req.UpdatedAt = at
	r.s.requests[req.ID] = req

	return &target, nil
}
