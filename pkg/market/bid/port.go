package bid

import (
	"context"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
)

// ListFilter narrows a listing. Zero values are ignored.
type ListFilter struct {
	RequestID    workrequest.ID
	ContractorID kernel.UserID
	Status       Status
}

// Repository persists bids. Create must enforce the one-active-bid rule at
// the storage level and report a violation as MARKET_DUPLICATE_BID.
type Repository interface {
	Create(ctx context.Context, b *Bid) error
	FindByID(ctx context.Context, id ID) (*Bid, error)
	// HasActive reports whether contractor holds a pending or accepted bid on request.
	HasActive(ctx context.Context, requestID workrequest.ID, contractorID kernel.UserID) (bool, error)
	List(ctx context.Context, filter ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[Bid], error)
	Statistics(ctx context.Context, requestID workrequest.ID) (Statistics, error)

	// UpdateTerms writes amount and proposal while the bid is still pending.
	UpdateTerms(ctx context.Context, b *Bid) error
	// SetStatus moves the bid from one status to another, failing with
	// MARKET_INVALID_STATE when the stored status is no longer from.
	SetStatus(ctx context.Context, id ID, from, to Status, at time.Time) (*Bid, error)
	// Delete removes the bid when the stored status is still from.
	Delete(ctx context.Context, id ID, from Status) error

	// Accept runs as one unit: the bid goes pending -> accepted, every other
	// pending bid on the request goes to rejected, and the request goes
	// open -> in_progress assigned to the bidder with started_at = at.
	// Any precondition lost to a concurrent writer fails the whole unit
	// with MARKET_INVALID_STATE.
	Accept(ctx context.Context, id ID, at time.Time) (*Bid, error)
}
