package workrequest

import (
	"context"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
)

// ListFilter narrows a listing. Zero values are ignored.
type ListFilter struct {
	Status   Status
	Category Category
	City     string
	State    string
	// Query matches title, description and required skills, case insensitive.
	Query                string
	SocietyID            kernel.UserID
	AssignedContractorID kernel.UserID
}

// Repository persists work requests. Status changes and deletes are
// conditional on the status the caller observed, so a concurrent change
// surfaces as MARKET_INVALID_STATE instead of being overwritten.
type Repository interface {
	Create(ctx context.Context, r *WorkRequest) error
	FindByID(ctx context.Context, id ID) (*WorkRequest, error)
	List(ctx context.Context, filter ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[WorkRequest], error)

	// Update writes the editable fields; it never changes status.
	Update(ctx context.Context, r *WorkRequest) error
	// UpdateStatus persists r's status, assignee and timestamps when the stored status is still from.
	UpdateStatus(ctx context.Context, r *WorkRequest, from Status) error
	// AppendImage adds path to the request's image list.
	AppendImage(ctx context.Context, id ID, path string, at time.Time) error
	// Delete removes the request and its bids when the stored status is still from.
	Delete(ctx context.Context, id ID, from Status) error
}
