package marketinfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/dbx"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/bid"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
	"github.com/jmoiron/sqlx"
)

// PostgresBidRepository is the sqlx implementation of bid.Repository.
// The one-active-bid rule is backed by the bids_one_active_per_contractor
// partial unique index.
type PostgresBidRepository struct {
	db *sqlx.DB
}

func NewPostgresBidRepository(db *sqlx.DB) *PostgresBidRepository {
	return &PostgresBidRepository{db: db}
}

const bidColumns = `id, request_id, contractor_id, amount, proposal, status, created_at, updated_at`

func (r *PostgresBidRepository) Create(ctx context.Context, b *bid.Bid) error {
	query := `
		INSERT INTO bids (` + bidColumns + `) VALUES (
			:id, :request_id, :contractor_id, :amount, :proposal, :status, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		if dbx.IsUniqueViolation(err) {
			return market.DuplicateBid().
				WithDetail("request_id", b.RequestID.String()).
				WithDetail("contractor_id", b.ContractorID.String())
		}
		if dbx.IsForeignKeyViolation(err) {
			return market.RequestNotFound(b.RequestID.String())
		}
		return errx.Wrap(err, "failed to create bid", errx.TypeInternal).
			WithDetail("bid_id", b.ID.String())
	}
	return nil
}

func (r *PostgresBidRepository) FindByID(ctx context.Context, id bid.ID) (*bid.Bid, error) {
	var b bid.Bid
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, market.BidNotFound(id.String())
		}
		return nil, errx.Wrap(err, "failed to get bid", errx.TypeInternal).
			WithDetail("bid_id", id.String())
	}
	return &b, nil
}

func (r *PostgresBidRepository) HasActive(ctx context.Context, requestID workrequest.ID, contractorID kernel.UserID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bids
			WHERE request_id = $1 AND contractor_id = $2 AND status IN ('pending', 'accepted')
		)`
	if err := r.db.GetContext(ctx, &exists, query, requestID, contractorID); err != nil {
		return false, errx.Wrap(err, "failed to check active bids", errx.TypeInternal)
	}
	return exists, nil
}

func (r *PostgresBidRepository) List(ctx context.Context, f bid.ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[bid.Bid], error) {
	w := &where{}
	if f.RequestID != "" {
		w.add("request_id = ?", f.RequestID)
	}
	if !f.ContractorID.IsEmpty() {
		w.add("contractor_id = ?", f.ContractorID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bids`+w.sql(), w.args...); err != nil {
		return kernel.Paginated[bid.Bid]{}, errx.Wrap(err, "failed to count bids", errx.TypeInternal)
	}

	query := `SELECT ` + bidColumns + ` FROM bids` + w.sql() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.next(opts.PageSize) + ` OFFSET ` + w.next(opts.Offset())

	items := []bid.Bid{}
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return kernel.Paginated[bid.Bid]{}, errx.Wrap(err, "failed to list bids", errx.TypeInternal)
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

func (r *PostgresBidRepository) Statistics(ctx context.Context, requestID workrequest.ID) (bid.Statistics, error) {
	var row struct {
		Total     int             `db:"total"`
		Pending   int             `db:"pending"`
		Accepted  int             `db:"accepted"`
		Rejected  int             `db:"rejected"`
		Withdrawn int             `db:"withdrawn"`
		Avg       sql.NullFloat64 `db:"avg_amount"`
		Min       sql.NullFloat64 `db:"min_amount"`
		Max       sql.NullFloat64 `db:"max_amount"`
	}
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'accepted') AS accepted,
			COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
			COUNT(*) FILTER (WHERE status = 'withdrawn') AS withdrawn,
			AVG(amount) FILTER (WHERE status = 'pending') AS avg_amount,
			MIN(amount) FILTER (WHERE status = 'pending') AS min_amount,
			MAX(amount) FILTER (WHERE status = 'pending') AS max_amount
		FROM bids
		WHERE request_id = $1`

	if err := r.db.GetContext(ctx, &row, query, requestID); err != nil {
		return bid.Statistics{}, errx.Wrap(err, "failed to compute bid statistics", errx.TypeInternal).
			WithDetail("request_id", requestID.String())
	}

	st := bid.Statistics{
		TotalBids:     row.Total,
		PendingBids:   row.Pending,
		AcceptedBids:  row.Accepted,
		RejectedBids:  row.Rejected,
		WithdrawnBids: row.Withdrawn,
	}
	if row.Avg.Valid {
		st.AverageAmount = &row.Avg.Float64
	}
	if row.Min.Valid {
		st.LowestAmount = &row.Min.Float64
	}
	if row.Max.Valid {
		st.HighestAmount = &row.Max.Float64
	}
	return st, nil
}

func (r *PostgresBidRepository) UpdateTerms(ctx context.Context, b *bid.Bid) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bids SET amount = $1, proposal = $2, updated_at = $3 WHERE id = $4 AND status = 'pending'`,
		b.Amount, b.Proposal, b.UpdatedAt, b.ID)
	if err != nil {
		return errx.Wrap(err, "failed to update bid", errx.TypeInternal).
			WithDetail("bid_id", b.ID.String())
	}
	return expectOne(result, func() error { return r.missOrStale(ctx, r.db, b.ID, string(bid.StatusPending)) })
}

func (r *PostgresBidRepository) SetStatus(ctx context.Context, id bid.ID, from, to bid.Status, at time.Time) (*bid.Bid, error) {
	var b bid.Bid
	query := `
		UPDATE bids SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + bidColumns

	if err := r.db.GetContext(ctx, &b, query, to, at, id, from); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.missOrStale(ctx, r.db, id, string(from))
		}
		return nil, errx.Wrap(err, "failed to update bid status", errx.TypeInternal).
			WithDetail("bid_id", id.String())
	}
	return &b, nil
}

func (r *PostgresBidRepository) Delete(ctx context.Context, id bid.ID, from bid.Status) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bids WHERE id = $1 AND status = $2`, id, from)
	if err != nil {
		return errx.Wrap(err, "failed to delete bid", errx.TypeInternal).
			WithDetail("bid_id", id.String())
	}
	return expectOne(result, func() error { return r.missOrStale(ctx, r.db, id, string(from)) })
}

// Accept performs the three writes in one transaction under a row lock on
// the parent request. Each write is still conditional on the expected
// status, so of two concurrent accepts on the same request exactly one commits.
func (r *PostgresBidRepository) Accept(ctx context.Context, id bid.ID, at time.Time) (*bid.Bid, error) {
	var accepted bid.Bid

	err := dbx.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Lock the parent request first so accepts on one request queue up
		// instead of deadlocking on each other's sibling rows.
		var requestStatus string
		lock := `
			SELECT wr.status FROM work_requests wr
			JOIN bids b ON b.request_id = wr.id
			WHERE b.id = $1
			FOR UPDATE OF wr`
		if err := tx.GetContext(ctx, &requestStatus, lock, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return market.BidNotFound(id.String())
			}
			return errx.Wrap(err, "failed to lock work request", errx.TypeInternal)
		}
		if requestStatus != string(workrequest.StatusOpen) {
			return market.InvalidState("request is no longer open").WithDetail("status", requestStatus)
		}

		query := `
			UPDATE bids SET status = 'accepted', updated_at = $1
			WHERE id = $2 AND status = 'pending'
			RETURNING ` + bidColumns
		if err := tx.GetContext(ctx, &accepted, query, at, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.missOrStale(ctx, tx, id, string(bid.StatusPending))
			}
			return errx.Wrap(err, "failed to accept bid", errx.TypeInternal)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bids SET status = 'rejected', updated_at = $1
			WHERE request_id = $2 AND id <> $3 AND status = 'pending'`,
			at, accepted.RequestID, accepted.ID); err != nil {
			return errx.Wrap(err, "failed to reject sibling bids", errx.TypeInternal)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE work_requests
			SET status = 'in_progress', assigned_contractor_id = $1, started_at = $2, updated_at = $2
			WHERE id = $3 AND status = 'open'`,
			accepted.ContractorID, at, accepted.RequestID)
		if err != nil {
			return errx.Wrap(err, "failed to start work request", errx.TypeInternal)
		}
		return expectOne(result, func() error {
			return market.InvalidState("request is no longer open").
				WithDetail("request_id", accepted.RequestID.String())
		})
	})
	if err != nil {
		var domainErr *errx.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, errx.Wrap(err, "accept bid transaction failed", errx.TypeInternal).
			WithDetail("bid_id", id.String())
	}
	return &accepted, nil
}

// missOrStale explains a conditional bid write that matched no row.
func (r *PostgresBidRepository) missOrStale(ctx context.Context, q sqlx.QueryerContext, id bid.ID, expected string) error {
	var status string
	err := sqlx.GetContext(ctx, q, &status, `SELECT status FROM bids WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return market.BidNotFound(id.String())
	}
	if err != nil {
		return errx.Wrap(err, "failed to read bid status", errx.TypeInternal)
	}
	return market.InvalidState("bid is no longer "+expected).
		WithDetail("expected", expected).
		WithDetail("actual", status)
}

var _ bid.Repository = (*PostgresBidRepository)(nil)
