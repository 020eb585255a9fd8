package marketinfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRequestRepository is the sqlx implementation of workrequest.Repository.
type PostgresRequestRepository struct {
	db *sqlx.DB
}

func NewPostgresRequestRepository(db *sqlx.DB) *PostgresRequestRepository {
	return &PostgresRequestRepository{db: db}
}

// requestRow carries the image list as a Postgres text array.
type requestRow struct {
	workrequest.WorkRequest
	Images pq.StringArray `db:"images"`
}

func toRequestRow(r *workrequest.WorkRequest) requestRow {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return requestRow{WorkRequest: *r, Images: images}
}

func (row requestRow) toDomain() workrequest.WorkRequest {
	r := row.WorkRequest
	r.Images = []string(row.Images)
	if r.Images == nil {
		r.Images = []string{}
	}
	return r
}

const requestColumns = `id, society_id, assigned_contractor_id, title, description, category, status,
	location, city, state, pincode, estimated_duration_days, required_skills, preferred_start_date,
	images, created_at, updated_at, started_at, completed_at`

func (r *PostgresRequestRepository) Create(ctx context.Context, req *workrequest.WorkRequest) error {
	query := `
		INSERT INTO work_requests (` + requestColumns + `) VALUES (
			:id, :society_id, :assigned_contractor_id, :title, :description, :category, :status,
			:location, :city, :state, :pincode, :estimated_duration_days, :required_skills, :preferred_start_date,
			:images, :created_at, :updated_at, :started_at, :completed_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, toRequestRow(req)); err != nil {
		return errx.Wrap(err, "failed to create work request", errx.TypeInternal).
			WithDetail("request_id", req.ID.String())
	}
	return nil
}

func (r *PostgresRequestRepository) FindByID(ctx context.Context, id workrequest.ID) (*workrequest.WorkRequest, error) {
	var row requestRow
	query := `SELECT ` + requestColumns + ` FROM work_requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, market.RequestNotFound(id.String())
		}
		return nil, errx.Wrap(err, "failed to get work request", errx.TypeInternal).
			WithDetail("request_id", id.String())
	}
	req := row.toDomain()
	return &req, nil
}

func requestWhere(f workrequest.ListFilter) *where {
	w := &where{}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	if f.City != "" {
		w.add("city ILIKE ?", contains(f.City))
	}
	if f.State != "" {
		w.add("state ILIKE ?", contains(f.State))
	}
	if !f.SocietyID.IsEmpty() {
		w.add("society_id = ?", f.SocietyID)
	}
	if !f.AssignedContractorID.IsEmpty() {
		w.add("assigned_contractor_id = ?", f.AssignedContractorID)
	}
	if f.Query != "" {
		p := contains(f.Query)
		w.add("(title ILIKE ? OR description ILIKE ? OR COALESCE(required_skills, '') ILIKE ?)", p, p, p)
	}
	return w
}

func (r *PostgresRequestRepository) List(ctx context.Context, f workrequest.ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[workrequest.WorkRequest], error) {
	w := requestWhere(f)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM work_requests`+w.sql(), w.args...); err != nil {
		return kernel.Paginated[workrequest.WorkRequest]{}, errx.Wrap(err, "failed to count work requests", errx.TypeInternal)
	}

	query := `SELECT ` + requestColumns + ` FROM work_requests` + w.sql() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.next(opts.PageSize) + ` OFFSET ` + w.next(opts.Offset())

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return kernel.Paginated[workrequest.WorkRequest]{}, errx.Wrap(err, "failed to list work requests", errx.TypeInternal)
	}

	items := make([]workrequest.WorkRequest, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

func (r *PostgresRequestRepository) Update(ctx context.Context, req *workrequest.WorkRequest) error {
	query := `
		UPDATE work_requests SET
			title = :title,
			description = :description,
			category = :category,
			location = :location,
			city = :city,
			state = :state,
			pincode = :pincode,
			estimated_duration_days = :estimated_duration_days,
			required_skills = :required_skills,
			preferred_start_date = :preferred_start_date,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, toRequestRow(req))
	if err != nil {
		return errx.Wrap(err, "failed to update work request", errx.TypeInternal).
			WithDetail("request_id", req.ID.String())
	}
	return expectOne(result, func() error { return market.RequestNotFound(req.ID.String()) })
}

func (r *PostgresRequestRepository) UpdateStatus(ctx context.Context, req *workrequest.WorkRequest, from workrequest.Status) error {
	query := `
		UPDATE work_requests SET
			status = $1,
			assigned_contractor_id = $2,
			started_at = $3,
			completed_at = $4,
			updated_at = $5
		WHERE id = $6 AND status = $7`

	result, err := r.db.ExecContext(ctx, query,
		req.Status, req.AssignedContractorID, req.StartedAt, req.CompletedAt, req.UpdatedAt, req.ID, from)
	if err != nil {
		return errx.Wrap(err, "failed to update work request status", errx.TypeInternal).
			WithDetail("request_id", req.ID.String())
	}
	return expectOne(result, func() error { return r.missOrStale(ctx, req.ID, string(from)) })
}

func (r *PostgresRequestRepository) AppendImage(ctx context.Context, id workrequest.ID, path string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE work_requests SET images = array_append(images, $1), updated_at = $2 WHERE id = $3`,
		path, at, id)
	if err != nil {
		return errx.Wrap(err, "failed to append request image", errx.TypeInternal).
			WithDetail("request_id", id.String())
	}
	return expectOne(result, func() error { return market.RequestNotFound(id.String()) })
}

// Delete relies on ON DELETE CASCADE to remove the request's bids.
func (r *PostgresRequestRepository) Delete(ctx context.Context, id workrequest.ID, from workrequest.Status) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM work_requests WHERE id = $1 AND status = $2`, id, from)
	if err != nil {
		return errx.Wrap(err, "failed to delete work request", errx.TypeInternal).
			WithDetail("request_id", id.String())
	}
	return expectOne(result, func() error { return r.missOrStale(ctx, id, string(from)) })
}

// missOrStale explains a conditional write that matched no row.
func (r *PostgresRequestRepository) missOrStale(ctx context.Context, id workrequest.ID, expected string) error {
	var status string
	err := r.db.GetContext(ctx, &status, `SELECT status FROM work_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return market.RequestNotFound(id.String())
	}
	if err != nil {
		return errx.Wrap(err, "failed to read work request status", errx.TypeInternal)
	}
	return market.InvalidState("request status changed concurrently").
		WithDetail("expected", expected).
		WithDetail("actual", status)
}

// expectOne returns onZero() when the statement affected no rows.
func expectOne(result sql.Result, onZero func() error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if n == 0 {
		return onZero()
	}
	return nil
}

var _ workrequest.Repository = (*PostgresRequestRepository)(nil)
