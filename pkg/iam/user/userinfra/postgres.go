package userinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/contractorconnect/pkg/dbx"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresUserRepository is the sqlx implementation of user.Repository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, phone_number, email, role, status, name, profile_image, description,
	address, city, state, pincode, is_verified, is_active, created_at, updated_at, last_login_at`

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `) VALUES (
			:id, :phone_number, :email, :role, :status, :name, :profile_image, :description,
			:address, :city, :state, :pincode, :is_verified, :is_active, :created_at, :updated_at, :last_login_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		if dbx.IsUniqueViolation(err) {
			return user.ErrAlreadyExists().WithDetail("constraint", dbx.ConstraintName(err))
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal).
			WithDetail("user_id", u.ID)
	}
	return nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			email = :email,
			status = :status,
			name = :name,
			profile_image = :profile_image,
			description = :description,
			address = :address,
			city = :city,
			state = :state,
			pincode = :pincode,
			is_verified = :is_verified,
			is_active = :is_active,
			updated_at = :updated_at,
			last_login_at = :last_login_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return user.ErrAlreadyExists().WithDetail("constraint", dbx.ConstraintName(err))
		}
		return errx.Wrap(err, "failed to update user", errx.TypeInternal).
			WithDetail("user_id", u.ID)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on update", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return user.ErrNotFound()
	}
	return nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
}

func (r *PostgresUserRepository) FindByPhone(ctx context.Context, phone string) (*user.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User
	if err := r.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user", errx.TypeInternal)
	}
	return &u, nil
}
