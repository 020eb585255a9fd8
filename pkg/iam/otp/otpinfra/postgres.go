package otpinfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/dbx"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository stores OTPs in the otps table. Codes are kept only as
// keyed digests.
type PostgresRepository struct {
	db     *sqlx.DB
	digest *CodeDigester
}

func NewPostgresRepository(db *sqlx.DB, digest *CodeDigester) *PostgresRepository {
	return &PostgresRepository{db: db, digest: digest}
}

type otpRow struct {
	otp.OTP
	CodeDigest string `db:"code_digest"`
}

const otpColumns = `id, identifier, purpose, channel, user_id, used, verified, verified_at,
	failed_attempts, created_at, expires_at`

// Replace serializes on an advisory lock keyed by (identifier, purpose), so two
// concurrent issuances cannot both leave a valid code behind.
func (r *PostgresRepository) Replace(ctx context.Context, o *otp.OTP) error {
	return dbx.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		lockKey := o.Identifier + "|" + string(o.Purpose)
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return errx.Wrap(err, "failed to lock OTP pair", errx.TypeInternal)
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE otps SET used = TRUE
			WHERE identifier = $1 AND purpose = $2 AND used = FALSE`,
			o.Identifier, o.Purpose)
		if err != nil {
			return errx.Wrap(err, "failed to invalidate outstanding OTPs", errx.TypeInternal)
		}

		row := otpRow{OTP: *o, CodeDigest: r.digest.Digest(o.Identifier, o.Code)}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO otps (
				id, identifier, code_digest, purpose, channel, user_id, used, verified,
				verified_at, failed_attempts, created_at, expires_at
			) VALUES (
				:id, :identifier, :code_digest, :purpose, :channel, :user_id, :used, :verified,
				:verified_at, :failed_attempts, :created_at, :expires_at
			)`, row)
		if err != nil {
			return errx.Wrap(err, "failed to insert OTP", errx.TypeInternal).
				WithDetail("otp_id", o.ID)
		}
		return nil
	})
}

// Consume is a single conditional UPDATE; the row lock makes a second
// concurrent consumer see no match.
func (r *PostgresRepository) Consume(ctx context.Context, identifier, code string, purpose otp.Purpose, now time.Time) (*otp.OTP, error) {
	var consumed otp.OTP
	err := r.db.GetContext(ctx, &consumed, `
		UPDATE otps SET used = TRUE, verified = TRUE, verified_at = $5
		WHERE id = (
			SELECT id FROM otps
			WHERE identifier = $1 AND code_digest = $2 AND purpose = $3
			  AND used = FALSE AND expires_at > $4
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE
		) AND used = FALSE
		RETURNING `+otpColumns,
		identifier, r.digest.Digest(identifier, code), purpose, now, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, otp.ErrInvalidOrExpired()
		}
		return nil, errx.Wrap(err, "failed to consume OTP", errx.TypeInternal)
	}
	consumed.Code = code
	return &consumed, nil
}

func (r *PostgresRepository) RecordFailedAttempt(ctx context.Context, identifier string, purpose otp.Purpose, maxAttempts int, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE otps SET
			failed_attempts = failed_attempts + 1,
			used = CASE WHEN $4 > 0 AND failed_attempts + 1 >= $4 THEN TRUE ELSE used END
		WHERE identifier = $1 AND purpose = $2 AND used = FALSE AND expires_at > $3`,
		identifier, purpose, now, maxAttempts)
	if err != nil {
		return errx.Wrap(err, "failed to record OTP failure", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresRepository) CountSince(ctx context.Context, identifier string, since time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM otps WHERE identifier = $1 AND created_at >= $2`,
		identifier, since)
	if err != nil {
		return 0, errx.Wrap(err, "failed to count OTPs", errx.TypeInternal)
	}
	return n, nil
}

func (r *PostgresRepository) Outstanding(ctx context.Context, identifier string, purpose otp.Purpose, now time.Time) ([]*otp.OTP, error) {
	var rows []otp.OTP
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+otpColumns+` FROM otps
		WHERE identifier = $1 AND purpose = $2 AND used = FALSE AND expires_at > $3
		ORDER BY created_at DESC`,
		identifier, purpose, now)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list outstanding OTPs", errx.TypeInternal)
	}

	out := make([]*otp.OTP, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, errx.Wrap(err, "failed to purge OTPs", errx.TypeInternal)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(err, "failed to get rows affected on purge", errx.TypeInternal)
	}
	return n, nil
}
