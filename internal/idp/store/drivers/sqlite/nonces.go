package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/store"
)

type noncesRepo struct {
	db *sql.DB
}

func (r *noncesRepo) CheckAndInsert(ctx context.Context, id string, expiresAt time.Time) error {
	// Single statement, so the uniqueness check and the insert are one
	// atomic operation; a live duplicate affects zero rows. A lapsed row
	// is reclaimed in place, matching the memory driver, so reuse does
	// not wait on the housekeeping sweep.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO nonces (id, expires_at)
		VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET expires_at = excluded.expires_at
		WHERE nonces.expires_at <= ?;
	`, id, expiresAt.UTC().Unix(), time.Now().UTC().Unix())
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrReplayed
	}
	return nil
}

func (r *noncesRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM nonces WHERE expires_at <= ?;`, now.UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
