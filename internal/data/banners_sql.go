package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// bannerLockKey identifies the banners table for pg_advisory_xact_lock.
const bannerLockKey = 0x62616e6e

type sqlBannerStore struct {
	db *sqlx.DB
}

func (s sqlBannerStore) list(ctx context.Context) ([]*Banner, error) {
	query := `
		SELECT id, image_reference, priority, created_at, updated_at
		FROM banners
		ORDER BY priority ASC`

	banners := []*Banner{}

	err := s.db.SelectContext(ctx, &banners, query)
	if err != nil {
		return nil, err
	}

	return banners, nil
}

func (s sqlBannerStore) maxPriority(ctx context.Context) (int, error) {
	return maxBannerPriority(ctx, s.db)
}

func (s sqlBannerStore) get(ctx context.Context, id int64) (*Banner, error) {
	query := `
		SELECT id, image_reference, priority, created_at, updated_at
		FROM banners
		WHERE id = $1`

	return getBanner(ctx, s.db, query, id)
}

// withTx runs fn inside one transaction. The deferred Rollback is a no-op once
// Commit has succeeded, and database/sql rolls back by itself if ctx is done.
func (s sqlBannerStore) withTx(ctx context.Context, fn func(tx bannerTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(sqlBannerTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

type sqlBannerTx struct {
	tx *sqlx.Tx
}

func (t sqlBannerTx) lock(ctx context.Context) error {
	_, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, bannerLockKey)
	return err
}

func (t sqlBannerTx) maxPriority(ctx context.Context) (int, error) {
	return maxBannerPriority(ctx, t.tx)
}

func (t sqlBannerTx) get(ctx context.Context, id int64) (*Banner, error) {
	query := `
		SELECT id, image_reference, priority, created_at, updated_at
		FROM banners
		WHERE id = $1
		FOR UPDATE`

	return getBanner(ctx, t.tx, query, id)
}

func (t sqlBannerTx) park(ctx context.Context, from, to int) error {
	if to <= 0 {
		_, err := t.tx.ExecContext(ctx, `UPDATE banners SET priority = priority + $1 WHERE priority >= $2`, PriorityOffset, from)
		return err
	}

	_, err := t.tx.ExecContext(ctx, `UPDATE banners SET priority = priority + $1 WHERE priority >= $2 AND priority < $3`, PriorityOffset, from, to)
	return err
}

func (t sqlBannerTx) unpark(ctx context.Context, from, delta int) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE banners SET priority = priority - $1 WHERE priority >= $2`, PriorityOffset-delta, from+PriorityOffset)
	return err
}

func (t sqlBannerTx) insert(ctx context.Context, banner *Banner) error {
	query := `
		INSERT INTO banners (image_reference, priority)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	return t.tx.QueryRowxContext(ctx, query, banner.ImageReference, banner.Priority).Scan(&banner.ID, &banner.CreatedAt, &banner.UpdatedAt)
}

func (t sqlBannerTx) setPriority(ctx context.Context, id int64, priority int) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE banners SET priority = $1 WHERE id = $2`, priority, id)
	return err
}

func (t sqlBannerTx) setImage(ctx context.Context, id int64, imageReference string) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE banners SET image_reference = $1, updated_at = NOW() WHERE id = $2`, imageReference, id)
	return err
}

func (t sqlBannerTx) delete(ctx context.Context, id int64) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func maxBannerPriority(ctx context.Context, q sqlx.QueryerContext) (int, error) {
	var max int

	err := sqlx.GetContext(ctx, q, &max, `SELECT COALESCE(MAX(priority), 0) FROM banners`)
	if err != nil {
		return 0, err
	}

	return max, nil
}

func getBanner(ctx context.Context, q sqlx.QueryerContext, query string, id int64) (*Banner, error) {
	var banner Banner

	err := sqlx.GetContext(ctx, q, &banner, query, id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &banner, nil
}
