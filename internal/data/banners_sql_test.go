package data

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockBannerModel(t *testing.T) (BannerModel, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return BannerModel{store: sqlBannerStore{db: sqlx.NewDb(db, "postgres")}}, mock
}

func TestSQLBannerInsertAtPriority(t *testing.T) {
	m, mock := newMockBannerModel(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(bannerLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(priority), 0) FROM banners`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE banners SET priority = priority + $1 WHERE priority >= $2`)).
		WithArgs(PriorityOffset, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO banners (image_reference, priority)`)).
		WithArgs("/public/uploads/banners/d.png", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(4, now, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE banners SET priority = priority - $1 WHERE priority >= $2`)).
		WithArgs(PriorityOffset-1, 2+PriorityOffset).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	banner := &Banner{ImageReference: "/public/uploads/banners/d.png"}
	err := m.Insert(context.Background(), banner, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(4), banner.ID)
	assert.Equal(t, 2, banner.Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBannerInsertRollsBackOnShiftFailure(t *testing.T) {
	m, mock := newMockBannerModel(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(priority), 0) FROM banners`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE banners SET priority = priority + $1 WHERE priority >= $2`)).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	err := m.Insert(context.Background(), &Banner{ImageReference: "x"}, 1)

	assert.EqualError(t, err, "connection reset by peer")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBannerMoveDown(t *testing.T) {
	m, mock := newMockBannerModel(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_reference", "priority", "created_at", "updated_at"}).
			AddRow(1, "a.png", 1, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(priority), 0) FROM banners`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE banners SET priority = $1 WHERE id = $2`)).
		WithArgs(0, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE banners SET priority = priority + $1 WHERE priority >= $2 AND priority < $3`)).
		WithArgs(PriorityOffset, 2, 4).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE banners SET priority = priority - $1 WHERE priority >= $2`)).
		WithArgs(PriorityOffset+1, 2+PriorityOffset).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE banners SET priority = $1 WHERE id = $2`)).
		WithArgs(3, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	banner, changed, err := m.Move(context.Background(), 1, 3)
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, 3, banner.Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBannerDeleteMissingRow(t *testing.T) {
	m, mock := newMockBannerModel(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_reference", "priority", "created_at", "updated_at"}))
	mock.ExpectRollback()

	_, err := m.Delete(context.Background(), 9)

	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
