package data

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var permissionColumns = []string{"id", "is_register", "is_usual_order", "is_wholesaler_order", "created_at", "updated_at"}

func TestPermissionGetCreatesDefaultRow(t *testing.T) {
	m, mock := newMockGorm(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "permissions" ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows(permissionColumns))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "permissions" ("is_register","is_usual_order","is_wholesaler_order","created_at","updated_at")`)).
		WithArgs(true, true, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	permission, err := m.Permissions.Get()
	require.NoError(t, err)

	assert.Equal(t, int64(1), permission.ID)
	assert.True(t, permission.IsRegister)
	assert.True(t, permission.CanOrder(false))
	assert.True(t, permission.CanOrder(true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionGetExistingRow(t *testing.T) {
	m, mock := newMockGorm(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "permissions" ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows(permissionColumns).AddRow(1, false, true, false, now, now))

	permission, err := m.Permissions.Get()
	require.NoError(t, err)

	assert.False(t, permission.IsRegister)
	assert.True(t, permission.CanOrder(false))
	assert.False(t, permission.CanOrder(true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionUpdateKeepsUnsetFields(t *testing.T) {
	m, mock := newMockGorm(t)
	now := time.Now()
	off := false

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "permissions" ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows(permissionColumns).AddRow(1, true, true, true, now, now))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "permissions" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	permission, err := m.Permissions.Update(PermissionUpdate{IsWholesalerOrder: &off})
	require.NoError(t, err)

	assert.True(t, permission.IsRegister)
	assert.True(t, permission.IsUsualOrder)
	assert.False(t, permission.IsWholesalerOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionUpdateEmpty(t *testing.T) {
	on := true

	assert.True(t, PermissionUpdate{}.Empty())
	assert.False(t, PermissionUpdate{IsRegister: &on}.Empty())
}

func TestInfoGetMergesSections(t *testing.T) {
	m, mock := newMockGorm(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "phones" ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "phone_number", "created_at", "updated_at"}).
			AddRow(1, "Sales", "+998901234567", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "maps" ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "location", "google", "yandex", "created_at", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "info" WHERE "info"."id" = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "updated_at"}).
			AddRow(1, []byte(`{"socials":{"telegram":"https://t.me/hilook"},"description":"Tea house"}`), now))

	info, err := m.Info.Get()
	require.NoError(t, err)

	require.Len(t, info.Phones, 1)
	assert.Equal(t, "+998901234567", info.Phones[0].PhoneNumber)
	assert.Empty(t, info.Maps)
	assert.Equal(t, "https://t.me/hilook", info.Socials["telegram"])
	assert.Equal(t, "Tea house", info.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInfoGetWithoutAboutDocument(t *testing.T) {
	m, mock := newMockGorm(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "phones"`)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "maps"`)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "info"`)).WillReturnRows(sqlmock.NewRows([]string{"id", "data", "updated_at"}))

	info, err := m.Info.Get()
	require.NoError(t, err)

	assert.NotNil(t, info.Socials)
	assert.Empty(t, info.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}
