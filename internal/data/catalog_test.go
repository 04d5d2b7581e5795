package data

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hilook/storefront-api/internal/validator"
)

// newMockGorm opens the gorm models over a sqlmock connection.
func newMockGorm(t *testing.T) (Gorm, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return GormModels(gormDB), mock
}

var productColumns = []string{"id", "name", "category_id", "sub_category_id", "is_popular", "is_available"}

func TestProductGetAllFilters(t *testing.T) {
	m, mock := newMockGorm(t)
	popular := true

	filter := ProductFilter{CategoryID: 2, Name: "tea", IsPopular: &popular}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products" WHERE category_id = $1 AND name ILIKE $2 AND is_popular = $3`)).
		WithArgs(int64(2), "%tea%", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE category_id = $1 AND name ILIKE $2 AND is_popular = $3 ORDER BY created_at DESC, id DESC LIMIT 20`)).
		WithArgs(int64(2), "%tea%", true).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(5, "Green tea", 2, 7, true, true))

	products, metadata, err := m.Products.GetAll(filter, Sort{}, Pagination{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Equal(t, "Green tea", products[0].Name)
	assert.Equal(t, int64(7), products[0].SubCategoryID)
	assert.Equal(t, 1, metadata.TotalRecords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductSearchMatchesNameOrDescription(t *testing.T) {
	m, mock := newMockGorm(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (name ILIKE $1 OR description ILIKE $2)`)).
		WithArgs("%oolong%", "%oolong%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (name ILIKE $1 OR description ILIKE $2) ORDER BY created_at DESC, id DESC`)).
		WithArgs("%oolong%", "%oolong%").
		WillReturnRows(sqlmock.NewRows(productColumns))

	products, metadata, err := m.Products.GetAPI(ProductFilter{Search: "oolong"}, Pagination{Page: 1, PageSize: 20})
	require.NoError(t, err)

	assert.Empty(t, products)
	assert.Equal(t, Metadata{}, metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductGetAllSortsBySafeList(t *testing.T) {
	m, mock := newMockGorm(t)

	s := Sort{List: []string{"-first_price", "name"}, SortSafeList: []string{"name", "-first_price"}}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY first_price DESC, name ASC`)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, _, err := m.Products.GetAll(ProductFilter{}, s, Pagination{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginateClampsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name     string
		p        Pagination
		query    string
		lastPage int
	}{
		{"page size over maximum", Pagination{Page: 3, PageSize: 500}, `LIMIT 100 OFFSET 200$`, 3},
		{"zero values", Pagination{Page: 0, PageSize: 0}, `LIMIT 10$`, 25},
		{"negative page", Pagination{Page: -4, PageSize: 25}, `LIMIT 25$`, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, mock := newMockGorm(t)

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "subcategories"`)).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(250))
			mock.ExpectQuery(`ORDER BY id DESC ` + tt.query).
				WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "name"}))

			_, metadata, err := m.Subcategories.GetAll(0, "", tt.p)
			require.NoError(t, err)

			assert.Equal(t, tt.lastPage, metadata.LastPage)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSubcategoryGetAllFilters(t *testing.T) {
	m, mock := newMockGorm(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "subcategories" WHERE category_id = $1 AND name ILIKE $2`)).
		WithArgs(int64(3), "%black%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "subcategories" WHERE category_id = $1 AND name ILIKE $2 ORDER BY id DESC LIMIT 20`)).
		WithArgs(int64(3), "%black%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "name", "image_path", "created_at", "updated_at"}).
			AddRow(11, 3, "Black tea", "", now, now))

	subcategories, metadata, err := m.Subcategories.GetAll(3, "black", Pagination{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, subcategories, 1)

	assert.Equal(t, "Black tea", subcategories[0].Name)
	assert.Equal(t, Metadata{CurrentPage: 1, PageSize: 20, FirstPage: 1, LastPage: 1, TotalRecords: 1}, metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryGetNotFound(t *testing.T) {
	m, mock := newMockGorm(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "categories" WHERE "categories"."id" = $1`)).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := m.Categories.Get(8)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = m.Categories.Get(0)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDeleteMissingRow(t *testing.T) {
	m, mock := newMockGorm(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "categories" WHERE "categories"."id" = $1`)).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.ErrorIs(t, m.Categories.Delete(8), ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductPrices(t *testing.T) {
	p := &Product{
		FirstPrice:     decimal.RequireFromString("12.50"),
		Discount1Price: decimal.RequireFromString("11.00"),
		SecondPrice:    decimal.RequireFromString("9.75"),
		Discount2Price: decimal.RequireFromString("9.00"),
	}

	price, discount := p.Prices(false)
	assert.True(t, price.Equal(p.FirstPrice))
	assert.True(t, discount.Equal(p.Discount1Price))

	price, discount = p.Prices(true)
	assert.True(t, price.Equal(p.SecondPrice))
	assert.True(t, discount.Equal(p.Discount2Price))
}

func TestValidateProduct(t *testing.T) {
	v := validator.New()
	ValidateProduct(v, &Product{
		Name:           "Green tea",
		CategoryID:     1,
		FirstPrice:     decimal.NewFromInt(10),
		Discount1Price: decimal.NewFromInt(-1),
	})

	assert.Contains(t, v.Errors, "sub_category_id")
	assert.Contains(t, v.Errors, "discount1_price")
	assert.Contains(t, v.Errors, "thumb_image")
	assert.Contains(t, v.Errors, "detail_image")
	assert.NotContains(t, v.Errors, "name")
	assert.NotContains(t, v.Errors, "first_price")
}
