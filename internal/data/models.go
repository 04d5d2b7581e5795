package data

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrEditConflict   = errors.New("edit conflict")
	ErrDuplicateSlug  = errors.New("duplicate slug")
)

// DefaultMaxMemory bounds the in-memory part of a parsed multipart form.
const DefaultMaxMemory = 5 << 20

// Models groups the tables accessed with hand-written SQL.
type Models struct {
	Banners  BannerModel
	Users    UserModel
	Admins   AdminModel
	Orders   OrderModel
	Currency CurrencyModel
}

func NewModels(db *sqlx.DB) Models {
	return Models{
		Banners:  BannerModel{store: sqlBannerStore{db: db}},
		Users:    UserModel{DB: db},
		Admins:   AdminModel{DB: db},
		Orders:   OrderModel{DB: db},
		Currency: CurrencyModel{DB: db},
	}
}

// Gorm groups the catalog and content tables accessed through gorm.
type Gorm struct {
	Categories    CategoryModel
	Subcategories SubcategoryModel
	Products      ProductModel
	Permissions   PermissionModel
	Info          InfoModel
}

func GormModels(db *gorm.DB) Gorm {
	return Gorm{
		Categories:    CategoryModel{DB: db},
		Subcategories: SubcategoryModel{DB: db},
		Products:      ProductModel{DB: db},
		Permissions:   PermissionModel{DB: db},
		Info:          InfoModel{DB: db},
	}
}

// isUniqueViolation reports whether err is a postgres unique_violation on the
// named constraint. An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == "23505" && (constraint == "" || pqErr.Constraint == constraint)
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
