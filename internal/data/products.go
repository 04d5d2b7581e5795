package data

import (
	"context"
	"errors"
	"time"

	"github.com/hilook/storefront-api/internal/validator"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	CategoryID      int64           `json:"category_id"`
	SubCategoryID   int64           `json:"sub_category_id"`
	FirstPrice      decimal.Decimal `json:"first_price" gorm:"type:numeric(12,2)"`
	Discount1Price  decimal.Decimal `json:"discount1_price" gorm:"type:numeric(12,2);column:discount1_price"`
	SecondPrice     decimal.Decimal `json:"second_price" gorm:"type:numeric(12,2)"`
	Discount2Price  decimal.Decimal `json:"discount2_price" gorm:"type:numeric(12,2);column:discount2_price"`
	ThumbImagePath  string          `json:"thumb_image_path"`
	DetailImagePath string          `json:"detail_image_path"`
	IsPopular       bool            `json:"is_popular"`
	IsAvailable     bool            `json:"is_available"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Prices returns the price pair shown to a buyer: wholesalers get the second
// tier, everyone else the first.
func (p *Product) Prices(wholesale bool) (price, discount decimal.Decimal) {
	if wholesale {
		return p.SecondPrice, p.Discount2Price
	}
	return p.FirstPrice, p.Discount1Price
}

func ValidateProduct(v *validator.Validator, product *Product) {
	v.Check(product.Name != "", "name", "must be provided")
	v.Check(len(product.Name) <= 255, "name", "must not be more than 255 bytes long")
	v.Check(product.CategoryID > 0, "category_id", "must be provided")
	v.Check(product.SubCategoryID > 0, "sub_category_id", "must be provided")

	for key, price := range map[string]decimal.Decimal{
		"first_price":     product.FirstPrice,
		"discount1_price": product.Discount1Price,
		"second_price":    product.SecondPrice,
		"discount2_price": product.Discount2Price,
	} {
		v.Check(!price.IsNegative(), key, "must not be negative")
	}

	v.Check(product.ThumbImagePath != "", "thumb_image", "image file is required")
	v.Check(product.DetailImagePath != "", "detail_image", "image file is required")
}

// ProductFilter narrows product listings. Zero values do not filter.
type ProductFilter struct {
	CategoryID    int64
	SubCategoryID int64
	Name          string
	IsPopular     *bool
	Search        string
}

func (f ProductFilter) scope(db *gorm.DB) *gorm.DB {
	if f.CategoryID > 0 {
		db = db.Where("category_id = ?", f.CategoryID)
	}
	if f.SubCategoryID > 0 {
		db = db.Where("sub_category_id = ?", f.SubCategoryID)
	}
	if f.Name != "" {
		db = db.Where("name ILIKE ?", "%"+f.Name+"%")
	}
	if f.IsPopular != nil {
		db = db.Where("is_popular = ?", *f.IsPopular)
	}
	if f.Search != "" {
		db = db.Where("(name ILIKE ? OR description ILIKE ?)", "%"+f.Search+"%", "%"+f.Search+"%")
	}
	return db
}

type ProductModel struct {
	DB *gorm.DB
}

// ====================================================================================
// Backoffice Functions
// ====================================================================================

func (m ProductModel) GetAll(f ProductFilter, s Sort, p Pagination) ([]*Product, Metadata, error) {
	var products []*Product
	var count int64

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.WithContext(ctx).Model(&Product{}).Scopes(f.scope).Count(&count).Error
	if err != nil {
		return nil, Metadata{}, err
	}

	order := "created_at DESC, id DESC"
	if len(s.List) > 0 {
		order = s.sortColumnAndDirection()
	}

	err = m.DB.WithContext(ctx).Scopes(f.scope, Paginate(p)).Order(order).Find(&products).Error
	if err != nil {
		return nil, Metadata{}, err
	}

	p = p.clamped()
	metadata := calculateMetadata(int(count), p.Page, p.PageSize)

	return products, metadata, nil
}

func (m ProductModel) Get(id int64) (*Product, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	var product *Product

	err := m.DB.First(&product, id).Error
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return product, nil
}

func (m ProductModel) Insert(product *Product) error {
	return m.DB.Create(product).Error
}

func (m ProductModel) Update(product *Product) error {
	return m.DB.Save(product).Error
}

func (m ProductModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	result := m.DB.Delete(&Product{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// ====================================================================================
// Business Functions
// ====================================================================================

// GetAPI lists products for the storefront, newest first.
func (m ProductModel) GetAPI(f ProductFilter, p Pagination) ([]*Product, Metadata, error) {
	return m.GetAll(f, Sort{}, p)
}
