package data

import (
	"context"
	"errors"
	"time"

	"github.com/hilook/storefront-api/internal/validator"
	"gorm.io/gorm"
)

type Subcategory struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	ImagePath  string    `json:"image_path"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func ValidateSubcategory(v *validator.Validator, subcategory *Subcategory) {
	v.Check(subcategory.CategoryID > 0, "category_id", "must be provided")
	v.Check(subcategory.Name != "", "name", "must be provided")
	v.Check(len(subcategory.Name) <= 100, "name", "must not be more than 100 bytes long")
}

type SubcategoryModel struct {
	DB *gorm.DB
}

// ====================================================================================
// Backoffice Functions
// ====================================================================================

// GetAll filters by category when categoryID is set and by a case-insensitive
// name fragment when name is set.
func (m SubcategoryModel) GetAll(categoryID int64, name string, p Pagination) ([]*Subcategory, Metadata, error) {
	var subcategories []*Subcategory
	var count int64

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	filter := func(db *gorm.DB) *gorm.DB {
		if categoryID > 0 {
			db = db.Where("category_id = ?", categoryID)
		}
		if name != "" {
			db = db.Where("name ILIKE ?", "%"+name+"%")
		}
		return db
	}

	err := m.DB.WithContext(ctx).Model(&Subcategory{}).Scopes(filter).Count(&count).Error
	if err != nil {
		return nil, Metadata{}, err
	}

	err = m.DB.WithContext(ctx).Scopes(filter, Paginate(p)).Order("id DESC").Find(&subcategories).Error
	if err != nil {
		return nil, Metadata{}, err
	}

	p = p.clamped()
	metadata := calculateMetadata(int(count), p.Page, p.PageSize)

	return subcategories, metadata, nil
}

func (m SubcategoryModel) Get(id int64) (*Subcategory, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	var subcategory *Subcategory

	err := m.DB.First(&subcategory, id).Error
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return subcategory, nil
}

func (m SubcategoryModel) Insert(subcategory *Subcategory) error {
	return m.DB.Create(subcategory).Error
}

func (m SubcategoryModel) Update(subcategory *Subcategory) error {
	return m.DB.Save(subcategory).Error
}

func (m SubcategoryModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	result := m.DB.Delete(&Subcategory{}, id)
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

func (m SubcategoryModel) GetAPI(categoryID int64) ([]*Subcategory, error) {
	var subcategories []*Subcategory

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	query := m.DB.WithContext(ctx)
	if categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}

	err := query.Order("name ASC").Find(&subcategories).Error
	if err != nil {
		return nil, err
	}

	return subcategories, nil
}
