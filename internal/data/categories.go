package data

import (
	"context"
	"errors"
	"time"

	"github.com/hilook/storefront-api/internal/validator"
	"gorm.io/gorm"
)

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ImagePath string    `json:"image_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidateCategory(v *validator.Validator, category *Category) {
	v.Check(category.Name != "", "name", "must be provided")
	v.Check(len(category.Name) <= 100, "name", "must not be more than 100 bytes long")
	v.Check(category.Slug != "", "name", "must contain at least one letter or digit")
	v.Check(category.ImagePath != "", "image", "image file is required")
}

type CategoryModel struct {
	DB *gorm.DB
}

// ====================================================================================
// Backoffice Functions
// ====================================================================================

// GetAll lists categories newest first.
func (m CategoryModel) GetAll() ([]*Category, error) {
	var categories []*Category

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.WithContext(ctx).Order("id DESC").Find(&categories).Error
	if err != nil {
		return nil, err
	}

	return categories, nil
}

func (m CategoryModel) Get(id int64) (*Category, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	var category *Category

	err := m.DB.First(&category, id).Error
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return category, nil
}

func (m CategoryModel) Insert(category *Category) error {
	err := m.DB.Create(category).Error
	if err != nil {
		switch {
		case isUniqueViolation(err, "categories_slug_key"):
			return ErrDuplicateSlug
		default:
			return err
		}
	}

	return nil
}

func (m CategoryModel) Update(category *Category) error {
	err := m.DB.Save(category).Error
	if err != nil {
		switch {
		case isUniqueViolation(err, "categories_slug_key"):
			return ErrDuplicateSlug
		default:
			return err
		}
	}

	return nil
}

// Delete removes the category. Its subcategories and products go with it
// through ON DELETE CASCADE.
func (m CategoryModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	result := m.DB.Delete(&Category{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}
