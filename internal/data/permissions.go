package data

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Permission holds the site-wide switches for self registration and for the
// two kinds of order submission. The table holds a single row.
type Permission struct {
	ID                int64     `json:"id"`
	IsRegister        bool      `json:"is_register"`
	IsUsualOrder      bool      `json:"is_usual_order"`
	IsWholesalerOrder bool      `json:"is_wholesaler_order"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CanOrder reports whether a buyer of the given kind may submit orders.
func (p *Permission) CanOrder(wholesaler bool) bool {
	if wholesaler {
		return p.IsWholesalerOrder
	}
	return p.IsUsualOrder
}

// PermissionUpdate is a partial change; nil fields are left as they are.
type PermissionUpdate struct {
	IsRegister        *bool `json:"is_register"`
	IsUsualOrder      *bool `json:"is_usual_order"`
	IsWholesalerOrder *bool `json:"is_wholesaler_order"`
}

func (u PermissionUpdate) Empty() bool {
	return u.IsRegister == nil && u.IsUsualOrder == nil && u.IsWholesalerOrder == nil
}

type PermissionModel struct {
	DB *gorm.DB
}

// Get returns the permission row, creating the all-enabled default on first use.
func (m PermissionModel) Get() (*Permission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var permission Permission

	err := m.DB.WithContext(ctx).Order("id ASC").First(&permission).Error
	if err == nil {
		return &permission, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	permission = Permission{IsRegister: true, IsUsualOrder: true, IsWholesalerOrder: true}

	err = m.DB.WithContext(ctx).Create(&permission).Error
	if err != nil {
		return nil, err
	}

	return &permission, nil
}

func (m PermissionModel) Update(u PermissionUpdate) (*Permission, error) {
	permission, err := m.Get()
	if err != nil {
		return nil, err
	}

	if u.IsRegister != nil {
		permission.IsRegister = *u.IsRegister
	}
	if u.IsUsualOrder != nil {
		permission.IsUsualOrder = *u.IsUsualOrder
	}
	if u.IsWholesalerOrder != nil {
		permission.IsWholesalerOrder = *u.IsWholesalerOrder
	}

	err = m.DB.Save(permission).Error
	if err != nil {
		return nil, err
	}

	return permission, nil
}
