package data

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hilook/storefront-api/internal/validator"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Phone struct {
	ID          int64     `json:"id"`
	Label       string    `json:"label"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

func ValidatePhoneEntry(v *validator.Validator, phone *Phone) {
	v.Check(phone.PhoneNumber != "", "phone_number", "must be provided")
	v.Check(len(phone.PhoneNumber) <= 50, "phone_number", "must not be more than 50 bytes long")
}

type Map struct {
	ID        int64     `json:"id"`
	Location  string    `json:"location"`
	Google    string    `json:"google"`
	Yandex    string    `json:"yandex"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func ValidateMap(v *validator.Validator, m *Map) {
	v.Check(m.Location != "", "location", "must be provided")
	v.Check(m.Google != "" || m.Yandex != "", "google", "either google or yandex link must be provided")
}

// About is the free-form part of the site info, stored as one jsonb document.
type About struct {
	Socials     map[string]string `json:"socials"`
	Description string            `json:"description"`
}

func (a About) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *About) Scan(src interface{}) error {
	var raw []byte

	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*a = About{}
		return nil
	default:
		return fmt.Errorf("unsupported type %T for about", src)
	}

	return json.Unmarshal(raw, a)
}

type siteInfo struct {
	ID        int64 `gorm:"primaryKey"`
	Data      About `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (siteInfo) TableName() string {
	return "info"
}

// Info is everything the contact screen shows.
type Info struct {
	Phones      []*Phone          `json:"phones"`
	Maps        []*Map            `json:"maps"`
	Socials     map[string]string `json:"socials"`
	Description string            `json:"description"`
}

type InfoModel struct {
	DB *gorm.DB
}

func (m InfoModel) Get() (*Info, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	info := &Info{Phones: []*Phone{}, Maps: []*Map{}, Socials: map[string]string{}}

	if err := m.DB.WithContext(ctx).Order("id ASC").Find(&info.Phones).Error; err != nil {
		return nil, err
	}

	if err := m.DB.WithContext(ctx).Order("id ASC").Find(&info.Maps).Error; err != nil {
		return nil, err
	}

	var doc siteInfo

	err := m.DB.WithContext(ctx).First(&doc, 1).Error
	switch {
	case err == nil:
		if doc.Data.Socials != nil {
			info.Socials = doc.Data.Socials
		}
		info.Description = doc.Data.Description
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return info, nil
}

// SaveAbout upserts the socials and description document.
func (m InfoModel) SaveAbout(about About) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	doc := siteInfo{ID: 1, Data: about}

	return m.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&doc).Error
}

// ====================================================================================
// Phones
// ====================================================================================

func (m InfoModel) GetPhones() ([]*Phone, error) {
	var phones []*Phone

	err := m.DB.Order("id ASC").Find(&phones).Error
	if err != nil {
		return nil, err
	}

	return phones, nil
}

func (m InfoModel) InsertPhone(phone *Phone) error {
	return m.DB.Create(phone).Error
}

func (m InfoModel) UpdatePhone(phone *Phone) error {
	result := m.DB.Model(phone).Select("label", "phone_number", "updated_at").Updates(phone)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m InfoModel) DeletePhone(id int64) error {
	return deleteByID(m.DB, &Phone{}, id)
}

// ====================================================================================
// Maps
// ====================================================================================

func (m InfoModel) GetMaps() ([]*Map, error) {
	var maps []*Map

	err := m.DB.Order("id ASC").Find(&maps).Error
	if err != nil {
		return nil, err
	}

	return maps, nil
}

func (m InfoModel) InsertMap(mp *Map) error {
	return m.DB.Create(mp).Error
}

func (m InfoModel) UpdateMap(mp *Map) error {
	result := m.DB.Model(mp).Select("location", "google", "yandex", "updated_at").Updates(mp)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m InfoModel) DeleteMap(id int64) error {
	return deleteByID(m.DB, &Map{}, id)
}

func deleteByID(db *gorm.DB, model interface{}, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	result := db.Delete(model, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}
