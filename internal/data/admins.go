package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hilook/storefront-api/internal/validator"
	"github.com/jmoiron/sqlx"
)

// Admin is the single back-office account.
type Admin struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  password  `json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func ValidateAdmin(v *validator.Validator, admin *Admin) {
	v.Check(admin.Username != "", "username", "must be provided")
	v.Check(len(admin.Username) <= 255, "username", "must not be more than 255 bytes long")

	if admin.Password.plaintext != nil {
		v.Check(*admin.Password.plaintext != "", "password", "must be provided")
		v.Check(len(*admin.Password.plaintext) <= 72, "password", "must not be more than 72 bytes long")
	}
}

type AdminModel struct {
	DB *sqlx.DB
}

// Get returns the admin account, or ErrRecordNotFound before one has been saved.
func (m AdminModel) Get() (*Admin, error) {
	query := `
		SELECT id, username, password_hash, created_at, updated_at
		FROM admins
		ORDER BY id ASC
		LIMIT 1`

	var admin Admin

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query).Scan(
		&admin.ID,
		&admin.Username,
		&admin.Password.hash,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &admin, nil
}

// Save inserts the admin row when admin.ID is zero and updates it otherwise.
func (m AdminModel) Save(admin *Admin) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if admin.ID == 0 {
		query := `
			INSERT INTO admins (username, password_hash)
			VALUES ($1, $2)
			RETURNING id, created_at, updated_at`

		return m.DB.QueryRowContext(ctx, query, admin.Username, admin.Password.hash).Scan(&admin.ID, &admin.CreatedAt, &admin.UpdatedAt)
	}

	query := `
		UPDATE admins
		SET username = $1, password_hash = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at`

	err := m.DB.QueryRowContext(ctx, query, admin.Username, admin.Password.hash, admin.ID).Scan(&admin.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEditConflict
	}

	return err
}
