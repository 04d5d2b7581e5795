package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hilook/storefront-api/internal/validator"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicatePhone = errors.New("duplicate phone")
	AnonymousUser     = &User{}
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Password     password  `json:"-"`
	IsWholesaler bool      `json:"is_wholesaler"`
	Role         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAnonymous() bool {
	return u == AnonymousUser
}

// UserType is the pricing audience the storefront reports for u.
func (u *User) UserType() string {
	switch {
	case u.IsAnonymous() || u.Role != RoleUser:
		return "guest"
	case u.IsWholesaler:
		return "wholesale"
	default:
		return "authenticated_regular"
	}
}

type password struct {
	plaintext *string
	hash      []byte
}

func (p *password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), 12)
	if err != nil {
		return err
	}

	p.plaintext = &plaintextPassword
	p.hash = hash

	return nil
}

func (p *password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintextPassword))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}

func ValidatePhone(v *validator.Validator, phone string) {
	v.Check(phone != "", "phone", "must be provided")
	v.Check(validator.Matches(phone, validator.PhoneRX), "phone", "must be a valid phone number")
}

func ValidatePasswordPlaintext(v *validator.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) >= 6, "password", "must be at least 6 characters long")
	v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}

func ValidateName(v *validator.Validator, name string) {
	v.Check(name != "", "name", "must be provided")
	v.Check(len(name) <= 255, "name", "must not be more than 255 bytes long")
}

func ValidateUser(v *validator.Validator, user *User) {
	ValidateName(v, user.Name)
	ValidatePhone(v, user.Phone)

	if user.Password.plaintext != nil {
		ValidatePasswordPlaintext(v, *user.Password.plaintext)
	}

	if user.Password.hash == nil {
		panic("missing password hash for user")
	}
}

type UserModel struct {
	DB *sqlx.DB
}

// ====================================================================================
// Backoffice Functions
// ====================================================================================

func (m UserModel) GetAll(search string, wholesalerOnly bool, filters Filters) ([]*User, Metadata, error) {
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), id, name, phone, is_wholesaler, created_at, updated_at
		FROM users
		WHERE (name ILIKE $1 OR phone ILIKE $1 OR $2 = '')
		AND (is_wholesaler = true OR $3 = false)
		ORDER BY %s %s, id ASC
		LIMIT $4 OFFSET $5`, filters.sortColumn(), filters.sortDirection())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	search = strings.TrimSpace(search)
	args := []interface{}{"%" + search + "%", search, wholesalerOnly, filters.limit(), filters.offset()}

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Metadata{}, err
	}

	defer rows.Close()

	totalRecords := 0
	users := []*User{}

	for rows.Next() {
		var user User

		err := rows.Scan(
			&totalRecords,
			&user.ID,
			&user.Name,
			&user.Phone,
			&user.IsWholesaler,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, Metadata{}, err
		}

		users = append(users, &user)
	}

	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	metadata := calculateMetadata(totalRecords, filters.Page, filters.PageSize)

	return users, metadata, nil
}

func (m UserModel) Insert(user *User) error {
	query := `
		INSERT INTO users (name, phone, password_hash, is_wholesaler)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	args := []interface{}{user.Name, user.Phone, user.Password.hash, user.IsWholesaler}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_phone_key"):
			return ErrDuplicatePhone
		default:
			return err
		}
	}

	return nil
}

func (m UserModel) Get(id int64) (*User, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT id, name, phone, password_hash, is_wholesaler, created_at, updated_at
		FROM users
		WHERE id = $1`

	return m.getOne(query, id)
}

func (m UserModel) GetByPhone(phone string) (*User, error) {
	query := `
		SELECT id, name, phone, password_hash, is_wholesaler, created_at, updated_at
		FROM users
		WHERE phone = $1`

	return m.getOne(query, phone)
}

func (m UserModel) getOne(query string, arg interface{}) (*User, error) {
	var user User

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Phone,
		&user.Password.hash,
		&user.IsWholesaler,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	user.Role = RoleUser

	return &user, nil
}

func (m UserModel) Update(user *User) error {
	query := `
		UPDATE users
		SET name = $1, phone = $2, password_hash = $3, is_wholesaler = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	args := []interface{}{user.Name, user.Phone, user.Password.hash, user.IsWholesaler, user.ID}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&user.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_phone_key"):
			return ErrDuplicatePhone
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return err
		}
	}

	return nil
}

func (m UserModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	query := `
		DELETE FROM users
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}
