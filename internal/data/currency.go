package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hilook/storefront-api/internal/validator"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Currency is the USD to UZS conversion rate. The table holds one row, id 1.
type Currency struct {
	Rate      decimal.Decimal `json:"rate" db:"rate"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

func ValidateCurrency(v *validator.Validator, c *Currency) {
	v.Check(!c.Rate.IsNegative(), "rate", "must be a non-negative number")
	v.Check(c.Rate.LessThan(decimal.New(1, 12)), "rate", "must be less than 10^12")
}

type CurrencyModel struct {
	DB *sqlx.DB
}

// Get returns the stored rate, or a zero rate when none has been set.
func (m CurrencyModel) Get() (*Currency, error) {
	query := `
		SELECT rate, updated_at
		FROM currency
		WHERE id = 1`

	var currency Currency

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.DB.GetContext(ctx, &currency, query)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return &Currency{Rate: decimal.Zero}, nil
		default:
			return nil, err
		}
	}

	return &currency, nil
}

func (m CurrencyModel) Set(currency *Currency) error {
	query := `
		INSERT INTO currency (id, rate)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET rate = EXCLUDED.rate, updated_at = NOW()
		RETURNING updated_at`

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return m.DB.QueryRowContext(ctx, query, currency.Rate).Scan(&currency.UpdatedAt)
}
