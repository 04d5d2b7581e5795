package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hilook/storefront-api/internal/validator"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var ErrUnknownProduct = errors.New("unknown product")

type Order struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	BatchID   uuid.UUID       `json:"batch_id" db:"batch_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// OrderLine is an order row joined with its user and product for listings.
type OrderLine struct {
	Order
	UserName     string `json:"user_name" db:"user_name"`
	IsWholesaler bool   `json:"is_wholesaler" db:"is_wholesaler"`
	ProductName  string `json:"product_name" db:"product_name"`
	ProductImage string `json:"product_image" db:"product_image"`
}

// OrderBatch is one submission: every line created under the same batch id.
type OrderBatch struct {
	BatchID       uuid.UUID       `json:"batch_id"`
	CreatedAt     time.Time       `json:"created_at"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Items         []*OrderLine    `json:"items"`
}

type OrderFilter struct {
	UserID         int64
	StartDate      string
	EndDate        string
	WholesalerOnly bool
	Export         bool
}

func ValidateOrders(v *validator.Validator, orders []*Order) {
	v.Check(len(orders) > 0, "orders", "must be a non-empty array")
	v.Check(len(orders) <= 200, "orders", "must not contain more than 200 items")

	for i, o := range orders {
		key := fmt.Sprintf("orders[%d]", i)
		v.Check(o.ProductID > 0, key+".product_id", "must be provided")
		v.Check(o.Quantity > 0, key+".quantity", "must be greater than zero")
		v.Check(o.Price.IsPositive(), key+".price", "must be greater than zero")
	}
}

func ValidateOrderFilter(v *validator.Validator, f OrderFilter) {
	v.Check(f.StartDate == "" || validator.Matches(f.StartDate, validator.DateRX), "start_date", "must be formatted as YYYY-MM-DD")
	v.Check(f.EndDate == "" || validator.Matches(f.EndDate, validator.DateRX), "end_date", "must be formatted as YYYY-MM-DD")
}

type OrderModel struct {
	DB *sqlx.DB
}

// ====================================================================================
// Business Functions
// ====================================================================================

// InsertBatch stores every order for userID under one new batch id.
func (m OrderModel) InsertBatch(ctx context.Context, userID int64, orders []*Order) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := m.DB.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	batchID := uuid.New()

	query := `
		INSERT INTO orders (user_id, product_id, quantity, price, batch_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	for _, o := range orders {
		o.UserID = userID
		o.BatchID = batchID

		err := tx.QueryRowxContext(ctx, query, o.UserID, o.ProductID, o.Quantity, o.Price, o.BatchID).Scan(&o.ID, &o.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return uuid.Nil, fmt.Errorf("%w: %d", ErrUnknownProduct, o.ProductID)
			}
			return uuid.Nil, fmt.Errorf("insert order for product %d: %w", o.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}

	return batchID, nil
}

// GetHistory returns the user's orders grouped by batch, newest batch first.
func (m OrderModel) GetHistory(ctx context.Context, userID int64) ([]*OrderBatch, error) {
	query := `
		SELECT o.id, o.user_id, COALESCE(o.product_id, 0) AS product_id, o.quantity, o.price, o.batch_id, o.created_at,
			COALESCE(u.name, '') AS user_name, COALESCE(u.is_wholesaler, false) AS is_wholesaler,
			COALESCE(p.name, '') AS product_name, COALESCE(p.thumb_image_path, '') AS product_image
		FROM orders o
		LEFT JOIN users u ON o.user_id = u.id
		LEFT JOIN products p ON o.product_id = p.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	lines := []*OrderLine{}

	err := m.DB.SelectContext(ctx, &lines, query, userID)
	if err != nil {
		return nil, err
	}

	return groupByBatch(lines), nil
}

// ====================================================================================
// Backoffice Functions
// ====================================================================================

// GetAll pages through orders a whole batch at a time. With f.Export set every
// matching line is returned on a single page.
func (m OrderModel) GetAll(ctx context.Context, f OrderFilter, p Pagination) ([]*OrderLine, Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where, args := orderWhereClause(f)

	selectLines := `
		SELECT o.id, o.user_id, COALESCE(o.product_id, 0) AS product_id, o.quantity, o.price, o.batch_id, o.created_at,
			COALESCE(u.name, '') AS user_name, COALESCE(u.is_wholesaler, false) AS is_wholesaler,
			COALESCE(p.name, '') AS product_name, COALESCE(p.thumb_image_path, '') AS product_image
		FROM orders o
		LEFT JOIN users u ON o.user_id = u.id
		LEFT JOIN products p ON o.product_id = p.id`

	lines := []*OrderLine{}

	if f.Export {
		err := m.DB.SelectContext(ctx, &lines, selectLines+where+` ORDER BY o.created_at DESC, o.id DESC`, args...)
		if err != nil {
			return nil, Metadata{}, err
		}

		batches := make(map[uuid.UUID]struct{})
		for _, l := range lines {
			batches[l.BatchID] = struct{}{}
		}

		return lines, Metadata{CurrentPage: 1, PageSize: p.PageSize, FirstPage: 1, LastPage: 1, TotalRecords: len(batches)}, nil
	}

	var totalBatches int

	countQuery := `SELECT COUNT(DISTINCT o.batch_id) FROM orders o LEFT JOIN users u ON o.user_id = u.id` + where

	err := m.DB.GetContext(ctx, &totalBatches, countQuery, args...)
	if err != nil {
		return nil, Metadata{}, err
	}

	if totalBatches == 0 {
		return lines, Metadata{}, nil
	}

	n := len(args)
	batchQuery := fmt.Sprintf(`
		SELECT o.batch_id
		FROM orders o
		LEFT JOIN users u ON o.user_id = u.id%s
		GROUP BY o.batch_id
		ORDER BY MAX(o.created_at) DESC
		LIMIT $%d OFFSET $%d`, where, n+1, n+2)

	var batchIDs []string

	err = m.DB.SelectContext(ctx, &batchIDs, batchQuery, append(args, p.PageSize, (p.Page-1)*p.PageSize)...)
	if err != nil {
		return nil, Metadata{}, err
	}

	metadata := calculateMetadata(totalBatches, p.Page, p.PageSize)

	if len(batchIDs) == 0 {
		return lines, metadata, nil
	}

	err = m.DB.SelectContext(ctx, &lines, selectLines+` WHERE o.batch_id = ANY($1::uuid[]) ORDER BY o.batch_id, o.created_at DESC, o.id DESC`, pq.Array(batchIDs))
	if err != nil {
		return nil, Metadata{}, err
	}

	return lines, metadata, nil
}

func orderWhereClause(f OrderFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	if f.UserID > 0 {
		args = append(args, f.UserID)
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", len(args)))
	}

	if f.WholesalerOnly {
		conditions = append(conditions, "u.is_wholesaler = true")
	}

	if f.StartDate != "" {
		args = append(args, f.StartDate)
		conditions = append(conditions, fmt.Sprintf("o.created_at::date >= $%d", len(args)))
	}

	if f.EndDate != "" {
		args = append(args, f.EndDate)
		conditions = append(conditions, fmt.Sprintf("o.created_at::date <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// groupByBatch keeps the order in which batches first appear in lines.
func groupByBatch(lines []*OrderLine) []*OrderBatch {
	batches := []*OrderBatch{}
	index := make(map[uuid.UUID]*OrderBatch)

	for _, l := range lines {
		b, ok := index[l.BatchID]
		if !ok {
			b = &OrderBatch{BatchID: l.BatchID, CreatedAt: l.CreatedAt, TotalPrice: decimal.Zero}
			index[l.BatchID] = b
			batches = append(batches, b)
		}

		if l.CreatedAt.After(b.CreatedAt) {
			b.CreatedAt = l.CreatedAt
		}

		b.Items = append(b.Items, l)
		b.TotalQuantity += l.Quantity
		b.TotalPrice = b.TotalPrice.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	return batches
}
