package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Lookup is one resolved landed-cost estimate.
type Lookup struct {
	ID           uuid.UUID `json:"id" db:"id"`
	URL          string    `json:"url" db:"url"`
	Marketplace  string    `json:"marketplace" db:"marketplace"`
	ProductID    string    `json:"productId" db:"product_id"`
	Title        string    `json:"title" db:"title"`
	PriceINR     float64   `json:"priceInr" db:"price_inr"`
	ExchangeRate float64   `json:"exchangeRate" db:"exchange_rate"`
	TotalNPR     float64   `json:"totalNpr" db:"total_npr"`
	Estimated    bool      `json:"estimated" db:"estimated"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type LookupRepository struct {
	db *DB
}

func NewLookupRepository(db *DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// Record inserts a lookup, assigning an ID and timestamp when they are unset.
func (r *LookupRepository) Record(ctx context.Context, l *Lookup) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO lookups (
			id, url, marketplace, product_id, title,
			price_inr, exchange_rate, total_npr, estimated, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.pool.Exec(ctx, query,
		l.ID, l.URL, l.Marketplace, l.ProductID, l.Title,
		l.PriceINR, l.ExchangeRate, l.TotalNPR, l.Estimated, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lookup: %w", err)
	}
	return nil
}

// Recent returns the newest lookups first.
func (r *LookupRepository) Recent(ctx context.Context, limit int) ([]Lookup, error) {
	query := `
		SELECT id, url, marketplace, product_id, title,
			price_inr::float8, exchange_rate::float8, total_npr::float8,
			estimated, created_at
		FROM lookups
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.pool.Query(ctx, query, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}

	lookups, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[Lookup])
	if err != nil {
		return nil, fmt.Errorf("failed to scan lookups: %w", err)
	}
	return lookups, nil
}

// ClampLimit maps a requested page size into [1, MaxHistoryLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
