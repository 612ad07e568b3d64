package storage

import (
	"context"
	"database/sql"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/guttosm/lookthrough/internal/domain/models"
)

// HoldingsRepository reads user holdings from the application database.
// The schema is owned elsewhere; this adapter never writes.
type HoldingsRepository interface {
	ListHoldings(ctx context.Context, userID string) ([]models.Holding, error)
	ListHoldingsByType(ctx context.Context, userID string, types ...models.HoldingType) ([]models.Holding, error)
}

type holdingsRepository struct {
	db *sql.DB
}

func NewHoldingsRepository(db *sql.DB) HoldingsRepository {
	return &holdingsRepository{db: db}
}

const selectHoldings = `
	SELECT ticker, allocation_percent, holding_type, sector
	FROM holdings
	WHERE user_id = $1`

const orderHoldings = `
	ORDER BY allocation_percent DESC, ticker ASC`

// ListHoldings returns every holding of userID, largest allocation first.
// An unknown user yields an empty slice.
func (r *holdingsRepository) ListHoldings(ctx context.Context, userID string) ([]models.Holding, error) {
	return r.query(ctx, selectHoldings+orderHoldings, userID)
}

// ListHoldingsByType is ListHoldings restricted to the given holding types.
// With no types it behaves like ListHoldings.
func (r *holdingsRepository) ListHoldingsByType(ctx context.Context, userID string, types ...models.HoldingType) ([]models.Holding, error) {
	if len(types) == 0 {
		return r.ListHoldings(ctx, userID)
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return r.query(ctx, selectHoldings+` AND holding_type = ANY($2)`+orderHoldings, userID, pq.Array(names))
}

func (r *holdingsRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Holding, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	holdings := []models.Holding{}
	for rows.Next() {
		var (
			h      models.Holding
			kind   string
			sector sql.NullString
		)
		if err := rows.Scan(&h.Ticker, &h.AllocationPercent, &kind, &sector); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		h.Ticker = models.NormalizeTicker(h.Ticker)
		h.HoldingType = models.HoldingType(kind)
		// NULL and blank sectors both mean "not declared"
		if sector.Valid && sector.String != "" {
			s := sector.String
			h.Sector = &s
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	return holdings, nil
}
