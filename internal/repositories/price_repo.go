package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paddygate/paddygate/internal/database"
	"github.com/paddygate/paddygate/internal/models"
)

const priceColumns = `p.id, p.mill_id, p.rice_variety, p.price_per_kg, p.update_timestamp, p.historical_prices, p.district`

type PriceRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewPriceRepository(db *database.DB) *PriceRepository {
	return &PriceRepository{db: db, pool: db.Pool}
}

func scanPriceRow(scanner rowScanner, extra ...any) (*models.Price, error) {
	var price models.Price
	dest := []any{
		&price.ID, &price.MillID, &price.RiceVariety, &price.PricePerKg,
		&price.UpdateTimestamp, &price.HistoricalPrices, &price.District,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, database.MapPostgresError(err)
	}
	if price.HistoricalPrices == nil {
		price.HistoricalPrices = []models.PricePoint{}
	}
	return &price, nil
}

// List returns prices matching filter, each with its mill summary attached.
func (r *PriceRepository) List(ctx context.Context, filter models.PriceFilter) ([]*models.Price, error) {
	var conds []string
	var args []any
	if filter.District != "" {
		args = append(args, filter.District)
		conds = append(conds, fmt.Sprintf("p.district = $%d", len(args)))
	}
	if filter.RiceVariety != "" {
		args = append(args, filter.RiceVariety)
		conds = append(conds, fmt.Sprintf("p.rice_variety = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	query := `
		SELECT ` + priceColumns + `, m.id, m.name, m.location, m.contact_info
		FROM prices p JOIN mills m ON m.id = p.mill_id` + where + `
		ORDER BY p.update_timestamp DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	prices := make([]*models.Price, 0)
	for rows.Next() {
		var mill models.MillSummary
		price, err := scanPriceRow(rows, &mill.ID, &mill.Name, &mill.Location, &mill.ContactInfo)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		price.Mill = &mill
		prices = append(prices, price)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return prices, nil
}

func (r *PriceRepository) GetByMillAndVariety(ctx context.Context, millID string, variety models.RiceVariety) (*models.Price, error) {
	if !validID(millID) {
		return nil, models.ErrNotFound
	}
	query := `SELECT ` + priceColumns + ` FROM prices p WHERE p.mill_id = $1 AND p.rice_variety = $2`
	return scanPriceRow(r.pool.QueryRow(ctx, query, millID, variety))
}

// Save serialises writers on (millID, variety) with a transaction-scoped advisory
// lock, hands the current row (nil when absent) to mutate, and persists the
// result. mutate must not retain current beyond the call.
func (r *PriceRepository) Save(
	ctx context.Context,
	millID string,
	variety models.RiceVariety,
	mutate func(current *models.Price) (*models.Price, error),
) (*models.Price, error) {
	if !validID(millID) {
		return nil, models.ErrNotFound
	}

	var saved *models.Price
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))`,
			millID, string(variety),
		); err != nil {
			return fmt.Errorf("failed to lock price row: %w", err)
		}

		query := `SELECT ` + priceColumns + ` FROM prices p WHERE p.mill_id = $1 AND p.rice_variety = $2`
		current, err := scanPriceRow(tx.QueryRow(ctx, query, millID, variety))
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		exists := err == nil
		if !exists {
			current = nil
		}

		next, err := mutate(current)
		if err != nil {
			return err
		}

		if exists {
			saved, err = scanPriceRow(tx.QueryRow(ctx, `
				UPDATE prices AS p SET price_per_kg = $1, update_timestamp = $2, historical_prices = $3
				WHERE p.id = $4
				RETURNING `+priceColumns,
				next.PricePerKg, next.UpdateTimestamp, next.HistoricalPrices, next.ID,
			))
			return err
		}

		if next.ID == "" {
			next.ID = uuid.New().String()
		}
		if next.HistoricalPrices == nil {
			next.HistoricalPrices = []models.PricePoint{}
		}
		saved, err = scanPriceRow(tx.QueryRow(ctx, `
			INSERT INTO prices AS p (id, mill_id, rice_variety, price_per_kg, update_timestamp, historical_prices, district)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+priceColumns,
			next.ID, millID, variety, next.PricePerKg, next.UpdateTimestamp, next.HistoricalPrices, next.District,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
