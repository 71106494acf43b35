package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paddygate/paddygate/internal/database"
	"github.com/paddygate/paddygate/internal/models"
)

const millColumns = `m.id, m.name, m.owner_id, m.location, m.contact_info, m.specializations, m.verification_status, m.created_at, m.updated_at`

type MillRepository struct {
	pool *pgxpool.Pool
}

func NewMillRepository(db *database.DB) *MillRepository {
	return &MillRepository{pool: db.Pool}
}

func scanMillRow(scanner rowScanner, extra ...any) (*models.Mill, error) {
	var mill models.Mill
	var specializations []string

	dest := []any{
		&mill.ID, &mill.Name, &mill.OwnerID, &mill.Location, &mill.ContactInfo,
		&specializations, &mill.VerificationStatus, &mill.CreatedAt, &mill.UpdatedAt,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, database.MapPostgresError(err)
	}

	mill.Specializations = make([]models.RiceVariety, len(specializations))
	for i, s := range specializations {
		mill.Specializations[i] = models.RiceVariety(s)
	}
	return &mill, nil
}

func scanMillRows(rows pgx.Rows) ([]*models.Mill, error) {
	defer rows.Close()

	mills := make([]*models.Mill, 0)
	for rows.Next() {
		mill, err := scanMillRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mill: %w", err)
		}
		mills = append(mills, mill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return mills, nil
}

func (r *MillRepository) Create(ctx context.Context, mill *models.Mill) (*models.Mill, error) {
	if mill.ID == "" {
		mill.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	mill.CreatedAt = now
	mill.UpdatedAt = now
	if mill.VerificationStatus == "" {
		mill.VerificationStatus = models.VerificationPending
	}

	query := `
		INSERT INTO mills AS m (id, name, owner_id, location, contact_info, specializations, verification_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + millColumns

	return scanMillRow(r.pool.QueryRow(ctx, query,
		mill.ID, mill.Name, mill.OwnerID, mill.Location, mill.ContactInfo,
		varietiesToStrings(mill.Specializations), mill.VerificationStatus,
		mill.CreatedAt, mill.UpdatedAt,
	))
}

func (r *MillRepository) GetByID(ctx context.Context, id string) (*models.Mill, error) {
	if !validID(id) {
		return nil, models.ErrNotFound
	}
	query := `SELECT ` + millColumns + ` FROM mills m WHERE m.id = $1`
	return scanMillRow(r.pool.QueryRow(ctx, query, id))
}

// Update persists the owner-editable fields of mill.
func (r *MillRepository) Update(ctx context.Context, mill *models.Mill) (*models.Mill, error) {
	if !validID(mill.ID) {
		return nil, models.ErrNotFound
	}
	query := `
		UPDATE mills AS m SET name = $1, location = $2, contact_info = $3, specializations = $4, updated_at = $5
		WHERE m.id = $6
		RETURNING ` + millColumns

	return scanMillRow(r.pool.QueryRow(ctx, query,
		mill.Name, mill.Location, mill.ContactInfo, varietiesToStrings(mill.Specializations),
		time.Now().UTC(), mill.ID,
	))
}

func (r *MillRepository) UpdateVerification(ctx context.Context, id string, status models.VerificationStatus) (*models.Mill, error) {
	if !validID(id) {
		return nil, models.ErrNotFound
	}
	query := `
		UPDATE mills AS m SET verification_status = $1, updated_at = $2
		WHERE m.id = $3
		RETURNING ` + millColumns

	return scanMillRow(r.pool.QueryRow(ctx, query, status, time.Now().UTC(), id))
}

// List returns mills matching every non-empty field of filter, newest first.
func (r *MillRepository) List(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error) {
	where, args := millWhere(filter)
	query := `SELECT ` + millColumns + ` FROM mills m` + where + ` ORDER BY m.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mills: %w", err)
	}
	return scanMillRows(rows)
}

// ListWithOwners is List with the owner's username and email attached.
func (r *MillRepository) ListWithOwners(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error) {
	where, args := millWhere(filter)
	query := `
		SELECT ` + millColumns + `, u.id, u.username, u.email
		FROM mills m JOIN users u ON u.id = m.owner_id` + where + `
		ORDER BY m.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mills: %w", err)
	}
	defer rows.Close()

	mills := make([]*models.Mill, 0)
	for rows.Next() {
		var owner models.UserSummary
		mill, err := scanMillRow(rows, &owner.ID, &owner.Username, &owner.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mill: %w", err)
		}
		mill.Owner = &owner
		mills = append(mills, mill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return mills, nil
}

func millWhere(filter models.MillFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.OwnerID != "" {
		add("m.owner_id = $%d", filter.OwnerID)
	}
	if filter.District != "" {
		add("m.location->>'district' = $%d", filter.District)
	}
	if filter.Specialization != "" {
		add("$%d = ANY(m.specializations)", string(filter.Specialization))
	}
	if filter.Status != "" {
		add("m.verification_status = $%d", filter.Status)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
