// Package testutil starts throwaway infrastructure for integration tests.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/paddygate/paddygate/internal/database"
	"github.com/paddygate/paddygate/internal/models"
	"github.com/paddygate/paddygate/pkg/auth"
)

// TestDB manages a PostgreSQL testcontainer with the schema applied
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	DB         *database.DB
}

// SetupTestDatabase starts postgres:16-alpine and runs every migration.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("paddygate"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := database.New(pool, slog.New(slog.DiscardHandler))
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &TestDB{Container: container, ConnString: connStr, DB: db}, nil
}

// Teardown stops the container and closes the connection pool
func (tdb *TestDB) Teardown(ctx context.Context) error {
	if tdb.DB != nil {
		tdb.DB.Pool.Close()
	}
	if tdb.Container != nil {
		return tdb.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (tdb *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{"prices", "mills", "users"}
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = pq.QuoteIdentifier(t)
	}
	if _, err := tdb.DB.Pool.Exec(ctx, "TRUNCATE TABLE "+strings.Join(quoted, ", ")+" CASCADE"); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// SeedUser inserts a user directly, bypassing registration rules.
func (tdb *TestDB) SeedUser(ctx context.Context, username string, role models.Role, status models.AccountStatus) (*models.User, error) {
	hash, err := auth.HashPassword("password123")
	if err != nil {
		return nil, err
	}

	var user models.User
	err = tdb.DB.Pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role, profile, account_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, username, email, role, account_status`,
		username, username+"@example.com", hash, role,
		models.Profile{Name: username}, status,
	).Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.AccountStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	user.PasswordHash = hash
	return &user, nil
}

// SeedMill inserts a mill owned by ownerID in district.
func (tdb *TestDB) SeedMill(ctx context.Context, ownerID, name, district string, status models.VerificationStatus) (*models.Mill, error) {
	var mill models.Mill
	err := tdb.DB.Pool.QueryRow(ctx, `
		INSERT INTO mills (name, owner_id, location, specializations, verification_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, owner_id, verification_status`,
		name, ownerID, models.MillLocation{District: district}, []string{"Basmati"}, status,
	).Scan(&mill.ID, &mill.Name, &mill.OwnerID, &mill.VerificationStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to insert mill: %w", err)
	}
	mill.Location.District = district
	return &mill, nil
}
