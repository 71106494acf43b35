// Command seed loads sample users, a verified mill and prices into the
// database. Run with -d to remove all marketplace data instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/paddygate/paddygate/internal/config"
	"github.com/paddygate/paddygate/internal/database"
	"github.com/paddygate/paddygate/internal/models"
	"github.com/paddygate/paddygate/internal/repositories"
	pkgauth "github.com/paddygate/paddygate/pkg/auth"
	pkglogger "github.com/paddygate/paddygate/pkg/logger"
)

const samplePassword = "password123"

var sampleUsers = []models.User{
	{
		Username: "admin",
		Email:    "admin@paddygate.com",
		Role:     models.RoleAdmin,
		Profile: models.Profile{
			Name:     "Admin User",
			Contact:  models.ProfileContact{Phone: "1234567890"},
			Location: models.ProfileLocation{District: "Colombo"},
		},
	},
	{
		Username: "miller1",
		Email:    "miller1@paddygate.com",
		Role:     models.RoleMiller,
		Profile: models.Profile{
			Name:     "Mill Owner 1",
			Contact:  models.ProfileContact{Phone: "1234567891"},
			Location: models.ProfileLocation{District: "Kandy"},
		},
	},
	{
		Username: "farmer1",
		Email:    "farmer1@paddygate.com",
		Role:     models.RoleFarmer,
		Profile: models.Profile{
			Name:     "Farmer 1",
			Contact:  models.ProfileContact{Phone: "1234567892"},
			Location: models.ProfileLocation{District: "Anuradhapura"},
		},
	},
}

func main() {
	destroy := flag.Bool("d", false, "delete all users, mills and prices")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger := pkglogger.New(os.Stdout, cfg.Server.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := destroyData(ctx, db); err != nil {
		logger.Error("failed to clear data", slog.Any("error", err))
		os.Exit(1)
	}
	if *destroy {
		logger.Info("data destroyed")
		return
	}

	if err := seed(ctx, db); err != nil {
		logger.Error("failed to import data", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("data imported", slog.Int("users", len(sampleUsers)))
}

func destroyData(ctx context.Context, db *database.DB) error {
	return db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `TRUNCATE TABLE prices, mills, users CASCADE`)
		return err
	})
}

func seed(ctx context.Context, db *database.DB) error {
	users := repositories.NewUserRepository(db)
	mills := repositories.NewMillRepository(db)
	prices := repositories.NewPriceRepository(db)

	hash, err := pkgauth.HashPassword(samplePassword)
	if err != nil {
		return fmt.Errorf("hash sample password: %w", err)
	}

	created := make(map[models.Role]*models.User, len(sampleUsers))
	for _, u := range sampleUsers {
		u.PasswordHash = hash
		u.AccountStatus = models.AccountActive
		saved, err := users.Create(ctx, &u)
		if err != nil {
			return fmt.Errorf("create user %s: %w", u.Username, err)
		}
		created[saved.Role] = saved
	}

	mill, err := mills.Create(ctx, &models.Mill{
		Name:    "Golden Rice Mill",
		OwnerID: created[models.RoleMiller].ID,
		Location: models.MillLocation{
			District: "Kandy",
			Address:  "123 Mill Road, Kandy",
		},
		ContactInfo:        models.ContactInfo{Phone: "1234567891", Email: "golden@mill.com"},
		Specializations:    []models.RiceVariety{models.VarietyBasmati, models.VarietyWhiteRice},
		VerificationStatus: models.VerificationVerified,
	})
	if err != nil {
		return fmt.Errorf("create mill: %w", err)
	}

	now := time.Now().UTC()
	daysAgo := func(d int) time.Time { return now.Add(-time.Duration(d) * 24 * time.Hour) }
	samplePrices := []models.Price{
		{
			RiceVariety: models.VarietyBasmati,
			PricePerKg:  120,
			HistoricalPrices: []models.PricePoint{
				{Price: 115, Timestamp: daysAgo(7)},
				{Price: 118, Timestamp: daysAgo(3)},
			},
		},
		{
			RiceVariety: models.VarietyWhiteRice,
			PricePerKg:  95,
			HistoricalPrices: []models.PricePoint{
				{Price: 90, Timestamp: daysAgo(10)},
				{Price: 92, Timestamp: daysAgo(5)},
			},
		},
	}
	for _, p := range samplePrices {
		p.MillID = mill.ID
		p.District = mill.Location.District
		p.UpdateTimestamp = now
		if _, err := prices.Save(ctx, mill.ID, p.RiceVariety, func(*models.Price) (*models.Price, error) {
			return &p, nil
		}); err != nil {
			return fmt.Errorf("create %s price: %w", p.RiceVariety, err)
		}
	}
	return nil
}
