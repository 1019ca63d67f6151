// One-shot seeding of default tariffs and an admin account.
package main

import (
	"context"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"jolaman/config"
	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName+"-seed", cfg.LoggerLevel)

	ctx := context.Background()
	pgStore, err := postgres.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pgStore.Close()

	tariffs := []*models.Tariff{
		{
			Name:         "Standard",
			Category:     "economy",
			BasePrice:    decimal.NewFromInt(60),
			PricePerKm:   decimal.NewFromInt(12),
			PricePerMin:  decimal.NewFromInt(3),
			WaitingPrice: decimal.NewFromInt(2),
			IsActive:     true,
		},
		{
			Name:         "Comfort",
			Category:     "comfort",
			BasePrice:    decimal.NewFromInt(90),
			PricePerKm:   decimal.NewFromInt(16),
			PricePerMin:  decimal.NewFromInt(4),
			WaitingPrice: decimal.NewFromInt(3),
			IsActive:     true,
		},
	}
	for _, t := range tariffs {
		if _, err := pgStore.Tariff().Create(ctx, t); err != nil {
			log.Error("failed to seed tariff", logger.String("name", t.Name), logger.Error(err))
			os.Exit(1)
		}
		log.Info("tariff seeded", logger.String("name", t.Name), logger.Int64("id", t.ID))
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash admin password", logger.Error(err))
		os.Exit(1)
	}

	admin := &models.User{
		Phone:        "+10000000000",
		FullName:     "Administrator",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Status:       "active",
	}
	if _, err := pgStore.User().Create(ctx, admin); err != nil {
		log.Error("failed to seed admin user", logger.Error(err))
		os.Exit(1)
	}
	log.Info("admin user seeded", logger.Int64("id", admin.ID))
}
