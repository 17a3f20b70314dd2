// cmd/seeder/main.go
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/config"
	"github.com/unclebandit/voicecampaign-backend/internal/db"
	"github.com/unclebandit/voicecampaign-backend/internal/logger"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
	"github.com/unclebandit/voicecampaign-backend/internal/seed"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	if cfg.DatabaseURL == "" {
		zl.Error("DATABASE_URL (or DB_HOST/DB_USER/...) must be set to seed postgres")
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("connect", zap.Error(err))
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}

	if _, err := seed.LoadContacts(ctx, &repository.ContactRepository{DB: conn}, zl); err != nil {
		zl.Fatal("seed contacts", zap.Error(err))
	}
	res, err := seed.Load(ctx, repository.NewPostgresStore(conn), zl)
	if err != nil {
		zl.Fatal("seed", zap.Error(err))
	}
	if res.Skipped {
		zl.Info("database already seeded")
		return
	}
	zl.Info("Database seeding completed successfully!",
		zap.Int("user_id", res.UserID),
		zap.Int("campaigns", res.Campaigns),
		zap.Int("call_records", res.CallRecords),
	)
}
