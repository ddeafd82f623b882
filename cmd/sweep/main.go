package main

import (
	"context"
	"os"

	"reservation-service/config"
	"reservation-service/internal/repository"
	"reservation-service/internal/service"
	"reservation-service/pkg/database"
	"reservation-service/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// One-shot sweep for cron-style scheduling; the long-running service
// binary runs the same sweep on its own ticker.
func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	svc := service.NewStockService(repository.New(db), nil, log)

	released, err := svc.ReleaseExpiredReservations(context.Background())
	if err != nil {
		log.Fatal("sweep failed", zap.Error(err))
	}
	log.Info("sweep finished", zap.Int64("released", released))
}
