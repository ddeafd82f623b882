package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"reservation-service/config"
	"reservation-service/internal/alert"
	"reservation-service/internal/repository"
	"reservation-service/internal/service"
	"reservation-service/internal/sweeper"
	"reservation-service/pkg/database"
	"reservation-service/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

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

	repos := repository.New(db)

	var alerts service.OversoldAlerter
	if cfg.Kafka.Enabled {
		producer := alert.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		alerts = producer
		log.Info("oversold alerts enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	svc := service.NewStockService(repos, alerts, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := sweeper.NewScheduler(svc, cfg.Sweep.Interval, log)
	sched.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down reservation service...")
	sched.Stop()
	log.Info("reservation service stopped gracefully")
}
