package config

import (
	"os"
	"strings"
	"time"

	"reservation-service/pkg/database"

	"go.uber.org/zap"
)

type Config struct {
	DB    DB
	Sweep Sweep
	Kafka Kafka
}

type DB struct {
	database.Config
}

type Sweep struct {
	Interval time.Duration
}

type Kafka struct {
	Enabled bool
	Brokers []string
	Topic   string
}

func Load(log *zap.Logger) *Config {
	cfg := &Config{
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnv("DB_SSLMODE", log),
			},
		},
		Sweep: Sweep{
			Interval: durationDefault(os.Getenv("SWEEP_INTERVAL"), time.Minute),
		},
		Kafka: Kafka{
			Enabled: os.Getenv("KAFKA_ENABLED") == "true",
		},
	}

	if cfg.Kafka.Enabled {
		cfg.Kafka.Brokers = strings.Split(getEnv("KAFKA_BROKERS", log), ",")
		cfg.Kafka.Topic = getEnv("KAFKA_ALERT_TOPIC", log)
	}

	return cfg
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("required environment variable is not set", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func durationDefault(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
