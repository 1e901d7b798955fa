package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

const envName = "STOREFRONT_ENV"

// loadDotEnv подгружает .env вне production. Отсутствие файла не ошибка.
func loadDotEnv(getenv func(string) string, load func(...string) error) error {
	if strings.EqualFold(strings.TrimSpace(getenv(envName)), "production") {
		return nil
	}
	if err := load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.SetLevel(log.InfoLevel)
		return err
	}
	log.SetLevel(parsed)
	return nil
}

func main() {
	if err := loadDotEnv(os.Getenv, godotenv.Load); err != nil {
		log.WithError(err).Warn("не удалось прочитать .env")
	}

	cfg, warnings, err := app.LoadConfig(os.LookupEnv)
	if err != nil {
		log.WithError(err).Fatal("не удалось загрузить конфигурацию")
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		log.WithError(err).Warn("неизвестный уровень логирования, используем info")
	}
	app.LogWarnings(log.WithField("component", "config"), warnings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"grpc_addr":    cfg.GRPCAddr,
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"kafka":        len(cfg.KafkaBrokers) > 0,
	}).Info("запускаем OrderItemsService")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("OrderItemsService остановлен")
}
