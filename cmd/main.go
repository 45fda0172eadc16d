package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/droplabs/drop-service/internal/app"
	"github.com/droplabs/drop-service/internal/config"
	"github.com/droplabs/drop-service/internal/handler"
	"github.com/droplabs/drop-service/internal/postgres"
	"github.com/droplabs/drop-service/internal/repo"
	"github.com/droplabs/drop-service/internal/scheduler"
	"github.com/droplabs/drop-service/internal/service"
	"github.com/droplabs/drop-service/pkg/cache"
	"github.com/droplabs/drop-service/pkg/trm"
)

func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	dropRepo := repo.NewDropRepo(db)
	productRepo := repo.NewProductRepo(db)
	orderRepo := repo.NewOrderRepo(db)
	shipmentRepo := repo.NewShipmentRepo(db)
	txManager := trm.NewManager(db)

	catalogCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)

	dropService := service.NewDropService(logger, txManager, dropRepo, productRepo)
	orderService := service.NewOrderService(logger, txManager, orderRepo, shipmentRepo, productRepo, dropRepo)
	catalogService := service.NewCatalogService(logger, productRepo, catalogCache)

	dropScheduler := scheduler.New(logger, dropService, conf.Scheduler.Interval)

	kafkaHandler := handler.NewKafkaHandler(logger, conf.Kafka, orderService)
	dropHandler := handler.NewDropHandler(logger, dropService)
	productHandler := handler.NewProductHandler(logger, catalogService)
	orderHandler := handler.NewOrderHandler(logger, orderService)

	app := app.New(logger, conf)

	app.SetHttpHandlers(dropHandler, productHandler, orderHandler)
	app.SetKafkaHandlers(kafkaHandler)
	app.SetStarters(dropScheduler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start cache janitor", catalogCache.Start(ctx))

	app.Start(ctx)
	<-ctx.Done()
	app.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
