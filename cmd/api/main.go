package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/srgjo27/hotel_reservation/internal/adapter/cache"
	"github.com/srgjo27/hotel_reservation/internal/adapter/handler"
	"github.com/srgjo27/hotel_reservation/internal/adapter/payment"
	"github.com/srgjo27/hotel_reservation/internal/adapter/queue"
	"github.com/srgjo27/hotel_reservation/internal/adapter/repository/csvfile"
	"github.com/srgjo27/hotel_reservation/internal/adapter/repository/postgres"
	"github.com/srgjo27/hotel_reservation/internal/core/ports"
	"github.com/srgjo27/hotel_reservation/internal/core/services"
	"github.com/srgjo27/hotel_reservation/internal/platform/clock"
	"github.com/srgjo27/hotel_reservation/internal/platform/config"
	"github.com/srgjo27/hotel_reservation/internal/platform/database"
	"github.com/srgjo27/hotel_reservation/internal/platform/logger"
)

type storage struct {
	rooms        ports.RoomRepository
	reservations ports.ReservationRepository
	close        func() error
}

func main() {
	cfg, loadedEnv, err := config.Load(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync()

	if !loadedEnv {
		logr.Info(".env not found, using process environment")
	}

	ctx := context.Background()
	clk := clock.System{}

	store, err := openStorage(ctx, cfg, clk, logr)
	if err != nil {
		logr.Fatal("open storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer store.close()

	inventory, err := store.rooms.All(ctx)
	if err != nil {
		logr.Fatal("load rooms", zap.Error(err))
	}
	logr.Info("room catalog loaded", zap.Int("rooms", len(inventory)))

	opts := []services.Option{
		services.WithClock(clk),
		services.WithLogger(logr.Named("reservations")),
		services.WithRefundWindow(cfg.RefundWindowDays),
	}

	if cfg.RedisAddr != "" {
		logr.Info("connecting to redis", zap.String("addr", cfg.RedisAddr))
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logr.Fatal("connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		opts = append(opts, services.WithAvailabilityCache(cache.NewRedisAvailabilityCache(redisClient, cfg.CacheTTL)))
		logr.Info("redis connected")
	}

	if cfg.RabbitMQURL != "" {
		opts = append(opts, services.WithEventPublisher(queue.NewPublisher(cfg.RabbitMQURL, cfg.EventQueue)))
		logr.Info("reservation events enabled", zap.String("queue", cfg.EventQueue))
	}

	svc := services.NewReservationService(services.NewCatalog(inventory), store.reservations, payment.NewSimulator(), opts...)
	reservationHandler := handler.NewReservationHandler(svc, logr.Named("http"))

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      reservationHandler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server startup failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}

	logr.Info("server exiting")
}

func openStorage(ctx context.Context, cfg config.Config, clk ports.Clock, logr *zap.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := database.NewPostgresDB(cfg.DB, logr)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		rooms := postgres.NewRoomRepository(db)
		if err := rooms.Seed(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storage{
			rooms:        rooms,
			reservations: postgres.NewReservationRepository(db, clk),
			close:        db.Close,
		}, nil

	case config.StorageFile:
		rooms, err := csvfile.Bootstrap(ctx, cfg.DataDir)
		if err != nil {
			return nil, err
		}
		logr.Info("file storage ready", zap.String("data_dir", cfg.DataDir))
		return &storage{
			rooms:        rooms,
			reservations: csvfile.NewReservationStore(filepath.Join(cfg.DataDir, csvfile.ReservationsFile), clk),
			close:        func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
