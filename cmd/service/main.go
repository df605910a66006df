package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/config"
	"github.com/irakliskhirtladze/Library-management-system/internal/cache"
	"github.com/irakliskhirtladze/Library-management-system/internal/database"
	"github.com/irakliskhirtladze/Library-management-system/internal/events"
	"github.com/irakliskhirtladze/Library-management-system/internal/housekeeping"
	"github.com/irakliskhirtladze/Library-management-system/internal/logger"
	"github.com/irakliskhirtladze/Library-management-system/internal/notifier"
	"github.com/irakliskhirtladze/Library-management-system/internal/producer"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"
	"github.com/irakliskhirtladze/Library-management-system/internal/service"

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

	db := database.Connect(cfg.DB.Driver, cfg.DB.SQLitePath, &cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)
	bus := events.NewBus(log)

	var sender notifier.Sender
	if len(cfg.Kafka.Brokers) > 0 {
		p := producer.NewNotificationProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
		defer p.Close()
		sender = p
		log.Info("Kafka notifications enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.NotificationsTopic))
	} else {
		sender = notifier.NewLogSender(log)
		log.Info("Kafka notifications disabled, using log sender")
	}

	var opts []service.Option
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("failed to create redis client", zap.Error(err))
		}
		availability := cache.NewAvailabilityCache(rdb, time.Duration(cfg.Redis.TTLSeconds)*time.Second, log)
		defer availability.Close()

		bus.Subscribe("availability-cache", availability.Handle)
		opts = append(opts, service.WithCache(availability))
		log.Info("Redis cache enabled")
	} else {
		log.Info("Redis cache disabled")
	}

	wishlist := notifier.NewWishlistNotifier(repos, sender, log)
	bus.Subscribe("wishlist-notifier", wishlist.Handle)

	circ := service.NewCirculationService(repos, bus, log, service.Config{
		ReservationTTL: cfg.Circulation.ReservationTTL,
		BorrowTTL:      cfg.Circulation.BorrowTTL,
		MaxAttempts:    cfg.Circulation.TxMaxAttempts,
	}, opts...)

	jobs := housekeeping.NewJobs(circ, sender, log)
	scheduler := housekeeping.NewScheduler(jobs, cfg.Circulation.ExpireInterval, cfg.Circulation.OverdueInterval, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Start(ctx)

	log.Info("Circulation service started",
		zap.String("db_driver", cfg.DB.Driver),
		zap.Duration("reservation_ttl", cfg.Circulation.ReservationTTL),
		zap.Duration("borrow_ttl", cfg.Circulation.BorrowTTL),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down circulation service...")

	// Останавливаем планировщик
	scheduler.Stop()
	cancel()

	log.Info("Circulation service stopped")
}
