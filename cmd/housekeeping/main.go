package main

import (
	"context"
	"os"
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
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := newRootCmd(logger.L()).Execute(); err != nil {
		os.Exit(1)
	}
}

type runner func(ctx context.Context, jobs *housekeeping.Jobs, now time.Time) error

func newRootCmd(log *zap.Logger) *cobra.Command {
	var at string

	root := &cobra.Command{
		Use:          "housekeeping",
		Short:        "One-shot circulation housekeeping for an external scheduler",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&at, "now", "", "override current time (RFC3339)")

	wrap := func(name string, fn runner) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return err
				}
				now = t
			}

			jobs, closeFn := setup(log)
			defer closeFn()

			log.Info("running housekeeping", zap.String("task", name), zap.Time("now", now))
			if err := fn(cmd.Context(), jobs, now); err != nil {
				log.Error("housekeeping failed", zap.String("task", name), zap.Error(err))
				return err
			}
			log.Info("housekeeping completed successfully", zap.String("task", name))
			return nil
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "expire",
			Short: "Deactivate reservations whose expires_at has passed",
			RunE: wrap("expire", func(ctx context.Context, j *housekeeping.Jobs, now time.Time) error {
				_, err := j.ExpireReservations(ctx, now)
				return err
			}),
		},
		&cobra.Command{
			Use:   "overdue",
			Short: "Send reminders for unreturned borrows past their due date",
			RunE: wrap("overdue", func(ctx context.Context, j *housekeeping.Jobs, now time.Time) error {
				_, err := j.NotifyOverdue(ctx, now)
				return err
			}),
		},
		&cobra.Command{
			Use:   "all",
			Short: "Run expire and overdue with the same timestamp",
			RunE: wrap("all", func(ctx context.Context, j *housekeeping.Jobs, now time.Time) error {
				return j.RunAll(ctx, now)
			}),
		},
	)
	return root
}

func setup(log *zap.Logger) (*housekeeping.Jobs, func()) {
	cfg := config.Load(log)
	db := database.Connect(cfg.DB.Driver, cfg.DB.SQLitePath, &cfg.DB.Config, log)
	repos := repository.New(db)

	var (
		sender notifier.Sender = notifier.NewLogSender(log)
		prod   *producer.NotificationProducer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		prod = producer.NewNotificationProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
		sender = prod
	}

	var availability *cache.AvailabilityCache
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("failed to create redis client", zap.Error(err))
		}
		availability = cache.NewAvailabilityCache(rdb, time.Duration(cfg.Redis.TTLSeconds)*time.Second, log)
	}
	bus := newBus(log, repos, sender, availability)

	circ := service.NewCirculationService(repos, bus, log, service.Config{
		ReservationTTL: cfg.Circulation.ReservationTTL,
		BorrowTTL:      cfg.Circulation.BorrowTTL,
		MaxAttempts:    cfg.Circulation.TxMaxAttempts,
	})

	return housekeeping.NewJobs(circ, sender, log), func() {
		if prod != nil {
			_ = prod.Close()
		}
		if availability != nil {
			_ = availability.Close()
		}
		database.CloseDB(db, log)
	}
}

// newBus: подписчики те же, что у сервиса. Истёкшие брони освобождают
// экземпляры, поэтому уведомляется лист ожидания и сбрасывается кэш
// (availability == nil, если redis выключен).
func newBus(log *zap.Logger, repos *repository.Repository, sender notifier.Sender, availability *cache.AvailabilityCache) *events.Bus {
	bus := events.NewBus(log)
	if availability != nil {
		bus.Subscribe("availability-cache", availability.Handle)
	}
	bus.Subscribe("wishlist-notifier", notifier.NewWishlistNotifier(repos, sender, log).Handle)
	return bus
}
