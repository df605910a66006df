package main

import (
	"context"
	"os"

	"github.com/irakliskhirtladze/Library-management-system/config"
	"github.com/irakliskhirtladze/Library-management-system/internal/database"
	"github.com/irakliskhirtladze/Library-management-system/internal/logger"
	"github.com/irakliskhirtladze/Library-management-system/internal/migrate"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
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

	var db *gorm.DB
	if cfg.DB.Driver == database.DriverSQLite {
		db = database.Connect(cfg.DB.Driver, cfg.DB.SQLitePath, &cfg.DB.Config, log)
	} else {
		db = database.ConnectDBForMigration(&cfg.DB.Config, log)
	}
	defer database.CloseDB(db, log)

	ctx := context.Background()

	opts := migrate.DefaultMigrateOptions()

	if err := migrate.MigrateCirculationDB(ctx, db, log, opts); err != nil {
		log.Fatal("Ошибка при выполнении миграции", zap.Error(err))
	}

	log.Info("Миграция успешно завершена")
}
