package migrate

import (
	"context"

	"github.com/irakliskhirtladze/Library-management-system/internal/database"
	"github.com/irakliskhirtladze/Library-management-system/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateChecks    bool // CHECK-constraint'ы (только Postgres)
	CreateIndexes   bool // частичные UNIQUE и индексы
	CreateFKsViaSQL bool // FK через Exec после AutoMigrate (только Postgres)
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateChecks:    true,
		CreateIndexes:   true,
		CreateFKsViaSQL: true,
	}
}

func MigrateCirculationDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	db = db.WithContext(ctx)
	isPostgres := db.Dialector.Name() == database.DriverPostgres

	log.Info("Начало миграции базы выдачи книг", zap.String("dialect", db.Dialector.Name()))

	log.Info("Создание таблиц: books, reservations, borrows, wishes")
	if err := db.AutoMigrate(&models.Book{}, &models.Reservation{}, &models.Borrow{}, &models.Wish{}); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}
	log.Info("Таблицы созданы")

	if opt.CreateChecks && isPostgres {
		log.Info("Создание CHECK-ограничений")

		if err := db.Exec(`
ALTER TABLE reservations
	DROP CONSTRAINT IF EXISTS chk_reservations_expiry_after_reserve,
	ADD CONSTRAINT chk_reservations_expiry_after_reserve
	CHECK (expires_at >= reserved_at);
`).Error; err != nil {
			log.Error("chk reservations.expires_at", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE borrows
	DROP CONSTRAINT IF EXISTS chk_borrows_due_after_borrow,
	ADD CONSTRAINT chk_borrows_due_after_borrow
	CHECK (due_date >= borrowed_at);
`).Error; err != nil {
			log.Error("chk borrows.due_date", zap.Error(err))
			return err
		}

		log.Info("CHECK-и созданы")
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов и уникальностей")

		// Не более одной активной брони и одной активной выдачи на пользователя.
		if err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_user_active
ON reservations (user_id) WHERE is_active;
`).Error; err != nil {
			log.Error("ux reservations user_active", zap.Error(err))
			return err
		}
		if err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_borrows_user_active
ON borrows (user_id) WHERE returned_at IS NULL;
`).Error; err != nil {
			log.Error("ux borrows user_active", zap.Error(err))
			return err
		}

		// Подсчёт занятых экземпляров по книге
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_reservations_book_active
ON reservations (book_id) WHERE is_active;
`).Error; err != nil {
			log.Error("ix reservations book_active", zap.Error(err))
			return err
		}
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_borrows_book_active
ON borrows (book_id) WHERE returned_at IS NULL;
`).Error; err != nil {
			log.Error("ix borrows book_active", zap.Error(err))
			return err
		}

		// История выдач книги, новые сверху
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_borrows_book_borrowed
ON borrows (book_id, borrowed_at DESC);
`).Error; err != nil {
			log.Error("ix borrows book_borrowed", zap.Error(err))
			return err
		}

		log.Info("Индексы созданы")
	}

	if opt.CreateFKsViaSQL && isPostgres {
		log.Info("Создание внешних ключей")

		fks := []struct{ name, stmt string }{
			{"fk reservations.book_id", `
ALTER TABLE reservations
  DROP CONSTRAINT IF EXISTS fk_reservations_book,
  ADD CONSTRAINT fk_reservations_book
    FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE RESTRICT;
`},
			{"fk borrows.book_id", `
ALTER TABLE borrows
  DROP CONSTRAINT IF EXISTS fk_borrows_book,
  ADD CONSTRAINT fk_borrows_book
    FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE RESTRICT;
`},
			{"fk wishes.book_id", `
ALTER TABLE wishes
  DROP CONSTRAINT IF EXISTS fk_wishes_book,
  ADD CONSTRAINT fk_wishes_book
    FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE CASCADE;
`},
		}
		for _, fk := range fks {
			if err := db.Exec(fk.stmt).Error; err != nil {
				log.Error(fk.name, zap.Error(err))
				return err
			}
		}

		log.Info("Внешние ключи созданы")
	}

	log.Info("Миграция базы выдачи книг успешно завершена")
	return nil
}
