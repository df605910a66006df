package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/notifier"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const overdueSubject = "Overdue Book Notification"

type Circulation interface {
	ExpireAll(ctx context.Context, now time.Time) (int64, error)
	Overdue(ctx context.Context, now time.Time) ([]models.Borrow, error)
	GetBook(ctx context.Context, bookID uuid.UUID) (*models.Book, error)
}

type Jobs struct {
	circ   Circulation
	sender notifier.Sender
	log    *zap.Logger
}

func NewJobs(circ Circulation, sender notifier.Sender, log *zap.Logger) *Jobs {
	return &Jobs{
		circ:   circ,
		sender: sender,
		log:    log,
	}
}

// ExpireReservations гасит брони с expires_at <= now.
func (j *Jobs) ExpireReservations(ctx context.Context, now time.Time) (int64, error) {
	n, err := j.circ.ExpireAll(ctx, now)
	if err != nil {
		j.log.Error("failed to expire reservations", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		j.log.Info("expired reservations", zap.Int64("count", n))
	}
	return n, nil
}

// NotifyOverdue отправляет напоминание по каждой просроченной выдаче.
// Состояние не меняется, повторный запуск шлёт напоминания снова.
func (j *Jobs) NotifyOverdue(ctx context.Context, now time.Time) (int, error) {
	borrows, err := j.circ.Overdue(ctx, now)
	if err != nil {
		j.log.Error("failed to list overdue borrows", zap.Error(err))
		return 0, err
	}

	titles := make(map[uuid.UUID]string)
	sent := 0
	for _, b := range borrows {
		title, ok := titles[b.BookID]
		if !ok {
			book, err := j.circ.GetBook(ctx, b.BookID)
			if err != nil {
				j.log.Error("failed to load overdue book", zap.String("book_id", b.BookID.String()), zap.Error(err))
				continue
			}
			title = book.Title
			titles[b.BookID] = title
		}

		msg := notifier.Notification{
			Kind:    notifier.KindOverdueReminder,
			UserID:  b.UserID,
			BookID:  b.BookID,
			Subject: overdueSubject,
			Body:    fmt.Sprintf("The book %q you borrowed is overdue. Please return it as soon as possible.", title),
		}
		if err := j.sender.Send(ctx, msg); err != nil {
			j.log.Error("failed to send overdue reminder",
				zap.String("borrow_id", b.ID.String()),
				zap.String("user_id", b.UserID.String()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	if len(borrows) > 0 {
		j.log.Info("overdue reminders sent", zap.Int("overdue", len(borrows)), zap.Int("sent", sent))
	}
	return sent, nil
}

// RunAll выполняет обе задачи с одним и тем же now.
func (j *Jobs) RunAll(ctx context.Context, now time.Time) error {
	j.log.Info("starting housekeeping")

	if _, err := j.ExpireReservations(ctx, now); err != nil {
		return err
	}
	if _, err := j.NotifyOverdue(ctx, now); err != nil {
		return err
	}

	j.log.Info("housekeeping completed")
	return nil
}
