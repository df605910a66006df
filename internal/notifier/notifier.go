package notifier

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Kind string

const (
	KindBookAvailable   Kind = "book_available"
	KindOverdueReminder Kind = "overdue_reminder"
)

type Notification struct {
	Kind    Kind      `json:"kind"`
	UserID  uuid.UUID `json:"user_id"`
	BookID  uuid.UUID `json:"book_id"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
}

// Sender: транспорт уведомлений. Ошибка доставки одному получателю
// не влияет ни на остальных, ни на состояние выдачи.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender пишет уведомления в лог. Используется, когда Kafka не настроена.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.log.Info("notification",
		zap.String("kind", string(n.Kind)),
		zap.String("user_id", n.UserID.String()),
		zap.String("book_id", n.BookID.String()),
		zap.String("subject", n.Subject),
	)
	return nil
}
