package producer

import (
	"context"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/notifier"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NotificationProducer кладёт уведомления в топик, доставку (почта и т.п.)
// выполняет отдельный сервис-потребитель.
type NotificationProducer struct {
	writer  messageWriter
	timeout time.Duration
}

func NewNotificationProducer(brokers []string, topic string) *NotificationProducer {
	return &NotificationProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		timeout: 5 * time.Second,
	}
}

// Send использует user_id как ключ, чтобы уведомления одного пользователя
// шли в одну партицию по порядку.
func (p *NotificationProducer) Send(ctx context.Context, n notifier.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	value, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.UserID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	})
}

func (p *NotificationProducer) Close() error {
	return p.writer.Close()
}
