package producer

import (
	"context"
	"testing"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/notifier"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs     []kafka.Message
	deadline bool
	closed   bool
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, w.deadline = ctx.Deadline()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestSendEncodesNotification(t *testing.T) {
	w := &captureWriter{}
	p := &NotificationProducer{writer: w, timeout: time.Second}

	n := notifier.Notification{
		Kind:    notifier.KindBookAvailable,
		UserID:  uuid.New(),
		BookID:  uuid.New(),
		Subject: "Book Available Notification",
		Body:    `The book "Dune" is now available.`,
	}
	require.NoError(t, p.Send(context.Background(), n))
	require.Len(t, w.msgs, 1)
	assert.True(t, w.deadline, "send is bounded by a timeout")

	msg := w.msgs[0]
	assert.Equal(t, n.UserID.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "book_available", string(msg.Headers[0].Value))

	var decoded notifier.Notification
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, n, decoded)
	assert.Contains(t, string(msg.Value), `"user_id"`)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
