package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseDurationWithDays(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"14d", 14 * 24 * time.Hour, true},
		{"0.5d", 12 * time.Hour, true},
		{"90m", 90 * time.Minute, true},
		{"xd", 0, false},
		{"soon", 0, false},
	}
	for _, c := range cases {
		got, ok := parseDurationWithDays(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	assert.Equal(t, time.Hour, durationDefault("", time.Hour))
	assert.Equal(t, time.Hour, durationDefault("-5m", time.Hour))
	assert.Equal(t, 2*24*time.Hour, durationDefault("2d", time.Hour))
}

func TestLoad_SQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/circulation.db")
	t.Setenv("RESERVATION_TTL", "2d")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_ENABLED", "true")

	cfg := Load(zap.NewNop())
	require.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "/tmp/circulation.db", cfg.DB.SQLitePath)
	assert.Equal(t, 48*time.Hour, cfg.Circulation.ReservationTTL)
	assert.Equal(t, 14*24*time.Hour, cfg.Circulation.BorrowTTL)
	assert.Equal(t, 6, cfg.Circulation.TxMaxAttempts)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_PostgresMissingVarPanics(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "localhost")

	assert.Panics(t, func() { Load(zap.NewNop()) })
}

func TestLoad_UnknownDriverPanics(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	assert.Panics(t, func() { Load(zap.NewNop()) })
}
