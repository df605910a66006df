package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/database"

	"go.uber.org/zap"
)

type Config struct {
	Env         string
	DB          DB
	Circulation Circulation
	Redis       Redis
	Kafka       Kafka
}

type DB struct {
	Driver     string
	SQLitePath string
	database.Config
}

type Circulation struct {
	ReservationTTL  time.Duration
	BorrowTTL       time.Duration
	ExpireInterval  time.Duration
	OverdueInterval time.Duration
	TxMaxAttempts   int
}

type Redis struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

type Kafka struct {
	Brokers            []string
	NotificationsTopic string
}

func Load(log *zap.Logger) *Config {
	cfg := &Config{
		Env: getEnvDefault("ENV", "production"),
		DB: DB{
			Driver: getEnvDefault("DB_DRIVER", database.DriverPostgres),
		},
		Circulation: Circulation{
			ReservationTTL:  durationDefault(getEnvDefault("RESERVATION_TTL", ""), 24*time.Hour),
			BorrowTTL:       durationDefault(getEnvDefault("BORROW_TTL", ""), 14*24*time.Hour),
			ExpireInterval:  durationDefault(getEnvDefault("EXPIRE_INTERVAL", ""), 5*time.Minute),
			OverdueInterval: durationDefault(getEnvDefault("OVERDUE_INTERVAL", ""), 24*time.Hour),
			TxMaxAttempts:   atoiDefault(getEnvDefault("TX_MAX_ATTEMPTS", ""), 6),
		},
		Redis: Redis{
			Enabled:    getEnvDefault("REDIS_ENABLED", "false") == "true",
			Addr:       getEnvDefault("REDIS_ADDR", "localhost:6379"),
			Password:   getEnvDefault("REDIS_PASSWORD", ""),
			DB:         atoiDefault(getEnvDefault("REDIS_DB", ""), 0),
			TTLSeconds: atoiDefault(getEnvDefault("CACHE_TTL_SECONDS", ""), 60),
		},
		Kafka: Kafka{
			Brokers:            splitList(getEnvDefault("KAFKA_BROKERS", "")),
			NotificationsTopic: getEnvDefault("KAFKA_TOPIC_NOTIFICATIONS", "library.notifications"),
		},
	}

	switch cfg.DB.Driver {
	case database.DriverSQLite:
		cfg.DB.SQLitePath = getEnv("SQLITE_PATH", log)
	case database.DriverPostgres:
		cfg.DB.Config = database.Config{
			Host:     getEnv("DB_HOST", log),
			Port:     getEnv("DB_PORT", log),
			User:     getEnv("DB_USER", log),
			Password: getEnv("DB_PASSWORD", log),
			Name:     getEnv("DB_NAME", log),
			SSLMode:  getEnv("DB_SSLMODE", log),
		}
	default:
		log.Error("Неизвестный драйвер базы данных", zap.String("DB_DRIVER", cfg.DB.Driver))
		panic("unsupported DB_DRIVER: " + cfg.DB.Driver)
	}

	return cfg
}

func (c *Config) IsDev() bool { return c.Env == "development" }

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return def
}

// parseDurationWithDays понимает стандартные длительности и суффикс "d" (дни).
func parseDurationWithDays(s string) (time.Duration, bool) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(s, "d"), 64)
		if err != nil {
			return 0, false
		}
		return time.Duration(days * float64(24*time.Hour)), true
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

func durationDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, ok := parseDurationWithDays(s)
	if !ok || d <= 0 {
		return def
	}
	return d
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
