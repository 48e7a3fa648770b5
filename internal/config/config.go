package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; DATABASE_URL and TELEGRAM_BOT_TOKEN
// are required — without a queue table or a channel to reach, neither job
// can run.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Outbound channel
	TelegramAPIURL string
	TelegramToken  string
	SendTimeout    time.Duration

	// Populator
	Horizon         int           // staging horizon in days, inclusive
	UpsertBatchSize int           // rows per staging write
	RetentionWindow time.Duration // entries older than this are swept

	// Drainer
	DrainLimit     int           // max rows fetched per run
	DrainBatchSize int           // rows per processing batch
	SendDelay      time.Duration // pause between consecutive sends

	// Per-operation deadline for database and channel calls inside a run.
	OpTimeout time.Duration

	// Rate limiting: maximum sends per rolling minute per destination chat.
	SendsPerMinute int

	// Optional in-process schedulers (platform cron hitting the HTTP
	// endpoints is the primary trigger; these cover single-binary setups).
	EnableScheduler  bool
	PopulateInterval time.Duration
	DrainInterval    time.Duration
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	return &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		ReadTimeout: getDuration("READ_TIMEOUT", 5*time.Second),
		// A full drain paces up to DRAIN_LIMIT sends at SEND_DELAY
		// intervals, so the response can take minutes.
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 3*time.Minute),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 2)),

		TelegramAPIURL: getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramToken:  token,
		SendTimeout:    getDuration("SEND_TIMEOUT", 10*time.Second),

		Horizon:         getInt("NOTIFY_HORIZON_DAYS", 7),
		UpsertBatchSize: getInt("UPSERT_BATCH_SIZE", 100),
		RetentionWindow: getDuration("RETENTION_WINDOW", 7*24*time.Hour),

		DrainLimit:     getInt("DRAIN_LIMIT", 1000),
		DrainBatchSize: getInt("DRAIN_BATCH_SIZE", 50),
		SendDelay:      getDuration("SEND_DELAY", 100*time.Millisecond),

		OpTimeout: getDuration("OP_TIMEOUT", 10*time.Second),

		SendsPerMinute: getInt("SENDS_PER_MINUTE", 20),

		EnableScheduler:  getBool("ENABLE_SCHEDULER", false),
		PopulateInterval: getDuration("POPULATE_INTERVAL", 24*time.Hour),
		DrainInterval:    getDuration("DRAIN_INTERVAL", 15*time.Minute),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
