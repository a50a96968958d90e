// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/doko/internal/database"
)

// Config is everything the binaries read from the environment.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	StorageBackend string
	StorageDir     string

	RedisAddr   string
	RedisDB     int
	DatabaseURL string
	QueueName   string
	ActionLog   bool

	Rounds           int
	TrickDelay       time.Duration
	AdvanceDelay     time.Duration
	LivenessInterval time.Duration

	PlayerCreds     string
	TokenExpireTime string
	TokenKeyFile    string
	TokenPubFile    string
	AllowedOrigins  []string

	HistorianBatchSize  int
	HistorianFlushDelay time.Duration
}

// Production reports whether DOKO_ENV selects the production setup.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads the environment. Malformed numbers fall back to defaults;
// an unknown storage backend is an error.
func Load() (Config, error) {
	c := Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("DOKO_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "fs")),
		StorageDir:     getEnv("STORAGE_DIR", "."),

		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		QueueName:   getEnv("HISTORIAN_QUEUE_NAME", "doko_actions"),
		ActionLog:   getEnvBool("ACTION_LOG", false),

		Rounds:           getEnvInt("GAME_ROUNDS", 16),
		TrickDelay:       getEnvDuration("TRICK_DELAY", 3*time.Second),
		AdvanceDelay:     getEnvDuration("ADVANCE_DELAY", time.Second),
		LivenessInterval: getEnvDuration("LIVENESS_INTERVAL", 5*time.Second),

		PlayerCreds:     os.Getenv("PLAYER_CREDS"),
		TokenExpireTime: getEnv("TOKEN_EXPIRE_TIME", "72h"),
		TokenKeyFile:    os.Getenv("TOKEN_PRIVATE_KEY_FILE"),
		TokenPubFile:    os.Getenv("TOKEN_PUBLIC_KEY_FILE"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),

		HistorianBatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
	}
	if c.DatabaseURL == "" && os.Getenv("PG_HOST") != "" {
		c.DatabaseURL = database.ConnString(
			os.Getenv("POSTGRES_USER"),
			os.Getenv("POSTGRES_PASSWORD"),
			os.Getenv("PG_HOST"),
			getEnv("PG_PORT", "5432"),
			os.Getenv("PG_DATABASE"),
		)
	}
	switch c.StorageBackend {
	case "fs", "memory", "redis", "postgres":
	default:
		return c, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.StorageBackend == "postgres" && c.DatabaseURL == "" {
		return c, fmt.Errorf("STORAGE_BACKEND=postgres needs DATABASE_URL or PG_HOST")
	}
	return c, nil
}

func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}

// getEnvDuration accepts Go durations ("3s") and plain milliseconds.
func getEnvDuration(key string, defVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defVal
	}
	return d
}

func getEnvBool(key string, defVal bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "on", "yes":
		return true
	case "0", "false", "off", "no":
		return false
	}
	return defVal
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
