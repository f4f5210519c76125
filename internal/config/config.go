package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host string
		Port string
	}

	Scheduler struct {
		Enabled         bool
		Interval        time.Duration
		MaxPostsPerSlot int
		PrimeSlots      []string
		Timezone        string
	}

	Matching struct {
		SampleRate     float64
		RevealCost     int
		MatchReward    int
		ActionCooldown time.Duration
		DeckTTL        time.Duration
	}

	IRC struct {
		Server       string
		Nick         string
		SSL          bool
		Channel      string
		AdminChannel string
	}

	Admin struct {
		TokenHash string
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "crushconnect")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "crushconnect")

		switch cfg.DB.Driver {
		case "postgres":
			cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
			)
		case "sqlite":
			cfg.DB.DSN = getEnvDefault("DB_PATH", "crushconnect.db")
		default:
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Operator HTTP API
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Announcement scheduler
	cfg.Scheduler.Enabled = !isFalsy(os.Getenv("SCHEDULER_ENABLED"))
	cfg.Scheduler.Interval = getDurationDefault("SCHEDULER_INTERVAL", 5*time.Minute)
	cfg.Scheduler.MaxPostsPerSlot = getIntDefault("SCHEDULER_MAX_POSTS_PER_SLOT", 2)
	cfg.Scheduler.PrimeSlots = splitList(getEnvDefault("SCHEDULER_PRIME_SLOTS", "12:15,15:00,18:00,20:00,22:30"))
	cfg.Scheduler.Timezone = getEnvDefault("SCHEDULER_TIMEZONE", "Africa/Addis_Ababa")

	// Matching
	cfg.Matching.SampleRate = getFloatDefault("MATCH_SAMPLE_RATE", 0.10)
	cfg.Matching.RevealCost = getIntDefault("REVEAL_COST", 30)
	cfg.Matching.MatchReward = getIntDefault("MATCH_REWARD", 30)
	cfg.Matching.ActionCooldown = getDurationDefault("ACTION_COOLDOWN", time.Second)
	cfg.Matching.DeckTTL = getDurationDefault("DECK_TTL", 30*time.Minute)

	// IRC publisher (empty server = log-only publisher)
	cfg.IRC.Server = getEnvDefault("IRC_SERVER", "")
	cfg.IRC.Nick = getEnvDefault("IRC_NICK", "crushconnect")
	cfg.IRC.SSL = isTruthy(os.Getenv("IRC_SSL"))
	cfg.IRC.Channel = getEnvDefault("IRC_CHANNEL", "#crushconnect")
	cfg.IRC.AdminChannel = getEnvDefault("IRC_ADMIN_CHANNEL", "#crushconnect-admin")

	// bcrypt hash of the operator API token; empty disables the API auth check
	cfg.Admin.TokenHash = getEnvDefault("ADMIN_TOKEN_HASH", "")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getIntDefault(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

func getFloatDefault(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(getEnvDefault(k, ""), 64); err == nil {
		return f
	}
	return def
}

func getDurationDefault(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func isFalsy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "n", "off":
		return true
	}
	return false
}
