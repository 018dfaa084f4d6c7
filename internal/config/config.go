package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port         int
	DatabaseType string
	DatabaseURL  string
	DBPath       string

	QuestionsPerMatch int
	RoundDuration     time.Duration
	Intermission      time.Duration
	DefaultRoomSize   int
	MaxRoomSize       int

	Ledger    string
	AMQPURL   string
	AMQPQueue string

	AuthSecret  string
	LogLevel    slog.Level
	CORSOrigins []string
}

// ParseFlags reads flags, falling back to environment variables and then
// to defaults
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var roundSeconds, intermissionSeconds int
	var logLevel, corsOrigins string

	fs := flag.NewFlagSet("sportstrivia", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or mysql)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (postgres, mysql)")
	fs.StringVar(&cfg.DBPath, "db-path", "", "SQLite database file")

	fs.IntVar(&cfg.QuestionsPerMatch, "questions", 0, "Questions per match")
	fs.IntVar(&roundSeconds, "round-seconds", 0, "Seconds to answer each question")
	fs.IntVar(&intermissionSeconds, "intermission-seconds", -1, "Pause between rounds in seconds")
	fs.IntVar(&cfg.DefaultRoomSize, "room-size", 0, "Default room capacity")
	fs.IntVar(&cfg.MaxRoomSize, "max-room-size", 0, "Largest allowed room capacity")

	fs.StringVar(&cfg.Ledger, "ledger", "", "Score ledger (sql, amqp or memory)")
	fs.StringVar(&cfg.AMQPURL, "amqp-url", "", "RabbitMQ URL for the amqp ledger")
	fs.StringVar(&cfg.AMQPQueue, "amqp-queue", "", "Queue receiving score deltas")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AuthSecret, "auth-secret", "", "HS256 secret for WebSocket tokens (prefer env)")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&corsOrigins, "cors-origins", "", "Comma separated allowed origins")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var err error
	if cfg.Port, err = intFallback(cfg.Port, "PORT", 8080); err != nil {
		return Config{}, err
	}
	cfg.DatabaseType = strings.ToLower(stringFallback(cfg.DatabaseType, "DATABASE_TYPE", "sqlite"))
	cfg.DatabaseURL = stringFallback(cfg.DatabaseURL, "DATABASE_URL", "")
	cfg.DBPath = stringFallback(cfg.DBPath, "DB_PATH", "./sportstrivia.db")

	if cfg.QuestionsPerMatch, err = intFallback(cfg.QuestionsPerMatch, "QUESTIONS_PER_MATCH", 10); err != nil {
		return Config{}, err
	}
	if roundSeconds, err = intFallback(roundSeconds, "ROUND_SECONDS", 30); err != nil {
		return Config{}, err
	}
	if intermissionSeconds < 0 {
		if intermissionSeconds, err = intFallback(0, "INTERMISSION_SECONDS", 3); err != nil {
			return Config{}, err
		}
	}
	if cfg.DefaultRoomSize, err = intFallback(cfg.DefaultRoomSize, "DEFAULT_ROOM_SIZE", 4); err != nil {
		return Config{}, err
	}
	if cfg.MaxRoomSize, err = intFallback(cfg.MaxRoomSize, "MAX_ROOM_SIZE", 8); err != nil {
		return Config{}, err
	}
	cfg.RoundDuration = time.Duration(roundSeconds) * time.Second
	cfg.Intermission = time.Duration(intermissionSeconds) * time.Second

	cfg.Ledger = strings.ToLower(stringFallback(cfg.Ledger, "LEDGER", "sql"))
	cfg.AMQPURL = stringFallback(cfg.AMQPURL, "AMQP_URL", "")
	cfg.AMQPQueue = stringFallback(cfg.AMQPQueue, "AMQP_QUEUE", "score_deltas")
	cfg.AuthSecret = stringFallback(cfg.AuthSecret, "AUTH_SECRET", "")

	if err := cfg.LogLevel.UnmarshalText([]byte(stringFallback(logLevel, "LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}
	for _, origin := range strings.Split(stringFallback(corsOrigins, "CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.DatabaseType != "sqlite" && c.DatabaseType != "postgres" && c.DatabaseType != "mysql":
		return fmt.Errorf("unsupported database type %q", c.DatabaseType)
	case c.DatabaseType != "sqlite" && c.DatabaseURL == "":
		return errors.New("database URL required for " + c.DatabaseType + " (use -d or DATABASE_URL env)")
	case c.QuestionsPerMatch <= 0:
		return errors.New("questions per match must be positive")
	case c.RoundDuration <= 0:
		return errors.New("round duration must be positive")
	case c.Intermission < 0:
		return errors.New("intermission cannot be negative")
	case c.MaxRoomSize < 2:
		return errors.New("max room size must be at least 2")
	case c.DefaultRoomSize < 2 || c.DefaultRoomSize > c.MaxRoomSize:
		return fmt.Errorf("default room size must be between 2 and %d", c.MaxRoomSize)
	case c.Ledger != "sql" && c.Ledger != "amqp" && c.Ledger != "memory":
		return fmt.Errorf("unsupported ledger %q", c.Ledger)
	case c.Ledger == "amqp" && c.AMQPURL == "":
		return errors.New("AMQP_URL required for the amqp ledger")
	}
	return nil
}

func stringFallback(value, env, def string) string {
	if value != "" {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func intFallback(value int, env string, def int) (int, error) {
	if value != 0 {
		return value, nil
	}
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", env)
	}
	return n, nil
}
