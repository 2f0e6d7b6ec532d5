package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type apiConfig struct {
	store           storeQuerier
	cache           Cache
	emitter         *Emitter
	dbURL           string
	redisURL        string
	summaryInterval time.Duration
	port            string
	devMode         bool
	debugMode       bool
	logger          *slog.Logger

	// newDBClientFunc is an injection point for tests; config() sets it to sql.Open.
	newDBClientFunc func(driverName, dataSourceName string) (*sql.DB, error)
}

// getRequiredEnv retrieves an environment variable by key, and fatals if it's not set.
func getRequiredEnv(key string, logger *slog.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		logger.Error("environment variable must be set", "key", key)
		os.Exit(1)
	}
	return val
}

// getEnv retrieves an environment variable by key, with a fallback value.
func getEnv(key, fallback string, logger *slog.Logger) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer, with a fallback value.
func getEnvAsInt(key string, fallback int, logger *slog.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		logger.Warn("invalid integer value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// getEnvAsBool retrieves an environment variable as a boolean, defaulting to false.
func getEnvAsBool(key string) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return false
	}
	return val
}

// config loads the application configuration from the environment. It does
// not open any connections; ConnectDB and ConnectCache do that explicitly so
// startup failures are attributable and the config itself stays testable.
func config() *apiConfig {
	devMode := getEnvAsBool("DEV_MODE")

	var logger *slog.Logger
	if devMode {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	debugMode := getEnvAsBool("DEBUG_MODE")
	summaryIntervalMin := getEnvAsInt("SUMMARY_INTERVAL_MIN", 5, logger)

	cfg := apiConfig{
		emitter:         NewEmitter(debugMode, logger),
		dbURL:           getRequiredEnv("DB_URL", logger),
		redisURL:        getRequiredEnv("REDIS_URL", logger),
		summaryInterval: time.Duration(summaryIntervalMin) * time.Minute,
		port:            getEnv("PORT", "8080", logger),
		devMode:         devMode,
		debugMode:       debugMode,
		logger:          logger,
		newDBClientFunc: sql.Open,
	}

	return &cfg
}

// ConnectDB establishes the PostgreSQL connection and wires the check store
// into the config and the emitter's query-count collaborator.
func (cfg *apiConfig) ConnectDB() error {
	db, err := cfg.newDBClientFunc("postgres", cfg.dbURL)
	if err != nil {
		cfg.logger.Error("couldn't prepare connection to database", "error", err)
		return err
	}
	if err := db.Ping(); err != nil {
		cfg.logger.Error("couldn't connect to database", "error", err)
		return err
	}
	store := newCheckStore(db)
	cfg.store = store
	cfg.emitter.queries = store
	cfg.logger.Info("connected to database")
	return nil
}

// ConnectCache establishes the Redis connection and wires the counting cache
// into the config and the emitter's cache-stats collaborator.
func (cfg *apiConfig) ConnectCache() error {
	opt, err := redis.ParseURL(cfg.redisURL)
	if err != nil {
		cfg.logger.Error("could not parse Redis URL", "error", err)
		return err
	}
	client := redis.NewClient(opt)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		cfg.logger.Error("could not connect to Redis", "error", err)
		return err
	}
	cache := NewRedisCache(client)
	cfg.cache = cache
	cfg.emitter.cacheStats = cache
	cfg.logger.Info("connected to Redis")
	return nil
}
