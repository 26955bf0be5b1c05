package config

import (
	"time"

	"github.com/Skotchmaster/lapcraft/internal/cache"
	"github.com/Skotchmaster/lapcraft/internal/search"
	"github.com/Skotchmaster/lapcraft/pkg/config"
	"github.com/Skotchmaster/lapcraft/pkg/db"
)

type Config struct {
	ServiceName string
	ServerPort  string
	LogLevel    string

	DBDriver      string
	DatabaseURL   string
	DBAutoMigrate bool

	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	KafkaBrokers     []string
	KafkaTopicPrefix string

	Search   search.Config
	Redis    cache.Config
	CacheTTL time.Duration
}

// SearchEnabled reports whether an Elasticsearch URL was configured.
func (c Config) SearchEnabled() bool { return c.Search.URL != "" }

func (c Config) CacheEnabled() bool { return c.Redis.Addr != "" }

func (c Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Read collects every setting from the environment without checking required keys.
func Read() Config {
	return Config{
		ServiceName: config.EnvDefault("SERVICE_NAME", "lapcraft"),
		ServerPort:  config.EnvDefault("SERVER_PORT", "8080"),
		LogLevel:    config.EnvDefault("LOG_LEVEL", "info"),

		DBDriver:      config.EnvDefault("DB_DRIVER", db.DriverPostgres),
		DatabaseURL:   config.EnvDefault("DATABASE_URL", ""),
		DBAutoMigrate: config.EnvBoolDefault("DB_AUTO_MIGRATE", false),

		JWTSecret:       []byte(config.EnvDefault("JWT_SECRET", "")),
		AccessTokenTTL:  config.EnvDurationDefault("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: config.EnvDurationDefault("REFRESH_TOKEN_TTL", 720*time.Hour),

		KafkaBrokers:     config.CSV(config.EnvDefault("KAFKA_BROKERS", "")),
		KafkaTopicPrefix: config.EnvDefault("KAFKA_TOPIC_PREFIX", ""),

		Search: search.Config{
			URL:      config.EnvDefault("ES_URL", ""),
			User:     config.EnvDefault("ES_USER", ""),
			Password: config.EnvDefault("ES_PASSWORD", ""),
			Index:    config.EnvDefault("ES_INDEX", "products"),
		},
		Redis: cache.Config{
			Addr:     config.EnvDefault("REDIS_ADDR", ""),
			Password: config.EnvDefault("REDIS_PASSWORD", ""),
			DB:       config.EnvIntDefault("REDIS_DB", 0),
		},
		CacheTTL: config.EnvDurationDefault("CACHE_TTL", 5*time.Minute),
	}
}

func Load() Config {
	cfg := Read()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	return cfg
}
