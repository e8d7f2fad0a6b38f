package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	ReservationBackendMemory = "memory"
	ReservationBackendRedis  = "redis"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port    int      `env:"PORT" envDefault:"8080"`
		Origins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	Postgres PostgresConfig

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Spin struct {
		// memory keeps reservations in-process; redis shares them between replicas
		ReservationBackend string        `env:"SPIN_RESERVATION_BACKEND" envDefault:"memory"`
		ReservationTTL     time.Duration `env:"SPIN_RESERVATION_TTL" envDefault:"10m"`
		SweepInterval      time.Duration `env:"SPIN_SWEEP_INTERVAL" envDefault:"1m"`
		LockWait           time.Duration `env:"SPIN_LOCK_WAIT" envDefault:"3s"`
		CodeExpiryInterval time.Duration `env:"CODE_EXPIRY_INTERVAL" envDefault:"5m"`
	}

	Auth AuthConfig

	Storage struct {
		Bucket        string `env:"S3_BUCKET" envDefault:""`
		Region        string `env:"S3_REGION" envDefault:"auto"`
		Endpoint      string `env:"S3_ENDPOINT" envDefault:""`
		AccessKey     string `env:"S3_ACCESS_KEY_ID" envDefault:""`
		SecretKey     string `env:"S3_SECRET_ACCESS_KEY" envDefault:""`
		PublicBaseURL string `env:"S3_PUBLIC_BASE_URL" envDefault:""`
	}

	Cache struct {
		ContentTTL  time.Duration `env:"CONTENT_CACHE_TTL" envDefault:"30s"`
		CatalogSize int           `env:"CATALOG_CACHE_SIZE" envDefault:"256"`
		CatalogTTL  time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"30s"`
	}
}

// AuthConfig covers admin login.
type AuthConfig struct {
	JWTSecret         string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL          time.Duration `env:"JWT_TTL" envDefault:"12h"`
	BootstrapUser     string        `env:"BOOTSTRAP_ADMIN_USER" envDefault:""`
	BootstrapPassword string        `env:"BOOTSTRAP_ADMIN_PASSWORD" envDefault:""`

	// Telegram init-data login for allow-listed admins
	TelegramBotToken string        `env:"BOT_TOKEN" envDefault:""`
	TelegramAdminIDs []int64       `env:"TELEGRAM_ADMIN_IDS" envSeparator:","`
	InitDataTTL      time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
}

type PostgresConfig struct {
	Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
	Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database        string        `env:"POSTGRES_DB" envDefault:"promo"`
	SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"5m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`
}

// GetDSN builds a lib/pq connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// .env is optional; in production variables come from the environment
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Spin.ReservationBackend {
	case ReservationBackendMemory, ReservationBackendRedis:
	default:
		return fmt.Errorf("invalid SPIN_RESERVATION_BACKEND %q: must be memory or redis", c.Spin.ReservationBackend)
	}
	if c.Spin.ReservationTTL <= 0 {
		return fmt.Errorf("SPIN_RESERVATION_TTL must be positive")
	}
	if c.Spin.SweepInterval <= 0 {
		return fmt.Errorf("SPIN_SWEEP_INTERVAL must be positive")
	}
	if c.Spin.CodeExpiryInterval <= 0 {
		return fmt.Errorf("CODE_EXPIRY_INTERVAL must be positive")
	}
	return nil
}

// StorageEnabled reports whether image uploads can be served.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Bucket != "" && c.Storage.AccessKey != "" && c.Storage.SecretKey != ""
}
