package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.)
// - default: Values common across all environments (timeouts, windows, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	Reservation ReservationConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

// ReservationConfig carries the time policies of the engine. DefaultHoldTTL
// applies when a reserve request does not name its own TTL; MaxHoldTTL caps
// requested TTLs so a client cannot park seats indefinitely.
type ReservationConfig struct {
	DefaultHoldTTL        time.Duration `envconfig:"RESERVATION_DEFAULT_HOLD_TTL" default:"10m"`
	MaxHoldTTL            time.Duration `envconfig:"RESERVATION_MAX_HOLD_TTL" default:"30m"`
	MinBookingLeadTime    time.Duration `envconfig:"RESERVATION_MIN_BOOKING_LEAD_TIME" default:"30m"`
	MinCancellationWindow time.Duration `envconfig:"RESERVATION_MIN_CANCELLATION_WINDOW" default:"24h"`
	SweepInterval         time.Duration `envconfig:"RESERVATION_SWEEP_INTERVAL" default:"30s"`
	SweepBatchSize        int           `envconfig:"RESERVATION_SWEEP_BATCH_SIZE" default:"100"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Addr: "localhost:16380",
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Reservation: ReservationConfig{
			DefaultHoldTTL:        10 * time.Minute,
			MaxHoldTTL:            30 * time.Minute,
			MinBookingLeadTime:    30 * time.Minute,
			MinCancellationWindow: 24 * time.Hour,
			SweepInterval:         30 * time.Second,
			SweepBatchSize:        100,
		},
	}
}
