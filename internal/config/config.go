package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"group-guard-bot/internal/utils"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	BotToken            string `env:"BOT_TOKEN,required,notEmpty"`
	TelegramAPIEndpoint string `env:"TELEGRAM_API_ENDPOINT" envDefault:"https://api.telegram.org/bot%s/%s"`
	WebhookHost         string `env:"WEBHOOK_HOST"`
	Port                string `env:"PORT" envDefault:"8080"`
	MetricsAddr         string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver   string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DBHost        string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort        string        `env:"DB_PORT" envDefault:"5432"`
	DBUser        string        `env:"DB_USER"`
	DBPassword    string        `env:"DB_PASSWORD"`
	DBName        string        `env:"DB_NAME" envDefault:"group_guard"`
	DBTracing     bool          `env:"DB_TRACING" envDefault:"false"`
	SQLitePath    string        `env:"SQLITE_PATH" envDefault:"group_guard.db"`
	MongoURI      string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string        `env:"MONGODB_DATABASE" envDefault:"group_guard"`
	EnableCache   bool          `env:"ENABLE_CACHE" envDefault:"false"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	OwnerIDs           []int64 `env:"OWNER_IDS" envSeparator:","`
	AuthorizedChats    []int64 `env:"AUTHORIZED_CHATS" envSeparator:","`
	DefaultWebsiteLink string  `env:"DEFAULT_WEBSITE_LINK" envDefault:"https://telegram.org"`

	WarnLimit    int           `env:"WARN_LIMIT" envDefault:"5"`
	MuteDuration time.Duration `env:"MUTE_DURATION" envDefault:"24h"`
	NoticeTTL    time.Duration `env:"NOTICE_TTL" envDefault:"3s"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"5m"`
	FloodLimit   int           `env:"FLOOD_LIMIT" envDefault:"0"`
	FloodWindow  time.Duration `env:"FLOOD_WINDOW" envDefault:"10s"`

	EnableTelemetry  bool    `env:"ENABLE_TELEMETRY" envDefault:"false"`
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// GetDSN returns the gorm DSN for the configured SQL driver.
func (c *Config) GetDSN() string {
	if c.StoreDriver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DBUser == "" {
			return fmt.Errorf("%w: DB_USER is required for postgres", ErrInvalid)
		}
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrInvalid, c.StoreDriver)
	}
	link, ok := utils.NormalizeWebsiteLink(c.DefaultWebsiteLink)
	if !ok {
		return fmt.Errorf("%w: DEFAULT_WEBSITE_LINK must be an http or https URL", ErrInvalid)
	}
	c.DefaultWebsiteLink = link
	if c.WarnLimit < 1 {
		return fmt.Errorf("%w: WARN_LIMIT must be positive", ErrInvalid)
	}
	if c.MuteDuration <= 0 || c.NoticeTTL <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("%w: MUTE_DURATION, NOTICE_TTL and SESSION_TTL must be positive", ErrInvalid)
	}
	if c.FloodLimit < 0 {
		return fmt.Errorf("%w: FLOOD_LIMIT must not be negative", ErrInvalid)
	}
	if c.WebhookHost != "" && !strings.HasPrefix(c.WebhookHost, "https://") {
		return fmt.Errorf("%w: WEBHOOK_HOST must be an https URL", ErrInvalid)
	}
	return nil
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
