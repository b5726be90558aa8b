package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go-pos-rd/pkg/database"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Storage  StorageConfig
	Business BusinessConfig
	WhatsApp WhatsAppConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Timezone string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
	SlowThreshold   time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type HTTPConfig struct {
	BodyLimit        int
	CORSAllowOrigins []string
	LoginRateLimit   int
	LoginRateWindow  time.Duration
}

type StorageConfig struct {
	Driver        string // local, s3
	LocalDir      string
	PublicBaseURL string
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UsePathStyle  bool
	MaxUploadSize int64
	AllowedTypes  []string
}

type BusinessConfig struct {
	ITBISRate         decimal.Decimal
	NcfAlertThreshold int64
	LowStockThreshold int
	IdempotencyKeyTTL time.Duration
	RNCCacheTTL       time.Duration
	RNCNegativeTTL    time.Duration
}

type WhatsAppConfig struct {
	Sender        string
	RatePerSecond float64
	Burst         int
}

// Load reads .env (if present), an optional config.toml and POS_* environment
// variables, in increasing order of priority.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			Timezone: v.GetString("app.timezone"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetDuration("jwt.expiration"),
			Issuer:     v.GetString("jwt.issuer"),
		},
		Cookie: CookieConfig{
			Name:     v.GetString("cookie.name"),
			Secure:   v.GetBool("cookie.secure"),
			SameSite: v.GetString("cookie.same_site"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			BodyLimit:        v.GetInt("http.body_limit"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			LoginRateLimit:   v.GetInt("http.login_rate_limit"),
			LoginRateWindow:  v.GetDuration("http.login_rate_window"),
		},
		Storage: StorageConfig{
			Driver:        v.GetString("storage.driver"),
			LocalDir:      v.GetString("storage.local_dir"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
			Bucket:        v.GetString("storage.bucket"),
			Region:        v.GetString("storage.region"),
			Endpoint:      v.GetString("storage.endpoint"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			UsePathStyle:  v.GetBool("storage.use_path_style"),
			MaxUploadSize: v.GetInt64("storage.max_upload_size"),
			AllowedTypes:  v.GetStringSlice("storage.allowed_types"),
		},
		Business: BusinessConfig{
			NcfAlertThreshold: v.GetInt64("business.ncf_alert_threshold"),
			LowStockThreshold: v.GetInt("business.low_stock_threshold"),
			IdempotencyKeyTTL: v.GetDuration("business.idempotency_key_ttl"),
			RNCCacheTTL:       v.GetDuration("business.rnc_cache_ttl"),
			RNCNegativeTTL:    v.GetDuration("business.rnc_negative_ttl"),
		},
		WhatsApp: WhatsAppConfig{
			Sender:        v.GetString("whatsapp.sender"),
			RatePerSecond: v.GetFloat64("whatsapp.rate_per_second"),
			Burst:         v.GetInt("whatsapp.burst"),
		},
	}

	if rate := v.GetString("business.itbis_rate"); rate != "" {
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("business.itbis_rate: %w", err)
		}
		cfg.Business.ITBISRate = d
	}

	// Variables from the original .env layout.
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	}
	if cfg.App.Port == "" {
		cfg.App.Port = os.Getenv("PORT")
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "POS RD"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "America/Santo_Domingo"
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "pos"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 100
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = time.Second
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "your-super-secret-key-change-in-production"
	}
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "go-pos-rd"
	}

	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = "pos_token"
	}
	if cfg.Cookie.SameSite == "" {
		cfg.Cookie.SameSite = "Lax"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		}
	}

	if cfg.HTTP.BodyLimit == 0 {
		cfg.HTTP.BodyLimit = 4 << 20
	}
	if cfg.HTTP.LoginRateLimit == 0 {
		cfg.HTTP.LoginRateLimit = 5
	}
	if cfg.HTTP.LoginRateWindow == 0 {
		cfg.HTTP.LoginRateWindow = time.Minute
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "./uploads"
	}
	if cfg.Storage.PublicBaseURL == "" && cfg.Storage.Driver == "local" {
		cfg.Storage.PublicBaseURL = "/uploads"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.MaxUploadSize == 0 {
		cfg.Storage.MaxUploadSize = 2 << 20
	}
	if len(cfg.Storage.AllowedTypes) == 0 {
		cfg.Storage.AllowedTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}
	}

	if cfg.Business.ITBISRate.IsZero() {
		cfg.Business.ITBISRate = decimal.NewFromFloat(0.18)
	}
	if cfg.Business.NcfAlertThreshold == 0 {
		cfg.Business.NcfAlertThreshold = 50
	}
	if cfg.Business.LowStockThreshold == 0 {
		cfg.Business.LowStockThreshold = 10
	}
	if cfg.Business.IdempotencyKeyTTL == 0 {
		cfg.Business.IdempotencyKeyTTL = 24 * time.Hour
	}
	if cfg.Business.RNCCacheTTL == 0 {
		cfg.Business.RNCCacheTTL = 24 * time.Hour
	}
	if cfg.Business.RNCNegativeTTL == 0 {
		cfg.Business.RNCNegativeTTL = 10 * time.Minute
	}

	if cfg.WhatsApp.Sender == "" {
		cfg.WhatsApp.Sender = "log"
	}
	if cfg.WhatsApp.RatePerSecond == 0 {
		cfg.WhatsApp.RatePerSecond = 5
	}
	if cfg.WhatsApp.Burst == 0 {
		cfg.WhatsApp.Burst = 1
	}
}

func (c *Config) validate() error {
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Business.ITBISRate.IsNegative() || c.Business.ITBISRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("business.itbis_rate must be in [0, 1), got %s", c.Business.ITBISRate)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 || c.JWT.Secret == "your-super-secret-key-change-in-production" {
			return errors.New("jwt.secret must be set to at least 32 characters in production")
		}
		if !c.Cookie.Secure {
			return errors.New("cookie.secure must be true in production")
		}
		if c.Database.URL == "" && c.Database.Password == "" {
			return errors.New("database.password is required in production")
		}
	}
	return nil
}

// DSN prefers an explicit URL and otherwise builds one with escaped credentials.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Connection is what pkg/database needs to open the pool.
func (d *DatabaseConfig) Connection() database.Config {
	return database.Config{
		DSN:             d.DSN(),
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		LogLevel:        d.LogLevel,
		SlowThreshold:   d.SlowThreshold,
	}
}

// Location returns the configured business timezone, falling back to UTC-4
// (the Dominican Republic does not observe DST).
func (a *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.FixedZone("AST", -4*60*60)
	}
	return loc
}
