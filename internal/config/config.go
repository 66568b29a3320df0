package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"port"`
	Database struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	AMQP struct {
		URL      string `mapstructure:"url"`
		Exchange string `mapstructure:"exchange"`
	} `mapstructure:"amqp"`
	Redis struct {
		Addr       string        `mapstructure:"addr"`
		SessionTTL time.Duration `mapstructure:"session_ttl"`
	} `mapstructure:"redis"`
	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
	Tracing struct {
		Endpoint    string `mapstructure:"endpoint"`
		ServiceName string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`
	Notifications struct {
		PollInterval time.Duration `mapstructure:"poll_interval"`
	} `mapstructure:"notifications"`
	RateLimit struct {
		RPS   float64 `mapstructure:"rps"`
		Burst int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`
	Environment  string `mapstructure:"environment"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
	Debug        bool   `mapstructure:"debug"`
}

// Load reads defaults, an optional config.yaml and environment overrides. A
// .env file in the working directory is loaded first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	v := viper.New()
	v.SetDefault("port", "8083")
	v.SetDefault("amqp.exchange", "workforce.events")
	v.SetDefault("redis.session_ttl", "12h")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("tracing.service_name", "workforce-service")
	v.SetDefault("notifications.poll_interval", "30s")
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("environment", "development")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("database.dsn", "DB_DSN")
	_ = v.BindEnv("amqp.url", "AMQP_URL")
	_ = v.BindEnv("amqp.exchange", "AMQP_EXCHANGE")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("notifications.poll_interval", "POLL_INTERVAL")
	_ = v.BindEnv("rate_limit.rps", "RATE_LIMIT_RPS")
	_ = v.BindEnv("environment", "APP_ENV")
	_ = v.BindEnv("cookie_secure", "COOKIE_SECURE")
	_ = v.BindEnv("debug", "DEBUG_ROUTES")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	if c.Database.DSN == "" {
		return Config{}, errors.New("config: DB_DSN is required")
	}
	if c.Auth.JWTSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET is required")
	}
	return c, nil
}
