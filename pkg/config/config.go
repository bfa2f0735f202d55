package config

import (
	"log"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-faster/errors"
)

type Config struct {
	API struct {
		URL         string        `env:"TUITIONPAY_API_URL" envDefault:"http://localhost:8000"`
		Timeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
		PaymentPath string        `env:"PAYMENT_INIT_PATH" envDefault:"/payment/payments/initiate"`
	}
	Lookup struct {
		QuietPeriod time.Duration `env:"LOOKUP_QUIET_PERIOD" envDefault:"5s"`
		Timeout     time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"10s"`
		CacheSize   int           `env:"TUITION_CACHE_SIZE" envDefault:"0"`
		CacheTTL    time.Duration `env:"TUITION_CACHE_TTL" envDefault:"30s"`
	}
	App struct {
		LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`
		Language    string `env:"LANGUAGE" envDefault:"en"`
		MetricsPort int    `env:"METRICS_PORT" envDefault:"0"`
		SentryDSN   string `env:"SENTRY_DSN"`
	}
}

func Load() Config {
	c, err := Parse(nil)
	if err != nil {
		log.Panicf("[‼️  Config parsing failed] %+v\n", err)
	}
	return c
}

// Parse reads the configuration from environ, or from the process environment when environ is nil.
func Parse(environ map[string]string) (Config, error) {
	var c Config
	var opts []env.Options
	if environ != nil {
		opts = append(opts, env.Options{Environment: environ})
	}
	if err := env.Parse(&c, opts...); err != nil {
		return Config{}, err
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("invalid TUITIONPAY_API_URL %q", c.API.URL)
	}
	if c.Lookup.QuietPeriod <= 0 {
		return errors.New("LOOKUP_QUIET_PERIOD must be positive")
	}
	if c.Lookup.CacheSize < 0 {
		return errors.New("TUITION_CACHE_SIZE must not be negative")
	}
	switch c.App.Language {
	case "en", "vi":
	default:
		return errors.Errorf("unsupported LANGUAGE %q", c.App.Language)
	}
	return nil
}
