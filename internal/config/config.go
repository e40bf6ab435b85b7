package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GROCERY_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Env      string `koanf:"env"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		RequestTimeout  time.Duration `koanf:"request_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
		MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	} `koanf:"http"`

	Mongo struct {
		URI            string        `koanf:"uri"`
		Database       string        `koanf:"database"`
		MigrationsPath string        `koanf:"migrations_path"`
		ConnectTimeout time.Duration `koanf:"connect_timeout"`
		MaxPoolSize    uint64        `koanf:"max_pool_size"`
	} `koanf:"mongo"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
		GroupID string   `koanf:"group_id"`
	} `koanf:"kafka"`

	Payment struct {
		BaseURL         string        `koanf:"base_url"`
		KeyID           string        `koanf:"key_id"`
		KeySecret       string        `koanf:"key_secret"`
		Timeout         time.Duration `koanf:"timeout"`
		BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
		BreakerFailures uint32        `koanf:"breaker_failures"`
		// Sandbox serves a local stand-in gateway under /sandbox.
		Sandbox               bool `koanf:"sandbox"`
		SandboxFailurePercent int  `koanf:"sandbox_failure_percent"`
	} `koanf:"payment"`

	Delivery struct {
		CacheTTL time.Duration `koanf:"cache_ttl"`
	} `koanf:"delivery"`

	Idempotency struct {
		// LockTTL bounds an in-flight confirmation lock; keep it near the
		// request timeout.
		LockTTL time.Duration `koanf:"lock_ttl"`
		TTL     time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Auth struct {
		JWTSecret string `koanf:"jwt_secret"`
		Issuer    string `koanf:"issuer"`
		Audience  string `koanf:"audience"`
	} `koanf:"auth"`
}

// Load reads <dir>/base.yaml, an optional <dir>/<envName>.yaml and then
// GROCERY_ environment variables (nested keys joined with __), e.g.
// GROCERY_PAYMENT__KEY_SECRET.
func Load(dir, envName string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", dir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	if envName != "" {
		overlay := fmt.Sprintf("%s/%s.yaml", dir, envName)
		if _, err := os.Stat(overlay); err == nil {
			if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envName, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ToLower(s)
}

func (c Config) Validate() error {
	var errs []error
	if c.App.HTTPAddr == "" {
		errs = append(errs, errors.New("app.http_addr required"))
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		errs = append(errs, errors.New("mongo.uri and mongo.database required"))
	}
	if c.Payment.KeyID == "" || c.Payment.KeySecret == "" {
		errs = append(errs, errors.New("payment.key_id and payment.key_secret required"))
	}
	if c.Payment.Timeout <= 0 {
		errs = append(errs, errors.New("payment.timeout must be positive"))
	}
	if c.Idempotency.LockTTL > 0 && c.Idempotency.TTL > 0 && c.Idempotency.LockTTL > c.Idempotency.TTL {
		errs = append(errs, errors.New("idempotency.lock_ttl must not exceed idempotency.ttl"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret required"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers required"))
	}
	return errors.Join(errs...)
}
