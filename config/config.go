package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config represents the complete agromart client configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Session  SessionConfig  `mapstructure:"session"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig controls how the marketplace backend is reached
type APIConfig struct {
	// BaseURL is the backend root; "/api" is appended by the gateway
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds each request
	Timeout time.Duration `mapstructure:"timeout"`
	// RatePerSecond limits outgoing calls per endpoint (0 = unlimited)
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
	// BreakerFailures is the number of consecutive network failures before
	// the gateway fails fast for BreakerCooldown
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// StorageConfig selects where the session and cart survive restarts
type StorageConfig struct {
	// Driver is one of "file", "redis", "mongo", "memory"
	Driver        string `mapstructure:"driver"`
	Dir           string `mapstructure:"dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// SessionConfig controls the persisted login
type SessionConfig struct {
	// Secret, when set, seals the persisted session at rest
	Secret string `mapstructure:"secret"`
}

// CheckoutConfig holds pricing constants applied client-side
type CheckoutConfig struct {
	CODSurcharge string `mapstructure:"cod_surcharge"`
	Currency     string `mapstructure:"currency"`
}

// PaymentConfig controls the hosted payment page
type PaymentConfig struct {
	// CallbackAddr is the loopback address the payment page is served on
	CallbackAddr string        `mapstructure:"callback_addr"`
	MerchantName string        `mapstructure:"merchant_name"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Surcharge parses the configured COD surcharge.
func (c CheckoutConfig) Surcharge() (decimal.Decimal, error) {
	return decimal.NewFromString(c.CODSurcharge)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:         "http://127.0.0.1:8000",
			Timeout:         15 * time.Second,
			RatePerSecond:   5,
			Burst:           5,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Storage: StorageConfig{
			Driver:        "file",
			Dir:           defaultDataDir(),
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "agromart",
		},
		Checkout: CheckoutConfig{
			CODSurcharge: "40",
			Currency:     "INR",
		},
		Payment: PaymentConfig{
			CallbackAddr: "127.0.0.1:0",
			MerchantName: "Agriculture Market",
			Timeout:      10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "warn",
			Pretty: true,
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "agromart")
	}
	return ".agromart"
}

// SetDefaults registers every default on v so env vars bind to all keys.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.rate_per_second", d.API.RatePerSecond)
	v.SetDefault("api.burst", d.API.Burst)
	v.SetDefault("api.breaker_failures", d.API.BreakerFailures)
	v.SetDefault("api.breaker_cooldown", d.API.BreakerCooldown)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.redis_addr", d.Storage.RedisAddr)
	v.SetDefault("storage.redis_password", d.Storage.RedisPassword)
	v.SetDefault("storage.redis_db", d.Storage.RedisDB)
	v.SetDefault("storage.mongo_uri", d.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", d.Storage.MongoDatabase)

	v.SetDefault("session.secret", d.Session.Secret)

	v.SetDefault("checkout.cod_surcharge", d.Checkout.CODSurcharge)
	v.SetDefault("checkout.currency", d.Checkout.Currency)

	v.SetDefault("payment.callback_addr", d.Payment.CallbackAddr)
	v.SetDefault("payment.merchant_name", d.Payment.MerchantName)
	v.SetDefault("payment.timeout", d.Payment.Timeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
}

// Load reads .env (if present), then the optional config file, then
// AGROMART_* environment variables. An explicit path that does not exist is
// an error; the default search path is not.
func Load(v *viper.Viper, path string) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix("agromart")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("agromart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultDataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
