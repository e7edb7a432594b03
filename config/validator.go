package config

import (
	"fmt"
	"net/url"
)

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.RatePerSecond < 0 {
		return fmt.Errorf("api.rate_per_second must not be negative")
	}

	switch c.Storage.Driver {
	case "file":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the file driver")
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis driver")
		}
	case "mongo":
		if c.Storage.MongoURI == "" || c.Storage.MongoDatabase == "" {
			return fmt.Errorf("storage.mongo_uri and storage.mongo_database are required for the mongo driver")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver %q: want file, redis, mongo or memory", c.Storage.Driver)
	}

	s, err := c.Checkout.Surcharge()
	if err != nil {
		return fmt.Errorf("checkout.cod_surcharge: %w", err)
	}
	if s.IsNegative() {
		return fmt.Errorf("checkout.cod_surcharge must not be negative")
	}
	if c.Checkout.Currency == "" {
		return fmt.Errorf("checkout.currency is required")
	}
	return nil
}
