package config

// This file defines a Redis client constructor for the application.  Redis is
// used for distributed rate limiting and HTTP response caching.  If the
// connection fails during startup, the function returns nil and callers
// should degrade gracefully by disabling caching and rate limiting.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds the REDIS_* settings.
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand, used when host/port are not both set
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS
type RedisConfig struct {
    Host     string `env:"HOST"`
    Port     string `env:"PORT"`
    Addr     string `env:"ADDR" envDefault:"localhost:6379"`
    Password string `env:"PASSWORD"`
    DB       int    `env:"DB" envDefault:"0"`
    TLS      bool   `env:"TLS" envDefault:"false"`
}

// Address resolves the dial address.
func (r RedisConfig) Address() string {
    if r.Host != "" && r.Port != "" {
        return r.Host + ":" + r.Port
    }
    return r.Addr
}

// NewRedisClient instantiates a Redis client from cfg.
// The returned client may be nil if a connection cannot be established.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Address(),
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    // Ping the server with a short timeout.  Return nil on failure.
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
