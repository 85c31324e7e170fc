package config

import (
    "context"
    "crypto/tls"
    "fmt"
    "net"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis instance behind the catalog cache and the
// credential rate limiter.
type RedisConfig struct {
    Enabled  bool
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads REDIS_*.  REDIS_HOST plus REDIS_PORT win over
// REDIS_ADDR.
func LoadRedisConfig() RedisConfig {
    cfg := RedisConfig{
        Enabled:  envBool("REDIS_ENABLED", true),
        Addr:     envStr("REDIS_ADDR", "localhost:6379"),
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
    }
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        cfg.Addr = net.JoinHostPort(host, port)
    }
    return cfg
}

// NewRedisClient connects with LoadRedisConfig.  A disabled Redis yields a
// nil client and nil error; callers treat nil as pass-through.  A failed
// ping closes the client and returns the error.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
    cfg := LoadRedisConfig()
    if !cfg.Enabled {
        return nil, nil
    }
    opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
    if cfg.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)

    pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
    }
    return client, nil
}
