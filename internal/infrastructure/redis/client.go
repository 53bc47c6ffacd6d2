// Package redis builds go-redis clients from coordinator configuration.
//
// Single-node and Sentinel deployments are supported through
// goredis.UniversalClient; a redis:// URL selects a single node. Cluster is
// refused because the store's transactions and scans span several keys.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/config"
)

const defaultTimeout = 5 * time.Second

var (
	// ErrNoAddress is returned when neither a URL nor an address list is configured.
	ErrNoAddress = errors.New("redis: at least one address or a url is required")

	// ErrClusterUnsupported is returned for configurations that would make
	// go-redis build a cluster client.
	ErrClusterUnsupported = errors.New("redis: cluster deployments are not supported")
)

// Connect creates a Redis client and verifies it with a PING.
//
// When cfg.URL is set it wins over cfg.Addrs. MasterName selects Sentinel;
// otherwise exactly one address is accepted.
func Connect(ctx context.Context, cfg config.RedisConfig) (goredis.UniversalClient, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// newClient builds the client without touching the network.
func newClient(cfg config.RedisConfig) (goredis.UniversalClient, error) {
	if cfg.URL != "" {
		opts, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts.DialTimeout = orDefault(opts.DialTimeout, cfg.DialTimeout)
		opts.ReadTimeout = orDefault(opts.ReadTimeout, cfg.ReadTimeout)
		opts.WriteTimeout = orDefault(opts.WriteTimeout, cfg.WriteTimeout)
		return goredis.NewClient(opts), nil
	}

	if len(cfg.Addrs) == 0 {
		return nil, ErrNoAddress
	}

	if cfg.Mode == "cluster" || (cfg.MasterName == "" && len(cfg.Addrs) > 1) {
		return nil, ErrClusterUnsupported
	}

	return goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        cfg.Addrs,
		MasterName:   cfg.MasterName,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  orDefault(0, cfg.DialTimeout),
		ReadTimeout:  orDefault(0, cfg.ReadTimeout),
		WriteTimeout: orDefault(0, cfg.WriteTimeout),
	}), nil
}

// orDefault keeps a non-zero current value, else converts seconds, else falls
// back to defaultTimeout.
func orDefault(current time.Duration, seconds int) time.Duration {
	if current > 0 {
		return current
	}
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultTimeout
}
