/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package dedup wraps the shared cache (Redis) used to suppress duplicate
// alerts within a TTL window. It fails open: any cache error is treated
// as "not a duplicate" rather than blocking delivery.
package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
)

// Config configures a Cache's Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache is a thin set-if-absent wrapper over a Redis client.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *log.Logger
}

// New builds a Cache. It does not probe connectivity; callers check it
// with Ping.
func New(cfg Config, lg *log.Logger) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 3600 * time.Second
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: ttl,
		log: lg,
	}
}

// Ping verifies the Redis connection is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SeenBefore inserts key with the configured TTL if absent and reports
// whether it was ALREADY present (i.e. this is a duplicate). On any Redis
// error it logs and returns false — fail open, never block an alert on a
// down cache.
func (c *Cache) SeenBefore(ctx context.Context, key string) bool {
	ok, err := c.client.SetNX(ctx, key, "1", c.ttl).Result()
	if err != nil {
		c.log.Warn("dedup cache unreachable, treating as not-duplicate", log.KVErr(err))
		return false
	}
	// SetNX returns true when the key was newly set (i.e. not seen before).
	return !ok
}

// Close implements lifecycle.Closer.
func (c *Cache) Close() error {
	return c.client.Close()
}
