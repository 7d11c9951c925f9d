// Package cache provides a short-lived Redis-backed cache in front of the
// read API's version lookups, the way the teacher's
// registry/storage/cache/redis package fronts blob descriptor lookups with
// a redis hash: a narrow, swappable layer the read path consults before
// falling through to the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// TTL bounds how long a resolved version record is trusted before the next
// request re-reads the database. Short enough that a yank or re-publish is
// visible within one interval.
const TTL = 30 * time.Second

// ManifestCache caches datastore.VersionRecord lookups, keyed by
// namespace/name/version, in Redis.
type ManifestCache struct {
	pool *redis.Pool
}

// NewManifestCache builds a ManifestCache dialing addr lazily through a
// connection pool, mirroring the teacher's redis cache provider's pool
// lifecycle.
func NewManifestCache(addr string) *ManifestCache {
	return &ManifestCache{
		pool: &redis.Pool{
			MaxIdle:     8,
			IdleTimeout: 2 * time.Minute,
			Dial: func() (redis.Conn, error) {
				return redis.Dial("tcp", addr)
			},
		},
	}
}

func key(namespace, name, version string) string {
	return fmt.Sprintf("manifest::%s::%s::%s", namespace, name, version)
}

// Get returns the cached value for (namespace, name, version) unmarshaled
// into dest, or ok=false on a cache miss or any Redis error (a miss is
// never fatal — the caller falls back to the database).
func (c *ManifestCache) Get(ctx context.Context, namespace, name, version string, dest any) bool {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return false
	}
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", key(namespace, name, version)))
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores value for (namespace, name, version) with TTL. Errors are
// swallowed: a failed cache write degrades to always-miss, not a request
// failure.
func (c *ManifestCache) Set(ctx context.Context, namespace, name, version string, value any) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return
	}
	defer conn.Close()

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	conn.Do("SET", key(namespace, name, version), raw, "EX", int(TTL.Seconds()))
}

// Invalidate drops the cached entry for (namespace, name, version),
// called after a yank so a yanked version stops being served stale.
func (c *ManifestCache) Invalidate(ctx context.Context, namespace, name, version string) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.Do("DEL", key(namespace, name, version))
}

// Close releases the underlying connection pool.
func (c *ManifestCache) Close() error {
	return c.pool.Close()
}
