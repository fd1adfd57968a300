package redis

import (
	"context"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache is the Redis-backed response cache. All operations are best
// effort: a broken cache degrades to uncached reads, it never fails a
// request.
type Cache struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewCache(client *redis.Client, log *logrus.Logger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{client: client, log: log}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).WithField("key", key).Warn("cache get failed")
		}
		return nil, false
	}
	return value, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

// InvalidateByPattern scans the keyspace and deletes every key matching
// the regular expression. SCAN keeps this incremental; the key space is
// small (one entry per route/query/user variant) so a full walk is fine.
func (c *Cache) InvalidateByPattern(ctx context.Context, pattern string) int {
	re, err := regexp.Compile(pattern)
	if err != nil {
		c.log.WithError(err).WithField("pattern", pattern).Warn("bad cache pattern")
		return 0
	}

	n := 0
	iter := c.client.Scan(ctx, 0, "*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if !re.MatchString(key) {
			continue
		}
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("cache del failed")
			continue
		}
		n++
	}
	if err := iter.Err(); err != nil {
		c.log.WithError(err).Warn("cache scan failed")
	}
	return n
}
