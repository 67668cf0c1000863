// Package offline serves the site's static assets through a named cache so
// that pages and images keep working when the origin is unreachable.
package offline

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "offline:"

var errMiss = errors.New("cache miss")

// Entry is a cached response.
type Entry struct {
	Status      int
	ContentType string
	Body        []byte
}

// Cache is a set of named response caches keyed by request path.
type Cache interface {
	Get(ctx context.Context, cache, path string) (Entry, error)
	Put(ctx context.Context, cache, path string, e Entry) error
	Names(ctx context.Context) ([]string, error)
	Drop(ctx context.Context, cache string) error
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func entryKey(cache, path string) string {
	return keyPrefix + cache + ":" + path
}

func (c *RedisCache) Get(ctx context.Context, cache, path string) (Entry, error) {
	fields, err := c.rdb.HGetAll(ctx, entryKey(cache, path)).Result()
	if err != nil {
		return Entry{}, err
	}
	if len(fields) == 0 {
		return Entry{}, errMiss
	}
	status, err := strconv.Atoi(fields["status"])
	if err != nil {
		return Entry{}, errMiss
	}
	return Entry{Status: status, ContentType: fields["content_type"], Body: []byte(fields["body"])}, nil
}

func (c *RedisCache) Put(ctx context.Context, cache, path string, e Entry) error {
	return c.rdb.HSet(ctx, entryKey(cache, path), map[string]any{
		"status":       e.Status,
		"content_type": e.ContentType,
		"body":         e.Body,
	}).Err()
}

// Names lists every cache that holds at least one entry.
func (c *RedisCache) Names(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var names []string
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		rest := strings.TrimPrefix(iter.Val(), keyPrefix)
		i := strings.IndexByte(rest, ':')
		if i <= 0 {
			continue
		}
		name := rest[:i]
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names, iter.Err()
}

func (c *RedisCache) Drop(ctx context.Context, cache string) error {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, keyPrefix+cache+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
