package productlookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyNamespace = "pantryhub:product"

// notFoundMarker caches negative barcode lookups.
const notFoundMarker = "null"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
}

type cachedClient struct {
	next   Client
	store  cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisClient connects to Redis at redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return raw, nil
}

// NewCachedClient wraps next with a Redis read-through cache. Cache errors are
// logged and the lookup falls through to next.
func NewCachedClient(next Client, store *redis.Client, ttl time.Duration, logger zerolog.Logger) Client {
	return newCachedClient(next, store, ttl, logger)
}

func newCachedClient(next Client, store cmdable, ttl time.Duration, logger zerolog.Logger) *cachedClient {
	return &cachedClient{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "product-cache").Logger(),
	}
}

func barcodeKey(barcode string) string {
	return keyNamespace + ":barcode:" + strings.TrimSpace(barcode)
}

func searchKey(query string, page, pageSize int) string {
	return fmt.Sprintf("%s:search:%d:%d:%s", keyNamespace, page, pageSize, strings.ToLower(strings.TrimSpace(query)))
}

func categoryKey(category string, page, pageSize int) string {
	return fmt.Sprintf("%s:category:%d:%d:%s", keyNamespace, page, pageSize, strings.ToLower(strings.TrimSpace(category)))
}

func suggestKey(query string, limit int) string {
	return fmt.Sprintf("%s:suggest:%d:%s", keyNamespace, limit, strings.ToLower(strings.TrimSpace(query)))
}

// ByBarcode serves from cache, including cached misses.
func (c *cachedClient) ByBarcode(ctx context.Context, barcode string) (*Product, error) {
	key := barcodeKey(barcode)

	if raw, ok := c.read(ctx, key); ok {
		if raw == notFoundMarker {
			return nil, nil
		}
		var p Product
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	}

	p, err := c.next.ByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if p == nil {
		c.write(ctx, key, notFoundMarker)
		return nil, nil
	}
	c.writeJSON(ctx, key, p)
	return p, nil
}

// Search serves repeated queries from cache.
func (c *cachedClient) Search(ctx context.Context, query string, page, pageSize int) (*SearchResult, error) {
	key := searchKey(query, page, pageSize)

	if raw, ok := c.read(ctx, key); ok {
		var r SearchResult
		if err := json.Unmarshal([]byte(raw), &r); err == nil {
			return &r, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	}

	r, err := c.next.Search(ctx, query, page, pageSize)
	if err != nil {
		return nil, err
	}
	c.writeJSON(ctx, key, r)
	return r, nil
}

// ByCategory serves repeated category pages from cache.
func (c *cachedClient) ByCategory(ctx context.Context, category string, page, pageSize int) (*SearchResult, error) {
	key := categoryKey(category, page, pageSize)

	if raw, ok := c.read(ctx, key); ok {
		var r SearchResult
		if err := json.Unmarshal([]byte(raw), &r); err == nil {
			return &r, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	}

	r, err := c.next.ByCategory(ctx, category, page, pageSize)
	if err != nil {
		return nil, err
	}
	c.writeJSON(ctx, key, r)
	return r, nil
}

// Suggestions serves repeated prefixes from cache.
func (c *cachedClient) Suggestions(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	key := suggestKey(query, limit)

	if raw, ok := c.read(ctx, key); ok {
		var out []Suggestion
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	}

	out, err := c.next.Suggestions(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.writeJSON(ctx, key, out)
	return out, nil
}

func (c *cachedClient) read(ctx context.Context, key string) (string, bool) {
	raw, err := c.store.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("product cache read failed")
		}
		return "", false
	}
	return raw, true
}

func (c *cachedClient) writeJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}
	c.write(ctx, key, string(data))
}

func (c *cachedClient) write(ctx context.Context, key, value string) {
	if err := c.store.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("product cache write failed")
	}
}
