package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// listTTL bounds staleness for pages served without a store round trip.
const listTTL = 2 * time.Minute

// RedisListCache caches the rendered default list page per recipient. Every
// mutation of a mailbox invalidates its page, whether the write came through
// HTTP or a business collaborator, so the store stays the ground truth on
// the next poll.
type RedisListCache struct {
	client *redis.Client
}

// NewRedisListCache returns nil when no client is configured. A nil cache is
// safe to call and does nothing.
func NewRedisListCache(client *redis.Client) *RedisListCache {
	if client == nil {
		return nil
	}
	return &RedisListCache{client: client}
}

func (c *RedisListCache) GetList(ctx context.Context, recipientID string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	cached, err := c.client.Get(ctx, listKey(recipientID)).Bytes()
	if err != nil {
		return nil, false
	}
	return cached, true
}

func (c *RedisListCache) SetList(ctx context.Context, recipientID string, body []byte) {
	if c == nil {
		return
	}
	c.client.Set(ctx, listKey(recipientID), body, listTTL)
}

func (c *RedisListCache) InvalidateList(ctx context.Context, recipientID string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, listKey(recipientID))
}

func listKey(recipientID string) string {
	return "notifications:list:" + recipientID
}
