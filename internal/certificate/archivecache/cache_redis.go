package archivecache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "certgen/pkg/domain"
	"certgen/pkg/platform/sentinel"
)

const keyPrefix = "certgen:archive:"

const (
	fieldOwner = "owner"
	fieldName  = "name"
	fieldData  = "data"
)

// RedisCache shares archives between server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a Redis-backed archive cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func key(batchID id.BatchID) string {
	return keyPrefix + batchID.String()
}

// Put stores the archive as a hash and sets its expiry in one transaction.
func (c *RedisCache) Put(ctx context.Context, batchID id.BatchID, e Entry) error {
	k := key(batchID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldOwner, e.Owner.String(), fieldName, e.Name, fieldData, e.Data)
		pipe.Expire(ctx, k, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache archive %s: %w", batchID, err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, batchID id.BatchID) (Entry, error) {
	vals, err := c.client.HGetAll(ctx, key(batchID)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("load archive %s: %w", batchID, err)
	}
	if len(vals) == 0 {
		return Entry{}, sentinel.ErrNotFound
	}
	owner, err := id.ParseOwnerID(vals[fieldOwner])
	if err != nil {
		return Entry{}, fmt.Errorf("load archive %s: %w", batchID, err)
	}
	return Entry{Owner: owner, Name: vals[fieldName], Data: []byte(vals[fieldData])}, nil
}
