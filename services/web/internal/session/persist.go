package session

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Persister stores the key/value record of one credential scope of one
// browser session. Save replaces the whole record at once.
type Persister interface {
	Load(ctx context.Context, sid, scope string) (map[string]string, error)
	Save(ctx context.Context, sid, scope string, record map[string]string) error
	Delete(ctx context.Context, sid, scope string) error
}

const redisKeyPrefix = "qanun:web:session:"

// RedisPersister keeps each record in a Redis hash that expires after ttl.
type RedisPersister struct {
	client redis.Cmdable
	ttl    time.Duration
	sealer *Sealer
}

// NewRedisPersister builds a Redis-backed persister. sealer may be nil.
func NewRedisPersister(client redis.Cmdable, ttl time.Duration, sealer *Sealer) (*RedisPersister, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &RedisPersister{client: client, ttl: ttl, sealer: sealer}, nil
}

func redisKey(sid, scope string) string {
	return redisKeyPrefix + sid + ":" + scope
}

// sealLabel binds a sealed value to its session, scope and field.
func sealLabel(sid, scope, field string) string {
	return sid + ":" + scope + ":" + field
}

func (p *RedisPersister) Load(ctx context.Context, sid, scope string) (map[string]string, error) {
	values, err := p.client.HGetAll(ctx, redisKey(sid, scope)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	if p.sealer == nil {
		return values, nil
	}
	record := make(map[string]string, len(values))
	for field, sealed := range values {
		plain, err := p.sealer.Open(sealLabel(sid, scope, field), sealed)
		if err != nil {
			return nil, err
		}
		record[field] = plain
	}
	return record, nil
}

func (p *RedisPersister) Save(ctx context.Context, sid, scope string, record map[string]string) error {
	values := make(map[string]any, len(record))
	for field, value := range record {
		if p.sealer != nil {
			sealed, err := p.sealer.Seal(sealLabel(sid, scope, field), value)
			if err != nil {
				return err
			}
			values[field] = sealed
			continue
		}
		values[field] = value
	}
	key := redisKey(sid, scope)
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
			pipe.Expire(ctx, key, p.ttl)
		}
		return nil
	})
	return err
}

func (p *RedisPersister) Delete(ctx context.Context, sid, scope string) error {
	if err := p.client.Del(ctx, redisKey(sid, scope)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// MemoryPersister keeps records in process memory. Used when no Redis is configured.
type MemoryPersister struct {
	cache *cache.Cache
}

// NewMemoryPersister builds an in-memory persister whose records expire after ttl.
func NewMemoryPersister(ttl time.Duration) *MemoryPersister {
	return &MemoryPersister{cache: cache.New(ttl, ttl/2+time.Second)}
}

func (p *MemoryPersister) Load(_ context.Context, sid, scope string) (map[string]string, error) {
	value, ok := p.cache.Get(redisKey(sid, scope))
	if !ok {
		return nil, nil
	}
	return maps.Clone(value.(map[string]string)), nil
}

func (p *MemoryPersister) Save(_ context.Context, sid, scope string, record map[string]string) error {
	if len(record) == 0 {
		p.cache.Delete(redisKey(sid, scope))
		return nil
	}
	p.cache.SetDefault(redisKey(sid, scope), maps.Clone(record))
	return nil
}

func (p *MemoryPersister) Delete(_ context.Context, sid, scope string) error {
	p.cache.Delete(redisKey(sid, scope))
	return nil
}
