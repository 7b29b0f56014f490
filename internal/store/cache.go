package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	poolKeyPrefix = "carpool:pool:%s"
	genKeyPrefix  = "carpool:pool:gen:%s"
)

// ErrStalePool is returned by SetPool when the directory was written after the
// snapshot was read.
var ErrStalePool = errors.New("pool snapshot is stale")

// PoolCache holds snapshots of rider directories so repeated evaluations skip
// the database.
//
// Every directory write bumps a per-rider generation through InvalidatePool.
// Readers take the generation before loading the directory and hand it to
// SetPool, which refuses the snapshot if the generation has moved.
type PoolCache interface {
	GetPool(ctx context.Context, riderID uuid.UUID) ([]*DirectoryEntry, bool, error)
	Generation(ctx context.Context, riderID uuid.UUID) (int64, error)
	SetPool(ctx context.Context, riderID uuid.UUID, gen int64, entries []*DirectoryEntry) error
	InvalidatePool(ctx context.Context, riderID uuid.UUID) error
}

type RedisPoolCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisPoolCache(addr string, ttl time.Duration) *RedisPoolCache {
	return &RedisPoolCache{
		redis: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:   ttl,
	}
}

// Ping verifies the connection.
func (c *RedisPoolCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

func (c *RedisPoolCache) GetPool(ctx context.Context, riderID uuid.UUID) ([]*DirectoryEntry, bool, error) {
	val, err := c.redis.Get(ctx, poolKey(riderID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []*DirectoryEntry
	if err := json.Unmarshal(val, &entries); err != nil {
		return nil, false, fmt.Errorf("decode cached pool: %w", err)
	}
	return entries, true, nil
}

func (c *RedisPoolCache) Generation(ctx context.Context, riderID uuid.UUID) (int64, error) {
	gen, err := c.redis.Get(ctx, genKey(riderID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// SetPool writes the snapshot only while the rider's generation still equals
// gen. The check and the write run in one WATCH transaction.
func (c *RedisPoolCache) SetPool(ctx context.Context, riderID uuid.UUID, gen int64, entries []*DirectoryEntry) error {
	if entries == nil {
		entries = []*DirectoryEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	gk := genKey(riderID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return ErrStalePool
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, poolKey(riderID), payload, c.ttl)
			return nil
		})
		return err
	}, gk)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStalePool
	}
	return err
}

// InvalidatePool bumps the generation and drops the snapshot.
func (c *RedisPoolCache) InvalidatePool(ctx context.Context, riderID uuid.UUID) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(riderID))
		pipe.Del(ctx, poolKey(riderID))
		return nil
	})
	return err
}

func (c *RedisPoolCache) Close() error {
	return c.redis.Close()
}

func poolKey(riderID uuid.UUID) string {
	return fmt.Sprintf(poolKeyPrefix, riderID.String())
}

func genKey(riderID uuid.UUID) string {
	return fmt.Sprintf(genKeyPrefix, riderID.String())
}
