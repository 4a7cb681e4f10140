package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coinlizard/config"
	"coinlizard/internal/domain"

	"github.com/redis/go-redis/v9"
)

// PriceCache keeps the latest snapshot per exchange and pair as a JSON string
// that expires after the freshness window.
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient builds a go-redis client from config. It does not dial.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewPriceCache(rdb *redis.Client, ttl time.Duration) *PriceCache {
	return &PriceCache{rdb: rdb, ttl: ttl}
}

// LatestKey returns the key holding the latest snapshot, e.g. "latest:coinbase:BTC:USD".
func LatestKey(exchange domain.Exchange, pair domain.TradingPair) string {
	return fmt.Sprintf("latest:%s:%s:%s", exchange, pair.Base, pair.Quote)
}

// maxSetRetries bounds the optimistic retries of SetLatest under contention.
const maxSetRetries = 5

// SetLatest overwrites the latest snapshot unless the cached one is newer. The
// compare and the write run in a WATCH/MULTI transaction so a concurrent older
// write cannot replace a newer snapshot.
func (c *PriceCache) SetLatest(ctx context.Context, price domain.CurrentPrice) error {
	key := LatestKey(price.Exchange, price.Pair)

	payload, err := json.Marshal(price)
	if err != nil {
		return fmt.Errorf("%w: encode price: %w", domain.ErrInternal, err)
	}

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var current domain.CurrentPrice
			if json.Unmarshal(raw, &current) == nil && current.Timestamp.After(price.Timestamp) {
				return nil
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, c.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxSetRetries; i++ {
		err := c.rdb.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // key changed between WATCH and EXEC
		}
		return fmt.Errorf("%w: redis set %s: %w", domain.ErrDB, key, err)
	}
	return fmt.Errorf("%w: redis set %s: gave up after %d conflicting writes", domain.ErrDB, key, maxSetRetries)
}

// GetLatest returns the cached snapshot. ok is false on a miss.
func (c *PriceCache) GetLatest(ctx context.Context, exchange domain.Exchange, pair domain.TradingPair) (domain.CurrentPrice, bool, error) {
	key := LatestKey(exchange, pair)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CurrentPrice{}, false, nil
	}
	if err != nil {
		return domain.CurrentPrice{}, false, fmt.Errorf("%w: redis get %s: %w", domain.ErrDB, key, err)
	}

	var price domain.CurrentPrice
	if err := json.Unmarshal(raw, &price); err != nil {
		return domain.CurrentPrice{}, false, fmt.Errorf("%w: decode cached price: %w", domain.ErrParse, err)
	}
	return price, true, nil
}

// Ping checks the connection to the Redis server.
func (c *PriceCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *PriceCache) Close() error {
	return c.rdb.Close()
}
