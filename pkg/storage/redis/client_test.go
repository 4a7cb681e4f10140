package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"coinlizard/config"
	"coinlizard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var btcUSD = domain.TradingPair{Base: "BTC", Quote: "USD"}

// newTestCache connects to a local Redis and skips the test when none is running.
func newTestCache(t *testing.T) *PriceCache {
	t.Helper()
	rdb := NewClient(config.RedisConfig{Addr: "localhost:6379", DB: 15})
	cache := NewPriceCache(rdb, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not available: %v", err)
	}

	t.Cleanup(func() {
		rdb.Del(context.Background(),
			LatestKey(domain.Coinbase, btcUSD),
			LatestKey(domain.Binance, btcUSD))
		_ = rdb.Close()
	})
	return cache
}

// go test -v --run TestLatestKey
func TestLatestKey(t *testing.T) {
	assert.Equal(t, "latest:coinbase:BTC:USD", LatestKey(domain.Coinbase, btcUSD))
}

// go test -v --run TestSetAndGetLatest
func TestSetAndGetLatest(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetLatest(ctx, domain.Binance, btcUSD)
	require.NoError(t, err)
	assert.False(t, ok)

	ts := time.Now().UTC().Truncate(time.Second)
	price := domain.CurrentPrice{
		Exchange:  domain.Coinbase,
		Pair:      btcUSD,
		Price:     50000,
		Volume24h: domain.Float64(12.5),
		Timestamp: ts,
	}
	require.NoError(t, cache.SetLatest(ctx, price))

	got, ok, err := cache.GetLatest(ctx, domain.Coinbase, btcUSD)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 50000.0, got.Price, 1e-9)
	assert.True(t, ts.Equal(got.Timestamp))

	// an older snapshot does not replace a newer one
	older := price
	older.Price = 1
	older.Timestamp = ts.Add(-time.Minute)
	require.NoError(t, cache.SetLatest(ctx, older))

	got, _, err = cache.GetLatest(ctx, domain.Coinbase, btcUSD)
	require.NoError(t, err)
	assert.InDelta(t, 50000.0, got.Price, 1e-9)
}

// go test -v --run TestSetLatestConcurrentKeepsNewest
func TestSetLatestConcurrentKeepsNewest(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	var wg sync.WaitGroup
	// fewer writers than maxSetRetries, so the newest write cannot run out of retries
	for i := 0; i < maxSetRetries-1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cache.SetLatest(ctx, domain.CurrentPrice{
				Exchange:  domain.Binance,
				Pair:      btcUSD,
				Price:     float64(i),
				Timestamp: base.Add(time.Duration(i) * time.Second),
			})
		}(i)
	}
	wg.Wait()

	got, ok, err := cache.GetLatest(ctx, domain.Binance, btcUSD)
	require.NoError(t, err)
	require.True(t, ok)
	newest := maxSetRetries - 2
	assert.InDelta(t, float64(newest), got.Price, 1e-9)
	assert.True(t, base.Add(time.Duration(newest)*time.Second).Equal(got.Timestamp))
}
