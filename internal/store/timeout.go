package store

import (
	"context"
	"time"

	"coinlizard/internal/coin"
	"coinlizard/internal/domain"
)

// TimedStore bounds every call of the wrapped store so a slow backend cannot
// hold a request longer than the configured read or write timeout.
type TimedStore struct {
	next         coin.PriceStore
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func WithTimeouts(next coin.PriceStore, read, write time.Duration) *TimedStore {
	return &TimedStore{next: next, readTimeout: read, writeTimeout: write}
}

func bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (s *TimedStore) StoreCurrentPrice(ctx context.Context, price domain.CurrentPrice) error {
	ctx, cancel := bounded(ctx, s.writeTimeout)
	defer cancel()
	return s.next.StoreCurrentPrice(ctx, price)
}

func (s *TimedStore) StorePriceHistory(ctx context.Context, history domain.PriceHistory) error {
	ctx, cancel := bounded(ctx, s.writeTimeout)
	defer cancel()
	return s.next.StorePriceHistory(ctx, history)
}

func (s *TimedStore) GetCurrentPrice(ctx context.Context, pair domain.TradingPair, exchange *domain.Exchange) ([]domain.CurrentPrice, error) {
	ctx, cancel := bounded(ctx, s.readTimeout)
	defer cancel()
	return s.next.GetCurrentPrice(ctx, pair, exchange)
}

func (s *TimedStore) GetPriceHistory(ctx context.Context, q domain.PriceQuery) (domain.PriceHistory, error) {
	ctx, cancel := bounded(ctx, s.readTimeout)
	defer cancel()
	return s.next.GetPriceHistory(ctx, q)
}
