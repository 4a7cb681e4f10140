package store

import (
	"context"
	"errors"
	"time"

	"coinlizard/internal/domain"

	"go.uber.org/zap"
)

// DB is the durable side of the composite store (pkg/storage/postgres).
type DB interface {
	InsertPrice(ctx context.Context, price domain.CurrentPrice) error
	UpsertCandles(ctx context.Context, history domain.PriceHistory) error
	LatestPrice(ctx context.Context, exchange domain.Exchange, pair domain.TradingPair, since time.Time) (domain.CurrentPrice, bool, error)
	Candles(ctx context.Context, exchange domain.Exchange, q domain.PriceQuery) ([]domain.PriceHistoryPoint, error)
}

// Cache holds the latest snapshot per exchange and pair (pkg/storage/redis).
type Cache interface {
	SetLatest(ctx context.Context, price domain.CurrentPrice) error
	GetLatest(ctx context.Context, exchange domain.Exchange, pair domain.TradingPair) (domain.CurrentPrice, bool, error)
}

// CompositeStore serves current prices from the cache with the database as
// fallback, and history from the database only. cache may be nil.
type CompositeStore struct {
	db     DB
	cache  Cache
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewCompositeStore(db DB, cache Cache, ttl time.Duration, logger *zap.Logger) *CompositeStore {
	return &CompositeStore{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(zap.String("component", "store")),
	}
}

func (s *CompositeStore) StoreCurrentPrice(ctx context.Context, price domain.CurrentPrice) error {
	var errs []error
	if err := s.db.InsertPrice(ctx, price); err != nil {
		errs = append(errs, err)
	}
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, price); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *CompositeStore) StorePriceHistory(ctx context.Context, history domain.PriceHistory) error {
	return s.db.UpsertCandles(ctx, history)
}

// GetCurrentPrice returns one fresh snapshot per exchange that has one. An
// error is returned only when nothing was found and a lookup failed.
func (s *CompositeStore) GetCurrentPrice(ctx context.Context, pair domain.TradingPair, exchange *domain.Exchange) ([]domain.CurrentPrice, error) {
	cutoff := s.now().Add(-s.ttl)

	var (
		out  []domain.CurrentPrice
		errs []error
	)
	for _, ex := range exchangesFor(exchange) {
		if s.cache != nil {
			p, ok, err := s.cache.GetLatest(ctx, ex, pair)
			if err != nil {
				s.logger.Debug("cache read failed", zap.String("exchange", string(ex)), zap.Error(err))
			}
			if ok && !p.Timestamp.Before(cutoff) {
				out = append(out, p)
				continue
			}
		}

		p, ok, err := s.db.LatestPrice(ctx, ex, pair, cutoff)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, p)

		if s.cache != nil {
			if err := s.cache.SetLatest(ctx, p); err != nil {
				s.logger.Debug("cache refill failed", zap.String("exchange", string(ex)), zap.Error(err))
			}
		}
	}

	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// GetPriceHistory returns the first non-empty stored series, trying Coinbase
// then Binance when the query names no exchange.
func (s *CompositeStore) GetPriceHistory(ctx context.Context, q domain.PriceQuery) (domain.PriceHistory, error) {
	exchanges := exchangesFor(q.Exchange)
	result := domain.PriceHistory{Exchange: exchanges[0], Pair: q.Pair, Interval: q.Interval}

	var errs []error
	for _, ex := range exchanges {
		points, err := s.db.Candles(ctx, ex, q)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(points) == 0 {
			continue
		}
		result.Exchange = ex
		result.Data = domain.SortNewestFirst(points, q.Limit)
		return result, nil
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	return result, nil
}
