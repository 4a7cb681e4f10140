package coin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coinlizard/internal/domain"
	"coinlizard/internal/metrics"

	"go.uber.org/zap"
)

// Service resolves coin lookups against the store and the exchanges.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	catalog    *Catalog
	connectors map[domain.Exchange]ExchangeConnector
	store      PriceStore
	timeout    time.Duration
	logger     *zap.Logger
}

// NewService wires the service. A connector is required for every supported exchange;
// upstreamTimeout bounds each individual connector call.
func NewService(catalog *Catalog, connectors []ExchangeConnector, store PriceStore,
	upstreamTimeout time.Duration, logger *zap.Logger) (*Service, error) {
	byName := make(map[domain.Exchange]ExchangeConnector, len(connectors))
	for _, c := range connectors {
		byName[c.Name()] = c
	}
	for _, ex := range domain.Exchanges {
		if _, ok := byName[ex]; !ok {
			return nil, fmt.Errorf("%w: no connector for exchange %s", domain.ErrConfig, ex)
		}
	}

	return &Service{
		catalog:    catalog,
		connectors: byName,
		store:      store,
		timeout:    upstreamTimeout,
		logger:     logger.With(zap.String("component", "coin-service")),
	}, nil
}

func (s *Service) ListCoins() []domain.Coin {
	return s.catalog.List()
}

func (s *Service) GetCoin(id string) (domain.Coin, error) {
	return s.catalog.Get(id)
}

// GetCurrentPrice serves fresh snapshots from the store, or fans out to the
// requested exchange (or all of them) and writes every fetched price back.
// Results are in Coinbase then Binance order.
func (s *Service) GetCurrentPrice(ctx context.Context, coinID, quote string, exchange *domain.Exchange) ([]domain.CurrentPrice, error) {
	coin, err := s.catalog.Get(coinID)
	if err != nil {
		return nil, err
	}
	pair := domain.NewTradingPair(coin.Symbol, quote)
	log := s.logger.With(zap.String("coin", coinID), zap.Stringer("pair", pair))

	cached, err := s.store.GetCurrentPrice(ctx, pair, exchange)
	switch {
	case err != nil:
		metrics.RecordCacheLookup(metrics.KindCurrentPrice, metrics.ResultError)
		log.Debug("store read failed, fetching from exchanges", zap.Error(err))
	case len(cached) > 0:
		metrics.RecordCacheLookup(metrics.KindCurrentPrice, metrics.ResultHit)
		log.Debug("serving current price from store", zap.Int("results", len(cached)))
		return cached, nil
	default:
		metrics.RecordCacheLookup(metrics.KindCurrentPrice, metrics.ResultMiss)
		log.Debug("no fresh price in store, fetching from exchanges")
	}

	exchanges := domain.Exchanges
	if exchange != nil {
		exchanges = []domain.Exchange{*exchange}
	}

	// one slot per exchange keeps the output order independent of completion order
	results := make([]*domain.CurrentPrice, len(exchanges))
	var wg sync.WaitGroup
	for i, ex := range exchanges {
		conn, ok := s.connectors[ex]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, conn ExchangeConnector) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			price, err := conn.GetCurrentPrice(callCtx, pair)
			metrics.RecordUpstream(string(conn.Name()), "current_price", err)
			if err != nil {
				log.Warn("failed to get price from exchange", zap.String("exchange", string(conn.Name())), zap.Error(err))
				return
			}
			results[i] = &price
		}(i, conn)
	}
	wg.Wait()

	prices := make([]domain.CurrentPrice, 0, len(results))
	for _, p := range results {
		if p == nil {
			continue
		}
		price := *p
		s.bestEffort(ctx, "store current price", func(ctx context.Context) error {
			return s.store.StoreCurrentPrice(ctx, price)
		})
		prices = append(prices, price)
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: failed to get current price for %s", domain.ErrExchange, pair)
	}
	return prices, nil
}

// GetPriceHistory serves a stored series when one matches, otherwise fetches
// from the requested exchange. Without an exchange Coinbase is tried first and
// Binance is the fallback; the fallback's error is the one returned.
func (s *Service) GetPriceHistory(ctx context.Context, coinID, quote string, interval domain.PriceInterval,
	exchange *domain.Exchange, start, end *time.Time, limit *int) (domain.PriceHistory, error) {
	coin, err := s.catalog.Get(coinID)
	if err != nil {
		return domain.PriceHistory{}, err
	}
	pair := domain.NewTradingPair(coin.Symbol, quote)
	log := s.logger.With(zap.String("coin", coinID), zap.Stringer("pair", pair), zap.String("interval", string(interval)))

	query := domain.PriceQuery{
		Pair:      pair,
		Exchange:  exchange,
		Interval:  interval,
		StartTime: start,
		EndTime:   end,
		Limit:     limit,
	}

	cached, err := s.store.GetPriceHistory(ctx, query)
	switch {
	case err != nil:
		metrics.RecordCacheLookup(metrics.KindHistory, metrics.ResultError)
		log.Debug("store read failed, fetching from exchanges", zap.Error(err))
	case len(cached.Data) > 0:
		metrics.RecordCacheLookup(metrics.KindHistory, metrics.ResultHit)
		log.Debug("serving history from store", zap.Int("points", len(cached.Data)))
		return cached, nil
	default:
		metrics.RecordCacheLookup(metrics.KindHistory, metrics.ResultMiss)
		log.Debug("no history in store, fetching from exchanges")
	}

	var history domain.PriceHistory
	if exchange != nil {
		history, err = s.fetchHistory(ctx, *exchange, query)
		if err != nil {
			return domain.PriceHistory{}, err
		}
	} else {
		history, err = s.fetchHistory(ctx, domain.Coinbase, query)
		if err != nil {
			log.Warn("coinbase history failed, falling back to binance", zap.Error(err))
			history, err = s.fetchHistory(ctx, domain.Binance, query)
			if err != nil {
				return domain.PriceHistory{}, err
			}
		}
	}

	s.bestEffort(ctx, "store price history", func(ctx context.Context) error {
		return s.store.StorePriceHistory(ctx, history)
	})
	return history, nil
}

func (s *Service) fetchHistory(ctx context.Context, ex domain.Exchange, q domain.PriceQuery) (domain.PriceHistory, error) {
	conn, ok := s.connectors[ex]
	if !ok {
		return domain.PriceHistory{}, fmt.Errorf("%w: no connector for exchange %s", domain.ErrInternal, ex)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	history, err := conn.GetPriceHistory(callCtx, q.Pair, q.Interval, q.StartTime, q.EndTime, q.Limit)
	metrics.RecordUpstream(string(ex), "price_history", err)
	return history, err
}

// bestEffort runs a store write whose failure must not fail the request.
func (s *Service) bestEffort(ctx context.Context, op string, write func(context.Context) error) {
	if err := write(ctx); err != nil {
		s.logger.Warn("best-effort write failed", zap.String("op", op), zap.Error(err))
	}
}
