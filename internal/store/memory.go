package store

import (
	"context"
	"sync"
	"time"

	"coinlizard/internal/domain"
)

// MemoryStore keeps snapshots and series in process. Each pair has its own lock
// so writers for different pairs do not contend.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	globalMu sync.RWMutex
	data     map[domain.TradingPair]*pairStore
}

type seriesKey struct {
	exchange domain.Exchange
	interval domain.PriceInterval
}

type pairStore struct {
	mu     sync.Mutex
	latest map[domain.Exchange]domain.CurrentPrice
	series map[seriesKey]map[int64]domain.PriceHistoryPoint // keyed by unix seconds
}

// NewMemoryStore returns a store treating snapshots older than ttl as absent.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[domain.TradingPair]*pairStore),
	}
}

func (s *MemoryStore) pair(p domain.TradingPair, create bool) *pairStore {
	s.globalMu.RLock()
	ps, ok := s.data[p]
	s.globalMu.RUnlock()
	if ok || !create {
		return ps
	}

	s.globalMu.Lock()
	defer s.globalMu.Unlock()
	if ps, ok = s.data[p]; !ok {
		ps = &pairStore{
			latest: make(map[domain.Exchange]domain.CurrentPrice),
			series: make(map[seriesKey]map[int64]domain.PriceHistoryPoint),
		}
		s.data[p] = ps
	}
	return ps
}

// StoreCurrentPrice keeps the newest snapshot per exchange.
func (s *MemoryStore) StoreCurrentPrice(_ context.Context, price domain.CurrentPrice) error {
	ps := s.pair(price.Pair, true)

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if cur, ok := ps.latest[price.Exchange]; ok && cur.Timestamp.After(price.Timestamp) {
		return nil
	}
	ps.latest[price.Exchange] = price
	return nil
}

// StorePriceHistory upserts every point of the series by timestamp.
func (s *MemoryStore) StorePriceHistory(_ context.Context, history domain.PriceHistory) error {
	if len(history.Data) == 0 {
		return nil
	}
	ps := s.pair(history.Pair, true)
	key := seriesKey{exchange: history.Exchange, interval: history.Interval}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	points, ok := ps.series[key]
	if !ok {
		points = make(map[int64]domain.PriceHistoryPoint, len(history.Data))
		ps.series[key] = points
	}
	for _, p := range history.Data {
		points[p.Timestamp.Unix()] = p
	}
	return nil
}

// GetCurrentPrice returns the fresh snapshots of the pair, Coinbase before Binance.
func (s *MemoryStore) GetCurrentPrice(_ context.Context, pair domain.TradingPair, exchange *domain.Exchange) ([]domain.CurrentPrice, error) {
	ps := s.pair(pair, false)
	if ps == nil {
		return nil, nil
	}
	cutoff := s.now().Add(-s.ttl)

	ps.mu.Lock()
	defer ps.mu.Unlock()

	var out []domain.CurrentPrice
	for _, ex := range exchangesFor(exchange) {
		if p, ok := ps.latest[ex]; ok && !p.Timestamp.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetPriceHistory returns the first non-empty matching series, trying Coinbase
// then Binance when the query names no exchange.
func (s *MemoryStore) GetPriceHistory(_ context.Context, q domain.PriceQuery) (domain.PriceHistory, error) {
	exchanges := exchangesFor(q.Exchange)
	result := domain.PriceHistory{Exchange: exchanges[0], Pair: q.Pair, Interval: q.Interval}

	ps := s.pair(q.Pair, false)
	if ps == nil {
		return result, nil
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, ex := range exchanges {
		points := ps.series[seriesKey{exchange: ex, interval: q.Interval}]
		var matched []domain.PriceHistoryPoint
		for _, p := range points {
			if inRange(p.Timestamp, q.StartTime, q.EndTime) {
				matched = append(matched, p)
			}
		}
		if len(matched) == 0 {
			continue
		}
		result.Exchange = ex
		result.Data = domain.SortNewestFirst(matched, q.Limit)
		return result, nil
	}
	return result, nil
}

func inRange(ts time.Time, start, end *time.Time) bool {
	if start != nil && ts.Before(*start) {
		return false
	}
	if end != nil && ts.After(*end) {
		return false
	}
	return true
}

// exchangesFor expands an optional filter into the lookup order.
func exchangesFor(exchange *domain.Exchange) []domain.Exchange {
	if exchange != nil {
		return []domain.Exchange{*exchange}
	}
	return domain.Exchanges
}
