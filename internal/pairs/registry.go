package pairs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coinlizard/internal/domain"
	"coinlizard/internal/metrics"

	"go.uber.org/zap"
)

// Source lists the trading pairs of one exchange.
type Source interface {
	Name() domain.Exchange
	ListTradingPairs(ctx context.Context) ([]domain.TradingPair, error)
}

// Registry caches the last successful pair listing per exchange.
type Registry struct {
	sources map[domain.Exchange]Source
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.RWMutex
	pairs    map[domain.Exchange][]domain.TradingPair
	loadedAt map[domain.Exchange]time.Time
}

func NewRegistry(sources []Source, timeout time.Duration, logger *zap.Logger) *Registry {
	r := &Registry{
		sources:  make(map[domain.Exchange]Source, len(sources)),
		timeout:  timeout,
		logger:   logger.With(zap.String("component", "pairs")),
		pairs:    make(map[domain.Exchange][]domain.TradingPair),
		loadedAt: make(map[domain.Exchange]time.Time),
	}
	for _, s := range sources {
		r.sources[s.Name()] = s
	}
	return r
}

// Refresh reloads one exchange. On failure the previous listing is kept.
func (r *Registry) Refresh(ctx context.Context, ex domain.Exchange) error {
	src, ok := r.sources[ex]
	if !ok {
		return fmt.Errorf("%w: no pair source for exchange %s", domain.ErrNotFound, ex)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pairs, err := src.ListTradingPairs(ctx)
	metrics.RecordUpstream(string(ex), "list_pairs", err)
	if err != nil {
		r.logger.Error("failed to load trading pairs", zap.String("exchange", string(ex)), zap.Error(err))
		return err
	}

	r.mu.Lock()
	r.pairs[ex] = pairs
	r.loadedAt[ex] = time.Now().UTC()
	r.mu.Unlock()

	r.logger.Info("loaded trading pairs", zap.String("exchange", string(ex)), zap.Int("count", len(pairs)))
	return nil
}

// RefreshAll reloads every exchange concurrently. Failures are logged only.
func (r *Registry) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for ex := range r.sources {
		wg.Add(1)
		go func(ex domain.Exchange) {
			defer wg.Done()
			_ = r.Refresh(ctx, ex)
		}(ex)
	}
	wg.Wait()
}

// Get returns the cached listing, loading it first when the exchange was never loaded.
func (r *Registry) Get(ctx context.Context, ex domain.Exchange) ([]domain.TradingPair, error) {
	if pairs, ok := r.snapshot(ex); ok {
		return pairs, nil
	}
	if err := r.Refresh(ctx, ex); err != nil {
		return nil, err
	}
	pairs, _ := r.snapshot(ex)
	return pairs, nil
}

// LoadedAt reports when the exchange was last loaded successfully.
func (r *Registry) LoadedAt(ex domain.Exchange) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.loadedAt[ex]
	return t, ok
}

func (r *Registry) snapshot(ex domain.Exchange) ([]domain.TradingPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pairs, ok := r.pairs[ex]
	if !ok {
		return nil, false
	}
	cp := make([]domain.TradingPair, len(pairs))
	copy(cp, pairs)
	return cp, true
}
