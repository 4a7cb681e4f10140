package coin

import (
	"context"
	"time"

	"coinlizard/internal/domain"
)

// ExchangeConnector normalizes one exchange's REST API into the common price shapes.
// Implementations must be safe for concurrent use.
type ExchangeConnector interface {
	Name() domain.Exchange
	GetCurrentPrice(ctx context.Context, pair domain.TradingPair) (domain.CurrentPrice, error)
	GetPriceHistory(ctx context.Context, pair domain.TradingPair, interval domain.PriceInterval,
		start, end *time.Time, limit *int) (domain.PriceHistory, error)
	ListTradingPairs(ctx context.Context) ([]domain.TradingPair, error)
}

// PriceStore persists snapshots and series and serves recent data back.
// GetCurrentPrice returns at most one fresh snapshot per exchange.
type PriceStore interface {
	StoreCurrentPrice(ctx context.Context, price domain.CurrentPrice) error
	StorePriceHistory(ctx context.Context, history domain.PriceHistory) error
	GetCurrentPrice(ctx context.Context, pair domain.TradingPair, exchange *domain.Exchange) ([]domain.CurrentPrice, error)
	GetPriceHistory(ctx context.Context, query domain.PriceQuery) (domain.PriceHistory, error)
}
