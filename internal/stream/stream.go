package stream

import (
	"context"
	"time"

	"coinlizard/internal/domain"
	"coinlizard/pkg/binance"

	"go.uber.org/zap"
)

// Start connects to the Binance stream endpoint, subscribes to the mini ticker
// of every pair and feeds the store until ctx is cancelled. The returned client
// must be closed by the caller.
func Start(ctx context.Context, url string, pairs []domain.TradingPair, store PriceWriter,
	writeTimeout time.Duration, logger *zap.Logger) (*binance.WSClient, error) {
	bySymbol := make(map[string]domain.TradingPair, len(pairs))
	streams := make([]string, 0, len(pairs))
	for _, p := range pairs {
		bySymbol[binance.Symbol(p)] = p
		streams = append(streams, binance.MiniTickerStream(p))
	}

	client := binance.NewWSClient(url, streams, logger)
	client.SetMessageHandler(MakeMessageHandler(logger, store, bySymbol, writeTimeout))

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	go client.Listen(ctx)

	logger.Info("ticker stream started", zap.Int("pairs", len(pairs)))
	return client, nil
}
