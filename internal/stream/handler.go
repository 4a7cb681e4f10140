package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"coinlizard/internal/domain"
	"coinlizard/pkg/binance"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// PriceWriter is the store side the stream feeds.
type PriceWriter interface {
	StoreCurrentPrice(ctx context.Context, price domain.CurrentPrice) error
}

const miniTickerEvent = "24hrMiniTicker"

// MakeMessageHandler returns a function that turns mini ticker frames into
// Binance snapshots and writes them to the store. pairs maps Binance symbols
// ("BTCUSDT") to the subscribed pair; frames for other symbols are ignored.
func MakeMessageHandler(logger *zap.Logger, store PriceWriter, pairs map[string]domain.TradingPair,
	writeTimeout time.Duration) func(msg []byte) {
	return func(msg []byte) {
		// "e" and "E" differ only by case, so peek with gjson; encoding/json
		// would match "E" against an "e" tag.
		if gjson.GetBytes(msg, "e").String() != miniTickerEvent {
			return // subscription acks and other frames
		}

		var event binance.MiniTickerEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			logger.Warn("failed to parse mini ticker payload", zap.Error(err))
			return
		}

		pair, ok := pairs[event.Symbol]
		if !ok {
			return
		}

		price, err := ToCurrentPrice(pair, event)
		if err != nil {
			logger.Warn("failed to convert mini ticker", zap.String("symbol", event.Symbol), zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := store.StoreCurrentPrice(ctx, price); err != nil {
			logger.Warn("failed to store streamed price", zap.String("symbol", event.Symbol), zap.Error(err))
		}
	}
}

// ToCurrentPrice maps a mini ticker event onto a snapshot: close is the price,
// quote volume the 24h volume and the event time the timestamp.
func ToCurrentPrice(pair domain.TradingPair, e binance.MiniTickerEvent) (domain.CurrentPrice, error) {
	price, err := strconv.ParseFloat(e.Close, 64)
	if err != nil {
		return domain.CurrentPrice{}, fmt.Errorf("%w: mini ticker close %q: %v", domain.ErrParse, e.Close, err)
	}

	var volume *float64
	if v, err := strconv.ParseFloat(e.QuoteVolume, 64); err == nil {
		volume = domain.Float64(v)
	}

	return domain.CurrentPrice{
		Exchange:  domain.Binance,
		Pair:      pair,
		Price:     price,
		Volume24h: volume,
		Timestamp: time.UnixMilli(e.EventTime).UTC(),
	}, nil
}
