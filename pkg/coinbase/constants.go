package coinbase

import "coinlizard/internal/domain"

const (
	// DefaultCandleCount is the window size used when a history request has no start time.
	DefaultCandleCount = 300
)

// granularities maps a PriceInterval to Coinbase's candle granularity in seconds.
var granularities = map[domain.PriceInterval]int{
	domain.OneMinute:      60,
	domain.FiveMinutes:    300,
	domain.FifteenMinutes: 900,
	domain.OneHour:        3600,
	domain.FourHours:      14400,
	domain.OneDay:         86400,
	domain.OneWeek:        604800,
}

// Granularity returns the Coinbase granularity (seconds) for the interval.
func Granularity(interval domain.PriceInterval) (int, bool) {
	g, ok := granularities[interval]
	return g, ok
}

// ProductID formats a pair the way Coinbase names products, e.g. "BTC-USD".
func ProductID(pair domain.TradingPair) string {
	return pair.Base + "-" + pair.Quote
}
