package binance

import (
	"strings"

	"coinlizard/internal/domain"
)

const (
	// MaxKlineLimit is the per-request candle cap of /api/v3/klines.
	MaxKlineLimit = 1000
	// DefaultCandleCount is the window size used when a history request has no start time.
	DefaultCandleCount = 300
)

// klineIntervals maps a PriceInterval to the Binance kline interval token.
var klineIntervals = map[domain.PriceInterval]string{
	domain.OneMinute:      "1m",
	domain.FiveMinutes:    "5m",
	domain.FifteenMinutes: "15m",
	domain.OneHour:        "1h",
	domain.FourHours:      "4h",
	domain.OneDay:         "1d",
	domain.OneWeek:        "1w",
}

// KlineInterval returns the Binance interval token for the interval.
func KlineInterval(interval domain.PriceInterval) (string, bool) {
	token, ok := klineIntervals[interval]
	return token, ok
}

// Symbol formats a pair the way Binance names symbols, e.g. "BTCUSDT".
func Symbol(pair domain.TradingPair) string {
	return pair.Base + pair.Quote
}

// MiniTickerStream returns the stream name of the 24h rolling mini ticker, e.g. "btcusdt@miniTicker".
func MiniTickerStream(pair domain.TradingPair) string {
	return strings.ToLower(Symbol(pair)) + "@miniTicker"
}
