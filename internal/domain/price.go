package domain

import (
	"sort"
	"time"
)

// CurrentPrice is one spot snapshot of a pair from one exchange.
type CurrentPrice struct {
	Exchange  Exchange    `json:"exchange"`
	Pair      TradingPair `json:"pair"`
	Price     float64     `json:"price"`
	Volume24h *float64    `json:"volume_24h"` // quote-denominated, nil when the exchange does not report it
	Timestamp time.Time   `json:"timestamp"`
}

// PriceHistoryPoint is the close price and volume of one candle.
type PriceHistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    *float64  `json:"volume"`
}

// PriceHistory is a candle series, newest first.
type PriceHistory struct {
	Exchange Exchange            `json:"exchange"`
	Pair     TradingPair         `json:"pair"`
	Interval PriceInterval       `json:"interval"`
	Data     []PriceHistoryPoint `json:"data"`
}

// PriceQuery holds the parameters of a history lookup against the store.
type PriceQuery struct {
	Pair      TradingPair
	Exchange  *Exchange
	Interval  PriceInterval
	StartTime *time.Time
	EndTime   *time.Time
	Limit     *int
}

// SortNewestFirst orders points by timestamp descending and truncates to limit when given.
func SortNewestFirst(points []PriceHistoryPoint, limit *int) []PriceHistoryPoint {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.After(points[j].Timestamp)
	})
	if limit != nil && *limit >= 0 && len(points) > *limit {
		points = points[:*limit]
	}
	return points
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
