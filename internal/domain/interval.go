package domain

import (
	"fmt"
	"time"
)

// PriceInterval is a candle granularity.
type PriceInterval string

const (
	OneMinute      PriceInterval = "1m"
	FiveMinutes    PriceInterval = "5m"
	FifteenMinutes PriceInterval = "15m"
	OneHour        PriceInterval = "1h"
	FourHours      PriceInterval = "4h"
	OneDay         PriceInterval = "1d"
	OneWeek        PriceInterval = "1w"
)

var intervalDurations = map[PriceInterval]time.Duration{
	OneMinute:      time.Minute,
	FiveMinutes:    5 * time.Minute,
	FifteenMinutes: 15 * time.Minute,
	OneHour:        time.Hour,
	FourHours:      4 * time.Hour,
	OneDay:         24 * time.Hour,
	OneWeek:        7 * 24 * time.Hour,
}

// ParseInterval parses a request token such as "1h" into a PriceInterval.
func ParseInterval(s string) (PriceInterval, error) {
	interval := PriceInterval(s)
	if !interval.IsValid() {
		return "", fmt.Errorf("%w: unknown interval: %s. Supported intervals: 1m, 5m, 15m, 1h, 4h, 1d, 1w", ErrParse, s)
	}
	return interval, nil
}

// IsValid reports whether the interval is one of the predefined granularities.
func (i PriceInterval) IsValid() bool {
	_, ok := intervalDurations[i]
	return ok
}

// Duration returns the fixed length of one candle.
func (i PriceInterval) Duration() time.Duration {
	return intervalDurations[i]
}

func (i PriceInterval) String() string {
	return string(i)
}
