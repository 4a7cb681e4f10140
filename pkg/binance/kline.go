package binance

import (
	"strconv"
	"time"

	"coinlizard/internal/domain"

	"github.com/tidwall/gjson"
)

// ParseKlines converts Binance kline rows [openTime(ms), open, high, low, close, volume, ...]
// into history points. Rows that are short or carry an unusable open time or close are
// skipped; an unusable volume only drops the volume.
func ParseKlines(rows gjson.Result) []domain.PriceHistoryPoint {
	var out []domain.PriceHistoryPoint

	rows.ForEach(func(_, row gjson.Result) bool {
		fields := row.Array()
		if len(fields) < 6 {
			return true // skip incomplete row
		}

		if fields[0].Type != gjson.Number {
			return true
		}
		ts := time.UnixMilli(fields[0].Int()).UTC()

		closeVal, ok := numeric(fields[4])
		if !ok {
			return true
		}

		var volume *float64
		if v, ok := numeric(fields[5]); ok {
			volume = domain.Float64(v)
		}

		out = append(out, domain.PriceHistoryPoint{
			Timestamp: ts,
			Price:     closeVal,
			Volume:    volume,
		})
		return true
	})

	return out
}

// numeric reads a decimal string (Binance's encoding) or a plain JSON number.
func numeric(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.String:
		v, err := strconv.ParseFloat(r.Str, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	case gjson.Number:
		return r.Float(), true
	default:
		return 0, false
	}
}
