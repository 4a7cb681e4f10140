package coinbase

import (
	"strconv"
	"time"

	"coinlizard/internal/domain"

	"github.com/tidwall/gjson"
)

// ParseCandles converts Coinbase candle rows [time, low, high, open, close, volume] into
// history points. Rows that are short or carry an unusable time or close are skipped;
// an unusable volume only drops the volume.
func ParseCandles(rows gjson.Result) []domain.PriceHistoryPoint {
	var out []domain.PriceHistoryPoint

	rows.ForEach(func(_, row gjson.Result) bool {
		fields := row.Array()
		if len(fields) < 6 {
			return true // skip incomplete row
		}

		if fields[0].Type != gjson.Number {
			return true
		}
		ts := time.Unix(fields[0].Int(), 0).UTC()

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

// numeric reads a JSON number or a decimal string.
func numeric(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		v, err := strconv.ParseFloat(r.Str, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}
