package postgres

import (
	"time"

	"coinlizard/internal/domain"
)

// PriceRecord is one observed current-price snapshot.
type PriceRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Exchange  string    `gorm:"type:varchar(16);not null;index:idx_price_exchange_pair_ts,unique"`
	Base      string    `gorm:"type:varchar(16);not null;index:idx_price_exchange_pair_ts,unique"`
	Quote     string    `gorm:"type:varchar(16);not null;index:idx_price_exchange_pair_ts,unique"`
	Timestamp time.Time `gorm:"not null;index:idx_price_exchange_pair_ts,unique"`

	Price     float64  `gorm:"type:numeric;not null"`
	Volume24h *float64 `gorm:"column:volume_24h;type:numeric"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (PriceRecord) TableName() string {
	return "price_record"
}

// CandleRecord is one history point of a series, keyed by its interval start.
type CandleRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Exchange string    `gorm:"type:varchar(16);not null;index:idx_candle_exchange_pair_interval_start,unique"`
	Base     string    `gorm:"type:varchar(16);not null;index:idx_candle_exchange_pair_interval_start,unique"`
	Quote    string    `gorm:"type:varchar(16);not null;index:idx_candle_exchange_pair_interval_start,unique"`
	Interval string    `gorm:"type:varchar(4);not null;index:idx_candle_exchange_pair_interval_start,unique"`
	Start    time.Time `gorm:"not null;index:idx_candle_exchange_pair_interval_start,unique"`

	Price  float64  `gorm:"type:numeric;not null"`
	Volume *float64 `gorm:"type:numeric"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (CandleRecord) TableName() string {
	return "candle_record"
}

// ToPriceRecord converts a snapshot into a row.
func ToPriceRecord(p domain.CurrentPrice) *PriceRecord {
	return &PriceRecord{
		Exchange:  string(p.Exchange),
		Base:      p.Pair.Base,
		Quote:     p.Pair.Quote,
		Timestamp: p.Timestamp.UTC(),
		Price:     p.Price,
		Volume24h: p.Volume24h,
	}
}

func (r PriceRecord) ToDomain() domain.CurrentPrice {
	return domain.CurrentPrice{
		Exchange:  domain.Exchange(r.Exchange),
		Pair:      domain.TradingPair{Base: r.Base, Quote: r.Quote},
		Price:     r.Price,
		Volume24h: r.Volume24h,
		Timestamp: r.Timestamp.UTC(),
	}
}

// ToCandleRecords flattens a series into rows.
func ToCandleRecords(h domain.PriceHistory) []CandleRecord {
	records := make([]CandleRecord, 0, len(h.Data))
	for _, point := range h.Data {
		records = append(records, CandleRecord{
			Exchange: string(h.Exchange),
			Base:     h.Pair.Base,
			Quote:    h.Pair.Quote,
			Interval: string(h.Interval),
			Start:    point.Timestamp.UTC(),
			Price:    point.Price,
			Volume:   point.Volume,
		})
	}
	return records
}

func (r CandleRecord) ToDomain() domain.PriceHistoryPoint {
	return domain.PriceHistoryPoint{
		Timestamp: r.Start.UTC(),
		Price:     r.Price,
		Volume:    r.Volume,
	}
}
