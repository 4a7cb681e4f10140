package postgres

import (
	"context"
	"fmt"
	"time"

	"coinlizard/internal/domain"

	"gorm.io/gorm/clause"
)

// InsertPrice stores a snapshot. A snapshot already stored for the same
// exchange, pair and timestamp is left as is.
func (p *PostgresClient) InsertPrice(ctx context.Context, price domain.CurrentPrice) error {
	err := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "exchange"},
			{Name: "base"},
			{Name: "quote"},
			{Name: "timestamp"},
		},
		DoNothing: true,
	}).Create(ToPriceRecord(price)).Error
	if err != nil {
		return fmt.Errorf("%w: insert price: %w", domain.ErrDB, err)
	}
	return nil
}

// UpsertCandles stores every point of the series, replacing the price and
// volume of points that already exist.
func (p *PostgresClient) UpsertCandles(ctx context.Context, history domain.PriceHistory) error {
	records := ToCandleRecords(history)
	if len(records) == 0 {
		return nil
	}

	err := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "exchange"},
			{Name: "base"},
			{Name: "quote"},
			{Name: "interval"},
			{Name: "start"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"price", "volume"}),
	}).CreateInBatches(&records, 500).Error
	if err != nil {
		return fmt.Errorf("%w: upsert candles: %w", domain.ErrDB, err)
	}
	return nil
}

// LatestPrice returns the newest snapshot for the exchange and pair taken at or
// after since. ok is false when there is none.
func (p *PostgresClient) LatestPrice(ctx context.Context, exchange domain.Exchange, pair domain.TradingPair,
	since time.Time) (price domain.CurrentPrice, ok bool, err error) {
	var records []PriceRecord
	err = p.DB.WithContext(ctx).
		Where("exchange = ? AND base = ? AND quote = ? AND timestamp >= ?",
			string(exchange), pair.Base, pair.Quote, since.UTC()).
		Order("timestamp DESC").
		Limit(1).
		Find(&records).Error
	if err != nil {
		return domain.CurrentPrice{}, false, fmt.Errorf("%w: latest price: %w", domain.ErrDB, err)
	}
	if len(records) == 0 {
		return domain.CurrentPrice{}, false, nil
	}
	return records[0].ToDomain(), true, nil
}

// Candles returns the stored points of one exchange's series, newest first,
// filtered by the query's time range and limit.
func (p *PostgresClient) Candles(ctx context.Context, exchange domain.Exchange, q domain.PriceQuery) ([]domain.PriceHistoryPoint, error) {
	tx := p.DB.WithContext(ctx).
		Where(`exchange = ? AND base = ? AND quote = ? AND "interval" = ?`,
			string(exchange), q.Pair.Base, q.Pair.Quote, string(q.Interval))
	if q.StartTime != nil {
		tx = tx.Where("start >= ?", q.StartTime.UTC())
	}
	if q.EndTime != nil {
		tx = tx.Where("start <= ?", q.EndTime.UTC())
	}
	tx = tx.Order("start DESC")
	if q.Limit != nil && *q.Limit > 0 {
		tx = tx.Limit(*q.Limit)
	}

	var records []CandleRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: candles: %w", domain.ErrDB, err)
	}

	points := make([]domain.PriceHistoryPoint, 0, len(records))
	for _, r := range records {
		points = append(points, r.ToDomain())
	}
	return points, nil
}
