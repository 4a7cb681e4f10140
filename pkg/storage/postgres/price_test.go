package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinlizard/internal/domain"
	"coinlizard/pkg/storage/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var btcUSD = domain.TradingPair{Base: "BTC", Quote: "USD"}

func newMockClient(t *testing.T) (*postgres.PostgresClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(gormpg.New(gormpg.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return &postgres.PostgresClient{DB: gdb}, mock
}

// go test -v --run TestInsertPrice
func TestInsertPrice(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(`INSERT INTO "price_record" .* ON CONFLICT .* DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err := client.InsertPrice(context.Background(), domain.CurrentPrice{
		Exchange:  domain.Coinbase,
		Pair:      btcUSD,
		Price:     50000,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// go test -v --run TestInsertPriceError
func TestInsertPriceError(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(`INSERT INTO "price_record"`).WillReturnError(errors.New("connection reset"))

	err := client.InsertPrice(context.Background(), domain.CurrentPrice{Exchange: domain.Binance, Pair: btcUSD})
	assert.ErrorIs(t, err, domain.ErrDB)
}

// go test -v --run TestUpsertCandles
func TestUpsertCandles(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(`INSERT INTO "candle_record" .* ON CONFLICT .* DO UPDATE SET`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	now := time.Now().UTC().Truncate(time.Hour)
	err := client.UpsertCandles(context.Background(), domain.PriceHistory{
		Exchange: domain.Coinbase,
		Pair:     btcUSD,
		Interval: domain.OneHour,
		Data: []domain.PriceHistoryPoint{
			{Timestamp: now, Price: 2, Volume: domain.Float64(1)},
			{Timestamp: now.Add(-time.Hour), Price: 1},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// go test -v --run TestUpsertCandlesEmpty
func TestUpsertCandlesEmpty(t *testing.T) {
	client, mock := newMockClient(t)

	err := client.UpsertCandles(context.Background(), domain.PriceHistory{Exchange: domain.Binance, Pair: btcUSD})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// go test -v --run TestLatestPrice
func TestLatestPrice(t *testing.T) {
	client, mock := newMockClient(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "price_record" WHERE .* ORDER BY timestamp DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "exchange", "base", "quote", "timestamp", "price", "volume_24h"}).
			AddRow(7, "binance", "BTC", "USD", ts, 50100.5, 1234.0))

	price, ok, err := client.LatestPrice(context.Background(), domain.Binance, btcUSD, ts.Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, domain.Binance, price.Exchange)
	assert.Equal(t, btcUSD, price.Pair)
	assert.InDelta(t, 50100.5, price.Price, 1e-9)
	require.NotNil(t, price.Volume24h)
	assert.InDelta(t, 1234.0, *price.Volume24h, 1e-9)
	assert.True(t, ts.Equal(price.Timestamp))
}

// go test -v --run TestLatestPriceMiss
func TestLatestPriceMiss(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(`SELECT \* FROM "price_record"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, ok, err := client.LatestPrice(context.Background(), domain.Coinbase, btcUSD, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

// go test -v --run TestCandles
func TestCandles(t *testing.T) {
	client, mock := newMockClient(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	limit := 2

	mock.ExpectQuery(`SELECT \* FROM "candle_record" WHERE .*"interval" = .* AND start >= .* ORDER BY start DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "exchange", "base", "quote", "interval", "start", "price", "volume"}).
			AddRow(2, "coinbase", "BTC", "USD", "1d", day, 101.0, nil).
			AddRow(1, "coinbase", "BTC", "USD", "1d", day.Add(-24*time.Hour), 100.0, 10.0))

	start := day.Add(-48 * time.Hour)
	points, err := client.Candles(context.Background(), domain.Coinbase, domain.PriceQuery{
		Pair:      btcUSD,
		Interval:  domain.OneDay,
		StartTime: &start,
		Limit:     &limit,
	})
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.InDelta(t, 101.0, points[0].Price, 1e-9)
	assert.Nil(t, points[0].Volume)
	require.NotNil(t, points[1].Volume)
	assert.InDelta(t, 10.0, *points[1].Volume, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
