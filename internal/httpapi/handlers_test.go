package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinlizard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type historyCall struct {
	coinID   string
	quote    string
	interval domain.PriceInterval
	exchange *domain.Exchange
	start    *time.Time
	end      *time.Time
	limit    *int
}

type fakeService struct {
	prices   []domain.CurrentPrice
	history  domain.PriceHistory
	err      error
	quote    string
	exchange *domain.Exchange
	hist     historyCall
}

func (f *fakeService) ListCoins() []domain.Coin {
	return []domain.Coin{{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"}}
}

func (f *fakeService) GetCurrentPrice(_ context.Context, _ string, quote string, exchange *domain.Exchange) ([]domain.CurrentPrice, error) {
	f.quote, f.exchange = quote, exchange
	return f.prices, f.err
}

func (f *fakeService) GetPriceHistory(_ context.Context, coinID, quote string, interval domain.PriceInterval,
	exchange *domain.Exchange, start, end *time.Time, limit *int) (domain.PriceHistory, error) {
	f.hist = historyCall{coinID, quote, interval, exchange, start, end, limit}
	return f.history, f.err
}

type fakePairs struct {
	pairs    []domain.TradingPair
	loadedAt time.Time
	err      error
}

func (f *fakePairs) Get(context.Context, domain.Exchange) ([]domain.TradingPair, error) {
	return f.pairs, f.err
}

func (f *fakePairs) LoadedAt(domain.Exchange) (time.Time, bool) {
	return f.loadedAt, !f.loadedAt.IsZero()
}

func newTestRouter(svc *fakeService, pairs *fakePairs, checks map[string]HealthCheck) http.Handler {
	return newRouter(&handlers{svc: svc, pairs: pairs, checks: checks, logger: zap.NewNop()})
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

// go test -v --run TestListCoins
func TestListCoins(t *testing.T) {
	rr := do(t, newTestRouter(&fakeService{}, &fakePairs{}, nil), http.MethodGet, "/api/v1/coins")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
	assert.JSONEq(t, `[{"id":"bitcoin","name":"Bitcoin","symbol":"BTC"}]`, rr.Body.String())
}

// go test -v --run TestGetCurrentPriceHandler
func TestGetCurrentPriceHandler(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := &fakeService{prices: []domain.CurrentPrice{{
		Exchange:  domain.Coinbase,
		Pair:      domain.TradingPair{Base: "BTC", Quote: "USD"},
		Price:     50000,
		Timestamp: ts,
	}}}
	router := newTestRouter(svc, &fakePairs{}, nil)

	rr := do(t, router, http.MethodGet, "/api/v1/coins/bitcoin/price?exchange=coinbase")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"exchange":"coinbase","pair":{"base":"BTC","quote":"USD"},"price":50000,"volume_24h":null,"timestamp":"2024-05-01T12:00:00Z"}]`, rr.Body.String())
	assert.Equal(t, "USD", svc.quote)
	require.NotNil(t, svc.exchange)
	assert.Equal(t, domain.Coinbase, *svc.exchange)

	rr = do(t, router, http.MethodGet, "/api/v1/coins/bitcoin/price?currency=eur")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "eur", svc.quote)
	assert.Nil(t, svc.exchange)
}

// go test -v --run TestErrorStatusMapping
func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{name: "unknown exchange", target: "/api/v1/coins/bitcoin/price?exchange=kraken", status: http.StatusBadRequest},
		{name: "unknown coin", target: "/api/v1/coins/doesnotexist/price", err: fmt.Errorf("%w: coin", domain.ErrNotFound), status: http.StatusNotFound},
		{name: "exchange failure", target: "/api/v1/coins/bitcoin/price", err: fmt.Errorf("%w: both down", domain.ErrExchange), status: http.StatusBadGateway},
		{name: "transport failure", target: "/api/v1/coins/bitcoin/price", err: fmt.Errorf("%w: dial", domain.ErrHTTP), status: http.StatusBadGateway},
		{name: "db failure", target: "/api/v1/coins/bitcoin/price", err: fmt.Errorf("%w: gone", domain.ErrDB), status: http.StatusInternalServerError},
		{name: "unclassified", target: "/api/v1/coins/bitcoin/price", err: errors.New("boom"), status: http.StatusInternalServerError},
		{name: "unknown interval", target: "/api/v1/coins/bitcoin/history/daily?interval=2d", status: http.StatusBadRequest},
		{name: "bad start", target: "/api/v1/coins/bitcoin/history/daily?start=yesterday", status: http.StatusBadRequest},
		{name: "bad limit", target: "/api/v1/coins/bitcoin/history/daily?limit=-1", status: http.StatusBadRequest},
		{name: "unknown pairs exchange", target: "/api/v1/exchanges/kraken/pairs", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeService{err: tt.err}, &fakePairs{}, nil)
			rr := do(t, router, http.MethodGet, tt.target)

			assert.Equal(t, tt.status, rr.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

// go test -v --run TestGetPriceHistoryHandler
func TestGetPriceHistoryHandler(t *testing.T) {
	svc := &fakeService{history: domain.PriceHistory{Exchange: domain.Binance, Interval: domain.OneHour}}
	router := newTestRouter(svc, &fakePairs{}, nil)

	rr := do(t, router, http.MethodGet,
		"/api/v1/coins/ethereum/history/daily?currency=usdt&exchange=binance&interval=1h&start=2024-05-01T00:00:00Z&end=2024-05-02T00:00:00%2B02:00&limit=5")
	require.Equal(t, http.StatusOK, rr.Code)

	call := svc.hist
	assert.Equal(t, "ethereum", call.coinID)
	assert.Equal(t, "usdt", call.quote)
	assert.Equal(t, domain.OneHour, call.interval)
	require.NotNil(t, call.exchange)
	assert.Equal(t, domain.Binance, *call.exchange)
	require.NotNil(t, call.start)
	assert.True(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).Equal(*call.start))
	require.NotNil(t, call.end)
	assert.True(t, time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC).Equal(*call.end))
	require.NotNil(t, call.limit)
	assert.Equal(t, 5, *call.limit)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []any{}, body["data"])
}

// go test -v --run TestGetPriceHistoryDefaults
func TestGetPriceHistoryDefaults(t *testing.T) {
	svc := &fakeService{}
	rr := do(t, newTestRouter(svc, &fakePairs{}, nil), http.MethodGet, "/api/v1/coins/bitcoin/history/daily")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "USD", svc.hist.quote)
	assert.Equal(t, domain.OneDay, svc.hist.interval)
	assert.Nil(t, svc.hist.exchange)
	assert.Nil(t, svc.hist.start)
	assert.Nil(t, svc.hist.limit)
}

// go test -v --run TestListPairsHandler
func TestListPairsHandler(t *testing.T) {
	pairs := &fakePairs{pairs: []domain.TradingPair{{Base: "BTC", Quote: "USDT"}}}
	rr := do(t, newTestRouter(&fakeService{}, pairs, nil), http.MethodGet, "/api/v1/exchanges/binance/pairs")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"base":"BTC","quote":"USDT"}]`, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Last-Modified"))

	pairs.loadedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rr = do(t, newTestRouter(&fakeService{}, pairs, nil), http.MethodGet, "/api/v1/exchanges/binance/pairs")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Wed, 01 May 2024 00:00:00 GMT", rr.Header().Get("Last-Modified"))

	pairs.err = fmt.Errorf("%w: timeout", domain.ErrHTTP)
	rr = do(t, newTestRouter(&fakeService{}, pairs, nil), http.MethodGet, "/api/v1/exchanges/binance/pairs")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

// go test -v --run TestHealth
func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }

	rr := do(t, newTestRouter(&fakeService{}, &fakePairs{}, map[string]HealthCheck{"postgres": ok}), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"postgres":"up"}}`, rr.Body.String())

	rr = do(t, newTestRouter(&fakeService{}, &fakePairs{}, map[string]HealthCheck{"redis": down}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "down: refused")
}

// go test -v --run TestCORSAndRouting
func TestCORSAndRouting(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakePairs{}, nil)

	rr := do(t, router, http.MethodOptions, "/api/v1/coins")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = do(t, router, http.MethodGet, "/api/v2/nothing")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
}

// go test -v --run TestRequestIDPropagation
func TestRequestIDPropagation(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakePairs{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coins", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get(requestIDHeader))
}
