package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"coinlizard/config"
	"coinlizard/internal/domain"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RESTClient talks to the Coinbase retail API (spot prices) and the Coinbase
// Exchange API (candles, products). It is safe for concurrent use.
type RESTClient struct {
	baseURL     string
	exchangeURL string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
	now         func() time.Time
}

func NewRESTClient(cfg config.CoinbaseConfig, logger *zap.Logger) *RESTClient {
	c := &RESTClient{
		baseURL:     cfg.BaseURL,
		exchangeURL: cfg.ExchangeURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger.With(zap.String("exchange", string(domain.Coinbase))),
		now:         time.Now,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

func (c *RESTClient) Name() domain.Exchange {
	return domain.Coinbase
}

// GetCurrentPrice fetches the spot price for the pair. Coinbase does not report volume here.
func (c *RESTClient) GetCurrentPrice(ctx context.Context, pair domain.TradingPair) (domain.CurrentPrice, error) {
	endpoint := fmt.Sprintf("%s/v2/prices/%s/spot", c.baseURL, url.PathEscape(ProductID(pair)))

	c.logger.Debug("fetching current price", zap.String("url", endpoint))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.CurrentPrice{}, err
	}

	var resp SpotPriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.CurrentPrice{}, fmt.Errorf("%w: failed to parse Coinbase response: %v", domain.ErrParse, err)
	}

	price, err := strconv.ParseFloat(resp.Data.Amount, 64)
	if err != nil {
		return domain.CurrentPrice{}, fmt.Errorf("%w: failed to parse price: %v", domain.ErrParse, err)
	}

	return domain.CurrentPrice{
		Exchange:  domain.Coinbase,
		Pair:      pair,
		Price:     price,
		Volume24h: nil,
		Timestamp: c.now().UTC(),
	}, nil
}

// GetPriceHistory fetches candles for the pair. A missing end defaults to now and a
// missing start to DefaultCandleCount (or limit) candles before end.
func (c *RESTClient) GetPriceHistory(ctx context.Context, pair domain.TradingPair, interval domain.PriceInterval,
	start, end *time.Time, limit *int) (domain.PriceHistory, error) {
	granularity, ok := Granularity(interval)
	if !ok {
		return domain.PriceHistory{}, fmt.Errorf("%w: unsupported interval %q", domain.ErrParse, interval)
	}

	endTime := c.now().UTC()
	if end != nil {
		endTime = end.UTC()
	}
	startTime := endTime.Add(-time.Duration(granularity*candleCount(limit)) * time.Second)
	if start != nil {
		startTime = start.UTC()
	}

	params := url.Values{}
	params.Set("start", startTime.Format(time.RFC3339))
	params.Set("end", endTime.Format(time.RFC3339))
	params.Set("granularity", strconv.Itoa(granularity))

	endpoint := fmt.Sprintf("%s/products/%s/candles?%s", c.exchangeURL, url.PathEscape(ProductID(pair)), params.Encode())

	c.logger.Debug("fetching price history",
		zap.String("url", endpoint),
		zap.String("interval", interval.String()),
		zap.Time("start", startTime),
		zap.Time("end", endTime),
	)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.PriceHistory{}, err
	}

	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return domain.PriceHistory{}, fmt.Errorf("%w: failed to parse Coinbase candles: expected array", domain.ErrParse)
	}

	points := domain.SortNewestFirst(ParseCandles(rows), limit)

	return domain.PriceHistory{
		Exchange: domain.Coinbase,
		Pair:     pair,
		Interval: interval,
		Data:     points,
	}, nil
}

// ListTradingPairs enumerates every product listed on the exchange API.
func (c *RESTClient) ListTradingPairs(ctx context.Context) ([]domain.TradingPair, error) {
	endpoint := c.exchangeURL + "/products"

	c.logger.Debug("fetching trading pairs", zap.String("url", endpoint))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var products []Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: failed to parse Coinbase products: %v", domain.ErrParse, err)
	}

	pairs := make([]domain.TradingPair, 0, len(products))
	for _, p := range products {
		pairs = append(pairs, domain.TradingPair{Base: p.BaseCurrency, Quote: p.QuoteCurrency})
	}
	return pairs, nil
}

// get issues one GET and returns the body of a successful response.
func (c *RESTClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrHTTP, err)
		}
	}

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", domain.ErrHTTP, err)
	}
	req.Header.Set("Accept", "application/json")
	// The exchange API rejects requests without a user agent
	req.Header.Set("User-Agent", "coinlizard")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHTTP, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", domain.ErrHTTP, err)
	}

	// Check HTTP status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Coinbase API error", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return nil, fmt.Errorf("%w: Coinbase API error: %s - %s", domain.ErrExchange, resp.Status, body)
	}

	return body, nil
}

func candleCount(limit *int) int {
	if limit != nil && *limit > 0 {
		return *limit
	}
	return DefaultCandleCount
}
