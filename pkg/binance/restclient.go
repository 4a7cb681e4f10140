package binance

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

// RESTClient talks to the Binance spot REST API. It is safe for concurrent use.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	now        func() time.Time
}

func NewRESTClient(cfg config.BinanceConfig, logger *zap.Logger) *RESTClient {
	c := &RESTClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With(zap.String("exchange", string(domain.Binance))),
		now:        time.Now,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

func (c *RESTClient) Name() domain.Exchange {
	return domain.Binance
}

// GetCurrentPrice fetches the 24h ticker for the pair. The reported volume is
// converted to the quote currency.
func (c *RESTClient) GetCurrentPrice(ctx context.Context, pair domain.TradingPair) (domain.CurrentPrice, error) {
	params := url.Values{}
	params.Set("symbol", Symbol(pair))
	endpoint := c.baseURL + "/api/v3/ticker/24hr?" + params.Encode()

	c.logger.Debug("fetching 24hr ticker", zap.String("symbol", Symbol(pair)))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.CurrentPrice{}, err
	}

	var ticker Ticker24h
	if err := json.Unmarshal(body, &ticker); err != nil {
		return domain.CurrentPrice{}, fmt.Errorf("%w: failed to parse Binance response: %v", domain.ErrParse, err)
	}

	price, err := strconv.ParseFloat(ticker.LastPrice, 64)
	if err != nil {
		return domain.CurrentPrice{}, fmt.Errorf("%w: failed to parse price: %v", domain.ErrParse, err)
	}

	var volume *float64
	if v, err := strconv.ParseFloat(ticker.Volume, 64); err == nil {
		volume = domain.Float64(v * price)
	}

	return domain.CurrentPrice{
		Exchange:  domain.Binance,
		Pair:      pair,
		Price:     price,
		Volume24h: volume,
		Timestamp: c.now().UTC(),
	}, nil
}

// GetPriceHistory fetches klines for the pair. A missing end defaults to now.
// Without a start Binance is asked for the newest DefaultCandleCount (or limit)
// klines up to end; with a start the whole window up to MaxKlineLimit is
// fetched. limit is applied again after sorting.
func (c *RESTClient) GetPriceHistory(ctx context.Context, pair domain.TradingPair, interval domain.PriceInterval,
	start, end *time.Time, limit *int) (domain.PriceHistory, error) {
	token, ok := KlineInterval(interval)
	if !ok {
		return domain.PriceHistory{}, fmt.Errorf("%w: unsupported interval %q", domain.ErrParse, interval)
	}

	endTime := c.now().UTC()
	if end != nil {
		endTime = end.UTC()
	}

	requestLimit := MaxKlineLimit
	if start == nil {
		requestLimit = DefaultCandleCount
		if limit != nil && *limit > 0 {
			requestLimit = min(*limit, MaxKlineLimit)
		}
	}

	params := url.Values{}
	params.Set("symbol", Symbol(pair))
	params.Set("interval", token)
	params.Set("limit", strconv.Itoa(requestLimit))
	if start != nil {
		params.Set("startTime", strconv.FormatInt(start.UTC().UnixMilli(), 10))
	}
	params.Set("endTime", strconv.FormatInt(endTime.UnixMilli(), 10))
	endpoint := c.baseURL + "/api/v3/klines?" + params.Encode()

	c.logger.Debug("fetching price history",
		zap.String("symbol", Symbol(pair)),
		zap.String("interval", token),
		zap.Int("limit", requestLimit),
	)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.PriceHistory{}, err
	}

	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return domain.PriceHistory{}, fmt.Errorf("%w: failed to parse Binance candles: expected array", domain.ErrParse)
	}

	points := domain.SortNewestFirst(ParseKlines(rows), limit)

	return domain.PriceHistory{
		Exchange: domain.Binance,
		Pair:     pair,
		Interval: interval,
		Data:     points,
	}, nil
}

// ListTradingPairs enumerates every symbol in exchangeInfo.
func (c *RESTClient) ListTradingPairs(ctx context.Context) ([]domain.TradingPair, error) {
	endpoint := c.baseURL + "/api/v3/exchangeInfo"

	c.logger.Debug("fetching exchange info", zap.String("url", endpoint))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var info ExchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: failed to parse Binance exchange info: %v", domain.ErrParse, err)
	}

	pairs := make([]domain.TradingPair, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		pairs = append(pairs, domain.TradingPair{Base: s.BaseAsset, Quote: s.QuoteAsset})
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

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", domain.ErrHTTP, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrHTTP, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", domain.ErrHTTP, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Binance API error", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return nil, fmt.Errorf("%w: Binance API error: %s - %s", domain.ErrExchange, resp.Status, body)
	}

	return body, nil
}
