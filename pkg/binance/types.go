package binance

// Ticker24h is the subset of GET /api/v3/ticker/24hr used here.
type Ticker24h struct {
	Symbol    string `json:"symbol"`    // e.g., "BTCUSDT"
	LastPrice string `json:"lastPrice"` // decimal string
	Volume    string `json:"volume"`    // base asset volume, decimal string
}

// ExchangeInfo is the subset of GET /api/v3/exchangeInfo used here.
type ExchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`     // e.g., "BTCUSDT"
		BaseAsset  string `json:"baseAsset"`  // e.g., "BTC"
		QuoteAsset string `json:"quoteAsset"` // e.g., "USDT"
	} `json:"symbols"`
}

// MiniTickerEvent is a 24hrMiniTicker stream payload.
type MiniTickerEvent struct {
	EventType   string `json:"e"` // "24hrMiniTicker"
	EventTime   int64  `json:"E"` // milliseconds since epoch
	Symbol      string `json:"s"` // e.g., "BTCUSDT"
	Close       string `json:"c"` // last price
	Open        string `json:"o"`
	High        string `json:"h"`
	Low         string `json:"l"`
	Volume      string `json:"v"` // base asset volume
	QuoteVolume string `json:"q"` // quote asset volume
}

// SubscribeRequest is the stream control message used to subscribe to streams.
type SubscribeRequest struct {
	Method string   `json:"method"` // "SUBSCRIBE"
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}
