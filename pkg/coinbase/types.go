package coinbase

// SpotPriceResponse is the envelope of GET /v2/prices/{product}/spot.
type SpotPriceResponse struct {
	Data struct {
		Base     string `json:"base"`     // e.g., "BTC"
		Currency string `json:"currency"` // e.g., "USD"
		Amount   string `json:"amount"`   // decimal string
	} `json:"data"`
}

// Product is one entry of GET /products on the exchange API.
type Product struct {
	ID            string `json:"id"`             // e.g., "BTC-USD"
	BaseCurrency  string `json:"base_currency"`  // e.g., "BTC"
	QuoteCurrency string `json:"quote_currency"` // e.g., "USD"
}
