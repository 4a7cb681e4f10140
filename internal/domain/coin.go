package domain

import (
	"fmt"
	"strings"
)

// Coin is a curated catalog entry.
type Coin struct {
	ID     string `json:"id" mapstructure:"id"`         // e.g. "bitcoin"
	Name   string `json:"name" mapstructure:"name"`     // e.g. "Bitcoin"
	Symbol string `json:"symbol" mapstructure:"symbol"` // e.g. "BTC"
}

// TradingPair is a base/quote ticker combination such as BTC/USD.
type TradingPair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// NewTradingPair builds a pair from a coin symbol and a quote currency, both uppercased.
func NewTradingPair(symbol, quote string) TradingPair {
	return TradingPair{
		Base:  strings.ToUpper(symbol),
		Quote: strings.ToUpper(quote),
	}
}

func (p TradingPair) String() string {
	return p.Base + "/" + p.Quote
}

// Exchange identifies an upstream exchange.
type Exchange string

const (
	Coinbase Exchange = "coinbase"
	Binance  Exchange = "binance"
)

// Exchanges lists every supported exchange in default query order.
var Exchanges = []Exchange{Coinbase, Binance}

// ParseExchange parses a request parameter into an Exchange.
func ParseExchange(s string) (Exchange, error) {
	switch Exchange(s) {
	case Coinbase, Binance:
		return Exchange(s), nil
	default:
		return "", fmt.Errorf("%w: unknown exchange: %s. Supported exchanges: coinbase, binance", ErrParse, s)
	}
}

func (e Exchange) String() string {
	return string(e)
}
