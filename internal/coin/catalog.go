package coin

import (
	"fmt"

	"coinlizard/internal/domain"
)

// DefaultCoins is the catalog served when the config lists no coins.
var DefaultCoins = []domain.Coin{
	{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"},
	{ID: "ethereum", Name: "Ethereum", Symbol: "ETH"},
	{ID: "ripple", Name: "XRP", Symbol: "XRP"},
	{ID: "cardano", Name: "Cardano", Symbol: "ADA"},
	{ID: "solana", Name: "Solana", Symbol: "SOL"},
}

// Catalog is the immutable set of supported coins, in insertion order.
type Catalog struct {
	coins []domain.Coin
	byID  map[string]domain.Coin
}

// NewCatalog validates coins and builds a catalog. An empty list yields DefaultCoins.
func NewCatalog(coins []domain.Coin) (*Catalog, error) {
	if len(coins) == 0 {
		coins = DefaultCoins
	}

	c := &Catalog{
		coins: make([]domain.Coin, 0, len(coins)),
		byID:  make(map[string]domain.Coin, len(coins)),
	}
	for _, coin := range coins {
		if coin.ID == "" || coin.Symbol == "" {
			return nil, fmt.Errorf("%w: coin entries need an id and a symbol: %+v", domain.ErrConfig, coin)
		}
		if _, dup := c.byID[coin.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate coin id %q", domain.ErrConfig, coin.ID)
		}
		c.byID[coin.ID] = coin
		c.coins = append(c.coins, coin)
	}
	return c, nil
}

func (c *Catalog) List() []domain.Coin {
	out := make([]domain.Coin, len(c.coins))
	copy(out, c.coins)
	return out
}

func (c *Catalog) Get(id string) (domain.Coin, error) {
	coin, ok := c.byID[id]
	if !ok {
		return domain.Coin{}, fmt.Errorf("%w: coin with ID '%s' not found", domain.ErrNotFound, id)
	}
	return coin, nil
}

// Pairs crosses every coin with every quote currency.
func (c *Catalog) Pairs(quotes []string) []domain.TradingPair {
	pairs := make([]domain.TradingPair, 0, len(c.coins)*len(quotes))
	for _, coin := range c.coins {
		for _, q := range quotes {
			pairs = append(pairs, domain.NewTradingPair(coin.Symbol, q))
		}
	}
	return pairs
}
