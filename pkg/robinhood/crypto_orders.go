package robinhood

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"robinhood/internal/util"
)

// Crypto order flow. Currency pairs are resolved through an in-process
// symbol → pair-id cache; entries are immutable and never evicted.

type cryptoOrderPayload struct {
	AccountID      string `json:"account_id"`
	CurrencyPairID string `json:"currency_pair_id"`
	Price          string `json:"price"`
	Quantity       string `json:"quantity"`
	RefID          string `json:"ref_id"`
	Side           string `json:"side"`
	TimeInForce    string `json:"time_in_force"`
	Type           string `json:"type"`
}

// CryptoOrderIntent describes a crypto order. Quantity is in units of the
// asset; when AmountInDollars is set instead, the quantity is derived from
// the live quote.
type CryptoOrderIntent struct {
	Symbol          string
	Side            Side
	Quantity        decimal.Decimal
	AmountInDollars *decimal.Decimal
	LimitPrice      *decimal.Decimal
	TimeInForce     TimeInForce
}

// currencyPairID resolves a crypto symbol (e.g. "BTC") to the broker's pair
// id, caching the mapping for the life of the process.
func (c *Client) currencyPairID(ctx context.Context, symbol string) (string, error) {
	c.pairMu.Lock()
	id, ok := c.pairIDs[symbol]
	c.pairMu.Unlock()
	if ok {
		return id, nil
	}

	pairs, err := getResults[CurrencyPair](ctx, c, currencyPairsURL(c.cryptoBase), nil)
	if err != nil {
		return "", err
	}

	c.pairMu.Lock()
	defer c.pairMu.Unlock()
	for _, p := range pairs {
		c.pairIDs[p.AssetCurrency.Code] = p.ID
	}
	if id, ok := c.pairIDs[symbol]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: currency pair %q", ErrNotFound, symbol)
}

// CryptoQuote returns the live quote for a crypto symbol.
func (c *Client) CryptoQuote(ctx context.Context, symbol string) (*CryptoQuote, error) {
	pairID, err := c.currencyPairID(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return getJSON[CryptoQuote](ctx, c, cryptoQuoteURL(c.apiBase, pairID), nil)
}

// PlaceCryptoOrder submits a crypto order. A null or failed submission is
// retried up to three times with the same ref_id.
func (c *Client) PlaceCryptoOrder(ctx context.Context, intent CryptoOrderIntent) (*CryptoOrder, error) {
	if intent.Side != Buy && intent.Side != Sell {
		return nil, fmt.Errorf("robinhood: invalid side %q", intent.Side)
	}
	if intent.TimeInForce == "" {
		intent.TimeInForce = GoodTillCancelled
	}

	pairID, err := c.currencyPairID(ctx, intent.Symbol)
	if err != nil {
		return nil, err
	}
	account, err := c.Account(ctx)
	if err != nil {
		return nil, err
	}

	orderType := "market"
	var price decimal.Decimal
	if intent.LimitPrice != nil {
		orderType = "limit"
		price = roundPrice(*intent.LimitPrice)
	} else {
		quote, err := getJSON[CryptoQuote](ctx, c, cryptoQuoteURL(c.apiBase, pairID), nil)
		if err != nil {
			return nil, err
		}
		raw := quote.AskPrice
		if intent.Side == Sell {
			raw = quote.BidPrice
		}
		if price, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("parsing crypto quote %q: %w", raw, err)
		}
		price = roundPrice(price)
	}

	quantity := intent.Quantity
	if intent.AmountInDollars != nil {
		if !price.IsPositive() {
			return nil, fmt.Errorf("robinhood: no usable quote for %s", intent.Symbol)
		}
		// Crypto quantities carry at most 8 decimal places.
		quantity = intent.AmountInDollars.Div(price).RoundBank(8)
	}
	if !quantity.IsPositive() {
		return nil, errors.New("robinhood: quantity must be positive")
	}

	payload := &cryptoOrderPayload{
		AccountID:      account.AccountNumber,
		CurrencyPairID: pairID,
		Price:          price.String(),
		Quantity:       quantity.String(),
		RefID:          uuid.NewString(),
		Side:           string(intent.Side),
		TimeInForce:    string(intent.TimeInForce),
		Type:           orderType,
	}

	var order *CryptoOrder
	err = util.Retry(ctx, 3, time.Second, func() error {
		data, err := c.postJSON(ctx, cryptoOrdersURL(c.cryptoBase, ""), payload)
		if err != nil {
			return err
		}
		order, err = decode[CryptoOrder](data)
		if err != nil {
			return err
		}
		if order.ID == "" {
			return errors.New("robinhood: empty crypto order response")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// BuyCryptoByPrice buys amount dollars of a crypto asset at market.
func (c *Client) BuyCryptoByPrice(ctx context.Context, symbol string, amount decimal.Decimal) (*CryptoOrder, error) {
	return c.PlaceCryptoOrder(ctx, CryptoOrderIntent{Symbol: symbol, Side: Buy, AmountInDollars: &amount})
}

// SellCryptoByPrice sells amount dollars of a crypto asset at market.
func (c *Client) SellCryptoByPrice(ctx context.Context, symbol string, amount decimal.Decimal) (*CryptoOrder, error) {
	return c.PlaceCryptoOrder(ctx, CryptoOrderIntent{Symbol: symbol, Side: Sell, AmountInDollars: &amount})
}

// BuyCryptoByQuantity buys a quantity of the asset at market.
func (c *Client) BuyCryptoByQuantity(ctx context.Context, symbol string, quantity decimal.Decimal) (*CryptoOrder, error) {
	return c.PlaceCryptoOrder(ctx, CryptoOrderIntent{Symbol: symbol, Side: Buy, Quantity: quantity})
}

// SellCryptoByQuantity sells a quantity of the asset at market.
func (c *Client) SellCryptoByQuantity(ctx context.Context, symbol string, quantity decimal.Decimal) (*CryptoOrder, error) {
	return c.PlaceCryptoOrder(ctx, CryptoOrderIntent{Symbol: symbol, Side: Sell, Quantity: quantity})
}

// CancelCryptoOrder cancels one crypto order by id.
func (c *Client) CancelCryptoOrder(ctx context.Context, orderID string) error {
	_, err := c.do(ctx, "POST", cryptoOrderCancelURL(c.cryptoBase, orderID), nil, nil, "", true)
	return err
}

// CancelAllCryptoOrders cancels every open crypto order and returns how many
// cancellations were issued.
func (c *Client) CancelAllCryptoOrders(ctx context.Context) (int, error) {
	orders, err := c.CryptoOrders(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, o := range orders {
		if o.CancelURL == "" {
			continue
		}
		if _, err := c.do(ctx, "POST", o.CancelURL, nil, nil, "", true); err != nil {
			return count, fmt.Errorf("cancelling crypto order %s: %w", o.ID, err)
		}
		count++
	}
	return count, nil
}
