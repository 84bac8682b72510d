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

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// TimeInForce controls how long an order stays working.
type TimeInForce string

const (
	GoodTillCancelled TimeInForce = "gtc"
	GoodForDay        TimeInForce = "gfd"
	ImmediateOrCancel TimeInForce = "ioc"
	OpeningAuction    TimeInForce = "opg"
)

// TrailType selects how a trailing stop shadows the market.
type TrailType string

const (
	TrailAmount     TrailType = "amount"
	TrailPercentage TrailType = "percentage"
)

// OrderIntent is what a caller wants done. Exactly one of pure market, pure
// limit, stop-loss, stop-limit, or trailing-stop is expressed, depending on
// which optional fields are set; the builder derives the wire payload.
type OrderIntent struct {
	Symbol   string
	Side     Side
	Quantity decimal.Decimal

	LimitPrice *decimal.Decimal
	StopPrice  *decimal.Decimal

	Trail     *decimal.Decimal
	TrailType TrailType

	TimeInForce   TimeInForce
	ExtendedHours bool
}

// orderPayload is the single wire schema every equity order maps onto.
type orderPayload struct {
	Account       string       `json:"account"`
	Instrument    string       `json:"instrument"`
	Symbol        string       `json:"symbol"`
	Price         string       `json:"price,omitempty"`
	StopPrice     string       `json:"stop_price,omitempty"`
	Quantity      string       `json:"quantity"`
	RefID         string       `json:"ref_id"`
	Type          string       `json:"type"`
	TimeInForce   string       `json:"time_in_force"`
	Trigger       string       `json:"trigger"`
	Side          string       `json:"side"`
	ExtendedHours bool         `json:"extended_hours"`
	TrailingPeg   *TrailingPeg `json:"trailing_peg,omitempty"`
}

// roundPrice applies the venue tick rule: banker's rounding to 2 decimal
// places at or above 1.00, 4 places below. Every price that crosses the
// wire goes through here.
func roundPrice(p decimal.Decimal) decimal.Decimal {
	if p.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return p.RoundBank(2)
	}
	return p.RoundBank(4)
}

// PlaceOrder translates an OrderIntent into the broker's order payload and
// submits it. Client-side validation failures return an error before any
// wire call. Submission is attempted up to three times with the same ref_id,
// so a retried request cannot double-fill.
func (c *Client) PlaceOrder(ctx context.Context, intent OrderIntent) (*Order, error) {
	if intent.Side != Buy && intent.Side != Sell {
		return nil, fmt.Errorf("robinhood: invalid side %q", intent.Side)
	}
	if !intent.Quantity.IsPositive() {
		return nil, errors.New("robinhood: quantity must be positive")
	}
	if intent.TimeInForce == "" {
		intent.TimeInForce = GoodTillCancelled
	}

	payload, err := c.buildEquityPayload(ctx, intent)
	if err != nil {
		return nil, err
	}

	account, err := c.Account(ctx)
	if err != nil {
		return nil, err
	}
	instrument, err := c.Instrument(ctx, intent.Symbol)
	if err != nil {
		return nil, err
	}
	payload.Account = account.URL
	payload.Instrument = instrument.URL
	payload.RefID = uuid.NewString()

	var order *Order
	err = util.Retry(ctx, 3, time.Second, func() error {
		data, err := c.postJSON(ctx, ordersURL(c.apiBase, ""), payload)
		if err != nil {
			return err
		}
		order, err = decode[Order](data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// buildEquityPayload derives order type, trigger and prices from the intent.
// The quote is only fetched when the policy needs it: market price
// derivation, stop validation, or trailing-stop materialization.
func (c *Client) buildEquityPayload(ctx context.Context, intent OrderIntent) (*orderPayload, error) {
	payload := &orderPayload{
		Symbol:        intent.Symbol,
		Quantity:      intent.Quantity.String(),
		Type:          "market",
		Trigger:       "immediate",
		Side:          string(intent.Side),
		TimeInForce:   string(intent.TimeInForce),
		ExtendedHours: intent.ExtendedHours,
	}

	var quote decimal.Decimal
	needQuote := intent.LimitPrice == nil || intent.StopPrice != nil || intent.Trail != nil
	if needQuote {
		q, err := c.Quote(ctx, intent.Symbol)
		if err != nil {
			return nil, err
		}
		if quote, err = quotePrice(q, intent.Side); err != nil {
			return nil, err
		}
	}

	if intent.Trail != nil {
		return c.applyTrailingStop(payload, intent, quote)
	}

	if intent.StopPrice != nil {
		stop := roundPrice(*intent.StopPrice)
		if intent.Side == Buy && !stop.GreaterThan(quote) {
			c.log.Error("stopPrice must be above the current price", "symbol", intent.Symbol, "stop", stop, "quote", quote)
			return nil, errors.New("robinhood: stopPrice must be above the current price")
		}
		if intent.Side == Sell && !stop.LessThan(quote) {
			c.log.Error("stopPrice must be below the current price", "symbol", intent.Symbol, "stop", stop, "quote", quote)
			return nil, errors.New("robinhood: stopPrice must be below the current price")
		}
		payload.Trigger = "stop"
		payload.StopPrice = stop.String()
		// A stop-buy without a limit carries the stop itself as the price; a
		// stop-sell carries none.
		if intent.LimitPrice == nil && intent.Side == Buy {
			payload.Price = stop.String()
		}
	}

	switch {
	case intent.LimitPrice != nil:
		payload.Type = "limit"
		payload.Price = roundPrice(*intent.LimitPrice).String()
	case intent.StopPrice == nil:
		// Pure market order: price pinned to the quote's relevant side.
		payload.Price = roundPrice(quote).String()
	}

	return payload, nil
}

// applyTrailingStop materializes the stop price from the live quote and
// attaches the trailing peg descriptor. Buy trailing stops set a limit 5%
// above the derived stop so the order fills as the market converges.
func (c *Client) applyTrailingStop(payload *orderPayload, intent OrderIntent, quote decimal.Decimal) (*orderPayload, error) {
	if !intent.Trail.IsPositive() {
		return nil, errors.New("robinhood: trail amount must be positive")
	}

	var stop decimal.Decimal
	var peg TrailingPeg
	switch intent.TrailType {
	case TrailAmount:
		if intent.Side == Buy {
			stop = quote.Add(*intent.Trail)
		} else {
			stop = quote.Sub(*intent.Trail)
		}
		peg = TrailingPeg{
			Type: "price",
			Price: &MoneyAmount{
				Amount:       roundPrice(*intent.Trail).String(),
				CurrencyCode: "USD",
			},
		}
	case TrailPercentage:
		pct := intent.Trail.Div(decimal.NewFromInt(100))
		if intent.Side == Buy {
			stop = quote.Mul(decimal.NewFromInt(1).Add(pct))
		} else {
			stop = quote.Mul(decimal.NewFromInt(1).Sub(pct))
		}
		peg = TrailingPeg{
			Type:       "percentage",
			Percentage: intent.Trail.String(),
		}
	default:
		return nil, fmt.Errorf("robinhood: invalid trail type %q", intent.TrailType)
	}

	stop = roundPrice(stop)
	payload.Type = "market"
	payload.Trigger = "stop"
	payload.StopPrice = stop.String()
	payload.TrailingPeg = &peg
	if intent.Side == Buy {
		payload.Price = roundPrice(stop.Mul(decimal.NewFromFloat(1.05))).String()
	}
	return payload, nil
}

// minNotional is the smallest dollar amount accepted for
// fractional-by-price orders.
var minNotional = decimal.NewFromInt(1)

// placeFractionalByPrice converts a dollar amount into a fractional share
// quantity at the live quote and submits a market order.
func (c *Client) placeFractionalByPrice(ctx context.Context, symbol string, side Side, amount decimal.Decimal, tif TimeInForce, extendedHours bool) (*Order, error) {
	if amount.LessThan(minNotional) {
		c.log.Error("fractional orders by price require a minimum of 1.00", "symbol", symbol, "amount", amount)
		return nil, errors.New("robinhood: fractional orders by price require a minimum of 1.00")
	}

	q, err := c.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	price, err := quotePrice(q, side)
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("robinhood: no usable quote for %s", symbol)
	}
	// Fractional equity quantities carry at most 6 decimal places.
	quantity := amount.Div(price).RoundBank(6)

	return c.PlaceOrder(ctx, OrderIntent{
		Symbol:        symbol,
		Side:          side,
		Quantity:      quantity,
		TimeInForce:   tif,
		ExtendedHours: extendedHours,
	})
}

// ---------------------------------------------------------------------------
// Convenience constructors. Each is a thin shim over PlaceOrder.
// ---------------------------------------------------------------------------

// BuyMarket submits a market buy for the given share quantity.
func (c *Client) BuyMarket(ctx context.Context, symbol string, quantity decimal.Decimal) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Buy, Quantity: quantity})
}

// SellMarket submits a market sell for the given share quantity.
func (c *Client) SellMarket(ctx context.Context, symbol string, quantity decimal.Decimal) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Sell, Quantity: quantity})
}

// BuyLimit submits a limit buy.
func (c *Client) BuyLimit(ctx context.Context, symbol string, quantity, limitPrice decimal.Decimal) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Buy, Quantity: quantity, LimitPrice: &limitPrice})
}

// SellLimit submits a limit sell.
func (c *Client) SellLimit(ctx context.Context, symbol string, quantity, limitPrice decimal.Decimal) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Sell, Quantity: quantity, LimitPrice: &limitPrice})
}

// BuyStopLoss submits a stop-triggered market buy. The stop must sit above
// the current quote.
func (c *Client) BuyStopLoss(ctx context.Context, symbol string, quantity, stopPrice decimal.Decimal) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Buy, Quantity: quantity, StopPrice: &stopPrice})
}

// SellStopLoss submits a stop-triggered market sell. The stop must sit below
// the current quote.
func (c *Client) SellStopLoss(ctx context.Context, symbol string, quantity, stopPrice decimal.Decimal) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Sell, Quantity: quantity, StopPrice: &stopPrice})
}

// BuyStopLimit submits a stop-triggered limit buy.
func (c *Client) BuyStopLimit(ctx context.Context, symbol string, quantity, limitPrice, stopPrice decimal.Decimal) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Buy, Quantity: quantity, LimitPrice: &limitPrice, StopPrice: &stopPrice})
}

// SellStopLimit submits a stop-triggered limit sell.
func (c *Client) SellStopLimit(ctx context.Context, symbol string, quantity, limitPrice, stopPrice decimal.Decimal) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Sell, Quantity: quantity, LimitPrice: &limitPrice, StopPrice: &stopPrice})
}

// BuyTrailingStop submits a trailing-stop buy.
func (c *Client) BuyTrailingStop(ctx context.Context, symbol string, quantity, trail decimal.Decimal, trailType TrailType) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Buy, Quantity: quantity, Trail: &trail, TrailType: trailType})
}

// SellTrailingStop submits a trailing-stop sell.
func (c *Client) SellTrailingStop(ctx context.Context, symbol string, quantity, trail decimal.Decimal, trailType TrailType) (*Order, error) {
	return c.PlaceOrder(ctx, OrderIntent{Symbol: symbol, Side: Sell, Quantity: quantity, Trail: &trail, TrailType: trailType})
}

// BuyFractionalByPrice buys amount dollars of a symbol as fractional shares.
func (c *Client) BuyFractionalByPrice(ctx context.Context, symbol string, amount decimal.Decimal) (*Order, error) {
	return c.placeFractionalByPrice(ctx, symbol, Buy, amount, GoodForDay, false)
}

// SellFractionalByPrice sells amount dollars of a symbol as fractional
// shares.
func (c *Client) SellFractionalByPrice(ctx context.Context, symbol string, amount decimal.Decimal) (*Order, error) {
	return c.placeFractionalByPrice(ctx, symbol, Sell, amount, GoodForDay, false)
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

// CancelStockOrder cancels one equity order by id.
func (c *Client) CancelStockOrder(ctx context.Context, orderID string) error {
	_, err := c.do(ctx, "POST", orderCancelURL(c.apiBase, orderID), nil, nil, "", true)
	return err
}

// CancelAllStockOrders cancels every open equity order and returns how many
// cancellations were issued.
func (c *Client) CancelAllStockOrders(ctx context.Context) (int, error) {
	open, err := c.OpenStockOrders(ctx)
	if err != nil {
		return 0, err
	}
	for i, o := range open {
		if _, err := c.do(ctx, "POST", o.CancelURL, nil, nil, "", true); err != nil {
			return i, fmt.Errorf("cancelling order %s: %w", o.ID, err)
		}
	}
	return len(open), nil
}
