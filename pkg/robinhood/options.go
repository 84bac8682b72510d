package robinhood

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"robinhood/internal/util"
)

// Direction distinguishes whether an option order collects or pays premium.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// PositionEffect says whether a leg opens or closes a position.
type PositionEffect string

const (
	Open  PositionEffect = "open"
	Close PositionEffect = "close"
)

// OptionLeg is one leg of an option order intent. The contract is identified
// by (symbol, expiration date, strike, type) and resolved to an instrument
// URL at submission time.
type OptionLeg struct {
	Symbol         string
	Expiration     string // YYYY-MM-DD
	Strike         decimal.Decimal
	OptionType     string // "call" or "put"
	Side           Side
	PositionEffect PositionEffect
}

type optionLegPayload struct {
	Option         string `json:"option"`
	Side           string `json:"side"`
	PositionEffect string `json:"position_effect"`
	RatioQuantity  int    `json:"ratio_quantity"`
}

type optionOrderPayload struct {
	Account                string             `json:"account"`
	Direction              string             `json:"direction"`
	TimeInForce            string             `json:"time_in_force"`
	Legs                   []optionLegPayload `json:"legs"`
	Type                   string             `json:"type"`
	Trigger                string             `json:"trigger"`
	Price                  string             `json:"price"`
	StopPrice              string             `json:"stop_price,omitempty"`
	Quantity               string             `json:"quantity"`
	OverrideDayTradeChecks bool               `json:"override_day_trade_checks"`
	OverrideDtbpChecks     bool               `json:"override_dtbp_checks"`
	RefID                  string             `json:"ref_id"`
}

// OptionOrderIntent describes a single- or multi-leg option order. All legs
// share one direction and one price; the library performs no arbitrage or
// risk check on the combination.
type OptionOrderIntent struct {
	Direction   Direction
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	TimeInForce TimeInForce
	StopPrice   *decimal.Decimal
	Legs        []OptionLeg
}

// OptionInstrumentFor resolves a specific contract to its instrument record.
func (c *Client) OptionInstrumentFor(ctx context.Context, symbol, expiration string, strike decimal.Decimal, optionType string) (*OptionInstrument, error) {
	params := url.Values{}
	params.Set("chain_symbol", symbol)
	params.Set("expiration_date", expiration)
	params.Set("strike_price", strike.String())
	params.Set("type", optionType)
	params.Set("state", "active")
	inst, err := getFirst[OptionInstrument](ctx, c, optionInstrumentsURL(c.apiBase, ""), params)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: option %s %s %s %s", ErrNotFound, symbol, expiration, strike, optionType)
	}
	return inst, err
}

// PlaceOptionOrder submits an option order. Orders are always limit; the
// trigger is stop when a stop price is supplied, immediate otherwise.
func (c *Client) PlaceOptionOrder(ctx context.Context, intent OptionOrderIntent) (*OptionOrder, error) {
	if len(intent.Legs) == 0 {
		return nil, errors.New("robinhood: option order needs at least one leg")
	}
	if intent.Direction != Credit && intent.Direction != Debit {
		return nil, fmt.Errorf("robinhood: invalid direction %q", intent.Direction)
	}
	if !intent.Quantity.IsPositive() {
		return nil, errors.New("robinhood: quantity must be positive")
	}
	if intent.TimeInForce == "" {
		intent.TimeInForce = GoodTillCancelled
	}

	account, err := c.Account(ctx)
	if err != nil {
		return nil, err
	}

	legs := make([]optionLegPayload, 0, len(intent.Legs))
	for _, leg := range intent.Legs {
		inst, err := c.OptionInstrumentFor(ctx, leg.Symbol, leg.Expiration, leg.Strike, leg.OptionType)
		if err != nil {
			return nil, err
		}
		legs = append(legs, optionLegPayload{
			Option:         inst.URL,
			Side:           string(leg.Side),
			PositionEffect: string(leg.PositionEffect),
			RatioQuantity:  1,
		})
	}

	payload := &optionOrderPayload{
		Account:     account.URL,
		Direction:   string(intent.Direction),
		TimeInForce: string(intent.TimeInForce),
		Legs:        legs,
		Type:        "limit",
		Trigger:     "immediate",
		Price:       roundPrice(intent.Price).String(),
		Quantity:    intent.Quantity.String(),
		RefID:       uuid.NewString(),
	}
	if intent.StopPrice != nil {
		payload.Trigger = "stop"
		payload.StopPrice = roundPrice(*intent.StopPrice).String()
	}

	var order *OptionOrder
	err = util.Retry(ctx, 3, time.Second, func() error {
		data, err := c.postJSON(ctx, optionOrdersURL(c.apiBase, ""), payload)
		if err != nil {
			return err
		}
		order, err = decode[OptionOrder](data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// BuyOptionLimit opens or closes a single long contract position at a limit
// price; buying pays premium so the direction is debit.
func (c *Client) BuyOptionLimit(ctx context.Context, effect PositionEffect, symbol, expiration string, strike decimal.Decimal, optionType string, quantity, price decimal.Decimal) (*OptionOrder, error) {
	return c.PlaceOptionOrder(ctx, OptionOrderIntent{
		Direction: Debit,
		Price:     price,
		Quantity:  quantity,
		Legs: []OptionLeg{{
			Symbol:         symbol,
			Expiration:     expiration,
			Strike:         strike,
			OptionType:     optionType,
			Side:           Buy,
			PositionEffect: effect,
		}},
	})
}

// SellOptionLimit opens or closes a single short contract position at a
// limit price; selling collects premium so the direction is credit.
func (c *Client) SellOptionLimit(ctx context.Context, effect PositionEffect, symbol, expiration string, strike decimal.Decimal, optionType string, quantity, price decimal.Decimal) (*OptionOrder, error) {
	return c.PlaceOptionOrder(ctx, OptionOrderIntent{
		Direction: Credit,
		Price:     price,
		Quantity:  quantity,
		Legs: []OptionLeg{{
			Symbol:         symbol,
			Expiration:     expiration,
			Strike:         strike,
			OptionType:     optionType,
			Side:           Sell,
			PositionEffect: effect,
		}},
	})
}

// PlaceOptionSpread submits a multi-leg order sharing a single direction and
// price.
func (c *Client) PlaceOptionSpread(ctx context.Context, direction Direction, price, quantity decimal.Decimal, legs []OptionLeg) (*OptionOrder, error) {
	return c.PlaceOptionOrder(ctx, OptionOrderIntent{
		Direction: direction,
		Price:     price,
		Quantity:  quantity,
		Legs:      legs,
	})
}

// CancelOptionOrder cancels one option order by id.
func (c *Client) CancelOptionOrder(ctx context.Context, orderID string) error {
	_, err := c.do(ctx, "POST", optionOrderCancelURL(c.apiBase, orderID), nil, nil, "", true)
	return err
}

// CancelAllOptionOrders cancels every open option order, identified by a
// non-null cancel link, and returns how many cancellations were issued.
func (c *Client) CancelAllOptionOrders(ctx context.Context) (int, error) {
	orders, err := c.OptionOrders(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, o := range orders {
		if o.CancelURL == "" {
			continue
		}
		if _, err := c.do(ctx, "POST", o.CancelURL, nil, nil, "", true); err != nil {
			return count, fmt.Errorf("cancelling option order %s: %w", o.ID, err)
		}
		count++
	}
	return count, nil
}
