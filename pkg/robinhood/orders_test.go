package robinhood

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robinhood/internal/testbroker"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newOrderBroker(t *testing.T) (*testbroker.Broker, *Client) {
	t.Helper()
	b := testbroker.New(t)
	b.Quotes["SPY"] = testbroker.Quote{Ask: "4.00", Bid: "3.90", Last: "3.95"}
	b.Quotes["AAPL"] = testbroker.Quote{Ask: "150.00", Bid: "149.50", Last: "149.75"}
	b.InstrumentIDs["SPY"] = "inst-spy"
	b.InstrumentIDs["AAPL"] = "inst-aapl"
	c := newTestClient(t, b)
	loginTestClient(t, c, b)
	return b, c
}

func TestBuyFractionalByPrice(t *testing.T) {
	b, c := newOrderBroker(t)

	order, err := c.BuyFractionalByPrice(context.Background(), "SPY", dec(t, "5"))
	require.NoError(t, err)
	assert.Equal(t, "unconfirmed", order.State)

	require.Len(t, b.StockOrders, 1)
	body := b.StockOrders[0].Body
	assert.Equal(t, "1.25", body["quantity"], "5 dollars at a 4.00 ask is 1.25 shares")
	assert.Equal(t, "4", body["price"])
	assert.Equal(t, "market", body["type"])
	assert.Equal(t, "immediate", body["trigger"])
	assert.Equal(t, "buy", body["side"])
	assert.Equal(t, "gfd", body["time_in_force"])
	assert.NotEmpty(t, body["ref_id"])
}

func TestFractionalOrdersGetDistinctRefIDs(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.BuyFractionalByPrice(context.Background(), "SPY", dec(t, "5"))
	require.NoError(t, err)
	_, err = c.BuyFractionalByPrice(context.Background(), "SPY", dec(t, "5"))
	require.NoError(t, err)

	require.Len(t, b.StockOrders, 2)
	assert.NotEqual(t, b.StockOrders[0].Body["ref_id"], b.StockOrders[1].Body["ref_id"],
		"each submission must carry a fresh ref_id")
}

func TestFractionalByPriceMinimumNotional(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.BuyFractionalByPrice(context.Background(), "SPY", dec(t, "0.99"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum of 1.00")
	assert.Empty(t, b.StockOrders, "rejected order must never reach the wire")
}

func TestBuyStopLossBelowQuoteRejected(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.BuyStopLoss(context.Background(), "AAPL", dec(t, "1"), dec(t, "100"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopPrice must be above the current price")
	assert.Empty(t, b.StockOrders)
}

func TestSellStopLossAboveQuoteRejected(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.SellStopLoss(context.Background(), "AAPL", dec(t, "1"), dec(t, "200"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopPrice must be below the current price")
	assert.Empty(t, b.StockOrders)
}

func TestBuyStopLossPayload(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.BuyStopLoss(context.Background(), "AAPL", dec(t, "1"), dec(t, "200"))
	require.NoError(t, err)

	require.Len(t, b.StockOrders, 1)
	body := b.StockOrders[0].Body
	assert.Equal(t, "market", body["type"])
	assert.Equal(t, "stop", body["trigger"])
	assert.Equal(t, "200", body["stop_price"])
	// A stop-buy without a limit carries the stop as its price.
	assert.Equal(t, "200", body["price"])
}

func TestSellStopLossOmitsPrice(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.SellStopLoss(context.Background(), "AAPL", dec(t, "1"), dec(t, "100"))
	require.NoError(t, err)

	require.Len(t, b.StockOrders, 1)
	body := b.StockOrders[0].Body
	assert.Equal(t, "stop", body["trigger"])
	assert.Equal(t, "100", body["stop_price"])
	_, hasPrice := body["price"]
	assert.False(t, hasPrice, "stop-sell must not carry a price")
}

func TestBuyStopLimitPayload(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.BuyStopLimit(context.Background(), "AAPL", dec(t, "2"), dec(t, "201.50"), dec(t, "200"))
	require.NoError(t, err)

	require.Len(t, b.StockOrders, 1)
	body := b.StockOrders[0].Body
	assert.Equal(t, "limit", body["type"])
	assert.Equal(t, "stop", body["trigger"])
	assert.Equal(t, "200", body["stop_price"])
	assert.Equal(t, "201.5", body["price"])
	assert.Equal(t, "2", body["quantity"])
}

func TestBuyLimitPayload(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.BuyLimit(context.Background(), "SPY", dec(t, "1"), dec(t, "10.567"))
	require.NoError(t, err)

	require.Len(t, b.StockOrders, 1)
	body := b.StockOrders[0].Body
	assert.Equal(t, "limit", body["type"])
	assert.Equal(t, "immediate", body["trigger"])
	assert.Equal(t, "10.57", body["price"], "limit prices round to the venue tick")
	assert.Equal(t, "gtc", body["time_in_force"])
}

func TestSellMarketPinsPriceToBid(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.SellMarket(context.Background(), "AAPL", dec(t, "3"))
	require.NoError(t, err)

	require.Len(t, b.StockOrders, 1)
	body := b.StockOrders[0].Body
	assert.Equal(t, "market", body["type"])
	assert.Equal(t, "149.5", body["price"])
}

func TestBuyTrailingStopByAmount(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.BuyTrailingStop(context.Background(), "AAPL", dec(t, "1"), dec(t, "5"), TrailAmount)
	require.NoError(t, err)

	require.Len(t, b.StockOrders, 1)
	body := b.StockOrders[0].Body
	assert.Equal(t, "market", body["type"])
	assert.Equal(t, "stop", body["trigger"])
	assert.Equal(t, "155", body["stop_price"], "ask 150 plus a 5 trail")
	assert.Equal(t, "162.75", body["price"], "buy limit sits 5% above the stop")

	peg, ok := body["trailing_peg"].(map[string]any)
	require.True(t, ok, "payload must carry a trailing peg")
	assert.Equal(t, "price", peg["type"])
	price, ok := peg["price"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "5", price["amount"])
	assert.Equal(t, "USD", price["currency_code"])
}

func TestSellTrailingStopByPercentage(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.SellTrailingStop(context.Background(), "AAPL", dec(t, "1"), dec(t, "10"), TrailPercentage)
	require.NoError(t, err)

	require.Len(t, b.StockOrders, 1)
	body := b.StockOrders[0].Body
	assert.Equal(t, "stop", body["trigger"])
	assert.Equal(t, "134.55", body["stop_price"], "bid 149.50 minus 10%")
	_, hasPrice := body["price"]
	assert.False(t, hasPrice, "sell trailing stops carry no limit price")

	peg, ok := body["trailing_peg"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "percentage", peg["type"])
	assert.Equal(t, "10", peg["percentage"])
}

func TestTrailingStopRejectsNonPositiveTrail(t *testing.T) {
	b, c := newOrderBroker(t)

	_, err := c.BuyTrailingStop(context.Background(), "AAPL", dec(t, "1"), dec(t, "0"), TrailAmount)
	require.Error(t, err)
	assert.Empty(t, b.StockOrders)
}

func TestPlaceOrderRejectsBadIntent(t *testing.T) {
	b, c := newOrderBroker(t)
	ctx := context.Background()

	_, err := c.PlaceOrder(ctx, OrderIntent{Symbol: "SPY", Side: "hold", Quantity: dec(t, "1")})
	require.Error(t, err)

	_, err = c.PlaceOrder(ctx, OrderIntent{Symbol: "SPY", Side: Buy, Quantity: dec(t, "0")})
	require.Error(t, err)

	assert.Empty(t, b.StockOrders)
}

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.567", "10.57"},
		// banker's rounding: halves go to the even digit
		{"1.005", "1"},
		{"2.675", "2.68"},
		{"1", "1"},
		// sub-dollar prices keep four places
		{"0.45678", "0.4568"},
		{"0.12345", "0.1234"},
		{"0.5", "0.5"},
	}
	for _, tt := range tests {
		got := roundPrice(dec(t, tt.in))
		if got.String() != tt.want {
			t.Errorf("roundPrice(%s) = %s, want %s", tt.in, got.String(), tt.want)
		}
	}
}

func TestCancelAllStockOrders(t *testing.T) {
	b, c := newOrderBroker(t)
	b.OrderPages = [][]map[string]any{{
		{"id": "order-1", "cancel": b.API.URL + "/orders/order-1/cancel/"},
		{"id": "order-2", "cancel": nil},
		{"id": "order-3", "cancel": b.API.URL + "/orders/order-3/cancel/"},
	}}

	n, err := c.CancelAllStockOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"/orders/order-1/cancel/", "/orders/order-3/cancel/"}, b.CancelPosts)
}

func TestCancelStockOrder(t *testing.T) {
	b, c := newOrderBroker(t)

	require.NoError(t, c.CancelStockOrder(context.Background(), "order-7"))
	assert.Equal(t, []string{"/orders/order-7/cancel/"}, b.CancelPosts)
}
