package robinhood

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robinhood/internal/testbroker"
)

func newCryptoBroker(t *testing.T) (*testbroker.Broker, *Client) {
	t.Helper()
	b := testbroker.New(t)
	b.CryptoPairs["BTC"] = "pair-btc"
	b.CryptoPairs["ETH"] = "pair-eth"
	b.CryptoQuotes["pair-btc"] = testbroker.Quote{Ask: "20000.00", Bid: "19900.00", Last: "19950.00"}
	b.CryptoQuotes["pair-eth"] = testbroker.Quote{Ask: "1500.00", Bid: "1490.00", Last: "1495.00"}
	c := newTestClient(t, b)
	loginTestClient(t, c, b)
	return b, c
}

func TestCryptoQuote(t *testing.T) {
	_, c := newCryptoBroker(t)

	q, err := c.CryptoQuote(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "20000.00", q.AskPrice)
	assert.Equal(t, "19900.00", q.BidPrice)
}

func TestCurrencyPairCacheFetchesOnce(t *testing.T) {
	b, c := newCryptoBroker(t)
	ctx := context.Background()

	_, err := c.CryptoQuote(ctx, "BTC")
	require.NoError(t, err)
	_, err = c.CryptoQuote(ctx, "ETH")
	require.NoError(t, err)
	_, err = c.CryptoQuote(ctx, "BTC")
	require.NoError(t, err)

	assert.Equal(t, 1, b.PairListGets, "pair listing is fetched once and cached")
}

func TestUnknownCurrencyPair(t *testing.T) {
	b, c := newCryptoBroker(t)

	_, err := c.CryptoQuote(context.Background(), "DOGE")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, b.CryptoOrders)
}

func TestBuyCryptoByPrice(t *testing.T) {
	b, c := newCryptoBroker(t)

	order, err := c.BuyCryptoByPrice(context.Background(), "BTC", dec(t, "100"))
	require.NoError(t, err)
	assert.Equal(t, "unconfirmed", order.State)

	require.Len(t, b.CryptoOrders, 1)
	body := b.CryptoOrders[0].Body
	assert.Equal(t, "pair-btc", body["currency_pair_id"])
	assert.Equal(t, "RH12345", body["account_id"])
	assert.Equal(t, "buy", body["side"])
	assert.Equal(t, "market", body["type"])
	assert.Equal(t, "20000", body["price"])
	assert.Equal(t, "0.005", body["quantity"], "100 dollars at a 20000 ask")
	assert.Equal(t, "gtc", body["time_in_force"])
	assert.NotEmpty(t, body["ref_id"])
}

func TestSellCryptoByQuantityUsesBid(t *testing.T) {
	b, c := newCryptoBroker(t)

	_, err := c.SellCryptoByQuantity(context.Background(), "BTC", dec(t, "0.5"))
	require.NoError(t, err)

	require.Len(t, b.CryptoOrders, 1)
	body := b.CryptoOrders[0].Body
	assert.Equal(t, "sell", body["side"])
	assert.Equal(t, "19900", body["price"])
	assert.Equal(t, "0.5", body["quantity"])
}

func TestCryptoLimitOrder(t *testing.T) {
	b, c := newCryptoBroker(t)

	limit := dec(t, "18000.555")
	_, err := c.PlaceCryptoOrder(context.Background(), CryptoOrderIntent{
		Symbol:     "BTC",
		Side:       Buy,
		Quantity:   dec(t, "0.01"),
		LimitPrice: &limit,
	})
	require.NoError(t, err)

	require.Len(t, b.CryptoOrders, 1)
	body := b.CryptoOrders[0].Body
	assert.Equal(t, "limit", body["type"])
	assert.Equal(t, "18000.56", body["price"])
}

func TestCryptoOrderRejectsBadIntent(t *testing.T) {
	b, c := newCryptoBroker(t)
	ctx := context.Background()

	_, err := c.PlaceCryptoOrder(ctx, CryptoOrderIntent{Symbol: "BTC", Side: "hold", Quantity: dec(t, "1")})
	require.Error(t, err)

	_, err = c.BuyCryptoByQuantity(ctx, "BTC", dec(t, "0"))
	require.Error(t, err)

	assert.Empty(t, b.CryptoOrders)
}

func TestCancelAllCryptoOrders(t *testing.T) {
	b, c := newCryptoBroker(t)
	b.CryptoPages = [][]map[string]any{{
		{"id": "co-1", "cancel_url": b.Crypto.URL + "/orders/co-1/cancel/"},
		{"id": "co-2", "cancel_url": nil},
	}}

	n, err := c.CancelAllCryptoOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"/orders/co-1/cancel/"}, b.CancelPosts)
}
