package robinhood

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Minimal market-data and profile collaborators. These are the endpoint
// lookups the order builder and auth controller depend on; the wider wrapper
// families (fundamentals, dividends, watchlists, ...) are out of scope.

// Quote returns the live quote for an equity symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	return getJSON[Quote](ctx, c, quotesURL(c.apiBase, symbol), nil)
}

// Instrument looks up the instrument record for an equity symbol.
func (c *Client) Instrument(ctx context.Context, symbol string) (*Instrument, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	inst, err := getFirst[Instrument](ctx, c, instrumentsURL(c.apiBase), params)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: instrument %q", ErrNotFound, symbol)
	}
	return inst, err
}

// Account returns the spending account used to scope orders.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	accounts, err := getResults[Account](ctx, c, accountsURL(c.apiBase), nil)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if !accounts[i].Deactivated {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no active account", ErrNotFound)
}

// Positions lists the account's positions. With nonzero set, only open
// positions are returned.
func (c *Client) Positions(ctx context.Context, nonzero bool) ([]Position, error) {
	params := url.Values{}
	if nonzero {
		params.Set("nonzero", "true")
	}
	return getPaginated[Position](ctx, c, positionsURL(c.apiBase, ""), params)
}

// StockOrders lists every equity order on the account, following pagination
// to the end.
func (c *Client) StockOrders(ctx context.Context) ([]Order, error) {
	return getPaginated[Order](ctx, c, ordersURL(c.apiBase, ""), nil)
}

// StockOrder fetches one equity order by id.
func (c *Client) StockOrder(ctx context.Context, orderID string) (*Order, error) {
	return getJSON[Order](ctx, c, ordersURL(c.apiBase, orderID), nil)
}

// OpenStockOrders returns the equity orders that are still cancellable,
// identified by a non-null cancel link.
func (c *Client) OpenStockOrders(ctx context.Context) ([]Order, error) {
	orders, err := c.StockOrders(ctx)
	if err != nil {
		return nil, err
	}
	open := orders[:0:0]
	for _, o := range orders {
		if o.CancelURL != "" {
			open = append(open, o)
		}
	}
	return open, nil
}

// OptionOrders lists every option order, following pagination.
func (c *Client) OptionOrders(ctx context.Context) ([]OptionOrder, error) {
	return getPaginated[OptionOrder](ctx, c, optionOrdersURL(c.apiBase, ""), nil)
}

// CryptoOrders lists every crypto order. This collection paginates with an
// opaque cursor token rather than full next-page URLs.
func (c *Client) CryptoOrders(ctx context.Context) ([]CryptoOrder, error) {
	return getCursorPaginated[CryptoOrder](ctx, c, cryptoOrdersURL(c.cryptoBase, ""), nil)
}

// Holdings composes positions, instruments and quotes into a per-symbol
// view. It is the one analytics helper the library carries.
func (c *Client) Holdings(ctx context.Context) ([]Holding, error) {
	positions, err := c.Positions(ctx, true)
	if err != nil {
		return nil, err
	}

	holdings := make([]Holding, 0, len(positions))
	for _, pos := range positions {
		inst, err := getJSON[Instrument](ctx, c, pos.Instrument, nil)
		if err != nil {
			return nil, fmt.Errorf("resolving instrument for position: %w", err)
		}
		quote, err := c.Quote(ctx, inst.Symbol)
		if err != nil {
			return nil, fmt.Errorf("quoting %s: %w", inst.Symbol, err)
		}
		holdings = append(holdings, Holding{
			Symbol:          inst.Symbol,
			Name:            inst.SimpleName,
			Quantity:        pos.Quantity,
			AverageBuyPrice: pos.AverageBuyPrice,
			Price:           quote.LastTradePrice,
		})
	}
	return holdings, nil
}

// MarketHours returns the session times for a venue, identified by its MIC
// code, on a YYYY-MM-DD date.
func (c *Client) MarketHours(ctx context.Context, mic, date string) (*MarketHours, error) {
	return getJSON[MarketHours](ctx, c, marketHoursURL(c.apiBase, mic, date), nil)
}

// Fundamentals returns the fundamentals records for the given symbols.
func (c *Client) Fundamentals(ctx context.Context, symbols ...string) ([]Fundamental, error) {
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	return getResults[Fundamental](ctx, c, fundamentalsURL(c.apiBase), params)
}

// Watchlist lists the instruments pinned to a named watchlist.
func (c *Client) Watchlist(ctx context.Context, name string) ([]WatchlistEntry, error) {
	return getPaginated[WatchlistEntry](ctx, c, watchlistsURL(c.apiBase, name), nil)
}

// RemoveFromWatchlist deletes one instrument from a named watchlist.
func (c *Client) RemoveFromWatchlist(ctx context.Context, name, instrumentID string) error {
	_, err := c.del(ctx, watchlistsURL(c.apiBase, name)+instrumentID+"/")
	return err
}

// Documents lists the account's document descriptors.
func (c *Client) Documents(ctx context.Context) ([]Document, error) {
	return getPaginated[Document](ctx, c, documentsURL(c.apiBase, ""), nil)
}

// DownloadDocument streams an account document (trade confirmation,
// statement, tax form) by id. The caller owns the ReadCloser.
func (c *Client) DownloadDocument(ctx context.Context, documentID string) (io.ReadCloser, error) {
	return c.Download(ctx, documentDownloadURL(c.apiBase, documentID))
}

// quotePrice extracts the relevant side of a quote as a decimal: ask for
// buys, bid for sells.
func quotePrice(q *Quote, side Side) (decimal.Decimal, error) {
	raw := q.AskPrice
	if side == Sell {
		raw = q.BidPrice
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing quote price %q: %w", raw, err)
	}
	return price, nil
}
