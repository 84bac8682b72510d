package robinhood

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robinhood/internal/testbroker"
)

func TestMarketHours(t *testing.T) {
	b := testbroker.New(t)
	c := newTestClient(t, b)
	loginTestClient(t, c, b)

	hours, err := c.MarketHours(context.Background(), "XNYS", "2026-09-01")
	require.NoError(t, err)

	assert.Equal(t, "2026-09-01", hours.Date)
	assert.True(t, hours.IsOpen)
	assert.Equal(t, "2026-09-01T14:30:00Z", hours.OpensAt)
	assert.Equal(t, "2026-09-01T21:00:00Z", hours.ClosesAt)
}

func TestFundamentals(t *testing.T) {
	b := testbroker.New(t)
	c := newTestClient(t, b)
	loginTestClient(t, c, b)

	funds, err := c.Fundamentals(context.Background(), "AAPL", "SPY")
	require.NoError(t, err)

	require.Len(t, funds, 2)
	assert.Equal(t, "AAPL", funds[0].Symbol)
	assert.Equal(t, "SPY", funds[1].Symbol)
	assert.Equal(t, "25.40", funds[0].PERatio)
}

func TestWatchlist(t *testing.T) {
	b := testbroker.New(t)
	b.Watchlists["Default"] = []string{"inst-aapl", "inst-spy"}
	c := newTestClient(t, b)
	loginTestClient(t, c, b)

	entries, err := c.Watchlist(context.Background(), "Default")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Instrument, "/instruments/inst-aapl/")
	assert.Contains(t, entries[1].Instrument, "/instruments/inst-spy/")
}

func TestRemoveFromWatchlist(t *testing.T) {
	b := testbroker.New(t)
	b.Watchlists["Default"] = []string{"inst-aapl", "inst-spy"}
	c := newTestClient(t, b)
	loginTestClient(t, c, b)

	require.NoError(t, c.RemoveFromWatchlist(context.Background(), "Default", "inst-aapl"))

	require.Len(t, b.WatchlistDeletes, 1)
	assert.Equal(t, "/watchlists/Default/inst-aapl/", b.WatchlistDeletes[0])

	entries, err := c.Watchlist(context.Background(), "Default")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Instrument, "/instruments/inst-spy/")
}

func TestDocumentsList(t *testing.T) {
	b := testbroker.New(t)
	b.Documents["doc-1"] = []byte("%PDF-1.4 statement body")
	b.Documents["doc-2"] = []byte("%PDF-1.4 trade confirmation")
	c := newTestClient(t, b)
	loginTestClient(t, c, b)

	docs, err := c.Documents(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "doc-2", docs[1].ID)
	assert.Contains(t, docs[0].DownloadURL, "/documents/doc-1/download/")
}
