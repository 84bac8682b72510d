package robinhood

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"robinhood/internal/testbroker"
)

// newTestClient points a client at the fake broker and shortens every
// polling interval so verification flows finish quickly.
func newTestClient(t *testing.T, b *testbroker.Broker, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithAPIBase(b.API.URL),
		WithCryptoBase(b.Crypto.URL),
		WithOutput(io.Discard),
		WithPrompt(func(label string) (string, error) {
			return "", errors.New("unexpected prompt: " + label)
		}),
	}
	c := NewClient(append(base, opts...)...)
	c.pollInterval = 5 * time.Millisecond
	c.challengeBudget = 2 * time.Second
	c.batchBackoff = 5 * time.Millisecond
	return c
}

// loginTestClient performs a plain password-grant login.
func loginTestClient(t *testing.T, c *Client, b *testbroker.Broker) {
	t.Helper()
	_, err := c.Login(context.Background(), LoginOptions{
		Username: b.Username,
		Password: b.Password,
	})
	require.NoError(t, err)
	require.True(t, c.LoggedIn())
}
