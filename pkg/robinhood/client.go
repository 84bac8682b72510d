// Package robinhood is a client for the brokerage's private HTTP API:
// credential login with step-up verification, encrypted token persistence,
// order placement for equities, options and crypto, and recurring-investment
// scheduling. The client is single-threaded by contract; one Client maps to
// one authenticated session.
package robinhood

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"robinhood/internal/util"
)

const (
	// clientID is the fixed OAuth client identifier the broker's own web
	// frontend presents.
	clientID = "c82SH0WZOsabOXGP2sxqcj34FxkvfnWRZBKlBjFS"

	userAgent  = "Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0"
	apiVersion = "1.431.4"

	contentTypeForm = "application/x-www-form-urlencoded; charset=utf-8"
	contentTypeJSON = "application/json"
)

// Client holds the HTTP session against the broker: the underlying client
// with its persistent headers, the auth token, the diagnostics sink, and an
// optional request rate limiter.
type Client struct {
	httpClient *http.Client
	apiBase    string
	cryptoBase string

	token       string
	refreshTok  string
	deviceToken string
	loggedIn    bool
	tokenPath   string
	vaultKey    []byte

	out io.Writer
	log *slog.Logger

	limiter *rate.Limiter

	// prompt reads one line of user input, used for credential and
	// verification-code entry. Overridable for tests.
	prompt func(label string) (string, error)

	// verification polling knobs, shortened in tests.
	pollInterval    time.Duration
	challengeBudget time.Duration
	approvalRetries int

	// batchBackoff seeds the exponential backoff used when batch drivers
	// hit the broker's throttling statuses.
	batchBackoff time.Duration

	pairMu  sync.Mutex
	pairIDs map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithOutput redirects diagnostic output. Pass io.Discard to silence the
// library.
func WithOutput(w io.Writer) Option {
	return func(c *Client) {
		c.out = w
		c.log = util.NewLogger(w, "info")
	}
}

// WithLogger installs a caller-built logger as the diagnostics sink.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithAPIBase overrides the equity API host. Intended for tests.
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimSuffix(base, "/") }
}

// WithCryptoBase overrides the crypto API host. Intended for tests.
func WithCryptoBase(base string) Option {
	return func(c *Client) { c.cryptoBase = strings.TrimSuffix(base, "/") }
}

// WithTokenPath sets where encrypted credentials are stored and looked up.
func WithTokenPath(path string) Option {
	return func(c *Client) { c.tokenPath = path }
}

// WithVaultKey supplies the symmetric key protecting the credential file.
func WithVaultKey(key []byte) Option {
	return func(c *Client) { c.vaultKey = key }
}

// WithPrompt replaces the interactive input reader used for credential and
// verification-code entry.
func WithPrompt(fn func(label string) (string, error)) Option {
	return func(c *Client) { c.prompt = fn }
}

// NewClient creates an unauthenticated client. Call Login before any
// account-scoped operation.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		apiBase:         defaultAPIBase,
		cryptoBase:      defaultCryptoBase,
		out:             os.Stdout,
		pollInterval:    5 * time.Second,
		challengeBudget: 120 * time.Second,
		approvalRetries: 5,
		batchBackoff:    10 * time.Second,
		pairIDs:         make(map[string]string),
	}
	c.prompt = c.stdinPrompt
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = util.NewLogger(c.out, "info")
	}
	return c
}

// SetRateLimit inserts a delay of at least d before each outbound request.
// A non-positive d disables rate limiting.
func (c *Client) SetRateLimit(d time.Duration) {
	if d <= 0 {
		c.limiter = nil
		return
	}
	c.limiter = rate.NewLimiter(rate.Every(d), 1)
}

// LoggedIn reports whether the client currently holds an access token.
func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

// DeviceToken returns the device identifier presented at login, if any.
func (c *Client) DeviceToken() string {
	return c.deviceToken
}

// setToken installs the bearer token used for authenticated calls.
func (c *Client) setToken(token string) {
	c.token = token
	c.loggedIn = token != ""
}

// stdinPrompt reads one line from standard input after printing label to the
// output sink.
func (c *Client) stdinPrompt(label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
