// Package testbroker runs an in-process fake of the brokerage API for
// tests: scripted login and step-up verification, canned quotes and
// instruments, and recorders for every mutating request so tests can assert
// on exact wire payloads.
package testbroker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// RecordedRequest captures one mutating call for assertions.
type RecordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        map[string]any
}

// Quote is the canned quote served for a symbol.
type Quote struct {
	Ask  string
	Bid  string
	Last string
}

// Broker is the scripted fake. Configure the exported fields before driving
// the client; inspect the recorders afterwards.
type Broker struct {
	API    *httptest.Server
	Crypto *httptest.Server

	mu sync.Mutex

	// Scripted login behaviour. RequireSMS issues an SMS sheriff challenge,
	// RequirePrompt a device-push one; PromptPolls is how many push status
	// polls return "issued" before "validated". StallVerification pins the
	// challenge to a pending state that never resolves.
	Username          string
	Password          string
	RequireSMS        bool
	RequirePrompt     bool
	PromptPolls       int
	StallVerification bool
	SMSCode           string

	challengeDone   bool
	promptPollCount int
	tokenCounter    int
	validTokens     map[string]bool
	refreshToken    string

	// Canned data.
	Quotes        map[string]Quote
	InstrumentIDs map[string]string
	AccountNumber string
	CryptoPairs   map[string]string   // symbol -> pair id
	CryptoQuotes  map[string]Quote    // pair id -> quote
	Documents     map[string][]byte   // document id -> raw body
	Watchlists    map[string][]string // watchlist name -> instrument ids

	// Paginated collections: one slice of raw results per page. Nil means
	// a single empty page.
	OrderPages     [][]map[string]any
	CryptoPages    [][]map[string]any
	RecurringPages [][]map[string]any

	// Failure scripting.
	Recurring429s int // serve this many 429s before recurring creates succeed

	// Recorders.
	LoginPosts        int
	RefreshPosts      int
	PositionsGets     int
	PairListGets      int
	PromptStatusGets  int
	WatchlistDeletes  []string
	StockOrders       []RecordedRequest
	OptionOrders      []RecordedRequest
	CryptoOrders      []RecordedRequest
	CancelPosts       []string
	RecurringRequests []RecordedRequest
}

// New starts the fake broker on two test servers (equity API and crypto
// API). Both are shut down via t.Cleanup.
func New(t testing.TB) *Broker {
	b := &Broker{
		Username:      "user@example.com",
		Password:      "hunter2",
		SMSCode:       "123456",
		AccountNumber: "RH12345",
		validTokens:   make(map[string]bool),
		Quotes:        make(map[string]Quote),
		InstrumentIDs: make(map[string]string),
		CryptoPairs:   make(map[string]string),
		CryptoQuotes:  make(map[string]Quote),
		Documents:     make(map[string][]byte),
		Watchlists:    make(map[string][]string),
	}
	b.API = httptest.NewServer(b.apiRouter())
	b.Crypto = httptest.NewServer(b.cryptoRouter())
	t.Cleanup(b.API.Close)
	t.Cleanup(b.Crypto.Close)
	return b
}

// IssuedToken returns the most recently granted access token.
func (b *Broker) IssuedToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("access-%d", b.tokenCounter)
}

// SeedToken marks a token (and refresh token) as valid without a login, for
// cached-session tests.
func (b *Broker) SeedToken(access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validTokens[access] = true
	b.refreshToken = refresh
}

// ExpireToken invalidates an access token so the next authenticated call
// returns 401.
func (b *Broker) ExpireToken(access string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.validTokens, access)
}

// ---------------------------------------------------------------------------
// Routers
// ---------------------------------------------------------------------------

func (b *Broker) apiRouter() http.Handler {
	r := chi.NewRouter()

	r.Post("/oauth2/token/", b.handleToken)
	r.Post("/pathfinder/user_machine/", b.handleUserMachine)
	r.Get("/pathfinder/inquiries/{id}/user_view/", b.handleInquiryView)
	r.Post("/pathfinder/inquiries/{id}/user_view/", b.handleInquiryContinue)
	r.Post("/challenge/{id}/respond/", b.handleChallengeRespond)
	r.Get("/push/{id}/get_prompts_status/", b.handlePromptStatus)

	r.Group(func(r chi.Router) {
		r.Use(b.requireAuth)

		r.Get("/positions/", b.handlePositions)
		r.Get("/quotes/{symbol}/", b.handleQuote)
		r.Get("/instruments/", b.handleInstruments)
		r.Get("/instruments/{id}/", b.handleInstrumentByID)
		r.Get("/accounts/", b.handleAccounts)
		r.Get("/marketdata/forex/quotes/{pairID}/", b.handleCryptoQuote)

		r.Get("/orders/", b.handleOrderList)
		r.Post("/orders/", b.recordOrder(&b.StockOrders, b.stockOrderResponse))
		r.Post("/orders/{id}/cancel/", b.handleCancel)

		r.Get("/options/instruments/", b.handleOptionInstruments)
		r.Get("/options/orders/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"next": nil, "results": []any{}})
		})
		r.Post("/options/orders/", b.recordOrder(&b.OptionOrders, b.optionOrderResponse))
		r.Post("/options/orders/{id}/cancel/", b.handleCancel)

		r.Get("/markets/{mic}/hours/{date}/", b.handleMarketHours)
		r.Get("/fundamentals/", b.handleFundamentals)
		r.Get("/watchlists/{name}/", b.handleWatchlist)
		r.Delete("/watchlists/{name}/{instrumentID}/", b.handleWatchlistDelete)

		r.Get("/documents/", b.handleDocumentList)
		r.Get("/documents/{id}/download/", b.handleDocumentDownload)

		r.Get("/recurring_investments/", b.handleRecurringList)
		r.Post("/recurring_investments/", b.handleRecurringCreate)
		r.Patch("/recurring_investments/{id}/", b.handleRecurringPatch)
		r.Delete("/recurring_investments/{id}/", b.handleRecurringDelete)
	})

	return r
}

func (b *Broker) cryptoRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(b.requireAuth)

	r.Get("/currency_pairs/", b.handleCurrencyPairs)
	r.Get("/orders/", b.handleCryptoOrderList)
	r.Post("/orders/", b.recordOrder(&b.CryptoOrders, b.cryptoOrderResponse))
	r.Post("/orders/{id}/cancel/", b.handleCancel)

	return r
}

func (b *Broker) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		ok := b.validTokens[bearer(r)]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"detail": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) {
		return h[len(prefix):]
	}
	return ""
}

// ---------------------------------------------------------------------------
// Auth handlers
// ---------------------------------------------------------------------------

func (b *Broker) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "refresh_token":
		b.RefreshPosts++
		if r.PostForm.Get("refresh_token") != b.refreshToken {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"detail": "invalid refresh token"})
			return
		}
		writeJSON(w, b.issueTokenLocked())
	case "password":
		b.LoginPosts++
		if r.PostForm.Get("username") != b.Username || r.PostForm.Get("password") != b.Password {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"detail": "unable to log in with provided credentials"})
			return
		}
		if r.PostForm.Get("device_token") == "" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]string{"detail": "device token required"})
			return
		}
		if (b.RequireSMS || b.RequirePrompt) && !b.challengeDone {
			writeJSON(w, map[string]any{
				"verification_workflow": map[string]string{"id": "wf-1"},
			})
			return
		}
		writeJSON(w, b.issueTokenLocked())
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (b *Broker) issueTokenLocked() map[string]any {
	b.tokenCounter++
	access := fmt.Sprintf("access-%d", b.tokenCounter)
	b.refreshToken = fmt.Sprintf("refresh-%d", b.tokenCounter)
	b.validTokens[access] = true
	return map[string]any{
		"access_token":  access,
		"refresh_token": b.refreshToken,
		"token_type":    "Bearer",
		"expires_in":    86400,
		"scope":         "internal",
	}
}

func (b *Broker) handleUserMachine(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"id": "machine-1"})
}

func (b *Broker) handleInquiryView(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kind := "sms"
	if b.RequirePrompt {
		kind = "prompt"
	}
	status := "issued"
	switch {
	case b.StallVerification:
		status = "pending"
	case b.challengeDone:
		status = "validated"
	}
	writeJSON(w, map[string]any{
		"context": map[string]any{
			"sheriff_challenge": map[string]string{
				"id":     "c-9",
				"type":   kind,
				"status": status,
			},
		},
	})
}

func (b *Broker) handleInquiryContinue(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	done := b.challengeDone
	b.mu.Unlock()
	result := ""
	if done {
		result = "workflow_status_approved"
	}
	writeJSON(w, map[string]any{
		"type_context": map[string]string{"result": result},
	})
}

func (b *Broker) handleChallengeRespond(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if body.Response != b.SMSCode {
		writeJSON(w, map[string]string{"status": "issued"})
		return
	}
	b.challengeDone = true
	writeJSON(w, map[string]string{"status": "validated"})
}

func (b *Broker) handlePromptStatus(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.PromptStatusGets++
	b.promptPollCount++
	done := b.promptPollCount > b.PromptPolls
	if done {
		b.challengeDone = true
	}
	b.mu.Unlock()
	status := "issued"
	if done {
		status = "validated"
	}
	writeJSON(w, map[string]string{"challenge_status": status})
}

// ---------------------------------------------------------------------------
// Market data and profile handlers
// ---------------------------------------------------------------------------

func (b *Broker) handlePositions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.PositionsGets++
	b.mu.Unlock()
	writeJSON(w, map[string]any{"next": nil, "previous": nil, "results": []any{}})
}

func (b *Broker) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	b.mu.Lock()
	q, ok := b.Quotes[symbol]
	b.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{
		"symbol":           symbol,
		"ask_price":        q.Ask,
		"bid_price":        q.Bid,
		"last_trade_price": q.Last,
	})
}

func (b *Broker) handleInstruments(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	b.mu.Lock()
	id, ok := b.InstrumentIDs[symbol]
	b.mu.Unlock()
	results := []any{}
	if ok {
		results = append(results, b.instrumentJSON(id, symbol))
	}
	writeJSON(w, map[string]any{"next": nil, "results": results})
}

func (b *Broker) handleInstrumentByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for symbol, instID := range b.InstrumentIDs {
		if instID == id {
			writeJSON(w, b.instrumentJSON(id, symbol))
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (b *Broker) instrumentJSON(id, symbol string) map[string]any {
	return map[string]any{
		"id":        id,
		"url":       b.API.URL + "/instruments/" + id + "/",
		"symbol":    symbol,
		"tradeable": true,
	}
}

func (b *Broker) handleAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"next": nil,
		"results": []any{map[string]any{
			"url":            b.API.URL + "/accounts/" + b.AccountNumber + "/",
			"account_number": b.AccountNumber,
			"deactivated":    false,
		}},
	})
}

func (b *Broker) handleOptionInstruments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := fmt.Sprintf("opt-%s-%s-%s-%s",
		q.Get("chain_symbol"), q.Get("expiration_date"), q.Get("strike_price"), q.Get("type"))
	writeJSON(w, map[string]any{
		"next": nil,
		"results": []any{map[string]any{
			"id":              id,
			"url":             b.API.URL + "/options/instruments/" + id + "/",
			"chain_symbol":    q.Get("chain_symbol"),
			"expiration_date": q.Get("expiration_date"),
			"strike_price":    q.Get("strike_price"),
			"type":            q.Get("type"),
			"state":           "active",
		}},
	})
}

func (b *Broker) handleCurrencyPairs(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.PairListGets++
	pairs := make([]any, 0, len(b.CryptoPairs))
	for symbol, id := range b.CryptoPairs {
		pairs = append(pairs, map[string]any{
			"id":             id,
			"symbol":         symbol + "-USD",
			"asset_currency": map[string]string{"code": symbol},
			"quote_currency": map[string]string{"code": "USD"},
		})
	}
	b.mu.Unlock()
	writeJSON(w, map[string]any{"next": nil, "results": pairs})
}

func (b *Broker) handleCryptoQuote(w http.ResponseWriter, r *http.Request) {
	pairID := chi.URLParam(r, "pairID")
	b.mu.Lock()
	q, ok := b.CryptoQuotes[pairID]
	b.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{
		"id":         pairID,
		"ask_price":  q.Ask,
		"bid_price":  q.Bid,
		"mark_price": q.Last,
	})
}

func (b *Broker) handleMarketHours(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"date":      chi.URLParam(r, "date"),
		"is_open":   true,
		"opens_at":  chi.URLParam(r, "date") + "T14:30:00Z",
		"closes_at": chi.URLParam(r, "date") + "T21:00:00Z",
	})
}

func (b *Broker) handleFundamentals(w http.ResponseWriter, r *http.Request) {
	results := []any{}
	for _, symbol := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if symbol == "" {
			continue
		}
		results = append(results, map[string]any{
			"symbol":     symbol,
			"market_cap": "1000000.00",
			"pe_ratio":   "25.40",
		})
	}
	writeJSON(w, map[string]any{"next": nil, "results": results})
}

func (b *Broker) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	b.mu.Lock()
	ids := b.Watchlists[name]
	entries := make([]any, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, map[string]any{
			"url":        b.API.URL + "/watchlists/" + name + "/" + id + "/",
			"instrument": b.API.URL + "/instruments/" + id + "/",
			"watchlist":  b.API.URL + "/watchlists/" + name + "/",
		})
	}
	b.mu.Unlock()
	writeJSON(w, map[string]any{"next": nil, "results": entries})
}

func (b *Broker) handleWatchlistDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "instrumentID")
	b.mu.Lock()
	b.WatchlistDeletes = append(b.WatchlistDeletes, r.URL.Path)
	kept := b.Watchlists[name][:0:0]
	for _, existing := range b.Watchlists[name] {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	b.Watchlists[name] = kept
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Broker) handleDocumentList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	ids := make([]string, 0, len(b.Documents))
	for id := range b.Documents {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	sort.Strings(ids)
	results := make([]any, 0, len(ids))
	for _, id := range ids {
		results = append(results, map[string]any{
			"id":           id,
			"type":         "account_statement",
			"download_url": b.API.URL + "/documents/" + id + "/download/",
		})
	}
	writeJSON(w, map[string]any{"next": nil, "results": results})
}

func (b *Broker) handleDocumentDownload(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	body, ok := b.Documents[chi.URLParam(r, "id")]
	b.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(body)
}

// ---------------------------------------------------------------------------
// Order handlers
// ---------------------------------------------------------------------------

func (b *Broker) recordOrder(store *[]RecordedRequest, respond func(body map[string]any) map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		*store = append(*store, RecordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		n := len(*store)
		b.mu.Unlock()
		resp := respond(body)
		if _, ok := resp["id"]; !ok {
			resp["id"] = fmt.Sprintf("order-%d", n)
		}
		writeJSONStatus(w, http.StatusCreated, resp)
	}
}

func (b *Broker) stockOrderResponse(body map[string]any) map[string]any {
	return map[string]any{
		"ref_id":     body["ref_id"],
		"state":      "unconfirmed",
		"side":       body["side"],
		"type":       body["type"],
		"trigger":    body["trigger"],
		"price":      body["price"],
		"stop_price": body["stop_price"],
		"quantity":   body["quantity"],
	}
}

func (b *Broker) optionOrderResponse(body map[string]any) map[string]any {
	return map[string]any{
		"ref_id":    body["ref_id"],
		"state":     "unconfirmed",
		"direction": body["direction"],
		"price":     body["price"],
		"quantity":  body["quantity"],
		"legs":      body["legs"],
	}
}

func (b *Broker) cryptoOrderResponse(body map[string]any) map[string]any {
	return map[string]any{
		"ref_id":           body["ref_id"],
		"state":            "unconfirmed",
		"side":             body["side"],
		"type":             body["type"],
		"price":            body["price"],
		"quantity":         body["quantity"],
		"currency_pair_id": body["currency_pair_id"],
		"account_id":       body["account_id"],
	}
}

func (b *Broker) handleCancel(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.CancelPosts = append(b.CancelPosts, r.URL.Path)
	b.mu.Unlock()
	writeJSON(w, map[string]any{})
}

// handleOrderList serves OrderPages with full next-page URLs.
func (b *Broker) handleOrderList(w http.ResponseWriter, r *http.Request) {
	b.servePages(w, r, b.OrderPages, "/orders/")
}

func (b *Broker) handleRecurringList(w http.ResponseWriter, r *http.Request) {
	b.servePages(w, r, b.RecurringPages, "/recurring_investments/")
}

func (b *Broker) servePages(w http.ResponseWriter, r *http.Request, pages [][]map[string]any, path string) {
	pageNum := 1
	if p := r.URL.Query().Get("page"); p != "" {
		pageNum, _ = strconv.Atoi(p)
	}
	if len(pages) == 0 || pageNum > len(pages) {
		writeJSON(w, map[string]any{"next": nil, "results": []any{}})
		return
	}
	var next any
	if pageNum < len(pages) {
		next = fmt.Sprintf("%s%s?page=%d", b.API.URL, path, pageNum+1)
	}
	writeJSON(w, map[string]any{"next": next, "results": pages[pageNum-1]})
}

// handleCryptoOrderList serves CryptoPages with opaque data.next cursors.
func (b *Broker) handleCryptoOrderList(w http.ResponseWriter, r *http.Request) {
	pageNum := 1
	if cur := r.URL.Query().Get("cursor"); cur != "" {
		pageNum, _ = strconv.Atoi(cur)
	}
	if len(b.CryptoPages) == 0 || pageNum > len(b.CryptoPages) {
		writeJSON(w, map[string]any{"data": map[string]any{"next": ""}, "results": []any{}})
		return
	}
	next := ""
	if pageNum < len(b.CryptoPages) {
		next = strconv.Itoa(pageNum + 1)
	}
	writeJSON(w, map[string]any{
		"data":    map[string]any{"next": next},
		"results": b.CryptoPages[pageNum-1],
	})
}

// ---------------------------------------------------------------------------
// Recurring handlers
// ---------------------------------------------------------------------------

func (b *Broker) handleRecurringCreate(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.RecurringRequests = append(b.RecurringRequests, RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	throttle := b.Recurring429s > 0
	if throttle {
		b.Recurring429s--
	}
	n := len(b.RecurringRequests)
	b.mu.Unlock()

	if throttle {
		w.WriteHeader(http.StatusTooManyRequests)
		writeJSON(w, map[string]string{"detail": "throttled"})
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"id":               fmt.Sprintf("sched-%d", n),
		"state":            "active",
		"amount":           body["amount"],
		"investment_asset": body["investment_asset"],
		"frequency":        body["frequency"],
		"source_of_funds":  body["source_of_funds"],
		"start_date":       body["start_date"],
		"account_number":   body["account_number"],
	})
}

func (b *Broker) handleRecurringPatch(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.RecurringRequests = append(b.RecurringRequests, RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	b.mu.Unlock()

	state := "active"
	if s, ok := body["state"].(string); ok {
		state = s
	}
	writeJSON(w, map[string]any{
		"id":    chi.URLParam(r, "id"),
		"state": state,
	})
}

func (b *Broker) handleRecurringDelete(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.RecurringRequests = append(b.RecurringRequests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
	})
	b.mu.Unlock()
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
