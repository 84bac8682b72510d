package robinhood

// Wire types for the broker's private API. Monetary fields arrive as decimal
// strings and are kept that way; callers and the order builder parse them
// with shopspring/decimal when math is needed.

// tokenResponse is the OAuth token endpoint's success payload. A login
// attempt that requires step-up verification returns VerificationWorkflow
// instead of a token.
type tokenResponse struct {
	AccessToken          string `json:"access_token"`
	RefreshToken         string `json:"refresh_token"`
	TokenType            string `json:"token_type"`
	ExpiresIn            int    `json:"expires_in"`
	Scope                string `json:"scope"`
	VerificationWorkflow *struct {
		ID string `json:"id"`
	} `json:"verification_workflow,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// LoginEnvelope is returned by Login. Detail is a human-readable note about
// how the session was established (fresh grant vs cached credentials).
type LoginEnvelope struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	Detail       string `json:"detail"`
}

// Quote is an equity quote. Prices are decimal strings as sent by the API.
type Quote struct {
	Symbol                      string `json:"symbol"`
	AskPrice                    string `json:"ask_price"`
	BidPrice                    string `json:"bid_price"`
	LastTradePrice              string `json:"last_trade_price"`
	LastExtendedHoursTradePrice string `json:"last_extended_hours_trade_price"`
	Instrument                  string `json:"instrument"`
	UpdatedAt                   string `json:"updated_at"`
}

// CryptoQuote is a quote for a currency pair.
type CryptoQuote struct {
	Symbol    string `json:"symbol"`
	AskPrice  string `json:"ask_price"`
	BidPrice  string `json:"bid_price"`
	MarkPrice string `json:"mark_price"`
	HighPrice string `json:"high_price"`
	LowPrice  string `json:"low_price"`
	Volume    string `json:"volume"`
	ID        string `json:"id"`
}

// Instrument describes a tradable equity.
type Instrument struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Symbol         string `json:"symbol"`
	SimpleName     string `json:"simple_name"`
	Name           string `json:"name"`
	Tradeable      bool   `json:"tradeable"`
	TradableChain  string `json:"tradable_chain_id"`
	MinTickSize    string `json:"min_tick_size"`
	State          string `json:"state"`
	FractionalTier string `json:"fractional_tradability"`
}

// OptionInstrument describes a single option contract.
type OptionInstrument struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	ChainSymbol    string `json:"chain_symbol"`
	ExpirationDate string `json:"expiration_date"`
	StrikePrice    string `json:"strike_price"`
	Type           string `json:"type"`
	State          string `json:"state"`
	Tradability    string `json:"tradability"`
}

// Account is the brokerage account profile used to scope orders.
type Account struct {
	URL                  string `json:"url"`
	AccountNumber        string `json:"account_number"`
	BuyingPower          string `json:"buying_power"`
	Cash                 string `json:"cash"`
	Type                 string `json:"type"`
	BrokerageAccountType string `json:"brokerage_account_type"`
	Deactivated          bool   `json:"deactivated"`
}

// Position is a single holding in the account.
type Position struct {
	URL                string `json:"url"`
	Instrument         string `json:"instrument"`
	InstrumentID       string `json:"instrument_id"`
	Account            string `json:"account"`
	AccountNumber      string `json:"account_number"`
	Quantity           string `json:"quantity"`
	AverageBuyPrice    string `json:"average_buy_price"`
	PendingBuyQuantity string `json:"shares_held_for_buys"`
	UpdatedAt          string `json:"updated_at"`
}

// Order is the broker's view of a submitted equity order.
type Order struct {
	ID             string       `json:"id"`
	RefID          string       `json:"ref_id"`
	URL            string       `json:"url"`
	Account        string       `json:"account"`
	Instrument     string       `json:"instrument"`
	Symbol         string       `json:"symbol"`
	CancelURL      string       `json:"cancel"`
	Price          string       `json:"price"`
	StopPrice      string       `json:"stop_price"`
	Quantity       string       `json:"quantity"`
	State          string       `json:"state"`
	Side           string       `json:"side"`
	Type           string       `json:"type"`
	Trigger        string       `json:"trigger"`
	TimeInForce    string       `json:"time_in_force"`
	ExtendedHours  bool         `json:"extended_hours"`
	TrailingPeg    *TrailingPeg `json:"trailing_peg,omitempty"`
	CreatedAt      string       `json:"created_at"`
	AveragePrice   string       `json:"average_price"`
	FilledQuantity string       `json:"cumulative_quantity"`
}

// TrailingPeg describes how a trailing stop shadows the market, either by an
// absolute dollar amount or by a percentage offset.
type TrailingPeg struct {
	Type       string       `json:"type"`
	Price      *MoneyAmount `json:"price,omitempty"`
	Percentage string       `json:"percentage,omitempty"`
}

// MoneyAmount is the {amount, currency_code} object used in several payloads.
type MoneyAmount struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

// OptionOrder is the broker's view of a submitted option order.
type OptionOrder struct {
	ID                string           `json:"id"`
	RefID             string           `json:"ref_id"`
	CancelURL         string           `json:"cancel_url"`
	ChainSymbol       string           `json:"chain_symbol"`
	Direction         string           `json:"direction"`
	Price             string           `json:"price"`
	Quantity          string           `json:"quantity"`
	State             string           `json:"state"`
	TimeInForce       string           `json:"time_in_force"`
	Trigger           string           `json:"trigger"`
	Type              string           `json:"type"`
	Legs              []OptionOrderLeg `json:"legs"`
	PremiumDirection  string           `json:"premium_direction"`
	ProcessedQuantity string           `json:"processed_quantity"`
}

// OptionOrderLeg is one leg of an option order as echoed by the broker.
type OptionOrderLeg struct {
	ID             string `json:"id"`
	Option         string `json:"option"`
	Side           string `json:"side"`
	PositionEffect string `json:"position_effect"`
	RatioQuantity  int    `json:"ratio_quantity"`
}

// CryptoOrder is the broker's view of a submitted crypto order.
type CryptoOrder struct {
	ID             string `json:"id"`
	RefID          string `json:"ref_id"`
	AccountID      string `json:"account_id"`
	CurrencyPairID string `json:"currency_pair_id"`
	CancelURL      string `json:"cancel_url"`
	Price          string `json:"price"`
	Quantity       string `json:"quantity"`
	Side           string `json:"side"`
	State          string `json:"state"`
	TimeInForce    string `json:"time_in_force"`
	Type           string `json:"type"`
	CreatedAt      string `json:"created_at"`
}

// CurrencyPair maps a crypto trading symbol to the broker's pair id.
type CurrencyPair struct {
	ID            string       `json:"id"`
	Symbol        string       `json:"symbol"`
	Tradability   string       `json:"tradability"`
	AssetCurrency CurrencyCode `json:"asset_currency"`
	QuoteCurrency CurrencyCode `json:"quote_currency"`
}

// CurrencyCode names one side of a currency pair.
type CurrencyCode struct {
	Code string `json:"code"`
}

// RecurringSchedule is a recurring-investment schedule as stored by the
// broker. Cancellation is a soft delete: the record transitions to
// state "deleted" via PATCH and is never removed with a DELETE verb.
type RecurringSchedule struct {
	ID              string          `json:"id"`
	AccountNumber   string          `json:"account_number"`
	Amount          MoneyAmount     `json:"amount"`
	InvestmentAsset InvestmentAsset `json:"investment_asset"`
	Frequency       string          `json:"frequency"`
	StartDate       string          `json:"start_date"`
	State           string          `json:"state"`
	SourceOfFunds   string          `json:"source_of_funds"`
	NextInvestment  string          `json:"next_investment_date"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// InvestmentAsset identifies what a recurring schedule buys.
type InvestmentAsset struct {
	AssetID     string `json:"asset_id"`
	AssetSymbol string `json:"asset_symbol"`
	AssetType   string `json:"asset_type"`
}

// MarketHours is one trading day's session times for a venue.
type MarketHours struct {
	Date             string `json:"date"`
	IsOpen           bool   `json:"is_open"`
	OpensAt          string `json:"opens_at"`
	ClosesAt         string `json:"closes_at"`
	ExtendedOpensAt  string `json:"extended_opens_at"`
	ExtendedClosesAt string `json:"extended_closes_at"`
}

// WatchlistEntry is one instrument pinned to a named watchlist.
type WatchlistEntry struct {
	URL        string `json:"url"`
	Instrument string `json:"instrument"`
	Watchlist  string `json:"watchlist"`
	CreatedAt  string `json:"created_at"`
}

// Fundamental is the per-symbol fundamentals record.
type Fundamental struct {
	Symbol        string `json:"symbol"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Volume        string `json:"volume"`
	AverageVolume string `json:"average_volume"`
	High52Weeks   string `json:"high_52_weeks"`
	Low52Weeks    string `json:"low_52_weeks"`
	MarketCap     string `json:"market_cap"`
	PERatio       string `json:"pe_ratio"`
	DividendYield string `json:"dividend_yield"`
	Instrument    string `json:"instrument"`
}

// Document is an account document descriptor: trade confirmations,
// statements, tax forms. The body itself comes from DownloadDocument.
type Document struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	DownloadURL string `json:"download_url"`
}

// Holding is the composed per-symbol view returned by Holdings: position
// size joined with the instrument's identity and a live quote.
type Holding struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Quantity        string `json:"quantity"`
	AverageBuyPrice string `json:"average_buy_price"`
	Price           string `json:"price"`
}

// page is the standard paginated collection envelope: results plus a full
// next-page URL.
type page[T any] struct {
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

// cursorPage is the crypto/futures pagination envelope: the next cursor is
// an opaque token under data.next, passed back as a query parameter.
type cursorPage[T any] struct {
	Data struct {
		Next string `json:"next"`
	} `json:"data"`
	Results []T `json:"results"`
}
