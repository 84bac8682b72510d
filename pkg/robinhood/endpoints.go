package robinhood

// Endpoint construction is pure string work keyed by resource family and an
// optional item id: with an id the item-scoped URL is returned, without it
// the collection URL. All equity endpoints share one host; crypto order and
// currency-pair endpoints live on the nummus host and the pathfinder
// verification namespace shares the main host and auth.

const (
	defaultAPIBase    = "https://api.robinhood.com"
	defaultCryptoBase = "https://nummus.robinhood.com"
)

func loginURL(base string) string {
	return base + "/oauth2/token/"
}

func pathfinderUserMachineURL(base string) string {
	return base + "/pathfinder/user_machine/"
}

func pathfinderInquiriesURL(base, machineID string) string {
	return base + "/pathfinder/inquiries/" + machineID + "/user_view/"
}

func challengeRespondURL(base, challengeID string) string {
	return base + "/challenge/" + challengeID + "/respond/"
}

func promptStatusURL(base, challengeID string) string {
	return base + "/push/" + challengeID + "/get_prompts_status/"
}

func positionsURL(base, id string) string {
	if id != "" {
		return base + "/positions/" + id + "/"
	}
	return base + "/positions/"
}

func ordersURL(base, id string) string {
	if id != "" {
		return base + "/orders/" + id + "/"
	}
	return base + "/orders/"
}

func orderCancelURL(base, id string) string {
	return base + "/orders/" + id + "/cancel/"
}

func optionOrdersURL(base, id string) string {
	if id != "" {
		return base + "/options/orders/" + id + "/"
	}
	return base + "/options/orders/"
}

func optionOrderCancelURL(base, id string) string {
	return base + "/options/orders/" + id + "/cancel/"
}

func optionInstrumentsURL(base, id string) string {
	if id != "" {
		return base + "/options/instruments/" + id + "/"
	}
	return base + "/options/instruments/"
}

func cryptoOrdersURL(base, id string) string {
	if id != "" {
		return base + "/orders/" + id + "/"
	}
	return base + "/orders/"
}

func cryptoOrderCancelURL(base, id string) string {
	return base + "/orders/" + id + "/cancel/"
}

func currencyPairsURL(base string) string {
	return base + "/currency_pairs/"
}

func cryptoQuoteURL(base, pairID string) string {
	return base + "/marketdata/forex/quotes/" + pairID + "/"
}

func quotesURL(base, symbol string) string {
	return base + "/quotes/" + symbol + "/"
}

func instrumentsURL(base string) string {
	return base + "/instruments/"
}

func accountsURL(base string) string {
	return base + "/accounts/"
}

func recurringURL(base, id string) string {
	if id != "" {
		return base + "/recurring_investments/" + id + "/"
	}
	return base + "/recurring_investments/"
}

func marketHoursURL(base, mic, date string) string {
	return base + "/markets/" + mic + "/hours/" + date + "/"
}

func watchlistsURL(base, name string) string {
	if name != "" {
		return base + "/watchlists/" + name + "/"
	}
	return base + "/watchlists/"
}

func documentsURL(base, id string) string {
	if id != "" {
		return base + "/documents/" + id + "/"
	}
	return base + "/documents/"
}

func documentDownloadURL(base, id string) string {
	return documentsURL(base, id) + "download/"
}

func fundamentalsURL(base string) string {
	return base + "/fundamentals/"
}
