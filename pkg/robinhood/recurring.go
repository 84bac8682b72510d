package robinhood

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"robinhood/internal/util"
)

// Recurring-investment schedules. The broker owns the records; the client
// creates them with POST, reshapes them with sparse PATCHes, and cancels
// them by PATCHing state to "deleted". No DELETE verb is ever used.

// Frequency is how often a recurring investment executes.
type Frequency string

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

// SourceOfFunds selects what a recurring investment draws on.
type SourceOfFunds string

const (
	BuyingPower     SourceOfFunds = "buying_power"
	ACHRelationship SourceOfFunds = "ach_relationship"
)

// Recurring schedule states.
const (
	RecurringActive  = "active"
	RecurringPaused  = "paused"
	RecurringDeleted = "deleted"
)

// RecurringIntent describes a schedule to create. AccountNumber and
// StartDate are optional: the profile account and today's date are used when
// absent.
type RecurringIntent struct {
	Symbol        string
	AssetType     string // "equity" or "crypto"
	Amount        decimal.Decimal
	Frequency     Frequency
	SourceOfFunds SourceOfFunds
	StartDate     string // YYYY-MM-DD
	AccountNumber string
}

type recurringCreatePayload struct {
	AccountNumber             string          `json:"account_number"`
	Amount                    MoneyAmount     `json:"amount"`
	InvestmentAsset           InvestmentAsset `json:"investment_asset"`
	Frequency                 string          `json:"frequency"`
	SourceOfFunds             string          `json:"source_of_funds"`
	StartDate                 string          `json:"start_date"`
	RefID                     string          `json:"ref_id"`
	ACHRelationshipID         *string         `json:"ach_relationship_id"`
	DirectDepositRelationship *string         `json:"direct_deposit_relationship_id"`
	IsBackupACHEnabled        bool            `json:"is_backup_ach_enabled"`
	PercentageOfDirectDeposit *string         `json:"percentage_of_direct_deposit"`
}

// RecurringUpdate is a sparse set of changes; only non-nil fields are sent.
type RecurringUpdate struct {
	Amount    *decimal.Decimal
	Frequency *Frequency
	State     *string
	StartDate *string
}

// CreateRecurring creates a recurring-investment schedule. The new record
// comes back with state "active".
func (c *Client) CreateRecurring(ctx context.Context, intent RecurringIntent) (*RecurringSchedule, error) {
	payload, err := c.buildRecurringPayload(ctx, intent)
	if err != nil {
		return nil, err
	}
	data, err := c.postJSON(ctx, recurringURL(c.apiBase, ""), payload)
	if err != nil {
		return nil, err
	}
	return decode[RecurringSchedule](data)
}

func (c *Client) buildRecurringPayload(ctx context.Context, intent RecurringIntent) (*recurringCreatePayload, error) {
	if !intent.Amount.IsPositive() {
		return nil, errors.New("robinhood: recurring amount must be positive")
	}
	if intent.Frequency == "" {
		return nil, errors.New("robinhood: recurring frequency is required")
	}
	if intent.SourceOfFunds == "" {
		intent.SourceOfFunds = BuyingPower
	}

	accountNumber := intent.AccountNumber
	if accountNumber == "" {
		account, err := c.Account(ctx)
		if err != nil {
			return nil, err
		}
		accountNumber = account.AccountNumber
	}

	var assetID string
	switch intent.AssetType {
	case "crypto":
		id, err := c.currencyPairID(ctx, intent.Symbol)
		if err != nil {
			return nil, err
		}
		assetID = id
	case "equity", "":
		intent.AssetType = "equity"
		inst, err := c.Instrument(ctx, intent.Symbol)
		if err != nil {
			return nil, err
		}
		assetID = inst.ID
	default:
		return nil, fmt.Errorf("robinhood: invalid asset type %q", intent.AssetType)
	}

	startDate := intent.StartDate
	if startDate == "" {
		startDate = time.Now().Format("2006-01-02")
	}

	return &recurringCreatePayload{
		AccountNumber: accountNumber,
		Amount: MoneyAmount{
			Amount:       intent.Amount.String(),
			CurrencyCode: "USD",
		},
		InvestmentAsset: InvestmentAsset{
			AssetID:     assetID,
			AssetSymbol: intent.Symbol,
			AssetType:   intent.AssetType,
		},
		Frequency:     string(intent.Frequency),
		SourceOfFunds: string(intent.SourceOfFunds),
		StartDate:     startDate,
		RefID:         uuid.NewString(),
	}, nil
}

// UpdateRecurring PATCHes only the supplied fields of a schedule.
func (c *Client) UpdateRecurring(ctx context.Context, scheduleID string, update RecurringUpdate) (*RecurringSchedule, error) {
	body := map[string]any{}
	if update.Amount != nil {
		body["amount"] = MoneyAmount{Amount: update.Amount.String(), CurrencyCode: "USD"}
	}
	if update.Frequency != nil {
		body["frequency"] = string(*update.Frequency)
	}
	if update.State != nil {
		body["state"] = *update.State
	}
	if update.StartDate != nil {
		body["start_date"] = *update.StartDate
	}
	if len(body) == 0 {
		return nil, errors.New("robinhood: empty recurring update")
	}

	data, err := c.patchJSON(ctx, recurringURL(c.apiBase, scheduleID), body)
	if err != nil {
		return nil, err
	}
	return decode[RecurringSchedule](data)
}

// PauseRecurring transitions a schedule to the paused state.
func (c *Client) PauseRecurring(ctx context.Context, scheduleID string) (*RecurringSchedule, error) {
	state := RecurringPaused
	return c.UpdateRecurring(ctx, scheduleID, RecurringUpdate{State: &state})
}

// ResumeRecurring transitions a paused schedule back to active.
func (c *Client) ResumeRecurring(ctx context.Context, scheduleID string) (*RecurringSchedule, error) {
	state := RecurringActive
	return c.UpdateRecurring(ctx, scheduleID, RecurringUpdate{State: &state})
}

// CancelRecurring soft-deletes a schedule: one PATCH carrying
// {"state":"deleted"}. The returned record reads back as deleted.
func (c *Client) CancelRecurring(ctx context.Context, scheduleID string) (*RecurringSchedule, error) {
	state := RecurringDeleted
	return c.UpdateRecurring(ctx, scheduleID, RecurringUpdate{State: &state})
}

// Recurring lists schedules, following pagination. Asset types filter
// server-side; use FilterRecurringByState for client-side state filtering.
func (c *Client) Recurring(ctx context.Context, assetTypes ...string) ([]RecurringSchedule, error) {
	params := url.Values{}
	if len(assetTypes) > 0 {
		params.Set("asset_types", strings.Join(assetTypes, ","))
	}
	return getPaginated[RecurringSchedule](ctx, c, recurringURL(c.apiBase, ""), params)
}

// FilterRecurringByState keeps only schedules in the given state.
func FilterRecurringByState(schedules []RecurringSchedule, state string) []RecurringSchedule {
	out := schedules[:0:0]
	for _, s := range schedules {
		if s.State == state {
			out = append(out, s)
		}
	}
	return out
}

// CreateRecurringBatch creates many schedules, backing off exponentially
// from 10 s when the broker throttles (429) or buckles (502/503/504). It
// returns the schedules created before the first unrecoverable error.
func (c *Client) CreateRecurringBatch(ctx context.Context, intents []RecurringIntent) ([]RecurringSchedule, error) {
	created := make([]RecurringSchedule, 0, len(intents))
	for _, intent := range intents {
		var schedule *RecurringSchedule
		err := util.RetryIf(ctx, 5, c.batchBackoff, isRateLimited, func() error {
			var err error
			schedule, err = c.CreateRecurring(ctx, intent)
			return err
		})
		if err != nil {
			return created, fmt.Errorf("creating recurring investment for %s: %w", intent.Symbol, err)
		}
		created = append(created, *schedule)
	}
	return created, nil
}
