package robinhood

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"robinhood/pkg/robinhood/vault"
)

// ErrVerificationTimeout is returned when the step-up verification workflow
// does not reach an approved state within the polling budget. Approval may
// still have landed server-side; the remedy is to retry the whole login.
var ErrVerificationTimeout = errors.New("robinhood: verification workflow timed out")

// LoginOptions controls Login. Zero values take the broker defaults: a 24h
// token, internal scope, and no session persistence.
type LoginOptions struct {
	Username string
	Password string

	// ExpiresIn is the requested access-token lifetime in seconds.
	// Defaults to 86400.
	ExpiresIn int

	// Scope defaults to "internal".
	Scope string

	// MFACode is a TOTP code supplied with the initial grant, skipping the
	// verification workflow for accounts with app-based MFA.
	MFACode string

	// StoreSession persists the credentials through the vault and enables
	// cached-session reuse on subsequent logins.
	StoreSession bool
}

// Login establishes an authenticated session. With StoreSession set it first
// checks the encrypted credential file and reuses a still-valid token; a
// fresh password grant, including the broker's step-up verification workflow
// when demanded, is performed otherwise.
func (c *Client) Login(ctx context.Context, opts LoginOptions) (*LoginEnvelope, error) {
	if opts.ExpiresIn <= 0 {
		opts.ExpiresIn = 86400
	}
	if opts.Scope == "" {
		opts.Scope = "internal"
	}

	if opts.StoreSession {
		if env, ok := c.loginFromCache(ctx); ok {
			return env, nil
		}
	}

	var err error
	if opts.Username == "" {
		if opts.Username, err = c.prompt("Robinhood username"); err != nil {
			return nil, err
		}
	}
	if opts.Password == "" {
		if opts.Password, err = c.prompt("Robinhood password"); err != nil {
			return nil, err
		}
	}

	if c.deviceToken == "" {
		if c.deviceToken, err = vault.NewDeviceToken(); err != nil {
			return nil, err
		}
	}

	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("grant_type", "password")
	form.Set("username", opts.Username)
	form.Set("password", opts.Password)
	form.Set("expires_in", strconv.Itoa(opts.ExpiresIn))
	form.Set("scope", opts.Scope)
	form.Set("device_token", c.deviceToken)
	if opts.MFACode != "" {
		form.Set("mfa_code", opts.MFACode)
	}

	tok, err := c.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}

	if tok.AccessToken == "" && tok.VerificationWorkflow != nil {
		c.log.Info("step-up verification required", "workflow", tok.VerificationWorkflow.ID)
		if err := c.runVerificationWorkflow(ctx, tok.VerificationWorkflow.ID); err != nil {
			return nil, err
		}
		// Approved: the original grant is resubmitted unchanged.
		if tok, err = c.requestToken(ctx, form); err != nil {
			return nil, err
		}
	}

	if tok.AccessToken == "" {
		c.log.Error("login failed", "detail", tok.Detail)
		return nil, fmt.Errorf("robinhood: login failed: %s", tok.Detail)
	}

	c.setToken(tok.AccessToken)
	c.refreshTok = tok.RefreshToken

	detail := "logged in with brokerage account"
	if opts.StoreSession {
		if err := c.persistCredentials(tok); err != nil {
			c.log.Warn("could not persist session", "error", err)
		}
	}

	return &LoginEnvelope{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
		Scope:        tok.Scope,
		Detail:       detail,
	}, nil
}

// Logout clears the in-memory auth state. Persisted credentials are left on
// disk; delete the credential file to forget them.
func (c *Client) Logout() {
	c.setToken("")
	c.refreshTok = ""
}

// loginFromCache tries the encrypted credential file. The stored access
// token is verified against the positions collection, a cheap authenticated
// endpoint; any failure discards the in-memory state and reports a miss so
// the caller reauthenticates from scratch.
func (c *Client) loginFromCache(ctx context.Context) (*LoginEnvelope, bool) {
	if c.tokenPath == "" || c.vaultKey == nil {
		return nil, false
	}
	creds, err := vault.Load(c.tokenPath, c.vaultKey)
	if err != nil {
		if !errors.Is(err, vault.ErrNotFound) {
			c.log.Warn("stored session unusable", "error", err)
		}
		return nil, false
	}

	c.setToken(creds.AccessToken)
	c.refreshTok = creds.RefreshToken
	c.deviceToken = creds.DeviceToken

	params := url.Values{}
	params.Set("nonzero", "true")
	if _, err := c.doOnce(ctx, http.MethodGet, positionsURL(c.apiBase, ""), params, nil, "", true); err != nil {
		c.log.Info("cached token rejected, reauthenticating", "error", err)
		c.setToken("")
		c.refreshTok = ""
		return nil, false
	}

	detail := fmt.Sprintf("logged in using authentication in %s", filepath.Base(c.tokenPath))
	c.log.Info(detail)
	return &LoginEnvelope{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    creds.TokenType,
		Detail:       detail,
	}, true
}

// requestToken POSTs to the OAuth token endpoint and decodes the result.
// Non-2xx bodies are still decoded: the broker returns the verification
// workflow descriptor with error statuses.
func (c *Client) requestToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	data, err := c.postForm(ctx, loginURL(c.apiBase), form, false)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Body != "" {
			if tok, derr := decode[tokenResponse](([]byte)(apiErr.Body)); derr == nil {
				return tok, nil
			}
		}
		return nil, err
	}
	return decode[tokenResponse](data)
}

// refreshAccessToken exchanges the refresh token for a new access token and
// persists the rotated credentials when a vault is configured. A stale
// refresh token surfaces as an error, requiring full reauthentication.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	if c.refreshTok == "" {
		return errors.New("no refresh token held")
	}

	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshTok)
	form.Set("scope", "internal")
	form.Set("expires_in", "86400")
	if c.deviceToken != "" {
		form.Set("device_token", c.deviceToken)
	}

	data, err := c.postForm(ctx, loginURL(c.apiBase), form, false)
	if err != nil {
		return fmt.Errorf("refreshing access token: %w", err)
	}
	tok, err := decode[tokenResponse](data)
	if err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return errors.New("token endpoint returned no access token")
	}

	c.setToken(tok.AccessToken)
	c.refreshTok = tok.RefreshToken
	c.log.Info("access token refreshed")

	if c.tokenPath != "" && c.vaultKey != nil {
		if err := c.persistCredentials(tok); err != nil {
			c.log.Warn("could not persist refreshed session", "error", err)
		}
	}
	return nil
}

func (c *Client) persistCredentials(tok *tokenResponse) error {
	if c.tokenPath == "" || c.vaultKey == nil {
		return errors.New("no token path or vault key configured")
	}
	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return vault.Save(c.tokenPath, c.vaultKey, &vault.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tokenType,
		DeviceToken:  c.deviceToken,
	})
}

// ---------------------------------------------------------------------------
// Sheriff challenge / pathfinder verification
// ---------------------------------------------------------------------------

type inquiryView struct {
	Context struct {
		SheriffChallenge struct {
			ID     string `json:"id"`
			Type   string `json:"type"`
			Status string `json:"status"`
		} `json:"sheriff_challenge"`
	} `json:"context"`
	TypeContext struct {
		Result string `json:"result"`
	} `json:"type_context"`
}

// runVerificationWorkflow drives the broker's pathfinder service through a
// sheriff challenge: device push, SMS, or email. It blocks on polling sleeps
// and on user code entry for the delivered-code variants.
func (c *Client) runVerificationWorkflow(ctx context.Context, workflowID string) error {
	machineBody := map[string]any{
		"device_id": c.deviceToken,
		"flow":      "suv",
		"input":     map[string]string{"workflow_id": workflowID},
	}
	data, err := c.postJSON(ctx, pathfinderUserMachineURL(c.apiBase), machineBody)
	if err != nil {
		return fmt.Errorf("starting verification workflow: %w", err)
	}
	machine, err := decode[struct {
		ID string `json:"id"`
	}](data)
	if err != nil {
		return err
	}
	if machine.ID == "" {
		return errors.New("robinhood: pathfinder returned no machine id")
	}

	inquiryURL := pathfinderInquiriesURL(c.apiBase, machine.ID)

	challengeDone := false
	deadline := time.Now().Add(c.challengeBudget)
	for !challengeDone {
		if time.Now().After(deadline) {
			return ErrVerificationTimeout
		}

		view, err := getJSON[inquiryView](ctx, c, inquiryURL, nil)
		if err != nil {
			return fmt.Errorf("polling verification inquiry: %w", err)
		}

		ch := view.Context.SheriffChallenge
		switch {
		case ch.Type == "prompt":
			c.log.Info("verification push sent to your device, approve it to continue")
			if err := c.awaitPromptApproval(ctx, ch.ID, deadline); err != nil {
				return err
			}
			challengeDone = true
		case (ch.Type == "sms" || ch.Type == "email") && ch.Status == "issued":
			if err := c.respondToChallenge(ctx, ch.ID, ch.Type); err != nil {
				return err
			}
			challengeDone = true
		case ch.Status == "validated":
			challengeDone = true
		default:
			if err := sleepCtx(ctx, c.pollInterval); err != nil {
				return err
			}
		}
	}

	// Challenge cleared; confirm the workflow itself reports approval.
	continueBody := map[string]any{
		"sequence":   0,
		"user_input": map[string]string{"status": "continue"},
	}
	for attempt := 0; attempt < c.approvalRetries; attempt++ {
		data, err := c.postJSON(ctx, inquiryURL, continueBody)
		if err != nil {
			return fmt.Errorf("confirming workflow approval: %w", err)
		}
		view, err := decode[inquiryView](data)
		if err != nil {
			return err
		}
		if view.TypeContext.Result == "workflow_status_approved" {
			c.log.Info("verification workflow approved")
			return nil
		}
		if attempt < c.approvalRetries-1 {
			if err := sleepCtx(ctx, c.pollInterval); err != nil {
				return err
			}
		}
	}
	return ErrVerificationTimeout
}

// awaitPromptApproval polls the device-push status until it validates.
func (c *Client) awaitPromptApproval(ctx context.Context, challengeID string, deadline time.Time) error {
	for {
		if time.Now().After(deadline) {
			return ErrVerificationTimeout
		}
		status, err := getJSON[struct {
			ChallengeStatus string `json:"challenge_status"`
		}](ctx, c, promptStatusURL(c.apiBase, challengeID), nil)
		if err != nil {
			return fmt.Errorf("polling prompt status: %w", err)
		}
		if status.ChallengeStatus == "validated" {
			return nil
		}
		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return err
		}
	}
}

// respondToChallenge prompts the user for the delivered code and submits it.
func (c *Client) respondToChallenge(ctx context.Context, challengeID, kind string) error {
	code, err := c.prompt(fmt.Sprintf("Enter the code sent by %s", kind))
	if err != nil {
		return err
	}
	data, err := c.postJSON(ctx, challengeRespondURL(c.apiBase, challengeID), map[string]string{"response": code})
	if err != nil {
		return fmt.Errorf("submitting challenge code: %w", err)
	}
	result, err := decode[struct {
		Status string `json:"status"`
	}](data)
	if err != nil {
		return err
	}
	if result.Status != "validated" {
		return fmt.Errorf("robinhood: challenge code rejected (status %q)", result.Status)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
