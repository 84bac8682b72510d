package robinhood

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robinhood/internal/testbroker"
	"robinhood/pkg/robinhood/vault"
)

func TestLoginPasswordGrant(t *testing.T) {
	b := testbroker.New(t)
	c := newTestClient(t, b)

	env, err := c.Login(context.Background(), LoginOptions{
		Username: b.Username,
		Password: b.Password,
	})
	require.NoError(t, err)

	assert.Equal(t, "access-1", env.AccessToken)
	assert.Equal(t, "logged in with brokerage account", env.Detail)
	assert.True(t, c.LoggedIn())
	assert.Equal(t, 1, b.LoginPosts)
	assert.NotEmpty(t, c.DeviceToken(), "login must generate a device token")
}

func TestLoginBadCredentials(t *testing.T) {
	b := testbroker.New(t)
	c := newTestClient(t, b)

	_, err := c.Login(context.Background(), LoginOptions{
		Username: b.Username,
		Password: "wrong",
	})
	require.Error(t, err)
	assert.False(t, c.LoggedIn())
	assert.Contains(t, err.Error(), "unable to log in")
}

func TestLoginSMSChallenge(t *testing.T) {
	b := testbroker.New(t)
	b.RequireSMS = true

	var promptedFor string
	c := newTestClient(t, b, WithPrompt(func(label string) (string, error) {
		promptedFor = label
		return b.SMSCode, nil
	}))

	env, err := c.Login(context.Background(), LoginOptions{
		Username: b.Username,
		Password: b.Password,
	})
	require.NoError(t, err)

	assert.Contains(t, promptedFor, "sms")
	assert.Equal(t, "access-1", env.AccessToken)
	assert.True(t, c.LoggedIn())
	// One grant that demanded verification, one resubmission after approval.
	assert.Equal(t, 2, b.LoginPosts)
}

func TestLoginSMSWrongCode(t *testing.T) {
	b := testbroker.New(t)
	b.RequireSMS = true

	c := newTestClient(t, b, WithPrompt(func(string) (string, error) {
		return "000000", nil
	}))

	_, err := c.Login(context.Background(), LoginOptions{
		Username: b.Username,
		Password: b.Password,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "challenge code rejected")
	assert.False(t, c.LoggedIn())
}

func TestLoginDevicePushChallenge(t *testing.T) {
	b := testbroker.New(t)
	b.RequirePrompt = true
	b.PromptPolls = 2

	// No WithPrompt: a push approval needs no code entry, and the default
	// prompt fails the test if consulted.
	c := newTestClient(t, b)

	env, err := c.Login(context.Background(), LoginOptions{
		Username: b.Username,
		Password: b.Password,
	})
	require.NoError(t, err)

	assert.Equal(t, "access-1", env.AccessToken)
	assert.True(t, c.LoggedIn())
	// One grant that demanded verification, one resubmission after approval.
	assert.Equal(t, 2, b.LoginPosts)
	// Two polls report the push still pending, the third validates it.
	assert.Equal(t, 3, b.PromptStatusGets)
}

func TestLoginVerificationTimeout(t *testing.T) {
	b := testbroker.New(t)
	b.RequireSMS = true
	b.StallVerification = true

	c := newTestClient(t, b)
	c.challengeBudget = 50 * time.Millisecond

	_, err := c.Login(context.Background(), LoginOptions{
		Username: b.Username,
		Password: b.Password,
	})
	require.ErrorIs(t, err, ErrVerificationTimeout)
	assert.False(t, c.LoggedIn())
}

func TestLoginFromCache(t *testing.T) {
	b := testbroker.New(t)
	b.SeedToken("cached-token", "cached-refresh")

	key, err := vault.GenerateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "robinhood.json")
	require.NoError(t, vault.Save(path, key, &vault.Credentials{
		AccessToken:  "cached-token",
		RefreshToken: "cached-refresh",
		TokenType:    "Bearer",
		DeviceToken:  "11111111-2222-3333-4444-555555555555",
	}))

	// No username or password: the cache must satisfy the login entirely,
	// and the default prompt fails the test if consulted.
	c := newTestClient(t, b, WithTokenPath(path), WithVaultKey(key))
	env, err := c.Login(context.Background(), LoginOptions{StoreSession: true})
	require.NoError(t, err)

	assert.Equal(t, "cached-token", env.AccessToken)
	assert.Equal(t, "logged in using authentication in robinhood.json", env.Detail)
	assert.Equal(t, 0, b.LoginPosts, "cached session must not hit the token endpoint")
	assert.Equal(t, 1, b.PositionsGets, "cache check is a single positions call")
}

func TestLoginStoreSessionRoundTrip(t *testing.T) {
	b := testbroker.New(t)

	key, err := vault.GenerateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "robinhood.json")

	first := newTestClient(t, b, WithTokenPath(path), WithVaultKey(key))
	env, err := first.Login(context.Background(), LoginOptions{
		Username:     b.Username,
		Password:     b.Password,
		StoreSession: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "logged in with brokerage account", env.Detail)
	require.Equal(t, 1, b.LoginPosts)

	// A second client with the same vault reuses the stored session.
	second := newTestClient(t, b, WithTokenPath(path), WithVaultKey(key))
	env, err = second.Login(context.Background(), LoginOptions{StoreSession: true})
	require.NoError(t, err)
	assert.Equal(t, "logged in using authentication in robinhood.json", env.Detail)
	assert.Equal(t, 1, b.LoginPosts, "second login must not hit the token endpoint")
	assert.Equal(t, env.AccessToken, first.token)
}

func TestStaleCacheFallsBackToPasswordGrant(t *testing.T) {
	b := testbroker.New(t)

	key, err := vault.GenerateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "robinhood.json")
	require.NoError(t, vault.Save(path, key, &vault.Credentials{
		AccessToken:  "long-gone",
		RefreshToken: "long-gone-refresh",
		TokenType:    "Bearer",
		DeviceToken:  "11111111-2222-3333-4444-555555555555",
	}))

	c := newTestClient(t, b, WithTokenPath(path), WithVaultKey(key))
	env, err := c.Login(context.Background(), LoginOptions{
		Username:     b.Username,
		Password:     b.Password,
		StoreSession: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "logged in with brokerage account", env.Detail)
	assert.Equal(t, 1, b.LoginPosts)
}

func TestExpiredTokenRefreshedAndReplayed(t *testing.T) {
	b := testbroker.New(t)
	c := newTestClient(t, b)
	loginTestClient(t, c, b)

	b.ExpireToken(b.IssuedToken())

	_, err := c.Positions(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, b.RefreshPosts, "expired token triggers exactly one refresh")
	assert.Equal(t, "access-2", c.token)
}

func TestRefreshFailureSurfacesUnauthenticated(t *testing.T) {
	b := testbroker.New(t)
	c := newTestClient(t, b)
	loginTestClient(t, c, b)

	b.ExpireToken(b.IssuedToken())
	c.refreshTok = "bogus"

	_, err := c.Positions(context.Background(), true)
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, c.LoggedIn())
}

func TestLogoutClearsSession(t *testing.T) {
	b := testbroker.New(t)
	c := newTestClient(t, b)
	loginTestClient(t, c, b)

	c.Logout()
	assert.False(t, c.LoggedIn())

	_, err := c.Positions(context.Background(), true)
	require.Error(t, err)
}
