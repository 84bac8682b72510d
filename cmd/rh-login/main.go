// Example: log in to the brokerage and print the account's holdings.
//
// Credentials come from the environment (ROBINHOOD_USERNAME,
// ROBINHOOD_PASSWORD, optional ROBINHOOD_TOTP base-32 seed) or an optional
// YAML config referenced by ROBINHOOD_CONFIG. Sessions are stored encrypted
// and reused on subsequent runs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pquerna/otp/totp"

	"robinhood/internal/config"
	"robinhood/pkg/robinhood"
)

func main() {
	cfg, err := config.Load(os.Getenv("ROBINHOOD_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	key, err := cfg.EnsureVaultKey()
	if err != nil {
		log.Fatalf("failed to prepare vault key: %v", err)
	}

	client := robinhood.NewClient(
		robinhood.WithTokenPath(cfg.TokenPath()),
		robinhood.WithVaultKey(key),
	)
	if cfg.Session.RateLimitSeconds > 0 {
		client.SetRateLimit(time.Duration(cfg.Session.RateLimitSeconds * float64(time.Second)))
	}

	mfaCode := ""
	if cfg.Credentials.TOTPSeed != "" {
		mfaCode, err = totp.GenerateCode(cfg.Credentials.TOTPSeed, time.Now())
		if err != nil {
			log.Fatalf("failed to derive MFA code: %v", err)
		}
	}

	ctx := context.Background()
	envelope, err := client.Login(ctx, robinhood.LoginOptions{
		Username:     cfg.Credentials.Username,
		Password:     cfg.Credentials.Password,
		MFACode:      mfaCode,
		StoreSession: true,
	})
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	fmt.Println(envelope.Detail)

	holdings, err := client.Holdings(ctx)
	if err != nil {
		log.Fatalf("failed to fetch holdings: %v", err)
	}
	if len(holdings) == 0 {
		fmt.Println("no open positions")
		return
	}
	fmt.Printf("%-8s %-24s %12s %12s %12s\n", "SYMBOL", "NAME", "QUANTITY", "AVG COST", "PRICE")
	for _, h := range holdings {
		fmt.Printf("%-8s %-24s %12s %12s %12s\n", h.Symbol, h.Name, h.Quantity, h.AverageBuyPrice, h.Price)
	}
}
