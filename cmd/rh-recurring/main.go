// Example: manage recurring investments.
//
// Usage:
//
//	rh-recurring list
//	rh-recurring create SYMBOL AMOUNT daily|weekly|biweekly|monthly
//	rh-recurring pause ID
//	rh-recurring cancel ID
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"robinhood/internal/config"
	"robinhood/pkg/robinhood"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: rh-recurring list|create|pause|cancel ...")
		os.Exit(1)
	}

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

	ctx := context.Background()
	if _, err := client.Login(ctx, robinhood.LoginOptions{
		Username:     cfg.Credentials.Username,
		Password:     cfg.Credentials.Password,
		StoreSession: true,
	}); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	switch os.Args[1] {
	case "list":
		schedules, err := client.Recurring(ctx)
		if err != nil {
			log.Fatalf("failed to list schedules: %v", err)
		}
		for _, s := range schedules {
			fmt.Printf("%s  %-6s $%-8s %-9s %-8s next=%s\n",
				s.ID, s.InvestmentAsset.AssetSymbol, s.Amount.Amount, s.Frequency, s.State, s.NextInvestment)
		}

	case "create":
		if len(os.Args) < 5 {
			log.Fatal("usage: rh-recurring create SYMBOL AMOUNT FREQUENCY")
		}
		amount, err := decimal.NewFromString(os.Args[3])
		if err != nil {
			log.Fatalf("bad amount %q: %v", os.Args[3], err)
		}
		schedule, err := client.CreateRecurring(ctx, robinhood.RecurringIntent{
			Symbol:    os.Args[2],
			Amount:    amount,
			Frequency: robinhood.Frequency(os.Args[4]),
		})
		if err != nil {
			log.Fatalf("create failed: %v", err)
		}
		fmt.Printf("created schedule %s (%s, $%s %s)\n",
			schedule.ID, schedule.InvestmentAsset.AssetSymbol, schedule.Amount.Amount, schedule.Frequency)

	case "pause":
		if len(os.Args) < 3 {
			log.Fatal("usage: rh-recurring pause ID")
		}
		schedule, err := client.PauseRecurring(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("pause failed: %v", err)
		}
		fmt.Printf("schedule %s is now %s\n", schedule.ID, schedule.State)

	case "cancel":
		if len(os.Args) < 3 {
			log.Fatal("usage: rh-recurring cancel ID")
		}
		schedule, err := client.CancelRecurring(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("cancel failed: %v", err)
		}
		fmt.Printf("schedule %s is now %s\n", schedule.ID, schedule.State)

	default:
		log.Fatalf("unknown command %q", os.Args[1])
	}
}
