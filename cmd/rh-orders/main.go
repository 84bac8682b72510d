// Example: place, list, and cancel equity orders.
//
// Usage:
//
//	rh-orders buy SYMBOL QUANTITY [LIMIT]
//	rh-orders sell SYMBOL QUANTITY [LIMIT]
//	rh-orders list
//	rh-orders cancel-all
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
		fmt.Fprintln(os.Stderr, "usage: rh-orders buy|sell|list|cancel-all ...")
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
	case "buy", "sell":
		if len(os.Args) < 4 {
			log.Fatalf("usage: rh-orders %s SYMBOL QUANTITY [LIMIT]", os.Args[1])
		}
		symbol := os.Args[2]
		quantity, err := decimal.NewFromString(os.Args[3])
		if err != nil {
			log.Fatalf("bad quantity %q: %v", os.Args[3], err)
		}

		intent := robinhood.OrderIntent{
			Symbol:   symbol,
			Side:     robinhood.Side(os.Args[1]),
			Quantity: quantity,
		}
		if len(os.Args) > 4 {
			limit, err := decimal.NewFromString(os.Args[4])
			if err != nil {
				log.Fatalf("bad limit price %q: %v", os.Args[4], err)
			}
			intent.LimitPrice = &limit
		}

		order, err := client.PlaceOrder(ctx, intent)
		if err != nil {
			log.Fatalf("order failed: %v", err)
		}
		fmt.Printf("placed %s %s %s: id=%s state=%s price=%s\n",
			order.Side, order.Quantity, symbol, order.ID, order.State, order.Price)

	case "list":
		orders, err := client.OpenStockOrders(ctx)
		if err != nil {
			log.Fatalf("failed to list orders: %v", err)
		}
		for _, o := range orders {
			fmt.Printf("%s  %-5s %-6s %10s @ %-10s %s\n",
				o.ID, o.Side, o.Type, o.Quantity, o.Price, o.State)
		}

	case "cancel-all":
		n, err := client.CancelAllStockOrders(ctx)
		if err != nil {
			log.Fatalf("cancel-all failed after %d cancellations: %v", n, err)
		}
		fmt.Printf("cancelled %d open orders\n", n)

	default:
		log.Fatalf("unknown command %q", os.Args[1])
	}
}
