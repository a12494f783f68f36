package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/prabhat76/lincee-cart/internal/cache"
	"github.com/prabhat76/lincee-cart/internal/config"
	"github.com/prabhat76/lincee-cart/internal/domain"
	"github.com/prabhat76/lincee-cart/internal/engine"
	"github.com/prabhat76/lincee-cart/internal/gateway"
	"github.com/prabhat76/lincee-cart/internal/port"
)

// cartcli exercises the cart engine against a live cart API:
//
//	cartcli -user 42 show
//	cartcli -user 42 -product 10 -qty 1 -size M add
//	cartcli -user 42 -product 10 -delta -1 -size M update
//	cartcli -user 42 -product 10 -size M remove
//	cartcli -user 42 clear
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	user := flag.String("user", "", "user id of the cart session")
	product := flag.Int64("product", 0, "product id")
	qty := flag.Int("qty", 1, "quantity to add")
	delta := flag.Int("delta", 0, "signed quantity increment")
	size := flag.String("size", "", "variant size")
	color := flag.String("color", "", "variant color")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "show"
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	logger := zap.NewNop()
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("zap.NewDevelopment: %w", err)
		}
		defer func() { _ = logger.Sync() }()
	}

	gw, err := gateway.NewHTTP(cfg.APIBaseURL, cfg.APITimeout, logger)
	if err != nil {
		return fmt.Errorf("gateway.NewHTTP: %w", err)
	}

	carts := cache.New(cfg.CacheTTL)
	defer carts.Stop()

	eng, err := engine.New(gw, port.StaticSession(*user),
		engine.WithLogger(logger),
		engine.WithCurrency(cfg.Currency),
		engine.WithCache(carts),
	)
	if err != nil {
		return fmt.Errorf("engine.New: %w", err)
	}

	ctx := context.Background()
	variant := domain.Variant{Size: *size, Color: *color}

	if err := <-eng.Load(ctx); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	switch command {
	case "show":
	case "add":
		if err := <-eng.AddItem(ctx, *product, *qty, variant); err != nil {
			return fmt.Errorf("add: %w", err)
		}
	case "update":
		if err := <-eng.UpdateQuantity(ctx, *product, *delta, variant); err != nil {
			return fmt.Errorf("update: %w", err)
		}
	case "remove":
		if err := <-eng.RemoveItem(ctx, *product, variant); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
	case "clear":
		if err := <-eng.Clear(ctx); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	eng.Wait()

	printCart(eng.Current(), cfg, eng.ItemCount())
	return nil
}

func printCart(state domain.CartState, cfg config.Config, count int) {
	items := make([]domain.CartItem, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID < items[j].ProductID
	})

	w := os.Stdout
	for _, item := range items {
		variant := strings.TrimSpace(item.Variant.Size + " " + item.Variant.Color)
		fmt.Fprintf(w, "%-8d x%-3d %-30s %-10s %s\n",
			item.ProductID, item.Quantity, item.DisplayName, variant, item.UnitPrice)
	}
	fmt.Fprintf(w, "%d item(s), total %s %s\n", count, state.Total(), cfg.Currency)
}
