package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/betbot/nftmarket/internal/app"
)

func runOrders(a *app.App) error {
	_, cancel, err := connect(a)
	if err != nil {
		return err
	}
	defer cancel()

	snap := a.Storefront.OrderBook()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "TOKEN\tPRICE\tSYMBOL\tSELLER\tIMAGE\n")
	for _, l := range a.Storefront.Listings() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Order.TokenID, l.Order.PriceDisplay, l.Order.BaseTokenSymbol, l.Order.SellerKey, l.Image)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("collection=%s orders=%d\n", snap.CollectionAddress, len(snap.Orders))
	return nil
}

func runBalance(a *app.App) error {
	_, cancel, err := connect(a)
	if err != nil {
		return err
	}
	defer cancel()

	snap := a.Storefront.Balance()
	fmt.Printf("account=%s native=%s\n", snap.Account, snap.Native)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "CONTRACT\tTOKEN\tTYPE\tAVAILABLE\n")
	for _, h := range a.Storefront.Holdings() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.ContractAddress, h.TokenID, h.AssetType, h.Available)
	}
	return tw.Flush()
}

func runBuy(a *app.App, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	tokenID := fs.String("token-id", "", "要购买的 token id")
	seller := fs.String("seller", "", "卖方 stark key（订单簿中同一 token 有多个挂单时用于区分）")
	_ = fs.Parse(args)
	if *tokenID == "" {
		return fmt.Errorf("-token-id is required")
	}

	ctx, cancel, err := connect(a)
	if err != nil {
		return err
	}
	defer cancel()

	sellerKey := *seller
	if sellerKey == "" {
		for _, o := range a.Storefront.OrderBook().Orders {
			if o.TokenID == *tokenID {
				sellerKey = o.SellerKey
				break
			}
		}
	}
	if err := a.Storefront.Buy(ctx, *tokenID, sellerKey); err != nil {
		return err
	}
	log.Infof("✅ 购买已提交: token=%s", *tokenID)
	return nil
}

func runSell(a *app.App, args []string) error {
	fs := flag.NewFlagSet("sell", flag.ExitOnError)
	tokenID := fs.String("token-id", "", "要挂卖的 token id")
	price := fs.String("price", "", "挂卖价格（ETH）")
	_ = fs.Parse(args)
	if *tokenID == "" || *price == "" {
		return fmt.Errorf("-token-id and -price are required")
	}
	p, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("invalid -price: %w", err)
	}

	ctx, cancel, err := connect(a)
	if err != nil {
		return err
	}
	defer cancel()

	if err := a.Storefront.Sell(ctx, *tokenID, p); err != nil {
		return err
	}
	log.Infof("✅ 挂卖已提交: token=%s price=%s", *tokenID, p)
	return nil
}
