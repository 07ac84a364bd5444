package app

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/betbot/nftmarket/internal/balance"
	"github.com/betbot/nftmarket/internal/orderbook"
	"github.com/betbot/nftmarket/internal/services"
	"github.com/betbot/nftmarket/internal/session"
	"github.com/betbot/nftmarket/internal/trade"
	"github.com/betbot/nftmarket/internal/wallet"
	"github.com/betbot/nftmarket/l2/client"
	"github.com/betbot/nftmarket/l2/signing"
	"github.com/betbot/nftmarket/pkg/config"
)

var log = logrus.WithField("component", "app")

// App 组装完成的商城组件
type App struct {
	Config     *config.Config
	Client     *client.Client
	Session    *session.Holder
	OrderBook  *orderbook.Cache
	Balances   *balance.Book
	Submitter  *trade.Submitter
	Storefront *services.Storefront
	Wallet     *ecdsa.PrivateKey
}

// Build 按配置组装组件；storeKey 为钱包存储的加密密钥
func Build(cfg *config.Config, storeKey string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	walletKey, err := wallet.Resolve(cfg.Wallet, storeKey)
	if err != nil {
		return nil, err
	}
	log.Infof("钱包地址: %s", signing.WalletAddress(walletKey).Hex())

	httpOpts := client.HTTPOptions{Timeout: cfg.API.Timeout, RetryCount: cfg.API.RetryCount}
	api := client.NewClient(client.Config{
		Host:           cfg.API.BaseURL,
		HTTP:           httpOpts,
		RequestsPer10s: cfg.API.RequestsPer10s,
	})
	meta := client.NewMetadataClient(client.Config{
		Host:           cfg.API.MetadataBaseURL,
		HTTP:           httpOpts,
		RequestsPer10s: cfg.API.RequestsPer10s,
	})

	holder := session.NewHolder(session.Identity{
		ActiveCollectionAddress:   cfg.Market.CollectionAddress,
		MintableCollectionAddress: cfg.Market.MintableCollectionAddress,
	})
	orders := orderbook.NewCache(api, meta)
	balances := balance.NewBook(api, cfg.API.BalancesLimit)
	deriver := signing.NewKeypairDeriver(walletKey, cfg.Market.ChainID)

	submitter := trade.NewSubmitter(trade.Deps{
		Deriver:         deriver,
		Builder:         signing.NewOrderBuilder(cfg.Market.ChainID),
		Poster:          api,
		OrderBook:       orders,
		Balances:        balances,
		MarketplaceUUID: cfg.Market.MarketplaceUUID,
	})

	store := services.NewStorefront(services.StorefrontConfig{
		CollectionAddress:         cfg.Market.CollectionAddress,
		MintableCollectionAddress: cfg.Market.MintableCollectionAddress,
	}, holder, orders, balances, submitter, deriver)

	return &App{
		Config:     cfg,
		Client:     api,
		Session:    holder,
		OrderBook:  orders,
		Balances:   balances,
		Submitter:  submitter,
		Storefront: store,
		Wallet:     walletKey,
	}, nil
}
