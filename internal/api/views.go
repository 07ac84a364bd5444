package api

import (
	"github.com/betbot/nftmarket/internal/balance"
	"github.com/betbot/nftmarket/internal/domain"
	"github.com/betbot/nftmarket/internal/orderbook"
	"github.com/betbot/nftmarket/internal/services"
	"github.com/betbot/nftmarket/internal/session"
)

type orderView struct {
	TokenID           string `json:"token_id"`
	Amount            string `json:"amount"`
	Price             string `json:"price"`
	PriceRaw          string `json:"price_raw"`
	QuoteTokenAddress string `json:"quote_token_address"`
	BaseTokenSymbol   string `json:"base_token_symbol"`
	SellerKey         string `json:"seller_key"`
	TokenType         string `json:"token_type"`
	Image             string `json:"image,omitempty"`
}

type orderBookView struct {
	CollectionAddress string      `json:"collection_address"`
	Orders            []orderView `json:"orders"`
	Seq               uint64      `json:"seq"`
}

type holdingView struct {
	AssetType       string `json:"asset_type"`
	ContractAddress string `json:"contract_address"`
	TokenID         string `json:"token_id"`
	Available       string `json:"available"`
}

type balanceView struct {
	Account  string        `json:"account"`
	Native   string        `json:"native"`
	Holdings []holdingView `json:"holdings"`
}

type identityView struct {
	PublicKey                 string `json:"public_key"`
	ActiveCollectionAddress   string `json:"active_collection_address"`
	MintableCollectionAddress string `json:"mintable_collection_address,omitempty"`
	Connected                 bool   `json:"connected"`
}

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func newOrderView(o domain.Order, image string) orderView {
	return orderView{
		TokenID:           o.TokenID,
		Amount:            o.Amount.String(),
		Price:             o.PriceDisplay,
		PriceRaw:          o.PriceRaw.String(),
		QuoteTokenAddress: o.QuoteTokenAddress,
		BaseTokenSymbol:   o.BaseTokenSymbol,
		SellerKey:         o.SellerKey,
		TokenType:         string(o.TokenType),
		Image:             image,
	}
}

func newOrderBookView(s orderbook.Snapshot) orderBookView {
	v := orderBookView{
		CollectionAddress: s.CollectionAddress,
		Orders:            make([]orderView, len(s.Orders)),
		Seq:               s.Seq,
	}
	for i, o := range s.Orders {
		v.Orders[i] = newOrderView(o, s.ImageAt(i))
	}
	return v
}

func newListingsView(collection string, listings []services.Listing) orderBookView {
	v := orderBookView{CollectionAddress: collection, Orders: make([]orderView, len(listings))}
	for i, l := range listings {
		v.Orders[i] = newOrderView(l.Order, l.Image)
	}
	return v
}

func newBalanceView(s balance.Snapshot, holdings []domain.BalanceEntry) balanceView {
	v := balanceView{
		Account:  s.Account,
		Native:   s.Native.String(),
		Holdings: make([]holdingView, 0, len(holdings)),
	}
	for _, h := range holdings {
		v.Holdings = append(v.Holdings, holdingView{
			AssetType:       string(h.AssetType),
			ContractAddress: h.ContractAddress,
			TokenID:         h.TokenID,
			Available:       h.Available.String(),
		})
	}
	return v
}

func newIdentityView(id session.Identity) identityView {
	return identityView{
		PublicKey:                 id.PublicKey,
		ActiveCollectionAddress:   id.ActiveCollectionAddress,
		MintableCollectionAddress: id.MintableCollectionAddress,
		Connected:                 id.Connected(),
	}
}
