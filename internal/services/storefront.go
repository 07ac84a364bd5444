package services

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/betbot/nftmarket/internal/balance"
	"github.com/betbot/nftmarket/internal/domain"
	"github.com/betbot/nftmarket/internal/orderbook"
	"github.com/betbot/nftmarket/internal/session"
	"github.com/betbot/nftmarket/internal/trade"
	"github.com/betbot/nftmarket/l2/types"
)

var log = logrus.WithField("component", "storefront")

var (
	ErrNotConnected  = errors.New("wallet not connected")
	ErrNoCandidate   = errors.New("no order selected")
	ErrOrderNotFound = errors.New("order not found in order book")
)

// StorefrontConfig 合约配置
type StorefrontConfig struct {
	CollectionAddress         string // ERC721
	MintableCollectionAddress string // ERC721M
}

// Listing 订单及其图片（图片为空表示不渲染）
type Listing struct {
	Order domain.Order
	Image string
}

// BuyCandidate 待确认的购买选择
type BuyCandidate struct {
	Order domain.Order
	Index int
	Image string
}

// Storefront 商城控制器：连接钱包、刷新数据、买卖流程
type Storefront struct {
	cfg       StorefrontConfig
	session   *session.Holder
	orders    *orderbook.Cache
	balances  *balance.Book
	submitter *trade.Submitter
	deriver   trade.KeypairDeriver

	mu        sync.Mutex
	candidate *BuyCandidate
}

// NewStorefront 创建商城控制器，并订阅会话身份变化
// 身份变化时余额与订单簿并发重新加载
func NewStorefront(
	cfg StorefrontConfig,
	holder *session.Holder,
	orders *orderbook.Cache,
	balances *balance.Book,
	submitter *trade.Submitter,
	deriver trade.KeypairDeriver,
) *Storefront {
	s := &Storefront{
		cfg:       cfg,
		session:   holder,
		orders:    orders,
		balances:  balances,
		submitter: submitter,
		deriver:   deriver,
	}
	balances.Follow(holder)
	holder.Subscribe(func(ctx context.Context, id session.Identity) {
		orders.Load(ctx, id.ActiveCollectionAddress)
	})
	return s
}

// Identity 当前会话身份
func (s *Storefront) Identity() session.Identity {
	return s.session.Current()
}

// Connect 派生 Layer2 密钥并设置会话身份
func (s *Storefront) Connect(ctx context.Context) (session.Identity, error) {
	kp, err := s.deriver.DeriveKeypair(ctx)
	if err != nil {
		return session.Identity{}, &trade.SubmissionError{Stage: trade.StageSigningFailed, Err: err}
	}

	id := session.Identity{
		PublicKey:                 kp.PublicKey,
		ActiveCollectionAddress:   s.cfg.CollectionAddress,
		MintableCollectionAddress: s.cfg.MintableCollectionAddress,
	}
	if !s.session.Set(ctx, id) {
		// 身份未变化时也刷新一次
		if err := s.Reload(ctx); err != nil {
			return id, err
		}
	}
	log.Infof("🔗 钱包已连接: %s", id.PublicKey)
	return id, nil
}

// Reload 并发刷新订单簿与余额
func (s *Storefront) Reload(ctx context.Context) error {
	id := s.session.Current()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.orders.Load(gctx, id.ActiveCollectionAddress)
		return nil
	})
	g.Go(func() error {
		s.balances.Load(gctx, id.PublicKey)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// RefreshOrders 只刷新订单簿
func (s *Storefront) RefreshOrders(ctx context.Context) []domain.Order {
	return s.orders.Refresh(ctx)
}

// OrderBook 当前订单簿快照
func (s *Storefront) OrderBook() orderbook.Snapshot {
	return s.orders.Current()
}

// OnOrderBookUpdate 订阅订单簿提交
func (s *Storefront) OnOrderBookUpdate(fn func(orderbook.Snapshot)) {
	s.orders.OnUpdate(fn)
}

// Balance 当前余额快照
func (s *Storefront) Balance() balance.Snapshot {
	return s.balances.Current()
}

// Listings 订单列表及对应图片
func (s *Storefront) Listings() []Listing {
	snap := s.orders.Current()
	out := make([]Listing, len(snap.Orders))
	for i, o := range snap.Orders {
		out[i] = Listing{Order: o, Image: snap.ImageAt(i)}
	}
	return out
}

// Holdings 当前会话在 ERC721 与 ERC721M 合约下的持仓
func (s *Storefront) Holdings() []domain.BalanceEntry {
	snap := s.balances.Current()
	id := s.session.Current()
	var out []domain.BalanceEntry
	for _, addr := range id.CollectionAddresses() {
		out = append(out, snap.HoldingsFor(addr)...)
	}
	return out
}

// SelectForBuy 从当前订单簿选中一条订单等待确认
func (s *Storefront) SelectForBuy(tokenID, sellerKey string) (BuyCandidate, error) {
	snap := s.orders.Current()
	o, idx, ok := snap.Find(tokenID, sellerKey)
	if !ok {
		return BuyCandidate{}, ErrOrderNotFound
	}
	c := BuyCandidate{Order: o, Index: idx, Image: snap.ImageAt(idx)}

	s.mu.Lock()
	s.candidate = &c
	s.mu.Unlock()
	return c, nil
}

// Candidate 当前待确认的选择
func (s *Storefront) Candidate() (BuyCandidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil {
		return BuyCandidate{}, false
	}
	return *s.candidate, true
}

// CancelBuy 取消选择
func (s *Storefront) CancelBuy() {
	s.mu.Lock()
	s.candidate = nil
	s.mu.Unlock()
}

// ConfirmBuy 购买当前选择；成功后清除选择并刷新余额
// 失败时保留选择，由调用方决定是否取消
func (s *Storefront) ConfirmBuy(ctx context.Context) error {
	c, ok := s.Candidate()
	if !ok {
		return ErrNoCandidate
	}
	id := s.session.Current()
	if !id.Connected() {
		return ErrNotConnected
	}

	if err := s.submitter.Buy(ctx, c.Order, id.PublicKey); err != nil {
		return err
	}

	s.mu.Lock()
	if s.candidate != nil && s.candidate.Order.Key() == c.Order.Key() {
		s.candidate = nil
	}
	s.mu.Unlock()

	s.balances.Refresh(ctx)
	return nil
}

// Buy 选中并立即购买
func (s *Storefront) Buy(ctx context.Context, tokenID, sellerKey string) error {
	if _, err := s.SelectForBuy(tokenID, sellerKey); err != nil {
		return err
	}
	return s.ConfirmBuy(ctx)
}

// Sell 以指定价格挂出持有的 NFT，自动识别所在合约
func (s *Storefront) Sell(ctx context.Context, tokenID string, price decimal.Decimal) error {
	id := s.session.Current()
	if !id.Connected() {
		return ErrNotConnected
	}

	req := trade.SellRequest{
		TokenID:         tokenID,
		ContractAddress: id.ActiveCollectionAddress,
		TokenType:       types.TokenTypeERC721,
		Price:           price,
	}
	snap := s.balances.Current()
	if id.MintableCollectionAddress != "" && snap.Owns(id.MintableCollectionAddress, tokenID) &&
		!snap.Owns(id.ActiveCollectionAddress, tokenID) {
		req.ContractAddress = id.MintableCollectionAddress
		req.TokenType = types.TokenTypeERC721M
	}

	if err := s.submitter.Sell(ctx, req, id.PublicKey); err != nil {
		return err
	}
	s.balances.Refresh(ctx)
	return nil
}
