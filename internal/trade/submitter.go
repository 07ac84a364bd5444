package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/betbot/nftmarket/internal/balance"
	"github.com/betbot/nftmarket/internal/domain"
	"github.com/betbot/nftmarket/internal/metrics"
	"github.com/betbot/nftmarket/l2/signing"
	"github.com/betbot/nftmarket/l2/types"
)

var log = logrus.WithField("component", "trade")

// KeypairDeriver 派生签名用的 Layer2 密钥对
type KeypairDeriver interface {
	DeriveKeypair(ctx context.Context) (types.KeyPair, error)
}

// OrderBuilder 构建并签名订单参数
type OrderBuilder interface {
	BuildOrderParams(kp types.KeyPair, in signing.OrderInput) (*types.OrderParams, error)
}

// OrderPoster 提交订单
type OrderPoster interface {
	PostOrder(ctx context.Context, params *types.OrderParams) (*types.OrderResult, error)
}

// Refresher 订单簿刷新
type Refresher interface {
	Refresh(ctx context.Context) []domain.Order
}

// BalanceSource 余额快照；快照账户与下单账户不一致时按账户重新加载
type BalanceSource interface {
	Current() balance.Snapshot
	Load(ctx context.Context, account string) balance.Snapshot
}

// Deps Submitter 依赖
type Deps struct {
	Deriver         KeypairDeriver
	Builder         OrderBuilder
	Poster          OrderPoster
	OrderBook       Refresher
	Balances        BalanceSource
	MarketplaceUUID string
}

// Submitter 校验 -> 签名 -> 提交 -> 刷新订单簿，严格顺序执行
type Submitter struct {
	deps Deps
}

// NewSubmitter 创建提交器
func NewSubmitter(deps Deps) *Submitter {
	return &Submitter{deps: deps}
}

// Buy 购买一条卖单
// 校验失败返回 *Rejection（无网络调用）；签名或提交失败返回 *SubmissionError，订单簿不刷新
func (s *Submitter) Buy(ctx context.Context, order domain.Order, buyerKey string) error {
	metrics.TradeAttempts.Add("buy", 1)

	if err := Validate(order, buyerKey, s.balanceFor(ctx, buyerKey)); err != nil {
		s.recordRejection("buy", err)
		return err
	}

	in := signing.OrderInput{
		Amount:          order.Amount.String(),
		Price:           order.PriceDisplay,
		OrderType:       types.OrderTypeBuy,
		TokenAddress:    order.QuoteTokenAddress,
		TokenID:         order.TokenID,
		TokenType:       order.TokenType,
		MarketplaceUUID: s.deps.MarketplaceUUID,
	}
	if err := s.submit(ctx, in, buyerKey); err != nil {
		return err
	}
	log.Infof("✅ 买单已提交: token=%s price=%s", order.TokenID, order.PriceDisplay)
	return nil
}

// Sell 挂单出售持有的 NFT
func (s *Submitter) Sell(ctx context.Context, req SellRequest, sellerKey string) error {
	metrics.TradeAttempts.Add("sell", 1)

	if err := ValidateSell(req, s.balanceFor(ctx, sellerKey)); err != nil {
		s.recordRejection("sell", err)
		return err
	}

	tokenType := req.TokenType
	if tokenType == "" {
		tokenType = types.TokenTypeERC721
	}
	in := signing.OrderInput{
		Amount:          "1",
		Price:           req.Price.String(),
		OrderType:       types.OrderTypeSell,
		TokenAddress:    req.ContractAddress,
		TokenID:         req.TokenID,
		TokenType:       tokenType,
		MarketplaceUUID: s.deps.MarketplaceUUID,
	}
	if err := s.submit(ctx, in, sellerKey); err != nil {
		return err
	}
	log.Infof("✅ 卖单已挂出: token=%s price=%s", req.TokenID, req.Price)
	return nil
}

// balanceFor 返回 account 的余额快照
// 切换身份期间当前快照可能仍属于上一个账户，此时先加载该账户
func (s *Submitter) balanceFor(ctx context.Context, account string) balance.Snapshot {
	snap := s.deps.Balances.Current()
	if snap.Account == account {
		return snap
	}
	log.Infof("余额快照账户不一致，重新加载: snapshot=%s account=%s", snap.Account, account)
	return s.deps.Balances.Load(ctx, account)
}

func (s *Submitter) submit(ctx context.Context, in signing.OrderInput, accountKey string) error {
	kp, err := s.deps.Deriver.DeriveKeypair(ctx)
	if err != nil {
		return s.fail(StageSigningFailed, in, err)
	}
	if accountKey != "" && kp.PublicKey != accountKey {
		return s.fail(StageSigningFailed, in, errors.New("derived key does not match session key"))
	}

	params, err := s.deps.Builder.BuildOrderParams(kp, in)
	if err != nil {
		return s.fail(StageSigningFailed, in, err)
	}

	res, err := s.deps.Poster.PostOrder(ctx, params)
	if err != nil {
		return s.fail(StageAPIFailure, in, err)
	}
	if res != nil {
		log.Debugf("订单已受理: sequence_id=%d client_order_id=%s", res.SequenceID, params.ClientOrderID)
	}

	s.deps.OrderBook.Refresh(ctx)
	return nil
}

func (s *Submitter) fail(stage Stage, in signing.OrderInput, err error) error {
	metrics.SubmissionFailures.Add(string(stage), 1)
	log.Errorf("❌ %s 订单失败: stage=%s token=%s err=%v", in.OrderType, stage, in.TokenID, err)
	return &SubmissionError{Stage: stage, Err: fmt.Errorf("%s order for token %s: %w", in.OrderType, in.TokenID, err)}
}

func (s *Submitter) recordRejection(side string, err error) {
	var r *Rejection
	if errors.As(err, &r) {
		metrics.TradeRejections.Add(r.Reason.Error(), 1)
	}
	log.Warnf("🚫 %s 校验未通过: %v", side, err)
}
