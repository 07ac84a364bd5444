package trade

import (
	"github.com/shopspring/decimal"

	"github.com/betbot/nftmarket/internal/balance"
	"github.com/betbot/nftmarket/internal/domain"
	"github.com/betbot/nftmarket/l2/types"
)

// Validate 买单校验（纯函数，不访问网络），nil 表示可以提交
// 依次检查：自成交、ETH 可用余额是否覆盖原始价格
func Validate(order domain.Order, buyerKey string, snap balance.Snapshot) error {
	if order.SellerKey == buyerKey {
		return reject(ErrSelfTrade, "token %s", order.TokenID)
	}
	if snap.Native.LessThan(order.PriceRaw) {
		return reject(ErrInsufficientBalance, "need %s have %s", order.PriceRaw, snap.Native)
	}
	return nil
}

// SellRequest 挂单出售请求
type SellRequest struct {
	TokenID         string
	ContractAddress string
	TokenType       types.TokenType
	Price           decimal.Decimal // 展示单位（ETH）
}

// ValidateSell 卖单校验：价格为正且持有该 token
func ValidateSell(req SellRequest, snap balance.Snapshot) error {
	if !req.Price.IsPositive() {
		return reject(ErrInvalidPrice, "price %s", req.Price)
	}
	if !snap.Owns(req.ContractAddress, req.TokenID) {
		return reject(ErrNotOwned, "token %s in %s", req.TokenID, req.ContractAddress)
	}
	return nil
}
