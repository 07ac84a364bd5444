package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/betbot/nftmarket/l2/types"
)

// Order 订单簿中的一条卖单（拉取后不可变，每次刷新整体替换）
type Order struct {
	TokenID           string          // NFT token id
	Amount            decimal.Decimal // 数量
	PriceDisplay      string          // 展示价格（ETH 字符串）
	PriceRaw          decimal.Decimal // 最小单位价格，用于余额比较
	QuoteTokenAddress string          // NFT 合约地址
	BaseTokenSymbol   string          // 结算币种（应为 ETH）
	SellerKey         string          // 卖家公钥
	TokenType         types.TokenType // ERC721 / ERC721M
}

// Key 订单身份 (TokenID, SellerKey)
func (o Order) Key() string {
	return o.TokenID + "|" + o.SellerKey
}

// IsSellable 是否可进入订单簿：token id 非空且以 ETH 结算
func (o Order) IsSellable() bool {
	return strings.TrimSpace(o.TokenID) != "" && o.BaseTokenSymbol == types.NativeSymbol
}

// OrderFromRecord 将接口返回的挂单转换为领域订单
// 数值解析失败时按 0 处理，后续校验会拒绝
func OrderFromRecord(r types.OrderRecord) Order {
	return Order{
		TokenID:           r.TokenID,
		Amount:            parseDecimal(r.Amount),
		PriceDisplay:      r.DisplayPrice,
		PriceRaw:          parseDecimal(r.Price),
		QuoteTokenAddress: r.Symbol.QuoteTokenContractAddr,
		BaseTokenSymbol:   r.Symbol.BaseTokenName,
		SellerKey:         r.StarkKey,
		TokenType:         r.TokenType,
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
