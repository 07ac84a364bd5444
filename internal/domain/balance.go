package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/betbot/nftmarket/l2/types"
)

// BalanceEntry 单条余额记录
type BalanceEntry struct {
	AssetType       types.AssetType
	ContractAddress string // 小写
	TokenID         string
	Available       decimal.Decimal
}

// IsNative 是否为原生币（ETH）余额
func (e BalanceEntry) IsNative() bool {
	return e.AssetType == types.AssetTypeETH
}

// IsNFT 是否为 NFT 持仓
func (e BalanceEntry) IsNFT() bool {
	return e.AssetType == types.AssetTypeERC721 || e.AssetType == types.AssetTypeERC721M
}

// BalanceFromRecord 转换接口余额记录
// balance_available 与订单的 price 同为最小单位
func BalanceFromRecord(r types.BalanceRecord) BalanceEntry {
	return BalanceEntry{
		AssetType:       r.Type,
		ContractAddress: NormalizeAddress(r.ContractAddress),
		TokenID:         r.TokenID,
		Available:       parseDecimal(r.BalanceAvailable),
	}
}

// NormalizeAddress 地址统一小写比较
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
