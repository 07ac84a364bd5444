package types

// BalanceRecord balances 接口的单条余额
type BalanceRecord struct {
	AssetID          string    `json:"asset_id"`
	ContractAddress  string    `json:"contract_address"`
	Balance          string    `json:"balance"`
	BalanceAvailable string    `json:"balance_available"`
	BalanceFrozen    string    `json:"balance_frozen"`
	Symbol           string    `json:"symbol"`
	DisplayValue     string    `json:"display_value"`
	Type             AssetType `json:"type"`
	TokenID          string    `json:"token_id"`
	Decimals         int       `json:"decimals"`
}

// BalancesParams 余额查询参数
type BalancesParams struct {
	StarkKey string
	Limit    int
}

// BalancesResponse 余额响应
type BalancesResponse = Envelope[ListData[BalanceRecord]]
