package types

// OrderSymbol 交易对信息
type OrderSymbol struct {
	BaseTokenAssetID       string `json:"base_token_asset_id"`
	QuoteTokenAssetID      string `json:"quote_token_asset_id"`
	BaseTokenContractAddr  string `json:"base_token_contract_addr"`
	QuoteTokenContractAddr string `json:"quote_token_contract_addr"`
	BaseTokenName          string `json:"base_token_name"`
	QuoteTokenName         string `json:"quote_token_name"`
}

// OrderRecord 订单列表中的单条挂单
type OrderRecord struct {
	OrderID      int64       `json:"order_id"`
	StarkKey     string      `json:"stark_key"`
	Price        string      `json:"price"`
	DisplayPrice string      `json:"display_price"`
	Amount       string      `json:"amount"`
	Direction    int         `json:"direction"`
	TokenID      string      `json:"token_id"`
	TokenType    TokenType   `json:"token_type"`
	Symbol       OrderSymbol `json:"symbol"`
}

// OrderListParams 订单列表查询参数
type OrderListParams struct {
	ContractAddress string
	Limit           int
}

// OrderListResponse 订单列表响应
type OrderListResponse = Envelope[ListData[OrderRecord]]

// Signature 订单签名
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
}

// OrderParams 提交订单的参数（已签名）
type OrderParams struct {
	StarkKey            string    `json:"stark_key"`
	Amount              string    `json:"amount"`
	Price               string    `json:"price"`
	Direction           int       `json:"direction"`
	TokenAddress        string    `json:"token_address"`
	TokenID             string    `json:"token_id"`
	TokenType           TokenType `json:"token_type"`
	Nonce               int64     `json:"nonce"`
	ExpirationTimestamp int64     `json:"expiration_timestamp"`
	MarketplaceUUID     string    `json:"marketplace_uuid"`
	ClientOrderID       string    `json:"client_order_id"`
	Signature           Signature `json:"signature"`
}

// OrderResult 提交订单返回的 data
type OrderResult struct {
	SequenceID int64 `json:"sequence_id"`
}

// OrderResponse 提交订单响应
type OrderResponse = Envelope[OrderResult]
