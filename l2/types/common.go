package types

import "fmt"

// Status API 返回状态
type Status string

const (
	StatusOK     Status = "OK"
	StatusFailed Status = "FAILED"
)

// AssetType 资产类型（balances 接口的 type 字段）
type AssetType string

const (
	AssetTypeETH     AssetType = "ETH"
	AssetTypeERC20   AssetType = "ERC20"
	AssetTypeERC721  AssetType = "ERC721"
	AssetTypeERC721M AssetType = "ERC721M"
)

// TokenType 订单中的代币类型
type TokenType string

const (
	TokenTypeETH     TokenType = "ETH"
	TokenTypeERC20   TokenType = "ERC20"
	TokenTypeERC721  TokenType = "ERC721"
	TokenTypeERC721M TokenType = "ERC721M"
)

// OrderType 订单方向
type OrderType string

const (
	OrderTypeBuy  OrderType = "buy"
	OrderTypeSell OrderType = "sell"
)

// Direction 返回提交接口使用的方向编码（0=卖，1=买）
func (t OrderType) Direction() int {
	if t == OrderTypeBuy {
		return 1
	}
	return 0
}

// NativeSymbol 原生结算币种
const NativeSymbol = "ETH"

// Envelope 所有接口的外层结构
type Envelope[T any] struct {
	Status    Status `json:"status"`
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
	Data      T      `json:"data"`
}

// Failed 是否为错误载荷
func (e *Envelope[T]) Failed() bool {
	return e.Error != "" || e.Status == StatusFailed
}

// APIError 接口层面的错误（HTTP 200 但 status=FAILED）
type APIError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error on %s: code=%d msg=%s", e.Endpoint, e.Code, e.Message)
}

// ListData 列表型 data
type ListData[T any] struct {
	List     []T `json:"list"`
	Total    int `json:"total"`
	Current  int `json:"current"`
	PageSize int `json:"page_size"`
}
