package client

// API 端点常量
const (
	EndpointGetOrders   = "/v1/orders"
	EndpointPostOrder   = "/v1/order"
	EndpointGetBalances = "/v3/balances"

	// 元数据服务（独立域名）
	EndpointMetadata = "/metadata"
)

// DefaultBalancesLimit 余额分页大小，实际效果为一次取全
const DefaultBalancesLimit = 10000
