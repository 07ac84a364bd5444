package types

// TokenMetadata 元数据服务返回的单条记录（与请求的 token_ids 顺序一一对应）
type TokenMetadata struct {
	TokenID     string `json:"token_id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// MetadataResponse 元数据响应
type MetadataResponse struct {
	Data []TokenMetadata `json:"data"`
}
