package client

import (
	"strings"
	"time"

	"github.com/betbot/nftmarket/pkg/ratelimit"
)

// Config 客户端配置
type Config struct {
	Host           string
	HTTP           HTTPOptions
	RequestsPer10s int
	MetadataTTL    time.Duration // 仅元数据客户端使用，<0 关闭缓存
}

// Client Layer2 交易 API 客户端
type Client struct {
	host        string
	httpClient  *httpClient
	rateLimiter *ratelimit.RateLimitManager
}

// NewClient 创建新的交易 API 客户端
func NewClient(cfg Config) *Client {
	return &Client{
		host:        strings.TrimSuffix(cfg.Host, "/"),
		httpClient:  newHTTPClient(cfg.Host, cfg.HTTP),
		rateLimiter: ratelimit.NewRateLimitManager(cfg.RequestsPer10s),
	}
}

// GetHost 获取主机地址
func (c *Client) GetHost() string {
	return c.host
}
