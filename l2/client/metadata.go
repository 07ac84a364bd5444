package client

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/betbot/nftmarket/l2/types"
	"github.com/betbot/nftmarket/pkg/cache"
	"github.com/betbot/nftmarket/pkg/ratelimit"
)

// DefaultMetadataTTL 元数据缓存时长
const DefaultMetadataTTL = 10 * time.Minute

// MetadataClient NFT 元数据/图片服务客户端
type MetadataClient struct {
	httpClient  *httpClient
	rateLimiter *ratelimit.RateLimitManager
	cache       *cache.InMemoryCache[string, []types.TokenMetadata]
}

// NewMetadataClient 创建元数据客户端；cfg.MetadataTTL<0 时不缓存
func NewMetadataClient(cfg Config) *MetadataClient {
	m := &MetadataClient{
		httpClient:  newHTTPClient(cfg.Host, cfg.HTTP),
		rateLimiter: ratelimit.NewRateLimitManager(cfg.RequestsPer10s),
	}
	ttl := cfg.MetadataTTL
	if ttl == 0 {
		ttl = DefaultMetadataTTL
	}
	if ttl > 0 {
		m.cache = cache.NewInMemoryCache[string, []types.TokenMetadata](ttl, 256)
	}
	return m
}

// FetchMetadata 按 token id 顺序批量获取元数据，返回结果与 tokenIDs 按下标对齐
func (m *MetadataClient) FetchMetadata(ctx context.Context, contractAddress string, tokenIDs []string) ([]types.TokenMetadata, error) {
	if len(tokenIDs) == 0 {
		return nil, nil
	}
	ids := strings.Join(tokenIDs, ",")
	key := strings.ToLower(contractAddress) + "|" + ids
	if m.cache != nil {
		if items, ok := m.cache.Get(key); ok {
			return append([]types.TokenMetadata(nil), items...), nil
		}
	}
	if err := m.rateLimiter.Wait(ctx, ratelimit.KeyMetadataGet); err != nil {
		return nil, errors.Wrap(err, "速率限制等待失败")
	}

	var resp types.MetadataResponse
	err := m.httpClient.get(ctx, EndpointMetadata, map[string]string{
		"token_ids":        ids,
		"contract_address": contractAddress,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		m.cache.Set(key, append([]types.TokenMetadata(nil), resp.Data...), 0)
	}
	return resp.Data, nil
}
