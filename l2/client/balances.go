package client

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/betbot/nftmarket/l2/types"
	"github.com/betbot/nftmarket/pkg/ratelimit"
)

// GetBalances 获取账户全部余额；status=FAILED 时返回 *types.APIError
func (c *Client) GetBalances(ctx context.Context, params types.BalancesParams) ([]types.BalanceRecord, error) {
	if params.StarkKey == "" {
		return nil, errors.New("stark key is required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultBalancesLimit
	}
	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyBalancesGet); err != nil {
		return nil, errors.Wrap(err, "速率限制等待失败")
	}

	var resp types.BalancesResponse
	err := c.httpClient.get(ctx, EndpointGetBalances, map[string]string{
		"stark_key": params.StarkKey,
		"limit":     strconv.Itoa(limit),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Failed() {
		return nil, &types.APIError{Endpoint: EndpointGetBalances, Code: resp.ErrorCode, Message: resp.Error}
	}
	return resp.Data.List, nil
}
