package client

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/betbot/nftmarket/l2/types"
	"github.com/betbot/nftmarket/pkg/ratelimit"
)

// OrderList 获取指定合约的挂单列表
func (c *Client) OrderList(ctx context.Context, params types.OrderListParams) ([]types.OrderRecord, error) {
	if params.ContractAddress == "" {
		return nil, errors.New("contract address is required")
	}
	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyOrdersGet); err != nil {
		return nil, errors.Wrap(err, "速率限制等待失败")
	}

	query := map[string]string{"contract_address": params.ContractAddress}
	if params.Limit > 0 {
		query["limit"] = strconv.Itoa(params.Limit)
	}

	var resp types.OrderListResponse
	if err := c.httpClient.get(ctx, EndpointGetOrders, query, &resp); err != nil {
		return nil, err
	}
	if resp.Failed() {
		return nil, &types.APIError{Endpoint: EndpointGetOrders, Code: resp.ErrorCode, Message: resp.Error}
	}
	return resp.Data.List, nil
}

// PostOrder 提交已签名订单
func (c *Client) PostOrder(ctx context.Context, params *types.OrderParams) (*types.OrderResult, error) {
	if params == nil {
		return nil, errors.New("order params is nil")
	}
	if err := c.rateLimiter.Wait(ctx, ratelimit.KeyOrderPost); err != nil {
		return nil, errors.Wrap(err, "速率限制等待失败")
	}

	var resp types.OrderResponse
	if err := c.httpClient.post(ctx, EndpointPostOrder, params, &resp); err != nil {
		return nil, err
	}
	if resp.Failed() {
		return nil, &types.APIError{Endpoint: EndpointPostOrder, Code: resp.ErrorCode, Message: resp.Error}
	}
	return &resp.Data, nil
}
