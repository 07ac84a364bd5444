package client

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// HTTP 调试输出默认关闭（开启方式：设置环境变量 NFTMARKET_HTTP_DEBUG=1）
var httpDebug = os.Getenv("NFTMARKET_HTTP_DEBUG") != ""

// HTTPOptions HTTP 传输配置
type HTTPOptions struct {
	Timeout    time.Duration
	RetryCount int
	UserAgent  string
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RetryCount < 0 {
		o.RetryCount = 0
	}
	if o.UserAgent == "" {
		o.UserAgent = "nftmarket-go"
	}
	return o
}

// httpClient resty 封装：reader 用于幂等 GET（带重试），writer 用于下单（不重试）
type httpClient struct {
	reader *resty.Client
	writer *resty.Client
}

func newHTTPClient(host string, opts HTTPOptions) *httpClient {
	host = strings.TrimSuffix(host, "/")
	opts = opts.withDefaults()

	// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）
	reader := newRestyClient(host, opts).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		}).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			// 429 限流时优先使用 Retry-After 头
			if resp != nil && resp.StatusCode() == http.StatusTooManyRequests {
				if ra := resp.Header().Get("Retry-After"); ra != "" {
					if d, err := time.ParseDuration(ra + "s"); err == nil {
						return d, nil
					}
				}
			}
			return 0, nil
		})

	return &httpClient{
		reader: reader,
		writer: newRestyClient(host, opts),
	}
}

func newRestyClient(host string, opts HTTPOptions) *resty.Client {
	return resty.New().
		SetBaseURL(host).
		SetTimeout(opts.Timeout).
		SetDebug(httpDebug).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			r.SetHeader("X-Request-Id", uuid.NewString())
			return nil
		})
}

// get 执行 GET 请求并把 2xx 响应体解析到 out
func (h *httpClient) get(ctx context.Context, endpoint string, params map[string]string, out any) error {
	resp, err := h.reader.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return errors.Wrapf(err, "GET %s", endpoint)
	}
	return decodeResponse(endpoint, resp, out)
}

// post 执行 POST 请求（JSON body）
func (h *httpClient) post(ctx context.Context, endpoint string, body any, out any) error {
	resp, err := h.writer.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return errors.Wrapf(err, "POST %s", endpoint)
	}
	return decodeResponse(endpoint, resp, out)
}

// decodeResponse 非 2xx 返回错误，否则解析 JSON
func decodeResponse(endpoint string, resp *resty.Response, out any) error {
	if resp.IsError() {
		return errors.Errorf("http %d on %s: %s", resp.StatusCode(), endpoint, strings.TrimSpace(string(resp.Body())))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "decode %s response", endpoint)
	}
	return nil
}
