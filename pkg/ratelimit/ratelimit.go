package ratelimit

import (
	"context"
	"sync"
	"time"
)

// 端点限流键
const (
	KeyOrdersGet   = "l2:orders:get"
	KeyBalancesGet = "l2:balances:get"
	KeyOrderPost   = "l2:order:post"
	KeyMetadataGet = "metadata:get"
	KeyGeneral     = "l2:general"
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	GetRemaining() int
}

// TokenBucket 令牌桶速率限制器
type TokenBucket struct {
	capacity   int           // 桶容量
	tokens     int           // 当前令牌数
	refillRate int           // 每秒补充的令牌数
	windowSize time.Duration // refillRate 为 0 时的等待窗口
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建新的令牌桶
func NewTokenBucket(capacity, refillRate int, windowSize time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		windowSize: windowSize,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	tokensToAdd := int(now.Sub(tb.lastRefill).Seconds()) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
}

// Allow 检查是否允许请求（允许时消耗一个令牌）
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait 等待直到允许请求
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}

		waitTime := tb.windowSize
		if tb.refillRate > 0 {
			waitTime = time.Second / time.Duration(tb.refillRate)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// GetRemaining 获取剩余令牌数
func (tb *TokenBucket) GetRemaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

// SlidingWindow 滑动窗口速率限制器
type SlidingWindow struct {
	limit      int
	windowSize time.Duration
	requests   []time.Time
	mu         sync.Mutex
}

// NewSlidingWindow 创建新的滑动窗口速率限制器
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
	}
}

// prune 移除窗口外的请求，调用方持有锁
func (sw *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-sw.windowSize)
	kept := sw.requests[:0]
	for _, req := range sw.requests {
		if req.After(cutoff) {
			kept = append(kept, req)
		}
	}
	sw.requests = kept
}

// Allow 检查是否允许请求
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.prune(now)
	if len(sw.requests) >= sw.limit {
		return false
	}
	sw.requests = append(sw.requests, now)
	return true
}

// Wait 等待直到允许请求
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		if sw.Allow() {
			return nil
		}

		sw.mu.Lock()
		waitTime := 100 * time.Millisecond
		if len(sw.requests) > 0 {
			if d := sw.windowSize - time.Since(sw.requests[0]); d > 0 {
				waitTime = d
			}
		}
		sw.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// GetRemaining 获取剩余请求数
func (sw *SlidingWindow) GetRemaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.prune(time.Now())
	return max(0, sw.limit-len(sw.requests))
}

// RateLimitManager 按端点管理的速率限制器
type RateLimitManager struct {
	limiters map[string]RateLimiter
	mu       sync.RWMutex
}

// NewRateLimitManager 创建速率限制管理器，requestsPer10s<=0 时使用默认值 100
func NewRateLimitManager(requestsPer10s int) *RateLimitManager {
	if requestsPer10s <= 0 {
		requestsPer10s = 100
	}
	m := &RateLimitManager{limiters: make(map[string]RateLimiter)}

	m.limiters[KeyOrdersGet] = NewSlidingWindow(requestsPer10s, 10*time.Second)
	m.limiters[KeyBalancesGet] = NewSlidingWindow(requestsPer10s, 10*time.Second)
	m.limiters[KeyMetadataGet] = NewSlidingWindow(requestsPer10s, 10*time.Second)
	// 下单走令牌桶，允许小突发
	m.limiters[KeyOrderPost] = NewTokenBucket(max(1, requestsPer10s/10), max(1, requestsPer10s/10), 10*time.Second)
	m.limiters[KeyGeneral] = NewSlidingWindow(requestsPer10s*5, 10*time.Second)
	return m
}

// SetLimiter 覆盖指定端点的限制器
func (rlm *RateLimitManager) SetLimiter(key string, limiter RateLimiter) {
	rlm.mu.Lock()
	defer rlm.mu.Unlock()
	rlm.limiters[key] = limiter
}

// GetLimiter 获取指定端点的速率限制器，未知端点落到通用限制器
func (rlm *RateLimitManager) GetLimiter(key string) RateLimiter {
	rlm.mu.RLock()
	defer rlm.mu.RUnlock()

	if limiter, ok := rlm.limiters[key]; ok {
		return limiter
	}
	return rlm.limiters[KeyGeneral]
}

// Wait 等待直到允许请求
func (rlm *RateLimitManager) Wait(ctx context.Context, key string) error {
	return rlm.GetLimiter(key).Wait(ctx)
}

// Allow 检查是否允许请求
func (rlm *RateLimitManager) Allow(key string) bool {
	return rlm.GetLimiter(key).Allow()
}

// GetRemaining 获取剩余请求数
func (rlm *RateLimitManager) GetRemaining(key string) int {
	return rlm.GetLimiter(key).GetRemaining()
}
