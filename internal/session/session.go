package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/betbot/nftmarket/internal/domain"
)

var log = logrus.WithField("component", "session")

// Identity 当前会话身份
type Identity struct {
	PublicKey                 string // Layer2 公钥（stark key）
	ActiveCollectionAddress   string // ERC721 合约
	MintableCollectionAddress string // ERC721M 合约
}

// Connected 是否已连接钱包
func (id Identity) Connected() bool {
	return id.PublicKey != ""
}

// CollectionAddresses 跟踪的合约地址（小写，去空）
func (id Identity) CollectionAddresses() []string {
	out := make([]string, 0, 2)
	for _, addr := range []string{id.ActiveCollectionAddress, id.MintableCollectionAddress} {
		if a := domain.NormalizeAddress(addr); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Listener 身份变更回调
type Listener func(ctx context.Context, id Identity)

// Holder 会话身份持有者
// 只有连接流程调用 Set，其余组件只读或订阅
type Holder struct {
	mu        sync.RWMutex
	current   Identity
	listeners []Listener
}

// NewHolder 创建身份持有者
func NewHolder(initial Identity) *Holder {
	return &Holder{current: initial}
}

// Current 当前身份
func (h *Holder) Current() Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Subscribe 注册变更回调
func (h *Holder) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Set 更新身份；与当前一致时不通知
// 所有回调并发执行，Set 等待它们全部返回
func (h *Holder) Set(ctx context.Context, id Identity) bool {
	h.mu.Lock()
	if h.current == id {
		h.mu.Unlock()
		return false
	}
	h.current = id
	listeners := append([]Listener(nil), h.listeners...)
	h.mu.Unlock()

	log.Infof("🔑 会话身份变更: key=%s collection=%s", shortKey(id.PublicKey), id.ActiveCollectionAddress)
	var g errgroup.Group
	for _, fn := range listeners {
		g.Go(func() error {
			fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return true
}

func shortKey(k string) string {
	if len(k) <= 12 {
		return k
	}
	return k[:8] + "..." + k[len(k)-4:]
}
