package balance

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/nftmarket/internal/domain"
	"github.com/betbot/nftmarket/internal/metrics"
	"github.com/betbot/nftmarket/internal/session"
	"github.com/betbot/nftmarket/l2/types"
)

var log = logrus.WithField("component", "balance")

// DefaultLimit balances 接口单页条数
const DefaultLimit = 10000

// Source 余额数据源
type Source interface {
	GetBalances(ctx context.Context, params types.BalancesParams) ([]types.BalanceRecord, error)
}

// Snapshot 账户余额快照
type Snapshot struct {
	Account  string
	Native   decimal.Decimal
	Holdings map[string][]domain.BalanceEntry // 合约地址（小写） -> 持仓
	Seq      uint64
	LoadedAt time.Time
}

// Empty 空快照：原生余额 0，无持仓
func Empty(account string) Snapshot {
	return Snapshot{
		Account:  account,
		Native:   decimal.Zero,
		Holdings: map[string][]domain.BalanceEntry{},
	}
}

// HoldingsFor 指定合约的持仓
func (s Snapshot) HoldingsFor(contractAddress string) []domain.BalanceEntry {
	return s.Holdings[domain.NormalizeAddress(contractAddress)]
}

// Owns 是否持有指定合约下的 token
func (s Snapshot) Owns(contractAddress, tokenID string) bool {
	for _, e := range s.HoldingsFor(contractAddress) {
		if e.TokenID == tokenID && e.Available.IsPositive() {
			return true
		}
	}
	return false
}

func (s Snapshot) clone() Snapshot {
	holdings := make(map[string][]domain.BalanceEntry, len(s.Holdings))
	for addr, entries := range s.Holdings {
		holdings[addr] = append([]domain.BalanceEntry(nil), entries...)
	}
	s.Holdings = holdings
	return s
}

// Book 当前会话账户的余额快照
type Book struct {
	src   Source
	limit int

	mu      sync.RWMutex
	issued  uint64 // 最近分配的序号，与 account 同锁更新
	snap    Snapshot
	tracked map[string]struct{}
	account string
}

// NewBook 创建余额簿，limit<=0 时使用 DefaultLimit
func NewBook(src Source, limit int, tracked ...string) *Book {
	if limit <= 0 {
		limit = DefaultLimit
	}
	b := &Book{src: src, limit: limit, snap: Empty("")}
	b.Track(tracked...)
	return b
}

// Track 替换跟踪的合约地址集合（大小写不敏感）
func (b *Book) Track(addresses ...string) {
	set := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		if a = domain.NormalizeAddress(a); a != "" {
			set[a] = struct{}{}
		}
	}
	b.mu.Lock()
	b.tracked = set
	b.mu.Unlock()
}

// Follow 订阅会话身份：身份变化时更新跟踪合约并重新加载
func (b *Book) Follow(h *session.Holder) {
	h.Subscribe(func(ctx context.Context, id session.Identity) {
		b.Track(id.CollectionAddresses()...)
		b.Load(ctx, id.PublicKey)
	})
}

// Current 当前快照（副本）
func (b *Book) Current() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap.clone()
}

// Load 拉取账户余额并整体替换快照
// 接口错误或网络失败按空快照处理，不返回错误
func (b *Book) Load(ctx context.Context, account string) Snapshot {
	b.mu.Lock()
	b.issued++
	seq := b.issued
	b.account = account
	tracked := make(map[string]struct{}, len(b.tracked))
	for a := range b.tracked {
		tracked[a] = struct{}{}
	}
	b.mu.Unlock()

	metrics.BalanceLoads.Add(1)
	snap := b.fetch(ctx, account, tracked)
	snap.Seq = seq
	snap.LoadedAt = time.Now()

	b.commit(snap)
	return snap.clone()
}

// Refresh 用最近一次的账户重新 Load
func (b *Book) Refresh(ctx context.Context) Snapshot {
	b.mu.RLock()
	account := b.account
	b.mu.RUnlock()
	return b.Load(ctx, account)
}

func (b *Book) fetch(ctx context.Context, account string, tracked map[string]struct{}) Snapshot {
	snap := Empty(account)
	if account == "" {
		return snap
	}

	records, err := b.src.GetBalances(ctx, types.BalancesParams{StarkKey: account, Limit: b.limit})
	if err != nil {
		metrics.BalanceSoftFails.Add(1)
		log.Warnf("⚠️ 拉取余额失败，按空余额处理: err=%v", err)
		return snap
	}

	for _, r := range records {
		e := domain.BalanceFromRecord(r)
		if e.IsNative() {
			snap.Native = e.Available
			continue
		}
		if !e.Available.IsPositive() {
			continue
		}
		if _, ok := tracked[e.ContractAddress]; !ok {
			continue
		}
		snap.Holdings[e.ContractAddress] = append(snap.Holdings[e.ContractAddress], e)
	}
	return snap
}

func (b *Book) commit(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.Seq <= b.snap.Seq {
		metrics.BalanceStaleDrops.Add(1)
		log.Debugf("丢弃过期余额结果: seq=%d committed=%d", s.Seq, b.snap.Seq)
		return
	}
	b.snap = s
	log.Debugf("余额已更新: native=%s collections=%d seq=%d", s.Native.String(), len(s.Holdings), s.Seq)
}
