package orderbook

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/nftmarket/internal/domain"
	"github.com/betbot/nftmarket/internal/metrics"
	"github.com/betbot/nftmarket/l2/types"
)

var log = logrus.WithField("component", "orderbook")

// OrderSource 订单列表数据源
type OrderSource interface {
	OrderList(ctx context.Context, params types.OrderListParams) ([]types.OrderRecord, error)
}

// MetadataSource NFT 元数据数据源
type MetadataSource interface {
	FetchMetadata(ctx context.Context, contractAddress string, tokenIDs []string) ([]types.TokenMetadata, error)
}

// Snapshot 订单簿快照；Images 与 Orders 按下标对齐，空字符串表示不渲染图片
type Snapshot struct {
	CollectionAddress string
	Orders            []domain.Order
	Images            []string
	Seq               uint64
	LoadedAt          time.Time
}

// ImageAt 第 i 个订单的图片，缺失时为空
func (s Snapshot) ImageAt(i int) string {
	if i < 0 || i >= len(s.Images) {
		return ""
	}
	return s.Images[i]
}

// Find 按 (TokenID, SellerKey) 查找订单
func (s Snapshot) Find(tokenID, sellerKey string) (domain.Order, int, bool) {
	for i, o := range s.Orders {
		if o.TokenID == tokenID && o.SellerKey == sellerKey {
			return o, i, true
		}
	}
	return domain.Order{}, -1, false
}

func (s Snapshot) clone() Snapshot {
	s.Orders = append([]domain.Order(nil), s.Orders...)
	s.Images = append([]string(nil), s.Images...)
	return s
}

// Cache 单个合约的卖单缓存
// 每次 Load 分配递增序号，只有比已提交序号更新的结果才会写入（后发请求优先）
type Cache struct {
	orders OrderSource
	meta   MetadataSource

	mu          sync.RWMutex
	issued      uint64 // 最近分配的序号，与 lastAddress 同锁更新
	snap        Snapshot
	lastAddress string
	listeners   []func(Snapshot)
}

// NewCache 创建订单簿缓存；meta 为 nil 时不拉取图片
func NewCache(orders OrderSource, meta MetadataSource) *Cache {
	return &Cache{orders: orders, meta: meta}
}

// OnUpdate 注册提交回调（每次成功提交后调用）
func (c *Cache) OnUpdate(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Current 当前快照（副本）
func (c *Cache) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.clone()
}

// Orders 当前订单（副本）
func (c *Cache) Orders() []domain.Order {
	return c.Current().Orders
}

// ImageAt 当前快照中第 i 个订单的图片
func (c *Cache) ImageAt(i int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.ImageAt(i)
}

// CollectionAddress 最近一次 Load 使用的合约地址
func (c *Cache) CollectionAddress() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastAddress
}

// Load 拉取指定合约的卖单并整体替换缓存
// 网络或接口错误按空列表处理（只记录日志），不会返回错误
func (c *Cache) Load(ctx context.Context, collectionAddress string) []domain.Order {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.lastAddress = collectionAddress
	c.mu.Unlock()

	metrics.OrderBookLoads.Add(1)
	orders := c.fetchOrders(ctx, collectionAddress)
	images := c.fetchImages(ctx, collectionAddress, orders)

	c.commit(Snapshot{
		CollectionAddress: collectionAddress,
		Orders:            orders,
		Images:            images,
		Seq:               seq,
		LoadedAt:          time.Now(),
	})
	return orders
}

// Refresh 用最近一次的合约地址重新 Load
func (c *Cache) Refresh(ctx context.Context) []domain.Order {
	return c.Load(ctx, c.CollectionAddress())
}

func (c *Cache) fetchOrders(ctx context.Context, collectionAddress string) []domain.Order {
	if collectionAddress == "" {
		return []domain.Order{}
	}
	records, err := c.orders.OrderList(ctx, types.OrderListParams{ContractAddress: collectionAddress})
	if err != nil {
		metrics.OrderBookSoftFails.Add(1)
		log.Warnf("⚠️ 拉取订单列表失败，按空订单簿处理: collection=%s err=%v", collectionAddress, err)
		return []domain.Order{}
	}

	orders := make([]domain.Order, 0, len(records))
	for _, r := range records {
		o := domain.OrderFromRecord(r)
		if !o.IsSellable() {
			continue
		}
		orders = append(orders, o)
	}
	return orders
}

// fetchImages 按订单顺序拉取图片；失败时全部留空
func (c *Cache) fetchImages(ctx context.Context, collectionAddress string, orders []domain.Order) []string {
	images := make([]string, len(orders))
	if c.meta == nil || len(orders) == 0 {
		return images
	}

	tokenIDs := make([]string, len(orders))
	for i, o := range orders {
		tokenIDs[i] = o.TokenID
	}
	items, err := c.meta.FetchMetadata(ctx, collectionAddress, tokenIDs)
	if err != nil {
		log.Warnf("⚠️ 拉取元数据失败，图片不渲染: collection=%s err=%v", collectionAddress, err)
		return images
	}
	for i := range images {
		if i < len(items) {
			images[i] = items[i].Image
		}
	}
	return images
}

func (c *Cache) commit(s Snapshot) {
	c.mu.Lock()
	if s.Seq <= c.snap.Seq {
		committed := c.snap.Seq
		c.mu.Unlock()
		metrics.OrderBookStaleDrops.Add(1)
		log.Debugf("丢弃过期订单簿结果: seq=%d committed=%d", s.Seq, committed)
		return
	}
	c.snap = s
	listeners := make([]func(Snapshot), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	log.Debugf("订单簿已更新: collection=%s orders=%d seq=%d", s.CollectionAddress, len(s.Orders), s.Seq)
	for _, fn := range listeners {
		fn(s.clone())
	}
}
