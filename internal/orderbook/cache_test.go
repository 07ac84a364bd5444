package orderbook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/nftmarket/l2/types"
)

func TestLoadFiltersOrders(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xc1"] = []types.OrderRecord{
		sellRecord("1", "0xs1", "100", "ETH"),
		sellRecord("", "0xs2", "100", "ETH"),
		sellRecord("2", "0xs3", "100", "USDC"),
		sellRecord("3", "0xs4", "200", "ETH"),
	}
	c := NewCache(src, src)

	orders := c.Load(context.Background(), "0xc1")
	require.Len(t, orders, 2)
	assert.Equal(t, "1", orders[0].TokenID)
	assert.Equal(t, "3", orders[1].TokenID)
	for _, o := range orders {
		assert.NotEmpty(t, o.TokenID)
		assert.Equal(t, "ETH", o.BaseTokenSymbol)
	}
	assert.Equal(t, []string{"1", "3"}, src.LastTokens)
}

func TestLoadNetworkErrorYieldsEmptyBook(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xc1"] = []types.OrderRecord{sellRecord("1", "0xs1", "100", "ETH")}
	c := NewCache(src, src)
	require.Len(t, c.Load(context.Background(), "0xc1"), 1)

	src.ErrorOnNext["OrderList"] = errors.New("connection refused")
	orders := c.Load(context.Background(), "0xc1")

	assert.Empty(t, orders)
	assert.Empty(t, c.Current().Orders)
	assert.Equal(t, 1, src.Calls["FetchMetadata"], "empty book skips metadata")
}

func TestImagesArePositional(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xc1"] = []types.OrderRecord{
		sellRecord("1", "0xs1", "100", "ETH"),
		sellRecord("2", "0xs1", "100", "ETH"),
		sellRecord("3", "0xs1", "100", "ETH"),
	}
	// 元数据只返回两条：第三个订单不渲染
	src.Metadata["0xc1"] = []types.TokenMetadata{
		{TokenID: "1", Image: "img1"},
		{TokenID: "2", Image: "img2"},
	}
	c := NewCache(src, src)
	c.Load(context.Background(), "0xc1")

	assert.Equal(t, "img1", c.ImageAt(0))
	assert.Equal(t, "img2", c.ImageAt(1))
	assert.Equal(t, "", c.ImageAt(2))
	assert.Equal(t, "", c.ImageAt(7))
}

func TestMetadataFailureKeepsOrders(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xc1"] = []types.OrderRecord{sellRecord("1", "0xs1", "100", "ETH")}
	src.ErrorOnNext["FetchMetadata"] = errors.New("timeout")
	c := NewCache(src, src)

	orders := c.Load(context.Background(), "0xc1")
	assert.Len(t, orders, 1)
	assert.Equal(t, "", c.ImageAt(0))
}

func TestRefreshReplacesWholesale(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xc1"] = []types.OrderRecord{
		sellRecord("1", "0xs1", "100", "ETH"),
		sellRecord("2", "0xs1", "100", "ETH"),
	}
	c := NewCache(src, nil)
	c.Load(context.Background(), "0xc1")

	src.mu.Lock()
	src.Orders["0xc1"] = []types.OrderRecord{sellRecord("9", "0xs2", "300", "ETH")}
	src.mu.Unlock()

	orders := c.Refresh(context.Background())
	require.Len(t, orders, 1)
	assert.Equal(t, "9", orders[0].TokenID)
	assert.Equal(t, "0xc1", c.Current().CollectionAddress)
}

func TestRefreshIdempotent(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xc1"] = []types.OrderRecord{sellRecord("1", "0xs1", "100", "ETH")}
	c := NewCache(src, nil)
	c.Load(context.Background(), "0xc1")
	first := c.Current()

	c.Refresh(context.Background())
	second := c.Current()

	assert.Equal(t, first.Orders, second.Orders)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestLastRequestWins(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xold"] = []types.OrderRecord{sellRecord("1", "0xs1", "100", "ETH")}
	src.Orders["0xnew"] = []types.OrderRecord{sellRecord("2", "0xs2", "100", "ETH")}
	release := make(chan struct{})
	src.gate["0xold"] = release

	c := NewCache(src, nil)
	var updates []Snapshot
	c.OnUpdate(func(s Snapshot) { updates = append(updates, s) })

	done := make(chan struct{})
	go func() {
		c.Load(context.Background(), "0xold")
		close(done)
	}()
	assert.Equal(t, "0xold", <-src.entered)

	c.Load(context.Background(), "0xnew")
	close(release)
	<-done

	cur := c.Current()
	assert.Equal(t, "0xnew", cur.CollectionAddress)
	require.Len(t, cur.Orders, 1)
	assert.Equal(t, "2", cur.Orders[0].TokenID)
	// 过期结果未触发回调
	require.Len(t, updates, 1)
	assert.Equal(t, "0xnew", updates[0].CollectionAddress)
}

func TestSnapshotFind(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xc1"] = []types.OrderRecord{
		sellRecord("1", "0xs1", "100", "ETH"),
		sellRecord("1", "0xs2", "150", "ETH"),
	}
	c := NewCache(src, nil)
	c.Load(context.Background(), "0xc1")

	o, idx, ok := c.Current().Find("1", "0xs2")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "150", o.PriceDisplay)

	_, _, ok = c.Current().Find("1", "0xs3")
	assert.False(t, ok)
}

func TestCurrentReturnsCopy(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xc1"] = []types.OrderRecord{sellRecord("1", "0xs1", "100", "ETH")}
	c := NewCache(src, nil)
	c.Load(context.Background(), "0xc1")

	snap := c.Current()
	snap.Orders[0].TokenID = "mutated"
	assert.Equal(t, "1", c.Current().Orders[0].TokenID)
}

func TestOnUpdateCalledForEveryCommit(t *testing.T) {
	src := newFakeSource()
	src.Orders["0xc1"] = []types.OrderRecord{sellRecord("1", "0xs1", "100", "ETH")}
	c := NewCache(src, nil)

	var first, second []Snapshot
	c.OnUpdate(func(s Snapshot) { first = append(first, s) })
	c.OnUpdate(func(s Snapshot) { second = append(second, s) })
	c.OnUpdate(nil)

	c.Load(context.Background(), "0xc1")
	c.Refresh(context.Background())

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, uint64(1), first[0].Seq)
	assert.Equal(t, uint64(2), second[1].Seq)

	// 回调拿到的是副本
	first[0].Orders[0].TokenID = "changed"
	assert.Equal(t, "1", c.Current().Orders[0].TokenID)
}

func TestConcurrentLoadsRefreshNewestCollection(t *testing.T) {
	src := newFakeSource()
	c := NewCache(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Load(context.Background(), fmt.Sprintf("0xcol%d", i))
		}(i)
	}
	wg.Wait()

	// 最近一次 Load 的地址必须对应已提交的快照，Refresh 才会重载同一合约
	committed := c.Current().CollectionAddress
	assert.Equal(t, committed, c.CollectionAddress())
	c.Refresh(context.Background())
	assert.Equal(t, committed, c.Current().CollectionAddress)
}
