package balance

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/nftmarket/internal/session"
	"github.com/betbot/nftmarket/l2/types"
)

type fakeSource struct {
	mu sync.Mutex

	Balances map[string][]types.BalanceRecord
	gate     map[string]chan struct{}
	entered  chan string

	Calls       map[string]int
	ErrorOnNext map[string]error
	LastParams  types.BalancesParams
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		Balances:    make(map[string][]types.BalanceRecord),
		gate:        make(map[string]chan struct{}),
		entered:     make(chan string, 8),
		Calls:       make(map[string]int),
		ErrorOnNext: make(map[string]error),
	}
}

func (f *fakeSource) GetBalances(ctx context.Context, params types.BalancesParams) ([]types.BalanceRecord, error) {
	f.mu.Lock()
	f.Calls["GetBalances"]++
	f.LastParams = params
	if err, ok := f.ErrorOnNext["GetBalances"]; ok {
		delete(f.ErrorOnNext, "GetBalances")
		f.mu.Unlock()
		return nil, err
	}
	gate := f.gate[params.StarkKey]
	f.mu.Unlock()

	if gate != nil {
		f.entered <- params.StarkKey
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Balances[params.StarkKey], nil
}

func ethRecord(available string) types.BalanceRecord {
	return types.BalanceRecord{Type: types.AssetTypeETH, Symbol: "ETH", BalanceAvailable: available}
}

func nftRecord(contract, tokenID, available string) types.BalanceRecord {
	return types.BalanceRecord{
		Type:             types.AssetTypeERC721,
		ContractAddress:  contract,
		TokenID:          tokenID,
		BalanceAvailable: available,
	}
}

func TestLoadBuildsSnapshot(t *testing.T) {
	src := newFakeSource()
	src.Balances["0xme"] = []types.BalanceRecord{
		ethRecord("1000"),
		nftRecord("0xC1", "1", "1"),
		nftRecord("0xc1", "2", "0"),
		nftRecord("0xother", "3", "1"),
	}
	b := NewBook(src, 0, "0xc1")

	snap := b.Load(context.Background(), "0xme")

	assert.True(t, snap.Native.Equal(decimal.NewFromInt(1000)))
	require.Len(t, snap.Holdings, 1)
	holdings := snap.HoldingsFor("0xC1")
	require.Len(t, holdings, 1)
	assert.Equal(t, "1", holdings[0].TokenID)
	assert.True(t, snap.Owns("0xc1", "1"))
	assert.False(t, snap.Owns("0xc1", "2"))
	assert.False(t, snap.Owns("0xother", "3"))
	assert.Equal(t, DefaultLimit, src.LastParams.Limit)
}

func TestLoadErrorYieldsEmptySnapshot(t *testing.T) {
	src := newFakeSource()
	src.Balances["0xme"] = []types.BalanceRecord{ethRecord("1000"), nftRecord("0xc1", "1", "1")}
	b := NewBook(src, 0, "0xc1")
	b.Load(context.Background(), "0xme")

	src.ErrorOnNext["GetBalances"] = &types.APIError{Endpoint: "/v3/balances", Code: 500, Message: "boom"}
	snap := b.Load(context.Background(), "0xme")

	assert.True(t, snap.Native.IsZero())
	assert.Empty(t, snap.Holdings)
	assert.True(t, b.Current().Native.IsZero())
}

func TestLoadWithoutAccountSkipsNetwork(t *testing.T) {
	src := newFakeSource()
	b := NewBook(src, 50)

	snap := b.Load(context.Background(), "")
	assert.True(t, snap.Native.IsZero())
	assert.Equal(t, 0, src.Calls["GetBalances"])
}

func TestRefreshReplacesWholesale(t *testing.T) {
	src := newFakeSource()
	src.Balances["0xme"] = []types.BalanceRecord{ethRecord("1000"), nftRecord("0xc1", "1", "1")}
	b := NewBook(src, 0, "0xc1")
	b.Load(context.Background(), "0xme")

	src.mu.Lock()
	src.Balances["0xme"] = []types.BalanceRecord{ethRecord("10")}
	src.mu.Unlock()

	snap := b.Refresh(context.Background())
	assert.True(t, snap.Native.Equal(decimal.NewFromInt(10)))
	assert.Empty(t, snap.Holdings)
	assert.Equal(t, snap.Native, b.Current().Native)
}

func TestLastRequestWins(t *testing.T) {
	src := newFakeSource()
	src.Balances["0xold"] = []types.BalanceRecord{ethRecord("1")}
	src.Balances["0xnew"] = []types.BalanceRecord{ethRecord("2")}
	release := make(chan struct{})
	src.gate["0xold"] = release
	b := NewBook(src, 0)

	done := make(chan struct{})
	go func() {
		b.Load(context.Background(), "0xold")
		close(done)
	}()
	assert.Equal(t, "0xold", <-src.entered)

	b.Load(context.Background(), "0xnew")
	close(release)
	<-done

	cur := b.Current()
	assert.Equal(t, "0xnew", cur.Account)
	assert.True(t, cur.Native.Equal(decimal.NewFromInt(2)))
}

func TestFollowReloadsOnIdentityChange(t *testing.T) {
	src := newFakeSource()
	src.Balances["0xme"] = []types.BalanceRecord{ethRecord("5"), nftRecord("0xc2", "9", "1")}
	b := NewBook(src, 0)

	h := session.NewHolder(session.Identity{})
	b.Follow(h)
	h.Set(context.Background(), session.Identity{PublicKey: "0xme", MintableCollectionAddress: "0xC2"})

	cur := b.Current()
	assert.Equal(t, "0xme", cur.Account)
	assert.True(t, cur.Native.Equal(decimal.NewFromInt(5)))
	assert.True(t, cur.Owns("0xc2", "9"))
	assert.Equal(t, 1, src.Calls["GetBalances"])
}

func TestCurrentReturnsCopy(t *testing.T) {
	src := newFakeSource()
	src.Balances["0xme"] = []types.BalanceRecord{nftRecord("0xc1", "1", "1")}
	b := NewBook(src, 0, "0xc1")
	b.Load(context.Background(), "0xme")

	snap := b.Current()
	snap.Holdings["0xc1"][0].TokenID = "x"
	assert.True(t, b.Current().Owns("0xc1", "1"))
}

func TestConcurrentLoadsRefreshNewestAccount(t *testing.T) {
	src := newFakeSource()
	b := NewBook(src, 0)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Load(context.Background(), fmt.Sprintf("0xacct%d", i))
		}(i)
	}
	wg.Wait()

	// Refresh 使用的账户必须与已提交快照一致
	committed := b.Current().Account
	b.Refresh(context.Background())
	assert.Equal(t, committed, src.LastParams.StarkKey)
	assert.Equal(t, committed, b.Current().Account)
}
