package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/nftmarket/internal/balance"
	"github.com/betbot/nftmarket/internal/orderbook"
	"github.com/betbot/nftmarket/internal/session"
	"github.com/betbot/nftmarket/internal/trade"
	"github.com/betbot/nftmarket/l2/signing"
	"github.com/betbot/nftmarket/l2/types"
)

const (
	testCollection = "0xc1"
	testMintable   = "0xc2"
	testBuyer      = "0xbuyer"
)

// mockMarket 同时扮演交易 API、元数据服务与签名协作方
type mockMarket struct {
	mu sync.Mutex

	Orders   []types.OrderRecord
	Balances []types.BalanceRecord
	Images   []types.TokenMetadata
	Posted   []*types.OrderParams

	Calls       map[string]int
	ErrorOnNext map[string]error
}

func newMockMarket() *mockMarket {
	return &mockMarket{
		Calls:       make(map[string]int),
		ErrorOnNext: make(map[string]error),
	}
}

func (m *mockMarket) trackCall(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[name]++
	if err, ok := m.ErrorOnNext[name]; ok {
		delete(m.ErrorOnNext, name)
		return err
	}
	return nil
}

func (m *mockMarket) calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}

func (m *mockMarket) OrderList(ctx context.Context, params types.OrderListParams) ([]types.OrderRecord, error) {
	if err := m.trackCall("OrderList"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.OrderRecord(nil), m.Orders...), nil
}

func (m *mockMarket) FetchMetadata(ctx context.Context, contractAddress string, tokenIDs []string) ([]types.TokenMetadata, error) {
	if err := m.trackCall("FetchMetadata"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Images, nil
}

func (m *mockMarket) GetBalances(ctx context.Context, params types.BalancesParams) ([]types.BalanceRecord, error) {
	if err := m.trackCall("GetBalances"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.BalanceRecord(nil), m.Balances...), nil
}

func (m *mockMarket) DeriveKeypair(ctx context.Context) (types.KeyPair, error) {
	if err := m.trackCall("DeriveKeypair"); err != nil {
		return types.KeyPair{}, err
	}
	return types.KeyPair{PublicKey: testBuyer, PrivateKey: "0x01"}, nil
}

func (m *mockMarket) BuildOrderParams(kp types.KeyPair, in signing.OrderInput) (*types.OrderParams, error) {
	return &types.OrderParams{
		StarkKey:     kp.PublicKey,
		Price:        in.Price,
		Direction:    in.OrderType.Direction(),
		TokenAddress: in.TokenAddress,
		TokenID:      in.TokenID,
		TokenType:    in.TokenType,
	}, nil
}

func (m *mockMarket) PostOrder(ctx context.Context, params *types.OrderParams) (*types.OrderResult, error) {
	if err := m.trackCall("PostOrder"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posted = append(m.Posted, params)
	return &types.OrderResult{SequenceID: int64(len(m.Posted))}, nil
}

func order(tokenID, seller, price string) types.OrderRecord {
	return types.OrderRecord{
		StarkKey:     seller,
		Price:        price,
		DisplayPrice: price,
		Amount:       "1",
		TokenID:      tokenID,
		TokenType:    types.TokenTypeERC721,
		Symbol:       types.OrderSymbol{BaseTokenName: "ETH", QuoteTokenContractAddr: testCollection},
	}
}

func newTestStorefront(m *mockMarket) *Storefront {
	holder := session.NewHolder(session.Identity{ActiveCollectionAddress: testCollection})
	orders := orderbook.NewCache(m, m)
	balances := balance.NewBook(m, 0)
	submitter := trade.NewSubmitter(trade.Deps{
		Deriver:         m,
		Builder:         m,
		Poster:          m,
		OrderBook:       orders,
		Balances:        balances,
		MarketplaceUUID: "11ed793a-cc11-4e44-9738-97165c4e14a7",
	})
	return NewStorefront(StorefrontConfig{
		CollectionAddress:         testCollection,
		MintableCollectionAddress: testMintable,
	}, holder, orders, balances, submitter, m)
}

func TestConnectLoadsOrdersAndBalance(t *testing.T) {
	m := newMockMarket()
	m.Orders = []types.OrderRecord{order("1", "0xseller", "10"), order("", "0xseller", "10")}
	m.Images = []types.TokenMetadata{{TokenID: "1", Image: "ipfs://1"}}
	m.Balances = []types.BalanceRecord{
		{Type: types.AssetTypeETH, BalanceAvailable: "100"},
		{Type: types.AssetTypeERC721M, ContractAddress: "0xC2", TokenID: "8", BalanceAvailable: "1"},
	}
	sf := newTestStorefront(m)

	id, err := sf.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testBuyer, id.PublicKey)

	listings := sf.Listings()
	require.Len(t, listings, 1)
	assert.Equal(t, "ipfs://1", listings[0].Image)
	assert.True(t, sf.Balance().Native.Equal(decimal.NewFromInt(100)))

	holdings := sf.Holdings()
	require.Len(t, holdings, 1)
	assert.Equal(t, "8", holdings[0].TokenID)
	assert.Equal(t, 1, m.calls("GetBalances"))
	assert.Equal(t, 1, m.calls("OrderList"))
}

func TestConnectSameIdentityReloads(t *testing.T) {
	m := newMockMarket()
	sf := newTestStorefront(m)

	_, err := sf.Connect(context.Background())
	require.NoError(t, err)
	_, err = sf.Connect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, m.calls("GetBalances"))
	assert.Equal(t, 2, m.calls("OrderList"))
}

func TestConnectSigningFailure(t *testing.T) {
	m := newMockMarket()
	m.ErrorOnNext["DeriveKeypair"] = errors.New("wallet locked")
	sf := newTestStorefront(m)

	_, err := sf.Connect(context.Background())
	assert.Equal(t, trade.StageSigningFailed, trade.StageOf(err))
	assert.False(t, sf.Identity().Connected())
}

func TestBuyCandidateLifecycle(t *testing.T) {
	m := newMockMarket()
	m.Orders = []types.OrderRecord{order("1", "0xseller", "10")}
	m.Balances = []types.BalanceRecord{{Type: types.AssetTypeETH, BalanceAvailable: "10"}}
	sf := newTestStorefront(m)
	_, err := sf.Connect(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, sf.ConfirmBuy(context.Background()), ErrNoCandidate)

	_, err = sf.SelectForBuy("1", "0xnobody")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	c, err := sf.SelectForBuy("1", "0xseller")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Index)

	sf.CancelBuy()
	_, ok := sf.Candidate()
	assert.False(t, ok)

	_, err = sf.SelectForBuy("1", "0xseller")
	require.NoError(t, err)
	balanceCalls := m.calls("GetBalances")
	ordersCalls := m.calls("OrderList")

	require.NoError(t, sf.ConfirmBuy(context.Background()))

	_, ok = sf.Candidate()
	assert.False(t, ok)
	assert.Equal(t, 1, m.calls("PostOrder"))
	assert.Equal(t, ordersCalls+1, m.calls("OrderList"))
	assert.Equal(t, balanceCalls+1, m.calls("GetBalances"))
}

func TestBuyRejectionKeepsCandidate(t *testing.T) {
	m := newMockMarket()
	m.Orders = []types.OrderRecord{order("1", "0xseller", "10")}
	m.Balances = []types.BalanceRecord{{Type: types.AssetTypeETH, BalanceAvailable: "5"}}
	sf := newTestStorefront(m)
	_, err := sf.Connect(context.Background())
	require.NoError(t, err)

	err = sf.Buy(context.Background(), "1", "0xseller")
	assert.ErrorIs(t, err, trade.ErrInsufficientBalance)
	_, ok := sf.Candidate()
	assert.True(t, ok)
	assert.Equal(t, 0, m.calls("PostOrder"))
}

func TestBuyRequiresConnection(t *testing.T) {
	m := newMockMarket()
	m.Orders = []types.OrderRecord{order("1", "0xseller", "10")}
	sf := newTestStorefront(m)
	require.NoError(t, sf.Reload(context.Background()))

	err := sf.Buy(context.Background(), "1", "0xseller")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSellPicksMintableCollection(t *testing.T) {
	m := newMockMarket()
	m.Balances = []types.BalanceRecord{
		{Type: types.AssetTypeERC721M, ContractAddress: testMintable, TokenID: "8", BalanceAvailable: "1"},
	}
	sf := newTestStorefront(m)
	_, err := sf.Connect(context.Background())
	require.NoError(t, err)

	require.NoError(t, sf.Sell(context.Background(), "8", decimal.RequireFromString("0.5")))
	require.Len(t, m.Posted, 1)
	assert.Equal(t, testMintable, m.Posted[0].TokenAddress)
	assert.Equal(t, types.TokenTypeERC721M, m.Posted[0].TokenType)
	assert.Equal(t, 0, m.Posted[0].Direction)

	err = sf.Sell(context.Background(), "99", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, trade.ErrNotOwned)
}
