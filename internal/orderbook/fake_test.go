package orderbook

import (
	"context"
	"sync"

	"github.com/betbot/nftmarket/l2/types"
)

type fakeSource struct {
	mu sync.Mutex

	Orders   map[string][]types.OrderRecord
	Metadata map[string][]types.TokenMetadata

	// 指定地址的 OrderList 调用阻塞到 gate 关闭，进入时向 entered 发信号
	gate    map[string]chan struct{}
	entered chan string

	Calls       map[string]int
	ErrorOnNext map[string]error
	LastTokens  []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		Orders:      make(map[string][]types.OrderRecord),
		Metadata:    make(map[string][]types.TokenMetadata),
		gate:        make(map[string]chan struct{}),
		entered:     make(chan string, 8),
		Calls:       make(map[string]int),
		ErrorOnNext: make(map[string]error),
	}
}

func (f *fakeSource) trackCall(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls[name]++
	if err, ok := f.ErrorOnNext[name]; ok {
		delete(f.ErrorOnNext, name)
		return err
	}
	return nil
}

func (f *fakeSource) OrderList(ctx context.Context, params types.OrderListParams) ([]types.OrderRecord, error) {
	if err := f.trackCall("OrderList"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	gate := f.gate[params.ContractAddress]
	f.mu.Unlock()
	if gate != nil {
		f.entered <- params.ContractAddress
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Orders[params.ContractAddress], nil
}

func (f *fakeSource) FetchMetadata(ctx context.Context, contractAddress string, tokenIDs []string) ([]types.TokenMetadata, error) {
	if err := f.trackCall("FetchMetadata"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastTokens = append([]string(nil), tokenIDs...)
	return f.Metadata[contractAddress], nil
}

func sellRecord(tokenID, seller, price, base string) types.OrderRecord {
	return types.OrderRecord{
		StarkKey:     seller,
		Price:        price,
		DisplayPrice: price,
		Amount:       "1",
		Direction:    0,
		TokenID:      tokenID,
		TokenType:    types.TokenTypeERC721,
		Symbol: types.OrderSymbol{
			BaseTokenName:          base,
			QuoteTokenContractAddr: "0xc1",
		},
	}
}
