package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHolderNotifiesOnChange(t *testing.T) {
	h := NewHolder(Identity{})
	assert.False(t, h.Current().Connected())

	var (
		mu  sync.Mutex
		got []Identity
	)
	h.Subscribe(func(_ context.Context, id Identity) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, id)
	})

	id := Identity{PublicKey: "0xabc", ActiveCollectionAddress: "0xC1"}
	assert.True(t, h.Set(context.Background(), id))
	assert.False(t, h.Set(context.Background(), id))

	assert.Len(t, got, 1)
	assert.Equal(t, id, got[0])
	assert.Equal(t, id, h.Current())
	assert.True(t, h.Current().Connected())
}

func TestSetRunsListenersConcurrently(t *testing.T) {
	h := NewHolder(Identity{})

	// 两个回调互相等待，只有并发执行才能都返回
	a, b := make(chan struct{}), make(chan struct{})
	h.Subscribe(func(context.Context, Identity) { close(a); <-b })
	h.Subscribe(func(context.Context, Identity) { close(b); <-a })

	assert.True(t, h.Set(context.Background(), Identity{PublicKey: "0x1"}))
}

func TestCollectionAddresses(t *testing.T) {
	id := Identity{ActiveCollectionAddress: "0xAA", MintableCollectionAddress: ""}
	assert.Equal(t, []string{"0xaa"}, id.CollectionAddresses())

	id.MintableCollectionAddress = "0xBB"
	assert.Equal(t, []string{"0xaa", "0xbb"}, id.CollectionAddresses())
}

func TestShortKey(t *testing.T) {
	assert.Equal(t, "0xabc", shortKey("0xabc"))
	assert.Equal(t, "0x123456...cdef", shortKey("0x1234567890abcdef"))
}
