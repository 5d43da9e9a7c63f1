package recovery

import (
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestPendingStore_SetAndClear(t *testing.T) {
	store := NewPendingStore()
	txHash := common.HexToHash("0xabc")

	before := store.Snapshot()
	store.Set(txHash)
	after := store.Snapshot()

	assert.False(t, before.IsPending(&txHash), "old snapshots must not observe later writes")
	assert.True(t, after.IsPending(&txHash))

	store.Clear(txHash)
	assert.False(t, store.Snapshot().IsPending(&txHash))
	assert.True(t, after.IsPending(&txHash))
}

func TestPendingStore_Reset(t *testing.T) {
	store := NewPendingStore()
	store.Set(common.HexToHash("0x1"))
	store.Set(common.HexToHash("0x2"))

	store.Reset()
	assert.Empty(t, store.Snapshot())
}

func TestPendingSnapshot_NilHash(t *testing.T) {
	assert.False(t, PendingSnapshot{}.IsPending(nil))
}

func TestPendingStore_ConcurrentWriters(t *testing.T) {
	store := NewPendingStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Set(common.BigToHash(big.NewInt(int64(i + 1))))
			_ = store.Snapshot()
		}(i)
	}
	wg.Wait()
	assert.Len(t, store.Snapshot(), 50)
}

func TestPendingStore_TrySetReservesOnce(t *testing.T) {
	store := NewPendingStore()
	txHash := common.HexToHash("0xabc")

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.TrySet(txHash) {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reserved)
	assert.True(t, store.Snapshot().IsPending(&txHash))

	store.Clear(txHash)
	assert.True(t, store.TrySet(txHash), "a cleared hash can be reserved again")
}
