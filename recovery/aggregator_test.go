package recovery

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(provider Provider, modifiers ...common.Address) Params {
	return Params{
		DelayModifiers:     modifiers,
		Provider:           provider,
		SafeAddress:        testSafe,
		ChainId:            1,
		Version:            "1.3.0",
		TransactionService: "https://safe-transaction-mainnet.safe.global",
	}
}

func TestAggregator_Preconditions(t *testing.T) {
	provider := newFakeProvider()
	aggregator := NewAggregator(NewReader(testHandlers, time.Second))

	tests := []struct {
		name   string
		params Params
	}{
		{name: "no modifiers", params: testParams(provider)},
		{name: "no provider", params: testParams(nil, modifierA)},
		{name: "no transaction service", params: func() Params {
			p := testParams(provider, modifierA)
			p.TransactionService = ""
			return p
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, ok, err := aggregator.Aggregate(context.Background(), tt.params, nil)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, state)
		})
	}
	assert.Zero(t, provider.calls.Load())
}

func TestAggregator_OneSnapshotPerModifierInOrder(t *testing.T) {
	provider := newFakeProvider()
	provider.set(modifierA, &fakeModifier{txNonce: 1})
	provider.set(modifierB, &fakeModifier{queue: []fakeQueued{{createdAt: 1, txHash: common.HexToHash("0xb")}}})

	aggregator := NewAggregator(NewReader(testHandlers, time.Second))
	state, ok, err := aggregator.Aggregate(context.Background(), testParams(provider, modifierB, modifierA), nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, state, 2)
	assert.Equal(t, modifierB, state[0].Address)
	assert.Equal(t, modifierA, state[1].Address)
	assert.Len(t, state.Items(), 1)
}

func TestAggregator_FailureWithoutPreviousState(t *testing.T) {
	provider := newFakeProvider()
	provider.set(modifierA, &fakeModifier{})
	provider.set(modifierB, &fakeModifier{})
	provider.fail(modifierB, errors.New("rpc unavailable"))

	aggregator := NewAggregator(NewReader(testHandlers, time.Second))
	state, ok, err := aggregator.Aggregate(context.Background(), testParams(provider, modifierA, modifierB), nil)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, modifierB, providerErr.Modifier)
	assert.False(t, ok)
	assert.Nil(t, state)
}

func TestAggregator_FailedModifierKeepsStaleSnapshot(t *testing.T) {
	provider := newFakeProvider()
	provider.set(modifierA, &fakeModifier{txNonce: 2})
	provider.set(modifierB, &fakeModifier{txNonce: 9})
	provider.fail(modifierB, errors.New("rpc unavailable"))

	previous := State{
		{Address: modifierA, TxNonce: 1},
		{Address: modifierB, TxNonce: 8},
	}
	aggregator := NewAggregator(NewReader(testHandlers, time.Second))
	state, ok, err := aggregator.Aggregate(context.Background(), testParams(provider, modifierA, modifierB), previous)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, state, 2)
	assert.Equal(t, uint64(2), state[0].TxNonce, "fresh read")
	assert.Equal(t, uint64(8), state[1].TxNonce, "stale snapshot")
}

func TestAggregator_BoundsConcurrentReads(t *testing.T) {
	provider := newFakeProvider()
	var modifiers []common.Address
	for i := 1; i <= 10; i++ {
		modifier := common.BigToAddress(big.NewInt(int64(0xd000 + i)))
		provider.set(modifier, &fakeModifier{})
		modifiers = append(modifiers, modifier)
	}
	provider.block = make(chan struct{})

	done := make(chan State)
	go func() {
		state, _, _ := NewAggregator(NewReader(testHandlers, time.Second)).Aggregate(context.Background(), testParams(provider, modifiers...), nil)
		done <- state
	}()

	require.Eventually(t, func() bool { return provider.calls.Load() == maxConcurrentReads }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(maxConcurrentReads), provider.calls.Load())

	close(provider.block)
	assert.Len(t, <-done, 10)
}

func TestAggregator_CancelledCycleDoesNotFallBack(t *testing.T) {
	provider := newFakeProvider()
	provider.set(modifierA, &fakeModifier{txNonce: 2})
	previous := State{{Address: modifierA, TxNonce: 1}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, ok, err := NewAggregator(NewReader(testHandlers, time.Second)).Aggregate(ctx, testParams(provider, modifierA), previous)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
	assert.Nil(t, state)
}
