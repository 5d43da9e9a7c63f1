package recovery

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

var (
	modifierA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	modifierB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func int64p(v int64) *int64 {
	return &v
}

func hashp(s string) *common.Hash {
	h := common.HexToHash(s)
	return &h
}

func queueItem(modifier common.Address, nonce uint64, validFrom, expiresAt *int64) QueueItem {
	return QueueItem{
		Address:   modifier,
		ValidFrom: validFrom,
		ExpiresAt: expiresAt,
		Args:      QueueArgs{QueueNonce: nonce},
	}
}

func singleQueue(modifier common.Address, items ...QueueItem) DelayModifier {
	return DelayModifier{Address: modifier, Queue: items}
}

func at(seconds int64) time.Time {
	return time.Unix(seconds, 0)
}

func TestDeriveTxState_Next(t *testing.T) {
	tests := []struct {
		name      string
		now       int64
		validFrom int64
		expiresAt int64
		want      TxState
	}{
		{
			name:      "review window not open yet",
			now:       0,
			validFrom: 1_000,
			expiresAt: 2_000,
			want:      TxState{RemainingSeconds: 1_000, IsNext: true},
		},
		{
			name:      "review window open",
			now:       1_000,
			validFrom: 0,
			expiresAt: 2_000,
			want:      TxState{IsExecutable: true, IsNext: true},
		},
		{
			name:      "expired",
			now:       1_000,
			validFrom: 0,
			expiresAt: 0,
			want:      TxState{IsExpired: true, IsNext: true},
		},
		{
			name:      "expiry ties with validFrom",
			now:       1_000,
			validFrom: 1_000,
			expiresAt: 1_000,
			want:      TxState{IsExpired: true, IsNext: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := queueItem(modifierA, 0, int64p(tt.validFrom), int64p(tt.expiresAt))
			state := State{singleQueue(modifierA, item)}

			got := DeriveTxState(state, PendingSnapshot{}, item, at(tt.now))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveTxState_Queue(t *testing.T) {
	tests := []struct {
		name      string
		now       int64
		validFrom int64
		expiresAt int64
		want      TxState
	}{
		{
			name:      "review window not open yet",
			now:       0,
			validFrom: 1_000,
			expiresAt: 2_000,
			want:      TxState{RemainingSeconds: 1_000},
		},
		{
			name:      "review window open but blocked by head",
			now:       1_000,
			validFrom: 0,
			expiresAt: 2_000,
			want:      TxState{},
		},
		{
			name:      "expired",
			now:       1_000,
			validFrom: 0,
			expiresAt: 0,
			want:      TxState{IsExpired: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head := queueItem(modifierA, 0, int64p(0), nil)
			item := queueItem(modifierA, 1, int64p(tt.validFrom), int64p(tt.expiresAt))
			state := State{singleQueue(modifierA, head, item)}

			got := DeriveTxState(state, PendingSnapshot{}, item, at(tt.now))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveTxState_NeverExpiresWithoutExpiresAt(t *testing.T) {
	item := queueItem(modifierA, 0, int64p(10), nil)
	state := State{singleQueue(modifierA, item)}

	for _, now := range []int64{0, 10, 1_000_000, 1 << 40} {
		got := DeriveTxState(state, PendingSnapshot{}, item, at(now))
		assert.False(t, got.IsExpired, "now=%d", now)
	}
	assert.True(t, DeriveTxState(state, PendingSnapshot{}, item, at(1<<40)).IsExecutable)
}

func TestDeriveTxState_RemainingSecondsCountdown(t *testing.T) {
	const validFrom = 5_000
	item := queueItem(modifierA, 0, int64p(validFrom), int64p(validFrom+100))
	state := State{singleQueue(modifierA, item)}

	before := DeriveTxState(state, PendingSnapshot{}, item, at(validFrom-1))
	assert.False(t, before.IsExecutable)
	assert.Equal(t, int64(1), before.RemainingSeconds)

	open := DeriveTxState(state, PendingSnapshot{}, item, at(validFrom))
	assert.True(t, open.IsExecutable)
	assert.Equal(t, int64(0), open.RemainingSeconds)

	previous := int64(1 << 62)
	for now := int64(validFrom - 50); now <= validFrom+200; now += 7 {
		got := DeriveTxState(state, PendingSnapshot{}, item, at(now))
		assert.LessOrEqual(t, got.RemainingSeconds, previous, "now=%d", now)
		if now >= validFrom {
			assert.Zero(t, got.RemainingSeconds, "now=%d", now)
		}
		previous = got.RemainingSeconds
	}
}

func TestDeriveTxState_RemainingSecondsRoundsUp(t *testing.T) {
	item := queueItem(modifierA, 0, int64p(10), nil)
	state := State{singleQueue(modifierA, item)}

	got := DeriveTxState(state, PendingSnapshot{}, item, time.Unix(8, int64(500*time.Millisecond)))
	assert.Equal(t, int64(2), got.RemainingSeconds)
}

func TestDeriveTxState_MultipleModifiersAreIndependent(t *testing.T) {
	itemA := queueItem(modifierA, 0, int64p(0), int64p(2_000))
	itemB := queueItem(modifierB, 0, int64p(1_000), int64p(1_000))
	state := State{singleQueue(modifierA, itemA), singleQueue(modifierB, itemB)}

	gotA := DeriveTxState(state, PendingSnapshot{}, itemA, at(1_000))
	assert.Equal(t, TxState{IsExecutable: true, IsNext: true}, gotA)

	gotB := DeriveTxState(state, PendingSnapshot{}, itemB, at(1_000))
	assert.Equal(t, TxState{IsExpired: true, IsNext: true}, gotB)
}

func TestDeriveTxState_Pending(t *testing.T) {
	txHash := hashp("0x01")
	item := queueItem(modifierA, 0, int64p(0), int64p(1))
	item.Args.TxHash = txHash
	state := State{singleQueue(modifierA, item)}

	got := DeriveTxState(state, PendingSnapshot{*txHash: true}, item, at(0))
	assert.Equal(t, TxState{IsExecutable: true, IsNext: true, IsPending: true}, got)

	assert.False(t, DeriveTxState(state, PendingSnapshot{*txHash: false}, item, at(0)).IsPending)
	assert.False(t, DeriveTxState(state, PendingSnapshot{}, item, at(0)).IsPending)

	// pending is independent of executability
	blocked := queueItem(modifierA, 1, int64p(100), nil)
	blocked.Args.TxHash = hashp("0x02")
	state = State{singleQueue(modifierA, item, blocked)}
	got = DeriveTxState(state, PendingSnapshot{*blocked.Args.TxHash: true}, blocked, at(0))
	assert.False(t, got.IsExecutable)
	assert.True(t, got.IsPending)
}

func TestDeriveTxState_UnknownModifier(t *testing.T) {
	item := queueItem(modifierB, 0, int64p(0), nil)
	state := State{singleQueue(modifierA, queueItem(modifierA, 0, int64p(0), nil))}

	got := DeriveTxState(state, PendingSnapshot{}, item, at(10))
	assert.False(t, got.IsNext)
	assert.False(t, got.IsExecutable)
}

func TestIsNext_LowestNonceOfQueue(t *testing.T) {
	first := queueItem(modifierA, 4, nil, nil)
	second := queueItem(modifierA, 5, nil, nil)
	state := State{singleQueue(modifierA, first, second)}

	assert.True(t, IsNext(state, first))
	assert.False(t, IsNext(state, second))
}
