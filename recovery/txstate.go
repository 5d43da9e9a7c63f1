package recovery

import (
	"time"
)

// TxState is the execution status of a queued recovery proposal at a given instant.
type TxState struct {
	IsExecutable     bool  `json:"isExecutable"`
	RemainingSeconds int64 `json:"remainingSeconds"`
	IsExpired        bool  `json:"isExpired"`
	IsNext           bool  `json:"isNext"`
	IsPending        bool  `json:"isPending"`
}

// DeriveTxState computes the TxState of item against now.
//
// Only the head of a modifier's queue can ever be executable: an earlier
// proposal that has not been executed or skipped blocks every later one.
// Queues of different modifiers are independent.
func DeriveTxState(state State, pending PendingSnapshot, item QueueItem, now time.Time) TxState {
	isNext := IsNext(state, item)

	isExpired := item.ExpiresAt != nil && !now.Before(time.Unix(*item.ExpiresAt, 0))
	isValid := item.ValidFrom != nil && !now.Before(time.Unix(*item.ValidFrom, 0))
	isExecutable := isNext && isValid && !isExpired

	var remaining int64
	if !isExecutable && !isExpired && item.ValidFrom != nil {
		remaining = remainingSeconds(time.Unix(*item.ValidFrom, 0).Sub(now))
	}

	return TxState{
		IsExecutable:     isExecutable,
		RemainingSeconds: remaining,
		IsExpired:        isExpired,
		IsNext:           isNext,
		IsPending:        pending.IsPending(item.Args.TxHash),
	}
}

// IsNext reports whether item holds the lowest queue nonce of its modifier's queue.
func IsNext(state State, item QueueItem) bool {
	modifier, ok := state.Modifier(item.Address)
	if !ok || len(modifier.Queue) == 0 {
		return false
	}
	head := modifier.Queue[0].Args.QueueNonce
	for _, queued := range modifier.Queue[1:] {
		if queued.Args.QueueNonce < head {
			head = queued.Args.QueueNonce
		}
	}
	return item.Args.QueueNonce == head
}

// remainingSeconds rounds d up to whole seconds, clamped at zero.
func remainingSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	seconds := int64(d / time.Second)
	if d%time.Second != 0 {
		seconds++
	}
	return seconds
}
