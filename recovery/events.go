package recovery

import (
	"log"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type Event string

const (
	EventProcessing Event = "PROCESSING"
	EventProcessed  Event = "PROCESSED"
	EventReverted   Event = "REVERTED"
	EventFailed     Event = "FAILED"
)

type EventPayload struct {
	Modifier common.Address
	// RecoveryTxHash is the module tx hash of the proposal (QueueArgs.TxHash).
	RecoveryTxHash common.Hash
	// TxHash is the hash of the executeNextTx transaction, once sent.
	TxHash common.Hash
	Err    error
}

type EventHandler func(payload EventPayload)

// EventBus dispatches recovery events to subscribers. Handlers run
// synchronously on the publisher's goroutine and must not block.
type EventBus struct {
	mu       sync.RWMutex
	nextId   int
	handlers map[Event]map[int]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: map[Event]map[int]EventHandler{}}
}

// Subscribe registers fn for event and returns the function that removes it.
func (b *EventBus) Subscribe(event Event, fn EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextId
	b.nextId++
	if b.handlers[event] == nil {
		b.handlers[event] = map[int]EventHandler{}
	}
	b.handlers[event][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[event], id)
		})
	}
}

func (b *EventBus) Publish(event Event, payload EventPayload) {
	b.mu.RLock()
	matching := make([]EventHandler, 0, len(b.handlers[event]))
	for _, h := range b.handlers[event] {
		matching = append(matching, h)
	}
	b.mu.RUnlock()

	log.Printf("EventBus.Publish: %s modifier=%s recoveryTx=%s\n", event, payload.Modifier.Hex(), payload.RecoveryTxHash.Hex())
	for _, h := range matching {
		h(payload)
	}
}
