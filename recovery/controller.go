package recovery

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	txcommon "github.com/voyage-finance/voyage-recovery/transaction/common"
)

const (
	DefaultRefreshDelay = 5 * time.Minute
	DefaultDebounce     = 100 * time.Millisecond
)

// Fetcher produces a fresh State; *Aggregator implements it.
type Fetcher interface {
	Aggregate(ctx context.Context, params Params, previous State) (State, bool, error)
}

type ControllerOptions struct {
	RefreshDelay time.Duration
	Debounce     time.Duration
	Events       *EventBus
	History      HistorySource
}

// Controller owns the recovery state of one Safe and decides when it is
// re-read: on an interval, on Refetch, on EventProcessed and when the
// transaction history shows a Delay Modifier interaction.
type Controller struct {
	fetcher Fetcher
	params  Params
	opts    ControllerOptions
	trigger chan string

	// requestId is the id of the most recently started fetch; only its result is committed.
	requestId atomic.Uint64

	mu        sync.RWMutex
	state     State
	hasState  bool
	lastErr   error
	updatedAt time.Time
	observers []func(State)
	// updates holds the latest committed State not yet handed to the observers
	updates chan State
}

type fetchResult struct {
	id    uint64
	state State
	ok    bool
	err   error
}

func NewController(fetcher Fetcher, params Params, opts ControllerOptions) *Controller {
	if opts.RefreshDelay <= 0 {
		opts.RefreshDelay = DefaultRefreshDelay
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Controller{
		fetcher: fetcher,
		params:  params,
		opts:    opts,
		trigger: make(chan string, 1),
		updates: make(chan State, 1),
	}
}

func (c *Controller) Params() Params {
	return c.params
}

// Refetch requests a refresh. It never blocks; requests made while one is
// already waiting are coalesced into it.
func (c *Controller) Refetch() {
	c.request("manual")
}

func (c *Controller) request(trigger string) {
	select {
	case c.trigger <- trigger:
	default:
	}
}

// State returns the last committed state. ok is false until a cycle succeeded.
func (c *Controller) State() (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.hasState
}

func (c *Controller) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Controller) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// OnUpdate registers fn to be called after a State is committed. Observers run
// in commit order on a goroutine of their own, never on the refresh loop; states
// committed while an observer is still busy are coalesced into the latest one.
func (c *Controller) OnUpdate(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Run fetches the state immediately and then on every trigger until ctx is done.
// On return every subscription is released and no further state is committed.
func (c *Controller) Run(ctx context.Context) error {
	dispatchDone := make(chan struct{})
	var dispatching sync.WaitGroup
	dispatching.Add(1)
	go func() {
		defer dispatching.Done()
		c.dispatch(dispatchDone)
	}()
	defer func() {
		close(dispatchDone)
		dispatching.Wait()
	}()

	if c.opts.Events != nil {
		unsubscribe := c.opts.Events.Subscribe(EventProcessed, func(EventPayload) {
			c.request("event")
		})
		defer unsubscribe()
	}
	if c.opts.History != nil && len(c.params.DelayModifiers) > 0 {
		modifiers := c.params.DelayModifiers
		unsubscribe := c.opts.History.Subscribe(func(page txcommon.TransactionPage) {
			if ShouldRefetch(page, modifiers) {
				c.request("history")
			}
		})
		defer unsubscribe()
	}

	ticker := time.NewTicker(c.opts.RefreshDelay)
	defer ticker.Stop()

	results := make(chan fetchResult)
	cancelInFlight := context.CancelFunc(func() {})
	defer func() { cancelInFlight() }()

	debounce := time.NewTimer(c.opts.Debounce)
	defer debounce.Stop()
	debounceC := debounce.C
	incrementRefreshTrigger("initial")

	arm := func(trigger string) {
		incrementRefreshTrigger(trigger)
		if debounceC == nil {
			debounce.Reset(c.opts.Debounce)
			debounceC = debounce.C
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			arm("interval")
		case trigger := <-c.trigger:
			arm(trigger)
		case <-debounceC:
			debounceC = nil
			cancelInFlight()
			fetchCtx, cancel := context.WithCancel(ctx)
			cancelInFlight = cancel
			go c.fetch(fetchCtx, c.requestId.Add(1), results)
		case result := <-results:
			c.commit(result)
		}
	}
}

func (c *Controller) fetch(ctx context.Context, id uint64, results chan<- fetchResult) {
	previous, _ := c.State()
	state, ok, err := c.fetcher.Aggregate(ctx, c.params, previous)
	select {
	case results <- fetchResult{id: id, state: state, ok: ok, err: err}:
	case <-ctx.Done():
	}
}

func (c *Controller) commit(result fetchResult) {
	if result.id != c.requestId.Load() {
		incrementRefreshCycle("superseded")
		return
	}
	if result.err != nil {
		incrementRefreshCycle("failure")
		if !errors.Is(result.err, context.Canceled) {
			log.Printf("Controller.commit: refresh of safe %s failed, keeping previous state: %v\n", c.params.SafeAddress.Hex(), result.err)
		}
		c.mu.Lock()
		c.lastErr = result.err
		c.mu.Unlock()
		return
	}
	if !result.ok {
		incrementRefreshCycle("skipped")
		return
	}

	incrementRefreshCycle("success")
	c.mu.Lock()
	c.state = result.state
	c.hasState = true
	c.lastErr = nil
	c.updatedAt = time.Now()
	c.mu.Unlock()

	c.publish(result.state)
}

// publish replaces any State the observers have not picked up yet. Only the
// Run loop publishes, so the second attempt always succeeds.
func (c *Controller) publish(state State) {
	for {
		select {
		case c.updates <- state:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

func (c *Controller) dispatch(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case state := <-c.updates:
			c.mu.RLock()
			observers := make([]func(State), len(c.observers))
			copy(observers, c.observers)
			c.mu.RUnlock()

			for _, fn := range observers {
				fn(state)
			}
		}
	}
}
