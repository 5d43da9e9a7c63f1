package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/voyage-finance/voyage-recovery/models"
	"github.com/voyage-finance/voyage-recovery/recovery"
	"github.com/voyage-finance/voyage-recovery/transaction/history"
	"golang.org/x/exp/slices"
)

// Watcher runs one refresh controller and one history poller per Safe bound to a chat.
type Watcher struct {
	S *Service
	// ChainId, when set, restricts the watcher to Safes on the chain its provider serves.
	ChainId      int64
	Fetcher      recovery.Fetcher
	Events       *recovery.EventBus
	Notification *Notification
	RefreshDelay time.Duration
	PollInterval time.Duration
	// SyncInterval is how often the watches are re-synced; RefreshDelay when zero.
	SyncInterval time.Duration

	// syncMu serialises Sync; mu guards the fields below and is never held across network calls.
	syncMu  sync.Mutex
	mu      sync.Mutex
	ctx     context.Context
	watches map[string]*watch
}

type watch struct {
	controller *recovery.Controller
	poller     *history.Poller
	cancel     context.CancelFunc
	done       sync.WaitGroup
}

func watchKey(chainId int64, safeAddress common.Address) string {
	return fmt.Sprintf("%d:%s", chainId, safeAddress.Hex())
}

// Start watches every Safe currently bound to a chat and re-syncs on every
// SyncInterval, so Safes that could not be resolved and Delay Modifiers enabled
// later are picked up. Watches stop when ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	w.ctx = ctx
	if w.watches == nil {
		w.watches = map[string]*watch{}
	}
	w.mu.Unlock()
	w.Sync(ctx)

	go func() {
		ticker := time.NewTicker(w.syncInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Sync(ctx)
			}
		}
	}()
}

// Sync reconciles the running watches with the chats in the store: Safes no
// chat points at any more are torn down, new ones are started, and Safes whose
// Delay Modifiers changed are restarted. A Safe that cannot be resolved keeps
// its current watch.
func (w *Watcher) Sync(ctx context.Context) {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	w.mu.Lock()
	started := w.ctx != nil
	w.mu.Unlock()
	if !started {
		log.Println("Watcher.Sync: watcher not started")
		return
	}

	// 1.0 resolve the wanted Safes without holding mu; this is network bound
	wanted := map[string][]models.Chat{}
	for _, chat := range w.S.FindAllChats() {
		if !common.IsHexAddress(chat.SafeAddress) {
			continue
		}
		if w.ChainId != 0 && chat.ChainId != w.ChainId {
			log.Printf("Watcher.Sync: chat %d is on chain %d, provider serves %d\n", chat.ChatId, chat.ChainId, w.ChainId)
			continue
		}
		key := watchKey(chat.ChainId, common.HexToAddress(chat.SafeAddress))
		wanted[key] = append(wanted[key], chat)
	}
	resolved := map[string]recovery.Params{}
	for key, chats := range wanted {
		params, err := w.params(ctx, chats[0].ChainId, common.HexToAddress(chats[0].SafeAddress), chats)
		if err != nil {
			log.Printf("Watcher.Sync: cannot resolve %s, keeping its current watch: %v\n", key, err)
			continue
		}
		resolved[key] = params
	}

	// 2.0 swap the watches
	var stopped []*watch
	w.mu.Lock()
	for key, existing := range w.watches {
		if _, ok := wanted[key]; !ok {
			log.Printf("Watcher.Sync: stop watching %s\n", key)
			stopped = append(stopped, existing)
			delete(w.watches, key)
		}
	}
	if w.ctx.Err() == nil {
		for key, params := range resolved {
			if existing, ok := w.watches[key]; ok {
				if sameAddresses(existing.controller.Params().DelayModifiers, params.DelayModifiers) {
					continue
				}
				log.Printf("Watcher.Sync: delay modifiers of %s changed, restarting\n", key)
				stopped = append(stopped, existing)
			}
			w.watches[key] = w.start(params)
			log.Printf("Watcher.Sync: watching %s with %d delay modifier(s)\n", key, len(params.DelayModifiers))
		}
	}
	w.mu.Unlock()

	// 3.0 stopping waits for in-flight notifications, so do it outside mu
	for _, existing := range stopped {
		existing.stop()
	}
}

// Controller returns the refresh controller of a watched Safe.
func (w *Watcher) Controller(chainId int64, safeAddress common.Address) (*recovery.Controller, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	existing, ok := w.watches[watchKey(chainId, safeAddress)]
	if !ok {
		return nil, false
	}
	return existing.controller, true
}

// Stop tears down every watch and waits for them to exit.
func (w *Watcher) Stop() {
	var stopped []*watch
	w.mu.Lock()
	for key, existing := range w.watches {
		stopped = append(stopped, existing)
		delete(w.watches, key)
	}
	w.mu.Unlock()
	for _, existing := range stopped {
		existing.stop()
	}
}

// params resolves the aggregation inputs of a Safe. Delay Modifiers pinned on
// any of its chats take precedence over the ones discovered from its modules.
func (w *Watcher) params(ctx context.Context, chainId int64, safeAddress common.Address, chats []models.Chat) (recovery.Params, error) {
	chainInfo, err := w.S.GetChainInfo(ctx, chainId)
	if err != nil {
		return recovery.Params{}, fmt.Errorf("chain info: %w", err)
	}
	safeInfo, err := w.S.GetSafeInfo(ctx, chainId, safeAddress)
	if err != nil {
		return recovery.Params{}, fmt.Errorf("safe info: %w", err)
	}

	var delayModifiers []common.Address
	for i := range chats {
		for _, modifier := range w.S.ChatDelayModifiers(&chats[i]) {
			if !slices.Contains(delayModifiers, modifier) {
				delayModifiers = append(delayModifiers, modifier)
			}
		}
	}
	if len(delayModifiers) == 0 {
		if delayModifiers, err = w.S.GetDelayModifiers(ctx, safeInfo); err != nil {
			return recovery.Params{}, fmt.Errorf("delay modifiers: %w", err)
		}
	}

	version := ""
	if safeInfo.Version != nil {
		version = *safeInfo.Version
	}
	return recovery.Params{
		DelayModifiers:     delayModifiers,
		Provider:           w.S.EthClient,
		SafeAddress:        safeAddress,
		ChainId:            chainId,
		Version:            version,
		TransactionService: chainInfo.TransactionService,
	}, nil
}

func (w *Watcher) start(params recovery.Params) *watch {
	ctx, cancel := context.WithCancel(w.ctx)
	poller := history.NewPoller(w.S.Client, w.S.CGWURL, params.ChainId, params.SafeAddress, w.PollInterval)
	controller := recovery.NewController(w.Fetcher, params, recovery.ControllerOptions{
		RefreshDelay: w.RefreshDelay,
		Events:       w.Events,
		History:      poller,
	})
	if w.Notification != nil {
		controller.OnUpdate(func(state recovery.State) {
			w.Notification.Notify(ctx, params.ChainId, params.SafeAddress, state)
		})
	}

	started := &watch{controller: controller, poller: poller, cancel: cancel}
	started.done.Add(2)
	go func() {
		defer started.done.Done()
		_ = poller.Run(ctx)
	}()
	go func() {
		defer started.done.Done()
		_ = controller.Run(ctx)
	}()
	return started
}

func (wt *watch) stop() {
	wt.cancel()
	wt.done.Wait()
}

func (w *Watcher) syncInterval() time.Duration {
	if w.SyncInterval > 0 {
		return w.SyncInterval
	}
	if w.RefreshDelay > 0 {
		return w.RefreshDelay
	}
	return recovery.DefaultRefreshDelay
}

func sameAddresses(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for _, address := range a {
		if !slices.Contains(b, address) {
			return false
		}
	}
	return true
}
