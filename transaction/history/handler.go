package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	common2 "github.com/voyage-finance/voyage-recovery/transaction/common"
)

const (
	DefaultPollInterval = 30 * time.Second
	maxRetries          = 3
)

// Poller watches the txHistoryTag of a Safe and, whenever it changes,
// publishes the newest transaction history page to its subscribers.
type Poller struct {
	client   *resty.Client
	baseURL  string
	chainId  int64
	safe     common.Address
	interval time.Duration

	mu          sync.Mutex
	subscribers map[int]func(common2.TransactionPage)
	nextId      int
	lastTag     *string
}

func NewPoller(client *resty.Client, baseURL string, chainId int64, safe common.Address, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		client:      client,
		baseURL:     strings.TrimRight(baseURL, "/"),
		chainId:     chainId,
		safe:        safe,
		interval:    interval,
		subscribers: map[int]func(common2.TransactionPage){},
	}
}

func (p *Poller) Subscribe(fn func(page common2.TransactionPage)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextId
	p.nextId++
	p.subscribers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}
}

// Run polls until ctx is done. Poll errors are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Poller.Run: history poll of %s failed: %v\n", p.safe.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll publishes the history page if the Safe's txHistoryTag changed since the last poll.
func (p *Poller) Poll(ctx context.Context) (bool, error) {
	var safeInfo common2.SafeInfo
	r := fmt.Sprintf("%s/v1/chains/%v/safes/%v", p.baseURL, p.chainId, p.safe.Hex())
	if err := p.get(ctx, r, &safeInfo); err != nil {
		return false, err
	}

	p.mu.Lock()
	unchanged := p.lastTag != nil && safeInfo.TxHistoryTag != nil && *p.lastTag == *safeInfo.TxHistoryTag
	p.mu.Unlock()
	if unchanged {
		return false, nil
	}

	var page common2.TransactionPage
	r = fmt.Sprintf("%s/v1/chains/%v/safes/%v/transactions/history", p.baseURL, p.chainId, p.safe.Hex())
	if err := p.get(ctx, r, &page); err != nil {
		return false, err
	}

	p.mu.Lock()
	p.lastTag = safeInfo.TxHistoryTag
	subscribers := make([]func(common2.TransactionPage), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subscribers = append(subscribers, fn)
	}
	p.mu.Unlock()

	for _, fn := range subscribers {
		fn(page)
	}
	return true, nil
}

func (p *Poller) get(ctx context.Context, url string, out interface{}) error {
	operation := func() error {
		resp, err := p.client.R().SetContext(ctx).EnableTrace().Get(url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			err := fmt.Errorf("GET %s: %s", url, resp.Status())
			if resp.StatusCode() < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", url, err))
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.Retry(operation, policy)
}
