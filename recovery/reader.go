package recovery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/voyage-finance/voyage-recovery/contracts/handlers"
)

const (
	DefaultCallTimeout = 15 * time.Second

	modulesPageSize = 100
	maxModulePages  = 10
)

// Provider is the read-only chain connection the Reader needs.
// *ethclient.Client satisfies it.
type Provider interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Reader reads the queue of a single Delay Modifier.
type Reader struct {
	handlers *handlers.ContractHandlers
	timeout  time.Duration
}

func NewReader(contractHandlers *handlers.ContractHandlers, timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Reader{handlers: contractHandlers, timeout: timeout}
}

// Read returns a snapshot of the modifier, walking its queue from txNonce up to queueNonce.
// The Safe of params is the one queued proposals are checked against.
func (r *Reader) Read(ctx context.Context, params Params, modifier common.Address) (DelayModifier, error) {
	provider := params.Provider
	txNonce, err := r.uint(ctx, provider, modifier, "txNonce")
	if err != nil {
		return DelayModifier{}, err
	}
	queueNonce, err := r.uint(ctx, provider, modifier, "queueNonce")
	if err != nil {
		return DelayModifier{}, err
	}
	cooldown, err := r.uint(ctx, provider, modifier, "txCooldown")
	if err != nil {
		return DelayModifier{}, err
	}
	expiration, err := r.uint(ctx, provider, modifier, "txExpiration")
	if err != nil {
		return DelayModifier{}, err
	}
	recoverers, err := r.recoverers(ctx, provider, modifier)
	if err != nil {
		return DelayModifier{}, err
	}

	snapshot := DelayModifier{
		Address:    modifier,
		Recoverers: recoverers,
		Cooldown:   cooldown,
		Expiration: expiration,
		TxNonce:    txNonce,
		QueueNonce: queueNonce,
		Queue:      []QueueItem{},
	}
	if queueNonce <= txNonce {
		return snapshot, nil
	}

	added, err := r.transactionsAdded(ctx, provider, modifier, txNonce, queueNonce)
	if err != nil {
		return DelayModifier{}, err
	}

	for nonce := txNonce; nonce < queueNonce; nonce++ {
		item, err := r.queueItem(ctx, params, snapshot, nonce, added[nonce])
		if err != nil {
			return DelayModifier{}, err
		}
		snapshot.Queue = append(snapshot.Queue, item)
	}
	return snapshot, nil
}

func (r *Reader) queueItem(ctx context.Context, params Params, snapshot DelayModifier, nonce uint64, event *handlers.TransactionAdded) (QueueItem, error) {
	provider := params.Provider
	out, err := r.call(ctx, provider, snapshot.Address, "txHash", new(big.Int).SetUint64(nonce))
	if err != nil {
		return QueueItem{}, err
	}
	txHash, err := r.handlers.DelayHandler.UnpackHash("txHash", out)
	if err != nil {
		return QueueItem{}, &ProviderError{Modifier: snapshot.Address, Method: "txHash", Err: err}
	}
	createdAt, err := r.uint(ctx, provider, snapshot.Address, "txCreatedAt", new(big.Int).SetUint64(nonce))
	if err != nil {
		return QueueItem{}, err
	}

	validFrom := int64(createdAt + snapshot.Cooldown)
	item := QueueItem{
		Address:   snapshot.Address,
		ValidFrom: &validFrom,
		Args: QueueArgs{
			QueueNonce: nonce,
			TxHash:     &txHash,
			Value:      new(big.Int),
		},
	}
	if snapshot.Expiration > 0 {
		expiresAt := validFrom + int64(snapshot.Expiration)
		item.ExpiresAt = &expiresAt
	}
	if event != nil {
		item.TransactionHash = event.TransactionHash
		item.Args.To = event.To
		item.Args.Value = event.Value
		item.Args.Data = event.Data
		item.Args.Operation = event.Operation
	}
	item.IsMalicious = r.handlers.IsMaliciousRecovery(params.ChainId, params.Version, params.SafeAddress, item.Args.To, item.Args.Data, item.Args.Operation)
	return item, nil
}

// transactionsAdded indexes the TransactionAdded logs of the pending nonces by queue nonce.
func (r *Reader) transactionsAdded(ctx context.Context, provider Provider, modifier common.Address, from, to uint64) (map[uint64]*handlers.TransactionAdded, error) {
	var nonces []common.Hash
	for nonce := from; nonce < to; nonce++ {
		nonces = append(nonces, common.BigToHash(new(big.Int).SetUint64(nonce)))
	}
	query := ethereum.FilterQuery{
		Addresses: []common.Address{modifier},
		Topics:    [][]common.Hash{{r.handlers.DelayHandler.TransactionAddedTopic()}, nonces},
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	logs, err := provider.FilterLogs(callCtx, query)
	if err != nil {
		return nil, &ProviderError{Modifier: modifier, Method: handlers.TransactionAddedEvent, Err: err}
	}

	added := make(map[uint64]*handlers.TransactionAdded, len(logs))
	for _, l := range logs {
		event, err := r.handlers.DelayHandler.ParseTransactionAdded(l)
		if err != nil {
			return nil, &ProviderError{Modifier: modifier, Method: handlers.TransactionAddedEvent, Err: err}
		}
		if !event.QueueNonce.IsUint64() {
			continue
		}
		// a later log for the same nonce can only come from a reorg; keep the latest
		added[event.QueueNonce.Uint64()] = event
	}
	return added, nil
}

func (r *Reader) recoverers(ctx context.Context, provider Provider, modifier common.Address) ([]common.Address, error) {
	var recoverers []common.Address
	start := handlers.SentinelModules
	for page := 0; page < maxModulePages; page++ {
		out, err := r.call(ctx, provider, modifier, "getModulesPaginated", start, big.NewInt(modulesPageSize))
		if err != nil {
			return nil, err
		}
		modules, next, err := r.handlers.DelayHandler.UnpackModulesPaginated(out)
		if err != nil {
			return nil, &ProviderError{Modifier: modifier, Method: "getModulesPaginated", Err: err}
		}
		recoverers = append(recoverers, modules...)
		if next == handlers.SentinelModules || next == (common.Address{}) || len(modules) == 0 {
			break
		}
		start = next
	}
	return recoverers, nil
}

func (r *Reader) uint(ctx context.Context, provider Provider, modifier common.Address, method string, args ...interface{}) (uint64, error) {
	out, err := r.call(ctx, provider, modifier, method, args...)
	if err != nil {
		return 0, err
	}
	value, err := r.handlers.DelayHandler.UnpackBigInt(method, out)
	if err != nil {
		return 0, &ProviderError{Modifier: modifier, Method: method, Err: err}
	}
	if !value.IsUint64() {
		return 0, &ProviderError{Modifier: modifier, Method: method, Err: fmt.Errorf("value %s overflows uint64", value)}
	}
	return value.Uint64(), nil
}

func (r *Reader) call(ctx context.Context, provider Provider, modifier common.Address, method string, args ...interface{}) ([]byte, error) {
	input, err := r.handlers.DelayHandler.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	to := modifier
	out, err := provider.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, &ProviderError{Modifier: modifier, Method: method, Err: err}
	}
	return out, nil
}
