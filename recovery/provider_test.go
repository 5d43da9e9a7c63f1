package recovery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"github.com/voyage-finance/voyage-recovery/contracts/handlers"
	"golang.org/x/exp/slices"
)

var testHandlers = handlers.NewContractHandlers()

type fakeQueued struct {
	createdAt uint64
	txHash    common.Hash
	to        common.Address
	data      []byte
	operation uint8
	// unlogged items have no TransactionAdded log
	unlogged bool
}

type fakeModifier struct {
	txNonce    uint64
	cooldown   uint64
	expiration uint64
	recoverers []common.Address
	queue      []fakeQueued // queue[i] has nonce txNonce+i
}

// fakeProvider answers Delay Modifier calls from in-memory modifiers.
type fakeProvider struct {
	mu        sync.Mutex
	modifiers map[common.Address]*fakeModifier
	failing   map[common.Address]error
	// block, when set, holds every call until it is closed or the call's context ends
	block chan struct{}
	calls atomic.Int64
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		modifiers: map[common.Address]*fakeModifier{},
		failing:   map[common.Address]error{},
	}
}

func (p *fakeProvider) set(address common.Address, m *fakeModifier) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modifiers[address] = m
}

func (p *fakeProvider) fail(address common.Address, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failing, address)
		return
	}
	p.failing[address] = err
}

func (p *fakeProvider) lookup(address common.Address) (*fakeModifier, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failing[address]; err != nil {
		return nil, err
	}
	m, ok := p.modifiers[address]
	if !ok {
		return nil, fmt.Errorf("execution reverted: no contract at %s", address.Hex())
	}
	return m, nil
}

func (p *fakeProvider) wait(ctx context.Context) error {
	p.calls.Add(1)
	p.mu.Lock()
	block := p.block
	p.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakeProvider) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	m, err := p.lookup(*call.To)
	if err != nil {
		return nil, err
	}
	method, err := testHandlers.DelayHandler.ABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	u := func(v uint64) *big.Int { return new(big.Int).SetUint64(v) }
	queued := func() (fakeQueued, error) {
		nonce := args[0].(*big.Int).Uint64()
		if nonce < m.txNonce || nonce >= m.txNonce+uint64(len(m.queue)) {
			return fakeQueued{}, nil
		}
		return m.queue[nonce-m.txNonce], nil
	}

	switch method.Name {
	case "txNonce":
		return method.Outputs.Pack(u(m.txNonce))
	case "queueNonce":
		return method.Outputs.Pack(u(m.txNonce + uint64(len(m.queue))))
	case "txCooldown":
		return method.Outputs.Pack(u(m.cooldown))
	case "txExpiration":
		return method.Outputs.Pack(u(m.expiration))
	case "txCreatedAt":
		q, err := queued()
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(u(q.createdAt))
	case "txHash":
		q, err := queued()
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack([32]byte(q.txHash))
	case "getModulesPaginated":
		return method.Outputs.Pack(m.recoverers, handlers.SentinelModules)
	}
	return nil, errors.New("unsupported method " + method.Name)
}

func (p *fakeProvider) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	var logs []types.Log
	for _, address := range q.Addresses {
		m, err := p.lookup(address)
		if err != nil {
			return nil, err
		}
		for i, queued := range m.queue {
			if queued.unlogged {
				continue
			}
			nonce := m.txNonce + uint64(i)
			if len(q.Topics) > 1 && !slices.Contains(q.Topics[1], common.BigToHash(new(big.Int).SetUint64(nonce))) {
				continue
			}
			l, err := transactionAddedLog(address, handlers.TransactionAdded{
				QueueNonce:      new(big.Int).SetUint64(nonce),
				TxHash:          queued.txHash,
				To:              queued.to,
				Value:           big.NewInt(0),
				Data:            queued.data,
				Operation:       queued.operation,
				TransactionHash: common.BigToHash(new(big.Int).SetUint64(1000 + nonce)),
			})
			if err != nil {
				return nil, err
			}
			logs = append(logs, l)
		}
	}
	return logs, nil
}

var (
	testSafe      = common.HexToAddress("0x5afe000000000000000000000000000000005afe")
	testRecoverer = common.HexToAddress("0x0000000000000000000000000000000000000e0e")
)

// ownerSwap is calldata of a legitimate recovery proposal.
func ownerSwap(t *testing.T) []byte {
	data, err := testHandlers.SafeHandler.EncodeSwapOwner(
		handlers.SentinelModules,
		common.HexToAddress("0x0000000000000000000000000000000000000111"),
		common.HexToAddress("0x0000000000000000000000000000000000000222"),
	)
	require.NoError(t, err)
	return data
}

// transactionAddedLog builds the log a Delay Modifier emits when a transaction is queued.
func transactionAddedLog(address common.Address, event handlers.TransactionAdded) (types.Log, error) {
	h := testHandlers.DelayHandler
	data := event.Data
	if data == nil {
		data = []byte{}
	}
	packed, err := h.ABI.Events[handlers.TransactionAddedEvent].Inputs.NonIndexed().Pack(event.To, event.Value, data, event.Operation)
	if err != nil {
		return types.Log{}, err
	}
	return types.Log{
		Address:     address,
		Topics:      []common.Hash{h.TransactionAddedTopic(), common.BigToHash(event.QueueNonce), event.TxHash},
		Data:        packed,
		TxHash:      event.TransactionHash,
		BlockNumber: event.BlockNumber,
	}, nil
}
