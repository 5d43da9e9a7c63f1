package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/voyage-finance/voyage-recovery/contracts/handlers"
	"github.com/voyage-finance/voyage-recovery/recovery"
)

const DefaultConfirmTimeout = 10 * time.Minute

var errReverted = errors.New("transaction reverted")

// ExecutionBackend is what the Executor needs from the chain; *ethclient.Client implements it.
type ExecutionBackend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Executor dispatches executeNextTx for the head proposal of a Delay Modifier
// with the Recoverer key, and tracks it as pending until it is mined.
type Executor struct {
	Backend        ExecutionBackend
	Key            *ecdsa.PrivateKey
	ChainId        *big.Int
	Pending        *recovery.PendingStore
	Events         *recovery.EventBus
	Handlers       *handlers.ContractHandlers
	ConfirmTimeout time.Duration
	Now            func() time.Time
}

func (e *Executor) Address() common.Address {
	return crypto.PubkeyToAddress(e.Key.PublicKey)
}

// Execute sends the execution of item and returns once it is broadcast.
// Proposals flagged malicious are refused unless allowMalicious is set.
// Confirmation is awaited in the background: EventProcessed or EventReverted
// is published and the pending entry cleared when it is mined.
func (e *Executor) Execute(ctx context.Context, state recovery.State, item recovery.QueueItem, allowMalicious bool) (*types.Transaction, error) {
	if item.Args.TxHash == nil {
		return nil, &recovery.ExecutionError{Modifier: item.Address, Err: recovery.ErrNotExecutable}
	}
	recoveryTxHash := *item.Args.TxHash
	if item.IsMalicious && !allowMalicious {
		return nil, &recovery.ExecutionError{Modifier: item.Address, Err: recovery.ErrMaliciousRecovery}
	}

	txState := recovery.DeriveTxState(state, e.Pending.Snapshot(), item, e.now())
	if !txState.IsExecutable {
		return nil, &recovery.ExecutionError{Modifier: item.Address, Err: recovery.ErrNotExecutable}
	}

	calldata, err := e.Handlers.DelayHandler.EncodeExecuteNextTx(item.Args.To, item.Args.Value, item.Args.Data, item.Args.Operation)
	if err != nil {
		return nil, &recovery.ExecutionError{Modifier: item.Address, Err: err}
	}
	opts, err := bind.NewKeyedTransactorWithChainID(e.Key, e.ChainId)
	if err != nil {
		return nil, &recovery.ExecutionError{Modifier: item.Address, Err: err}
	}
	opts.Context = ctx

	// 1.0 reserve the proposal before any network call so a concurrent Execute backs off
	if !e.Pending.TrySet(recoveryTxHash) {
		return nil, &recovery.ExecutionError{Modifier: item.Address, Err: recovery.ErrNotExecutable}
	}

	// 2.0 estimate, sign and broadcast
	contract := bind.NewBoundContract(item.Address, e.Handlers.DelayHandler.ABI, e.Backend, e.Backend, e.Backend)
	tx, err := contract.RawTransact(opts, calldata)
	if err != nil {
		recovery.IncrementExecution("failed")
		e.Pending.Clear(recoveryTxHash)
		e.Events.Publish(recovery.EventFailed, recovery.EventPayload{Modifier: item.Address, RecoveryTxHash: recoveryTxHash, Err: err})
		return nil, &recovery.ExecutionError{Modifier: item.Address, Err: err}
	}

	// 3.0 confirm in the background
	log.Printf("Executor.Execute: sent %s for recovery %s on %s\n", tx.Hash().Hex(), recoveryTxHash.Hex(), item.Address.Hex())
	e.Events.Publish(recovery.EventProcessing, recovery.EventPayload{Modifier: item.Address, RecoveryTxHash: recoveryTxHash, TxHash: tx.Hash()})

	confirmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.confirmTimeout())
	go func() {
		defer cancel()
		e.confirm(confirmCtx, tx, item.Address, recoveryTxHash)
	}()
	return tx, nil
}

func (e *Executor) confirm(ctx context.Context, tx *types.Transaction, modifier common.Address, recoveryTxHash common.Hash) {
	defer e.Pending.Clear(recoveryTxHash)
	payload := recovery.EventPayload{Modifier: modifier, RecoveryTxHash: recoveryTxHash, TxHash: tx.Hash()}

	receipt, err := bind.WaitMined(ctx, e.Backend, tx)
	if err != nil {
		recovery.IncrementExecution("failed")
		payload.Err = &recovery.ExecutionError{Modifier: modifier, TxHash: tx.Hash(), Err: fmt.Errorf("wait mined: %w", err)}
		e.Events.Publish(recovery.EventFailed, payload)
		return
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		recovery.IncrementExecution("reverted")
		payload.Err = &recovery.ExecutionError{Modifier: modifier, TxHash: tx.Hash(), Err: errReverted}
		e.Events.Publish(recovery.EventReverted, payload)
		return
	}
	recovery.IncrementExecution("processed")
	// clear before publishing so a refresh triggered by the event sees it settled
	e.Pending.Clear(recoveryTxHash)
	e.Events.Publish(recovery.EventProcessed, payload)
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Executor) confirmTimeout() time.Duration {
	if e.ConfirmTimeout > 0 {
		return e.ConfirmTimeout
	}
	return DefaultConfirmTimeout
}
