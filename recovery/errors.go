package recovery

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotExecutable = errors.New("recovery proposal is not executable")
	// ErrMaliciousRecovery refuses proposals that do more than manage the Safe's owners.
	ErrMaliciousRecovery = errors.New("recovery proposal is flagged as malicious")
)

// ProviderError is returned when the chain connection fails to answer a read.
type ProviderError struct {
	Modifier common.Address
	Method   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s on %s: %v", e.Method, e.Modifier.Hex(), e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ExecutionError is returned when dispatching a recovery execution fails or reverts.
type ExecutionError struct {
	Modifier common.Address
	TxHash   common.Hash
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.TxHash == (common.Hash{}) {
		return fmt.Sprintf("execution error on %s: %v", e.Modifier.Hex(), e.Err)
	}
	return fmt.Sprintf("execution error on %s (tx %s): %v", e.Modifier.Hex(), e.TxHash.Hex(), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
