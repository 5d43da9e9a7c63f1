package handlers

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type ContractHandlers struct {
	DelayHandler     *DelayHandler
	SafeHandler      *SafeHandler
	MultiSendHandler *MultiSendHandler
}

func NewContractHandlers() *ContractHandlers {
	return &ContractHandlers{
		DelayHandler:     NewDelayHandler(),
		SafeHandler:      NewSafeHandler(),
		MultiSendHandler: NewMultiSendHandler(),
	}
}

// IsMaliciousRecovery reports whether a queued recovery proposal does anything
// other than manage the owners of safeAddress, either directly or via a batch
// delegatecalled into the official MultiSend deployment of chainId and version.
func (contractHandlers *ContractHandlers) IsMaliciousRecovery(chainId int64, version string, safeAddress common.Address, to common.Address, data []byte, operation uint8) bool {
	if operation == OperationCall {
		return !(to == safeAddress && contractHandlers.SafeHandler.IsOwnerManagement(data))
	}
	if !IsMultiSendDeployment(chainId, version, to) {
		return true
	}

	txs, err := contractHandlers.MultiSendHandler.DecodeMultiSend(data)
	if err != nil || len(txs) == 0 {
		return true
	}
	for _, tx := range txs {
		if tx.Operation != OperationCall || tx.To != safeAddress || !contractHandlers.SafeHandler.IsOwnerManagement(tx.Data) {
			return true
		}
	}
	return false
}

func bigInt(v int64) *big.Int {
	return big.NewInt(v)
}
