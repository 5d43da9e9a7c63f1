package handlers

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// transactionAddedLog builds the log a Delay Modifier emits when a transaction is queued.
func transactionAddedLog(h *DelayHandler, address common.Address, event TransactionAdded) (types.Log, error) {
	value := event.Value
	if value == nil {
		value = new(big.Int)
	}
	data := event.Data
	if data == nil {
		data = []byte{}
	}
	packed, err := h.ABI.Events[TransactionAddedEvent].Inputs.NonIndexed().Pack(event.To, value, data, event.Operation)
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
