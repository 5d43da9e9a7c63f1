package handlers

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/voyage-finance/voyage-recovery/contracts"
)

const TransactionAddedEvent = "TransactionAdded"

// SentinelModules is the linked-list head used by Zodiac modifiers for module pagination.
var SentinelModules = common.HexToAddress("0x0000000000000000000000000000000000000001")

type DelayHandler struct {
	BaseHandler
}

func NewDelayHandler() *DelayHandler {
	return &DelayHandler{mustBaseHandler(contracts.DelayABIPath)}
}

func (delayHandler *DelayHandler) UnpackBigInt(methodName string, data []byte) (*big.Int, error) {
	values, err := delayHandler.Unpack(methodName, data)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: expected 1 value, got %d", methodName, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected type %T", methodName, values[0])
	}
	return value, nil
}

func (delayHandler *DelayHandler) UnpackHash(methodName string, data []byte) (common.Hash, error) {
	values, err := delayHandler.Unpack(methodName, data)
	if err != nil {
		return common.Hash{}, err
	}
	if len(values) != 1 {
		return common.Hash{}, fmt.Errorf("unpack %s: expected 1 value, got %d", methodName, len(values))
	}
	value, ok := values[0].([32]byte)
	if !ok {
		return common.Hash{}, fmt.Errorf("unpack %s: unexpected type %T", methodName, values[0])
	}
	return common.Hash(value), nil
}

func (delayHandler *DelayHandler) UnpackModulesPaginated(data []byte) ([]common.Address, common.Address, error) {
	values, err := delayHandler.Unpack("getModulesPaginated", data)
	if err != nil {
		return nil, common.Address{}, err
	}
	if len(values) != 2 {
		return nil, common.Address{}, fmt.Errorf("unpack getModulesPaginated: expected 2 values, got %d", len(values))
	}
	modules, ok := values[0].([]common.Address)
	if !ok {
		return nil, common.Address{}, fmt.Errorf("unpack getModulesPaginated: unexpected type %T", values[0])
	}
	next, ok := values[1].(common.Address)
	if !ok {
		return nil, common.Address{}, fmt.Errorf("unpack getModulesPaginated: unexpected type %T", values[1])
	}
	return modules, next, nil
}

func (delayHandler *DelayHandler) EncodeExecuteNextTx(to common.Address, value *big.Int, data []byte, operation uint8) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	if data == nil {
		data = []byte{}
	}
	return delayHandler.Pack("executeNextTx", to, value, data, operation)
}

func (delayHandler *DelayHandler) TransactionAddedTopic() common.Hash {
	return delayHandler.ABI.Events[TransactionAddedEvent].ID
}

func (delayHandler *DelayHandler) ParseTransactionAdded(l types.Log) (*TransactionAdded, error) {
	if len(l.Topics) != 3 || l.Topics[0] != delayHandler.TransactionAddedTopic() {
		return nil, errors.New("not a TransactionAdded log")
	}
	values, err := delayHandler.Unpack(TransactionAddedEvent, l.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("unpack %s: expected 4 values, got %d", TransactionAddedEvent, len(values))
	}
	event := &TransactionAdded{
		QueueNonce:      new(big.Int).SetBytes(l.Topics[1].Bytes()),
		TxHash:          l.Topics[2],
		TransactionHash: l.TxHash,
		BlockNumber:     l.BlockNumber,
	}
	var ok bool
	if event.To, ok = values[0].(common.Address); !ok {
		return nil, fmt.Errorf("TransactionAdded.to: unexpected type %T", values[0])
	}
	if event.Value, ok = values[1].(*big.Int); !ok {
		return nil, fmt.Errorf("TransactionAdded.value: unexpected type %T", values[1])
	}
	if event.Data, ok = values[2].([]byte); !ok {
		return nil, fmt.Errorf("TransactionAdded.data: unexpected type %T", values[2])
	}
	if event.Operation, ok = values[3].(uint8); !ok {
		return nil, fmt.Errorf("TransactionAdded.operation: unexpected type %T", values[3])
	}
	return event, nil
}
