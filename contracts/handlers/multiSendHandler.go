package handlers

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/voyage-finance/voyage-recovery/contracts"
)

const MultiSendMethod = "multiSend"

// operation(1) + to(20) + value(32) + dataLength(32)
const metaTransactionHeaderLength = 1 + common.AddressLength + 32 + 32

var ErrMalformedMultiSend = errors.New("malformed multiSend transactions")

type MultiSendHandler struct {
	BaseHandler
}

func NewMultiSendHandler() *MultiSendHandler {
	return &MultiSendHandler{mustBaseHandler(contracts.MultiSendABIPath)}
}

// EncodePacked concatenates the transactions the way MultiSend expects them,
// i.e. abi.encodePacked(operation, to, value, dataLength, data) per entry.
func (multiSendHandler *MultiSendHandler) EncodePacked(txs []MetaTransaction) []byte {
	var packed []byte
	for _, tx := range txs {
		value := tx.Value
		if value == nil {
			value = new(big.Int)
		}
		packed = append(packed, tx.Operation)
		packed = append(packed, tx.To.Bytes()...)
		packed = append(packed, math.U256Bytes(new(big.Int).Set(value))...)
		packed = append(packed, math.U256Bytes(big.NewInt(int64(len(tx.Data))))...)
		packed = append(packed, tx.Data...)
	}
	return packed
}

func (multiSendHandler *MultiSendHandler) DecodePacked(packed []byte) ([]MetaTransaction, error) {
	var txs []MetaTransaction
	for offset := 0; offset < len(packed); {
		if len(packed)-offset < metaTransactionHeaderLength {
			return nil, fmt.Errorf("%w: truncated header at %d", ErrMalformedMultiSend, offset)
		}
		tx := MetaTransaction{Operation: packed[offset]}
		offset++
		tx.To = common.BytesToAddress(packed[offset : offset+common.AddressLength])
		offset += common.AddressLength
		tx.Value = new(big.Int).SetBytes(packed[offset : offset+32])
		offset += 32
		dataLength := new(big.Int).SetBytes(packed[offset : offset+32])
		offset += 32
		if !dataLength.IsInt64() || dataLength.Int64() > int64(len(packed)-offset) {
			return nil, fmt.Errorf("%w: data length %s exceeds payload", ErrMalformedMultiSend, dataLength)
		}
		end := offset + int(dataLength.Int64())
		tx.Data = common.CopyBytes(packed[offset:end])
		offset = end
		txs = append(txs, tx)
	}
	return txs, nil
}

func (multiSendHandler *MultiSendHandler) EncodeMultiSend(txs []MetaTransaction) ([]byte, error) {
	return multiSendHandler.Pack(MultiSendMethod, multiSendHandler.EncodePacked(txs))
}

// DecodeMultiSend returns the batched transactions of a multiSend calldata blob.
func (multiSendHandler *MultiSendHandler) DecodeMultiSend(data []byte) ([]MetaTransaction, error) {
	method, ok := multiSendHandler.MethodByCalldata(data)
	if !ok || method.Name != MultiSendMethod {
		return nil, fmt.Errorf("%w: not a multiSend call", ErrMalformedMultiSend)
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMultiSend, err)
	}
	packed, ok := values[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected type %T", ErrMalformedMultiSend, values[0])
	}
	return multiSendHandler.DecodePacked(packed)
}
