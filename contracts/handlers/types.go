package handlers

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Operation types of a Safe/Zodiac module transaction.
const (
	OperationCall         uint8 = 0
	OperationDelegateCall uint8 = 1
)

// MetaTransaction is a single call as packed into a MultiSend batch.
type MetaTransaction struct {
	Operation uint8
	To        common.Address
	Value     *big.Int
	Data      []byte
}

// TransactionAdded is a decoded Delay Modifier TransactionAdded log.
type TransactionAdded struct {
	QueueNonce      *big.Int
	TxHash          common.Hash
	To              common.Address
	Value           *big.Int
	Data            []byte
	Operation       uint8
	TransactionHash common.Hash
	BlockNumber     uint64
}
