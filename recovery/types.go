package recovery

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// QueueArgs are the TransactionAdded arguments of a queued proposal.
type QueueArgs struct {
	QueueNonce uint64         `json:"queueNonce"`
	TxHash     *common.Hash   `json:"txHash,omitempty"`
	To         common.Address `json:"to"`
	Value      *big.Int       `json:"value"`
	Data       hexutil.Bytes  `json:"data"`
	Operation  uint8          `json:"operation"`
}

// QueueItem is a recovery proposal queued on a Delay Modifier.
// ValidFrom and ExpiresAt are Unix seconds; a nil ExpiresAt never expires.
type QueueItem struct {
	Address         common.Address `json:"address"`
	TransactionHash common.Hash    `json:"transactionHash"`
	ValidFrom       *int64         `json:"validFrom"`
	ExpiresAt       *int64         `json:"expiresAt"`
	IsMalicious     bool           `json:"isMalicious"`
	Args            QueueArgs      `json:"args"`
}

// DelayModifier is a snapshot of one Delay Modifier contract.
type DelayModifier struct {
	Address    common.Address   `json:"address"`
	Recoverers []common.Address `json:"recoverers"`
	Cooldown   uint64           `json:"delay"`
	Expiration uint64           `json:"expiry"`
	TxNonce    uint64           `json:"txNonce"`
	QueueNonce uint64           `json:"queueNonce"`
	Queue      []QueueItem      `json:"queue"`
}

// State holds one DelayModifier snapshot per configured modifier, in configuration order.
// A State is replaced wholesale on every refresh and never mutated.
type State []DelayModifier

func (s State) Modifier(address common.Address) (DelayModifier, bool) {
	for _, m := range s {
		if m.Address == address {
			return m, true
		}
	}
	return DelayModifier{}, false
}

// Items flattens every queue of the state, modifier by modifier.
func (s State) Items() []QueueItem {
	var items []QueueItem
	for _, m := range s {
		items = append(items, m.Queue...)
	}
	return items
}
