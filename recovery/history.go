package recovery

import (
	"github.com/ethereum/go-ethereum/common"
	txcommon "github.com/voyage-finance/voyage-recovery/transaction/common"
	"golang.org/x/exp/slices"
)

// HistorySource streams newly polled transaction history pages.
type HistorySource interface {
	Subscribe(fn func(page txcommon.TransactionPage)) (unsubscribe func())
}

// ShouldRefetch reports whether the latest transaction of page may have
// changed a Delay Modifier: a direct call to one of modifiers, or any
// MultiSend, since modifier settings changes are batched into one.
// MultiSends are not decoded, so this over-triggers rather than misses.
func ShouldRefetch(page txcommon.TransactionPage, modifiers []common.Address) bool {
	latest, ok := page.LatestTransaction()
	if !ok {
		return false
	}
	txInfo := latest.TxInfo

	isDelayModifierTx := txcommon.IsCustomTxInfo(txInfo) && slices.IndexFunc(modifiers, func(m common.Address) bool {
		return txcommon.SameAddress(txInfo.To.Value, m.Hex())
	}) >= 0

	return isDelayModifierTx || txcommon.IsMultiSendTxInfo(txInfo)
}
