package common

import "strings"

// result type
const (
	ResultTypeTransaction    = "TRANSACTION"
	ResultTypeConflictHeader = "CONFLICT_HEADER"
	ResultTypeLabel          = "LABEL"
	ResultTypeDateLabel      = "DATE_LABEL"
)

// transaction info type
const (
	TransactionTypeTransfer       = "Transfer"
	TransactionTypeSettingsChange = "SettingsChange"
	TransactionTypeCustom         = "Custom"
	TransactionTypeCreation       = "Creation"
)

const MultiSendMethodName = "multiSend"

// TransactionPage is one page of the Safe Client Gateway transaction list.
type TransactionPage struct {
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []ListResult `json:"results"`
}

type ListResult struct {
	Type         string       `json:"type"`
	ConflictType string       `json:"conflictType,omitempty"`
	Timestamp    uint64       `json:"timestamp,omitempty"`
	Transaction  *Transaction `json:"transaction,omitempty"`
}

type AddressValue struct {
	Value string `json:"value"`
}

type AddressEx struct {
	Value   string `json:"value"`
	Name    string `json:"name"`
	LogoUri string `json:"logoUri"`
}

type ExecutionInfo struct {
	Type                   string `json:"type"`
	Nonce                  int64  `json:"nonce"`
	ConfirmationsRequired  uint64 `json:"confirmationsRequired"`
	ConfirmationsSubmitted uint64 `json:"confirmationsSubmitted"`
	// DetailedExecutionInfoType.MODULE
	Address AddressValue `json:"address"`
}

type TxInfo struct {
	Type      string       `json:"type"`
	Sender    AddressValue `json:"sender"`
	Recipient AddressValue `json:"recipient"`
	Direction string       `json:"direction"`

	// custom type
	To             AddressEx `json:"to"`
	DataSize       string    `json:"dataSize"`
	Value          string    `json:"value"`
	MethodName     *string   `json:"methodName"`
	ActionCount    *int      `json:"actionCount"`
	IsCancellation bool      `json:"isCancellation"`

	// settings change
	SettingsInfo *struct {
		Type      string `json:"type"`
		Threshold int    `json:"threshold"`
	} `json:"settingsInfo,omitempty"`
}

type Transaction struct {
	Id            string         `json:"id"`
	Timestamp     uint64         `json:"timestamp"`
	TxStatus      string         `json:"txStatus"`
	TxHash        string         `json:"txHash"`
	TxInfo        TxInfo         `json:"txInfo"`
	ExecutionInfo *ExecutionInfo `json:"executionInfo,omitempty"`
}

func IsTransactionListItem(result ListResult) bool {
	return result.Type == ResultTypeTransaction && result.Transaction != nil
}

func IsCustomTxInfo(txInfo TxInfo) bool {
	return txInfo.Type == TransactionTypeCustom
}

func IsMultiSendTxInfo(txInfo TxInfo) bool {
	return IsCustomTxInfo(txInfo) &&
		txInfo.MethodName != nil && *txInfo.MethodName == MultiSendMethodName &&
		txInfo.ActionCount != nil
}

// LatestTransaction returns the first transaction item of the page, which the
// gateway orders newest first.
func (p TransactionPage) LatestTransaction() (*Transaction, bool) {
	for _, result := range p.Results {
		if IsTransactionListItem(result) {
			return result.Transaction, true
		}
	}
	return nil, false
}

func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// SafeInfo is the Safe Client Gateway view of a Safe.
type SafeInfo struct {
	Address      AddressValue   `json:"address"`
	ChainId      string         `json:"chainId"`
	Nonce        int64          `json:"nonce"`
	Threshold    int64          `json:"threshold"`
	Owners       []AddressValue `json:"owners"`
	Modules      []AddressValue `json:"modules"`
	Version      *string        `json:"version"`
	TxQueuedTag  *string        `json:"txQueuedTag"`
	TxHistoryTag *string        `json:"txHistoryTag"`
}

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// ChainInfo is the Safe Client Gateway configuration of a chain.
type ChainInfo struct {
	ChainId            string         `json:"chainId"`
	ChainName          string         `json:"chainName"`
	ShortName          string         `json:"shortName"`
	TransactionService string         `json:"transactionService"`
	NativeCurrency     NativeCurrency `json:"nativeCurrency"`
}
