package contracts

import "embed"

//go:embed abis/*.json
var ABIs embed.FS

const (
	DelayABIPath     = "abis/delay.json"
	SafeABIPath      = "abis/safe.json"
	MultiSendABIPath = "abis/multisend.json"
)
