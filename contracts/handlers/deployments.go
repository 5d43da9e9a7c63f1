package handlers

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/exp/slices"
)

const zkSyncChainId = 324

// canonical MultiSend and MultiSendCallOnly deployments per Safe version
var multiSendDeployments = map[string][]common.Address{
	"1.1.1": {
		common.HexToAddress("0x8D29bE29923b68abfDD21e541b9374737B49cdAD"),
	},
	"1.3.0": {
		common.HexToAddress("0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761"),
		common.HexToAddress("0x998739BFdAAdde7C933B942a68053933098f9EDa"),
		common.HexToAddress("0x40A2aCCbd92BCA938b02010E17A5b8929b49130D"),
		common.HexToAddress("0xA1dabEF33b3B82c7814B6D82A79e50F4AC44102B"),
	},
	"1.4.1": {
		common.HexToAddress("0x38869bf66a61cF6bDB996A6aE40D5853Fd43B526"),
		common.HexToAddress("0x9641d764fc13c8B624c04430C7356C1C7C8102e2"),
	},
}

// zkSync Era does not share the CREATE2 addresses of the other chains.
var zkSyncMultiSendDeployments = map[string][]common.Address{
	"1.3.0": {
		common.HexToAddress("0x0dFcccB95225ffB03c6FBB2559B530C2B7C8A912"),
		common.HexToAddress("0xf220D3b4DFb23C4ade8C88E526C1353AbAcbC38F"),
	},
}

// IsMultiSendDeployment reports whether address is an official MultiSend or
// MultiSendCallOnly deployment for the chain and Safe version. An unknown or
// empty version accepts the deployments of every known version.
func IsMultiSendDeployment(chainId int64, version string, address common.Address) bool {
	deployments := multiSendDeployments
	if chainId == zkSyncChainId {
		deployments = zkSyncMultiSendDeployments
	}

	// CGW reports L2 singletons as e.g. "1.3.0+L2"
	version, _, _ = strings.Cut(version, "+")
	if known, ok := deployments[version]; ok {
		return slices.Contains(known, address)
	}
	for _, known := range deployments {
		if slices.Contains(known, address) {
			return true
		}
	}
	return false
}
