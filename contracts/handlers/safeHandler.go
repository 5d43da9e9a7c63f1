package handlers

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/voyage-finance/voyage-recovery/contracts"
	"golang.org/x/exp/slices"
)

// OwnerManagementMethods are the Safe methods a recovery proposal is expected to call.
var OwnerManagementMethods = []string{
	"addOwnerWithThreshold",
	"removeOwner",
	"swapOwner",
	"changeThreshold",
}

type SafeHandler struct {
	BaseHandler
}

func NewSafeHandler() *SafeHandler {
	return &SafeHandler{mustBaseHandler(contracts.SafeABIPath)}
}

func (safeHandler *SafeHandler) IsOwnerManagement(data []byte) bool {
	method, ok := safeHandler.MethodByCalldata(data)
	if !ok {
		return false
	}
	return slices.Contains(OwnerManagementMethods, method.Name)
}

func (safeHandler *SafeHandler) EncodeAddOwnerWithThreshold(owner common.Address, threshold int64) ([]byte, error) {
	return safeHandler.Pack("addOwnerWithThreshold", owner, bigInt(threshold))
}

func (safeHandler *SafeHandler) EncodeSwapOwner(prevOwner, oldOwner, newOwner common.Address) ([]byte, error) {
	return safeHandler.Pack("swapOwner", prevOwner, oldOwner, newOwner)
}
