package handlers

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/voyage-finance/voyage-recovery/contracts"
)

type BaseHandler struct {
	ABI abi.ABI
}

func NewBaseHandler(abiPath string) (*BaseHandler, error) {
	fileABI, err := contracts.ABIs.Open(abiPath)
	if err != nil {
		return nil, fmt.Errorf("open abi %s: %w", abiPath, err)
	}
	defer fileABI.Close()
	parsedABI, err := abi.JSON(fileABI)
	if err != nil {
		return nil, fmt.Errorf("parse abi %s: %w", abiPath, err)
	}
	return &BaseHandler{ABI: parsedABI}, nil
}

// mustBaseHandler is used for the embedded ABIs, which cannot fail to parse
// unless the binary was built from a broken tree.
func mustBaseHandler(abiPath string) BaseHandler {
	h, err := NewBaseHandler(abiPath)
	if err != nil {
		panic(err)
	}
	return *h
}

func (baseHandler *BaseHandler) Pack(functionName string, args ...interface{}) ([]byte, error) {
	encoded, err := baseHandler.ABI.Pack(functionName, args...)
	if err != nil {
		log.Println("BaseHandler.Pack error: " + err.Error())
		return nil, err
	}
	return encoded, nil
}

func (baseHandler *BaseHandler) Unpack(functionName string, data []byte) ([]interface{}, error) {
	values, err := baseHandler.ABI.Unpack(functionName, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", functionName, err)
	}
	return values, nil
}

// MethodByCalldata resolves the method a calldata blob targets by its 4-byte selector.
func (baseHandler *BaseHandler) MethodByCalldata(data []byte) (*abi.Method, bool) {
	if len(data) < 4 {
		return nil, false
	}
	method, err := baseHandler.ABI.MethodById(data[:4])
	if err != nil {
		return nil, false
	}
	return method, true
}
