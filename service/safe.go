package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/voyage-finance/voyage-recovery/recovery"
	common2 "github.com/voyage-finance/voyage-recovery/transaction/common"
)

// chain short names, as used in Safe app links (eth:0x...)
var ChainIds = map[string]int64{
	"eth":   1,
	"oeth":  10,
	"bnb":   56,
	"gno":   100,
	"matic": 137,
	"base":  8453,
	"arb1":  42161,
	"sep":   11155111,
}

func (s *Service) GetChainId(chain string) int64 {
	chainId, ok := ChainIds[strings.ToLower(chain)]
	if !ok {
		return 1
	}
	return chainId
}

func (s *Service) get(ctx context.Context, r string, out interface{}) error {
	resp, err := s.Client.R().SetContext(ctx).EnableTrace().Get(r)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: %s", r, resp.Status())
	}
	return json.Unmarshal(resp.Body(), out)
}

// GetChainInfo returns the gateway configuration of a chain. Chain configs
// rarely change, so they are cached for the life of the process.
func (s *Service) GetChainInfo(ctx context.Context, chainId int64) (common2.ChainInfo, error) {
	if chainInfo, ok := s.chains.Get(chainId); ok {
		return chainInfo, nil
	}
	var chainInfo common2.ChainInfo
	r := fmt.Sprintf("%s/v1/chains/%v", s.CGWURL, chainId)
	if err := s.get(ctx, r, &chainInfo); err != nil {
		return common2.ChainInfo{}, err
	}
	s.chains.Add(chainId, chainInfo)
	return chainInfo, nil
}

func (s *Service) GetSafeInfo(ctx context.Context, chainId int64, safeAddress common.Address) (common2.SafeInfo, error) {
	var safeInfo common2.SafeInfo
	r := fmt.Sprintf("%s/v1/chains/%v/safes/%v", s.CGWURL, chainId, safeAddress.Hex())
	if err := s.get(ctx, r, &safeInfo); err != nil {
		return common2.SafeInfo{}, err
	}
	return safeInfo, nil
}

// GetDelayModifiers returns the modules of the Safe that answer txCooldown(),
// i.e. the Delay Modifiers enabled on it. It fails when a module could not be
// checked, so a flaky provider never shrinks the list.
func (s *Service) GetDelayModifiers(ctx context.Context, safeInfo common2.SafeInfo) ([]common.Address, error) {
	var delayModifiers []common.Address
	for _, module := range safeInfo.Modules {
		if !common.IsHexAddress(module.Value) {
			continue
		}
		address := common.HexToAddress(module.Value)
		isDelayModifier, err := s.IsDelayModifier(ctx, address)
		if err != nil {
			return nil, err
		}
		if isDelayModifier {
			delayModifiers = append(delayModifiers, address)
		}
	}
	return delayModifiers, nil
}

// IsDelayModifier calls txCooldown() on address. A node that answers with a
// JSON-RPC error (typically a revert) means it is not a Delay Modifier; any
// other failure is returned.
func (s *Service) IsDelayModifier(ctx context.Context, address common.Address) (bool, error) {
	input, err := s.Handlers.DelayHandler.Pack("txCooldown")
	if err != nil {
		return false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	out, err := s.EthClient.CallContract(callCtx, ethereum.CallMsg{To: &address, Data: input}, nil)
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		log.Printf("Service.IsDelayModifier: %s is not a delay modifier: %v\n", address.Hex(), err)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("txCooldown on %s: %w", address.Hex(), err)
	}
	_, err = s.Handlers.DelayHandler.UnpackBigInt("txCooldown", out)
	return err == nil, nil
}

func (s *Service) callTimeout() time.Duration {
	if s.CallTimeout > 0 {
		return s.CallTimeout
	}
	return recovery.DefaultCallTimeout
}
