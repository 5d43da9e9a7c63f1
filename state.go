package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/voyage-finance/voyage-recovery/config"
	"github.com/voyage-finance/voyage-recovery/recovery"
	"github.com/voyage-finance/voyage-recovery/service"
)

var (
	stateSafe      string
	stateChainId   int64
	stateModifiers []string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Read the recovery queue of a Safe once and print it as JSON",
	Long: `Read every Delay Modifier of a Safe once and print its queue with the
execution status of each proposal.

Examples:
  voyage-recovery state --safe 0x... --chain-id 100
  voyage-recovery state --safe 0x... --modifiers 0xabc...,0xdef...`,
	RunE: runState,
}

func init() {
	stateCmd.Flags().StringVar(&stateSafe, "safe", "", "Safe address")
	stateCmd.Flags().Int64Var(&stateChainId, "chain-id", 0, "Chain id (defaults to CHAIN_ID)")
	stateCmd.Flags().StringSliceVar(&stateModifiers, "modifiers", nil, "Delay Modifiers to read instead of discovering them")
	_ = stateCmd.MarkFlagRequired("safe")
}

type stateItem struct {
	recovery.QueueItem
	State recovery.TxState `json:"state"`
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !common.IsHexAddress(stateSafe) {
		return fmt.Errorf("invalid safe address %q", stateSafe)
	}
	if stateChainId == 0 {
		stateChainId = cfg.ChainId
	}
	safeAddress := common.HexToAddress(stateSafe)
	ctx := cmd.Context()

	ethClient, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}
	defer ethClient.Close()
	s := service.NewService(nil, resty.New(), ethClient, cfg.CGWURL)
	s.CallTimeout = cfg.RPCTimeout

	chainInfo, err := s.GetChainInfo(ctx, stateChainId)
	if err != nil {
		return fmt.Errorf("chain info: %w", err)
	}
	safeInfo, err := s.GetSafeInfo(ctx, stateChainId, safeAddress)
	if err != nil {
		return fmt.Errorf("safe info: %w", err)
	}
	delayModifiers, err := parseAddresses(strings.Join(stateModifiers, " "))
	if err != nil {
		return err
	}
	if len(delayModifiers) == 0 {
		if delayModifiers, err = s.GetDelayModifiers(ctx, safeInfo); err != nil {
			return err
		}
	}
	version := ""
	if safeInfo.Version != nil {
		version = *safeInfo.Version
	}

	aggregator := recovery.NewAggregator(recovery.NewReader(s.Handlers, cfg.RPCTimeout))
	state, ok, err := aggregator.Aggregate(ctx, recovery.Params{
		DelayModifiers:     delayModifiers,
		Provider:           ethClient,
		SafeAddress:        safeAddress,
		ChainId:            stateChainId,
		Version:            version,
		TransactionService: chainInfo.TransactionService,
	}, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no Delay Modifier found on %s", safeAddress.Hex())
	}

	now := time.Now()
	items := []stateItem{}
	for _, item := range state.Items() {
		items = append(items, stateItem{QueueItem: item, State: recovery.DeriveTxState(state, nil, item, now)})
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"safeAddress": safeAddress,
		"chainId":     stateChainId,
		"modifiers":   state,
		"items":       items,
	})
}
