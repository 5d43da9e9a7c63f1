package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/voyage-finance/voyage-recovery/config"
	"github.com/voyage-finance/voyage-recovery/service"
	"github.com/voyage-finance/voyage-recovery/service/one_time_scripts"
)

var pinModifiersCmd = &cobra.Command{
	Use:   "pin-modifiers",
	Short: "Pin the discovered Delay Modifiers on every chat that has none pinned",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := service.OpenDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		ethClient, err := ethclient.DialContext(cmd.Context(), cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
		}
		defer ethClient.Close()

		s := service.NewService(db, resty.New(), ethClient, cfg.CGWURL)
		s.CallTimeout = cfg.RPCTimeout
		pinned := one_time_scripts.PinDelayModifiersInAllChats(cmd.Context(), s)
		fmt.Printf("Pinned Delay Modifiers on %d chat(s)\n", pinned)
		return nil
	},
}
