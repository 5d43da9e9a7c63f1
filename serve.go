package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"github.com/voyage-finance/voyage-recovery/config"
	"github.com/voyage-finance/voyage-recovery/http_server"
	"github.com/voyage-finance/voyage-recovery/http_server/controllers"
	"github.com/voyage-finance/voyage-recovery/recovery"
	"github.com/voyage-finance/voyage-recovery/service"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot, the recovery watcher and the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := service.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	ethClient, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}
	defer ethClient.Close()

	s := service.NewService(db, resty.New(), ethClient, cfg.CGWURL)
	s.CallTimeout = cfg.RPCTimeout
	events := recovery.NewEventBus()
	pending := recovery.NewPendingStore()
	aggregator := recovery.NewAggregator(recovery.NewReader(s.Handlers, cfg.RPCTimeout))

	var bot *tgbotapi.BotAPI
	var notification *service.Notification
	if cfg.BotAPIKey != "" {
		bot, err = tgbotapi.NewBotAPI(cfg.BotAPIKey)
		if err != nil {
			return fmt.Errorf("telegram bot: %w", err)
		}
		log.Printf("Authorized on account %s", bot.Self.UserName)
		notification = &service.Notification{Bot: bot, S: s, Pending: pending}
	} else {
		log.Println("BOT_API_KEY not set, running without Telegram")
	}

	watcher := &service.Watcher{
		S:            s,
		ChainId:      cfg.ChainId,
		Fetcher:      aggregator,
		Events:       events,
		Notification: notification,
		RefreshDelay: cfg.RefreshDelay,
		PollInterval: cfg.PollInterval,
	}

	deps := controllers.RecoveryDeps{Controllers: watcher, Pending: pending, APIToken: cfg.HTTPAPIToken}
	if cfg.RecovererPrivateKey != "" {
		if cfg.HTTPAPIToken == "" {
			log.Println("HTTP_API_TOKEN not set, POST /recovery/execute stays disabled")
		}
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.RecovererPrivateKey, "0x"))
		if err != nil {
			return fmt.Errorf("RECOVERER_PRIVATE_KEY: %w", err)
		}
		deps.Executor = newExecutor(ethClient, key, cfg.ChainId, s, pending, events)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		watcher.Start(ctx)
		<-ctx.Done()
		watcher.Stop()
		return nil
	})
	g.Go(func() error {
		return http_server.HandleRequests(ctx, cfg.HTTPServerPort, http_server.NewRouter(deps))
	})
	if bot != nil {
		handler := &commandHandler{S: s, Watcher: watcher, Pending: pending}
		g.Go(func() error {
			return runBot(ctx, bot, handler)
		})
	}
	return g.Wait()
}

func newExecutor(backend service.ExecutionBackend, key *ecdsa.PrivateKey, chainId int64, s *service.Service, pending *recovery.PendingStore, events *recovery.EventBus) *service.Executor {
	executor := &service.Executor{
		Backend:  backend,
		Key:      key,
		ChainId:  big.NewInt(chainId),
		Pending:  pending,
		Events:   events,
		Handlers: s.Handlers,
	}
	log.Printf("Recoverer %s can execute recoveries on chain %d\n", executor.Address().Hex(), chainId)
	return executor
}

func runBot(ctx context.Context, bot *tgbotapi.BotAPI, handler *commandHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil { // ignore non-Message updates
				continue
			}
			msg := handler.Handle(ctx, update.Message)
			if _, err := bot.Send(msg); err != nil {
				log.Printf("runBot: send to chat %d failed: %v\n", update.Message.Chat.ID, err)
			}
		}
	}
}
