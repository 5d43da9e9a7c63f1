package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/voyage-finance/voyage-recovery/recovery"
	"github.com/voyage-finance/voyage-recovery/service"
	"golang.org/x/exp/slices"
)

const helpText = `Commands:
	/setup chain:address: bind a Safe to this chat, e.g. /setup gno:0x...
	/modifiers [address ...]: pin the Delay Modifiers to watch, no address to discover them
	/this: show the watched Safe
	/recovery: show the recovery queue
	/refetch: read the recovery queue again
`

// commandHandler answers the bot commands of a chat.
type commandHandler struct {
	S       *service.Service
	Watcher *service.Watcher
	Pending *recovery.PendingStore
	Now     func() time.Time
}

func (h *commandHandler) Handle(ctx context.Context, message *tgbotapi.Message) tgbotapi.MessageConfig {
	chatId := message.Chat.ID
	msg := tgbotapi.NewMessage(chatId, "")

	// Extract the command from the Message.
	switch message.Command() {
	case "help", "start":
		msg.Text = helpText
		msg.ReplyMarkup = service.GetHelperButtons()
	case "setup":
		args := strings.TrimSpace(message.CommandArguments())
		chainAndAddr := strings.Split(args, ":")
		if len(chainAndAddr) != 2 {
			msg.Text = "Wrong format, use /setup chain:address"
			return msg
		}
		h.S.SetupChat(chatId, message.Chat.Title)
		if ret := h.S.AddSafeWallet(chatId, chainAndAddr); ret != "" {
			msg.Text = ret
			return msg
		}
		h.Watcher.Sync(ctx)
		msg.Text = fmt.Sprintf("Added safe wallet, address: %s", args)
	case "modifiers":
		delayModifiers, err := parseAddresses(message.CommandArguments())
		if err != nil {
			msg.Text = err.Error()
			return msg
		}
		if ret := h.S.SetDelayModifiers(chatId, delayModifiers); ret != "" {
			msg.Text = ret
			return msg
		}
		h.Watcher.Sync(ctx)
		if len(delayModifiers) == 0 {
			msg.Text = "Delay Modifiers will be discovered from the Safe modules"
		} else {
			msg.Text = fmt.Sprintf("Watching %d Delay Modifier(s)", len(delayModifiers))
		}
	case "this":
		chat := h.S.QueryChat(chatId)
		if chat.SafeAddress == "" {
			service.GetNavigationInstruction(h.S, chatId, &msg)
			return msg
		}
		msg.Text = fmt.Sprintf("🔓 *Safe address*\n`%s:%s`\n", chat.Chain, chat.SafeAddress)
		if controller, ok := h.controller(chat.ChainId, chat.SafeAddress); ok {
			msg.Text += "\n🛟 *Delay Modifiers*\n"
			for i, modifier := range controller.Params().DelayModifiers {
				msg.Text += fmt.Sprintf("%d. `%s`\n", i+1, modifier.Hex())
			}
		}
		msg.ParseMode = "Markdown"
		msg.ReplyMarkup = service.GetSafeAppButtons(chat)
	case "recovery":
		chat := h.S.QueryChat(chatId)
		if chat.SafeAddress == "" {
			service.GetNavigationInstruction(h.S, chatId, &msg)
			return msg
		}
		controller, ok := h.controller(chat.ChainId, chat.SafeAddress)
		if !ok {
			msg.Text = "This Safe is not watched yet, check its Delay Modifiers with /modifiers"
			return msg
		}
		state, loaded := controller.State()
		if !loaded {
			msg.Text = "Recovery state is not loaded yet, try again shortly"
			return msg
		}
		var pending recovery.PendingSnapshot
		if h.Pending != nil {
			pending = h.Pending.Snapshot()
		}
		msg.Text = h.S.RecoveryQueueMessage(ctx, chat, state, pending, h.now())
		msg.ParseMode = "Markdown"
		msg.DisableWebPagePreview = true
		msg.ReplyMarkup = service.GetSafeAppButtons(chat)
	case "refetch":
		chat := h.S.QueryChat(chatId)
		controller, ok := h.controller(chat.ChainId, chat.SafeAddress)
		if !ok {
			service.GetNavigationInstruction(h.S, chatId, &msg)
			return msg
		}
		controller.Refetch()
		msg.Text = "Refetching the recovery queue..."
	default:
		msg.Text = "I don't know that command"
	}
	return msg
}

func (h *commandHandler) controller(chainId int64, safeAddress string) (*recovery.Controller, bool) {
	if h.Watcher == nil || !common.IsHexAddress(safeAddress) {
		return nil, false
	}
	return h.Watcher.Controller(chainId, common.HexToAddress(safeAddress))
}

func (h *commandHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// parseAddresses splits a space or comma separated address list.
func parseAddresses(args string) ([]common.Address, error) {
	var addresses []common.Address
	for _, field := range strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' }) {
		if !common.IsHexAddress(field) {
			return nil, fmt.Errorf("wrong address %s", field)
		}
		address := common.HexToAddress(field)
		if !slices.Contains(addresses, address) {
			addresses = append(addresses, address)
		}
	}
	return addresses, nil
}
