package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/voyage-finance/voyage-recovery/models"
	"github.com/voyage-finance/voyage-recovery/recovery"
	common2 "github.com/voyage-finance/voyage-recovery/transaction/common"
)

var defaultNativeCurrency = common2.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18}

// NativeCurrency returns the native currency of chainId, falling back to ETH
// when the gateway cannot be reached.
func (s *Service) NativeCurrency(ctx context.Context, chainId int64) common2.NativeCurrency {
	chainInfo, err := s.GetChainInfo(ctx, chainId)
	if err != nil || chainInfo.NativeCurrency.Symbol == "" {
		if err != nil {
			log.Printf("Service.NativeCurrency: chain %d: %v\n", chainId, err)
		}
		return defaultNativeCurrency
	}
	return chainInfo.NativeCurrency
}

// RecoveryItemMessage describes one queued recovery proposal in Telegram Markdown.
func (s *Service) RecoveryItemMessage(counter int, item recovery.QueueItem, txState recovery.TxState, currency common2.NativeCurrency, now time.Time) string {
	line1 := fmt.Sprintf("%v) Recovery (nonce=`%v`) on `%s`:\n", counter, item.Args.QueueNonce, item.Address.Hex())
	line2 := fmt.Sprintf("\nTo: `%s`\nValue: %v `$%s`\n", item.Args.To.Hex(), s.FormatWei(item.Args.Value, currency.Decimals), escapeMarkdown(currency.Symbol))
	if len(item.Args.Data) == 0 {
		line2 += "Call data: unknown\n"
	}

	status := "\nStatus: "
	switch {
	case txState.IsExpired:
		status += "⌛ expired"
		if item.ExpiresAt != nil {
			status += " " + humanize.RelTime(time.Unix(*item.ExpiresAt, 0), now, "ago", "from now")
		}
	case txState.IsPending:
		status += "⏳ execution pending"
	case txState.IsExecutable:
		status += "✅ executable now"
		if item.ExpiresAt != nil {
			status += ", expires " + humanize.RelTime(time.Unix(*item.ExpiresAt, 0), now, "ago", "from now")
		}
	case !txState.IsNext:
		status += "🕒 waiting for earlier proposals"
	case item.ValidFrom != nil:
		status += "🕒 executable " + humanize.RelTime(now.Add(time.Duration(txState.RemainingSeconds)*time.Second), now, "ago", "from now")
	default:
		status += "🕒 waiting"
	}
	status += "\n"

	warning := ""
	if item.IsMalicious {
		warning = "\n⚠️ *This proposal does more than change the Safe owners. Review it before it becomes executable!*\n"
	}
	return line1 + line2 + status + warning
}

// RecoveryQueueMessage lists every queued recovery proposal of the chat's Safe.
func (s *Service) RecoveryQueueMessage(ctx context.Context, chat *models.Chat, state recovery.State, pending recovery.PendingSnapshot, now time.Time) string {
	currency := s.NativeCurrency(ctx, chat.ChainId)
	returnResponse := ""
	counter := 1
	for _, item := range state.Items() {
		txState := recovery.DeriveTxState(state, pending, item, now)
		returnResponse += s.RecoveryItemMessage(counter, item, txState, currency, now)
		returnResponse += "-----------------------------------------------\n"
		counter += 1
	}
	header := fmt.Sprintf("*Recovery Queue* (count=`%v`, modifiers=`%v`):\n\n", counter-1, len(state))
	if counter == 1 {
		return header + "No recovery proposals queued."
	}
	return header + returnResponse
}
