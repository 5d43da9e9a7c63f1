package service

import (
	"context"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/voyage-finance/voyage-recovery/models"
	"github.com/voyage-finance/voyage-recovery/recovery"
)

// Sender delivers Telegram messages; *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notification announces recovery proposals to every chat watching their Safe.
// Each (chat, modifier, queue nonce, kind) is sent at most once.
type Notification struct {
	Bot     Sender
	S       *Service
	Pending *recovery.PendingStore
	Now     func() time.Time
}

var alertTitles = map[string]string{
	models.AlertProposed:   "🚨 *New recovery proposal*",
	models.AlertExecutable: "✅ *Recovery proposal is executable*",
	models.AlertExpired:    "⌛ *Recovery proposal expired*",
}

// Notify is registered as a controller observer and runs on every committed state.
func (n *Notification) Notify(ctx context.Context, chainId int64, safeAddress common.Address, state recovery.State) {
	chats := n.S.FindChatsBySafe(chainId, safeAddress)
	if len(chats) == 0 {
		return
	}
	now := n.now()
	var pending recovery.PendingSnapshot
	if n.Pending != nil {
		pending = n.Pending.Snapshot()
	}
	currency := n.S.NativeCurrency(ctx, chainId)

	for _, item := range state.Items() {
		txState := recovery.DeriveTxState(state, pending, item, now)
		for _, kind := range alertKinds(txState) {
			for i := range chats {
				chat := &chats[i]
				isNew, err := n.S.RecordAlert(chat.ChatId, item.Address, item.Args.QueueNonce, kind)
				if err != nil {
					log.Printf("Notification.Notify: record alert for chat %d failed: %v\n", chat.ChatId, err)
					continue
				}
				if !isNew {
					continue
				}
				text := alertTitles[kind] + "\n\n" + n.S.RecoveryItemMessage(1, item, txState, currency, now)
				msg := tgbotapi.NewMessage(chat.ChatId, text)
				msg.ParseMode = "Markdown"
				msg.DisableWebPagePreview = true
				msg.ReplyMarkup = GetSafeAppButtons(chat)
				if _, err := n.Bot.Send(msg); err != nil {
					log.Printf("Notification.Notify: send to chat %d failed: %v\n", chat.ChatId, err)
				}
			}
		}
	}
}

// alertKinds returns the alerts an item in txState warrants. An expired item
// is only announced as expired.
func alertKinds(txState recovery.TxState) []string {
	if txState.IsExpired {
		return []string{models.AlertExpired}
	}
	kinds := []string{models.AlertProposed}
	if txState.IsExecutable {
		kinds = append(kinds, models.AlertExecutable)
	}
	return kinds
}

func (n *Notification) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}
