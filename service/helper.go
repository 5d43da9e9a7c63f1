package service

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/voyage-finance/voyage-recovery/models"
)

func GetNavigationInstruction(s *Service, chatId int64, msg *tgbotapi.MessageConfig) {
	chat := s.QueryChat(chatId)
	if chat.SafeAddress == "" {
		msg.Text = "Please /setup Safe address in the chat (*only admin is allowed*)"
		msg.ReplyMarkup = GetSingleSetupButton()
		return
	}
	msg.Text = "Use /recovery to see the recovery queue of your Safe"
	msg.ReplyMarkup = GetSafeAppButtons(chat)
}

// FormatWei renders a base-unit amount with the given decimals, e.g. wei as ETH.
func (s *Service) FormatWei(value *big.Int, decimals int32) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -decimals).String()
}

func SafeAppLink(chat *models.Chat) string {
	return fmt.Sprintf("https://app.safe.global/home?safe=%s:%s", chat.Chain, common.HexToAddress(chat.SafeAddress))
}

// escapeMarkdown escapes the characters Telegram's legacy Markdown treats as entities.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")
	return replacer.Replace(text)
}
