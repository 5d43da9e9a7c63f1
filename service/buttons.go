package service

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/voyage-finance/voyage-recovery/models"
)

func GetHelperButtons() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛟 Recovery", "/recovery"),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", "/help"),
		),
	)
}

func GetSingleSetupButton() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Setup", "/setup"),
		),
	)
}

func GetSafeAppButtons(chat *models.Chat) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔐 Open Safe", SafeAppLink(chat)),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refetch", "/refetch"),
		),
	)
}
