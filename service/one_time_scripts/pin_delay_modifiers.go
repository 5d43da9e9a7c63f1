package one_time_scripts

import (
	"context"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/voyage-finance/voyage-recovery/models"
	"github.com/voyage-finance/voyage-recovery/service"
)

// PinChatDelayModifiers stores the Delay Modifiers discovered on the chat's Safe,
// so later module changes do not silently change what the chat is watching.
// Chats that already pin modifiers are left alone.
func PinChatDelayModifiers(ctx context.Context, s *service.Service, chat models.Chat) (int, error) {
	if len(s.ChatDelayModifiers(&chat)) > 0 || !common.IsHexAddress(chat.SafeAddress) {
		return 0, nil
	}
	safeInfo, err := s.GetSafeInfo(ctx, chat.ChainId, common.HexToAddress(chat.SafeAddress))
	if err != nil {
		return 0, err
	}
	delayModifiers, err := s.GetDelayModifiers(ctx, safeInfo)
	if err != nil {
		return 0, err
	}
	if len(delayModifiers) == 0 {
		return 0, nil
	}
	if msg := s.SetDelayModifiers(chat.ChatId, delayModifiers); msg != "" {
		log.Printf("PinChatDelayModifiers: chat %d: %s\n", chat.ChatId, msg)
		return 0, nil
	}
	return len(delayModifiers), nil
}

// PinDelayModifiersInAllChats returns how many chats got modifiers pinned.
func PinDelayModifiersInAllChats(ctx context.Context, s *service.Service) int {
	pinned := 0
	for _, chat := range s.FindAllChats() {
		n, err := PinChatDelayModifiers(ctx, s, chat)
		if err != nil {
			log.Printf("PinDelayModifiersInAllChats: chat %d: %v\n", chat.ChatId, err)
			continue
		}
		if n > 0 {
			pinned++
		}
	}
	return pinned
}
