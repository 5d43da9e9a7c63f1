package service

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/voyage-finance/voyage-recovery/models"
	"gorm.io/gorm/clause"
)

func (s *Service) SetupChat(id int64, title string) {
	log.Printf("SetupChat id: %d, title: %s\n", id, title)
	var chat models.Chat
	s.DB.First(&chat, "chat_id = ?", id)
	if !chat.Init {
		log.Println("start creating chat...")
		s.DB.Create(&models.Chat{ChatId: id, Title: title, Init: true})
	}
}

// AddSafeWallet binds the chat to a Safe given as [chain short name, address].
func (s *Service) AddSafeWallet(id int64, addr []string) string {
	log.Printf("AddSafeWallet id: %d, address: %s\n", id, addr)
	if len(addr) != 2 || !common.IsHexAddress(addr[1]) {
		return "Wrong format"
	}
	var chat models.Chat
	s.DB.First(&chat, "chat_id = ?", id)
	if !chat.Init {
		return "Please init first"
	}
	chain := strings.ToLower(addr[0])
	if _, ok := ChainIds[chain]; !ok {
		return fmt.Sprintf("Unsupported chain %s", addr[0])
	}
	s.DB.Model(&chat).Where("chat_id = ?", id).Updates(map[string]interface{}{
		"safe_address":    common.HexToAddress(addr[1]).Hex(),
		"chain":           chain,
		"chain_id":        s.GetChainId(chain),
		"delay_modifiers": "",
	})
	return ""
}

// SetDelayModifiers pins the Delay Modifiers of the chat's Safe instead of discovering them.
func (s *Service) SetDelayModifiers(id int64, delayModifiers []common.Address) string {
	log.Printf("SetDelayModifiers id: %d, modifiers: %v\n", id, delayModifiers)
	var chat models.Chat
	s.DB.First(&chat, "chat_id = ?", id)
	if !chat.Init {
		return "Please init first"
	}
	value := ""
	if len(delayModifiers) > 0 {
		encoded, err := json.Marshal(delayModifiers)
		if err != nil {
			return "Marshal delay modifiers failed"
		}
		value = string(encoded)
	}
	s.DB.Model(&chat).Where("chat_id = ?", id).Update("delay_modifiers", value)
	return ""
}

func (s *Service) ChatDelayModifiers(chat *models.Chat) []common.Address {
	var delayModifiers []common.Address
	if chat.DelayModifiers == "" {
		return delayModifiers
	}
	if err := json.Unmarshal([]byte(chat.DelayModifiers), &delayModifiers); err != nil {
		log.Printf("Cannot get delay modifiers of chat %d: %s\n", chat.ChatId, err.Error())
		return nil
	}
	return delayModifiers
}

func (s *Service) QueryChat(id int64) *models.Chat {
	var chat models.Chat
	s.DB.First(&chat, "chat_id = ?", id)
	return &chat
}

// FindAllChats returns every chat bound to a Safe.
func (s *Service) FindAllChats() []models.Chat {
	var chats []models.Chat
	s.DB.Where("safe_address <> ?", "").Find(&chats)
	return chats
}

func (s *Service) FindChatsBySafe(chainId int64, safeAddress common.Address) []models.Chat {
	var chats []models.Chat
	s.DB.Where("chain_id = ? AND safe_address = ?", chainId, safeAddress.Hex()).Find(&chats)
	return chats
}

// RecordAlert stores the alert and reports whether it is new.
func (s *Service) RecordAlert(chatId int64, modifier common.Address, queueNonce uint64, kind string) (bool, error) {
	alert := models.RecoveryAlert{ChatID: chatId, Modifier: modifier.Hex(), QueueNonce: queueNonce, Kind: kind}
	result := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
