package models

import "gorm.io/gorm"

type Chat struct {
	ChatId         int64  `gorm:"primaryKey;unique:true;not_null:true"`
	Title          string `json:"title"`
	Chain          string `json:"chain"`
	ChainId        int64  `json:"chain_id"`
	SafeAddress    string `json:"safe_address"`
	Init           bool   `json:"init"`
	DelayModifiers string `json:"delay_modifiers"`
}

// RecoveryAlert records that a chat was told about a recovery proposal, so
// every (modifier, queue nonce, kind) is announced at most once per chat.
type RecoveryAlert struct {
	gorm.Model
	ChatID     int64  `gorm:"uniqueIndex:idx_recovery_alert"`
	Modifier   string `gorm:"uniqueIndex:idx_recovery_alert"`
	QueueNonce uint64 `gorm:"uniqueIndex:idx_recovery_alert"`
	Kind       string `gorm:"uniqueIndex:idx_recovery_alert"`
}

// alert kinds
const (
	AlertProposed   = "proposed"
	AlertExecutable = "executable"
	AlertExpired    = "expired"
)
