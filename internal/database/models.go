package database

import "time"

// ChatCredential is the stored configuration of one chat: the encrypted Wallu
// API key and who last changed it. There is at most one row per chat id.
type ChatCredential struct {
	ChatID          string    `db:"chat_id"`
	APIKeyEncrypted string    `db:"api_key_encrypted"`
	UpdatedByUserID string    `db:"updated_by_user_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}
