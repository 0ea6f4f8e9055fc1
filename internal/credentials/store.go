// Package credentials implements the per-chat API key store: one encrypted
// Wallu API key per chat, upserted on setup and removed on confirmed removal.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/wallubot/wallu-telegram/internal/database"
	"github.com/wallubot/wallu-telegram/internal/secrets"
)

// Store encrypts API keys before they reach the database and decrypts them on read.
type Store struct {
	repo   database.Store
	cipher *secrets.Cipher
	logger *slog.Logger
	now    func() time.Time
}

// NewStore wires the repository and cipher together. A nil cipher means no
// encryption secret was configured, and the store refuses to start.
func NewStore(repo database.Store, cipher *secrets.Cipher, logger *slog.Logger) (*Store, error) {
	if cipher == nil {
		return nil, secrets.ErrMissingSecret
	}
	if repo == nil {
		return nil, errors.New("credential repository cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		repo:   repo,
		cipher: cipher,
		logger: logger.With("component", "credentials"),
		now:    time.Now,
	}, nil
}

// Save encrypts apiKey and upserts it for chatID, recording the acting user.
func (s *Store) Save(ctx context.Context, chatID int64, apiKey string, actingUserID int64) error {
	sealed, err := s.cipher.Encrypt(apiKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt api key for chat %d: %w", chatID, err)
	}

	err = s.repo.UpsertChatCredential(ctx, &database.ChatCredential{
		ChatID:          formatID(chatID),
		APIKeyEncrypted: sealed,
		UpdatedByUserID: formatID(actingUserID),
		UpdatedAt:       s.now().UTC(),
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Saved API key", "chat_id", chatID, "updated_by_user_id", actingUserID)
	return nil
}

// Get returns the decrypted key for chatID. A chat without a key yields
// found=false and a nil error. A key that no longer decrypts (for example after
// the encryption secret was rotated) returns an error wrapping
// secrets.ErrDecryptionFailed or secrets.ErrInvalidCiphertext.
func (s *Store) Get(ctx context.Context, chatID int64) (string, bool, error) {
	cred, err := s.repo.GetChatCredential(ctx, formatID(chatID))
	if err != nil {
		return "", false, err
	}
	if cred == nil {
		return "", false, nil
	}

	apiKey, err := s.cipher.Decrypt(cred.APIKeyEncrypted)
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored API key cannot be decrypted", "chat_id", chatID, "error", err)
		return "", false, fmt.Errorf("failed to decrypt api key for chat %d: %w", chatID, err)
	}
	return apiKey, true, nil
}

// Delete removes the key for chatID; a missing key is not an error.
func (s *Store) Delete(ctx context.Context, chatID int64) error {
	deleted, err := s.repo.DeleteChatCredential(ctx, formatID(chatID))
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Deleted API key", "chat_id", chatID, "existed", deleted)
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
