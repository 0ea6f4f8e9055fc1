package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertChatCredential inserts the row for cred.ChatID or replaces its key and
	// provenance. The original created_at is kept on replace.
	UpsertChatCredential(ctx context.Context, cred *ChatCredential) error

	// GetChatCredential returns the row for chatID, or nil, nil if there is none.
	GetChatCredential(ctx context.Context, chatID string) (*ChatCredential, error)

	// DeleteChatCredential removes the row for chatID. Deleting a missing row is not an error.
	DeleteChatCredential(ctx context.Context, chatID string) (bool, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) UpsertChatCredential(ctx context.Context, cred *ChatCredential) error {
	if cred == nil {
		return fmt.Errorf("cannot save nil chat credential")
	}
	if cred.ChatID == "" {
		return fmt.Errorf("chat credential must have a non-empty chat_id")
	}
	if cred.APIKeyEncrypted == "" {
		return fmt.Errorf("chat credential must have a non-empty api_key_encrypted")
	}

	now := time.Now().UTC()
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = now
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = cred.UpdatedAt
	}

	query := `
        INSERT INTO chat_configs (chat_id, api_key_encrypted, updated_by_user_id, created_at, updated_at)
        VALUES (:chat_id, :api_key_encrypted, :updated_by_user_id, :created_at, :updated_at)
        ON CONFLICT(chat_id) DO UPDATE SET
            api_key_encrypted  = excluded.api_key_encrypted,
            updated_by_user_id = excluded.updated_by_user_id,
            updated_at         = excluded.updated_at;
    `

	if _, err := s.db.NamedExecContext(ctx, query, cred); err != nil {
		s.logger.ErrorContext(ctx, "Error saving chat credential", "chat_id", cred.ChatID, "error", err)
		return fmt.Errorf("failed to save chat credential (chat %s): %w", cred.ChatID, err)
	}

	s.logger.DebugContext(ctx, "Chat credential saved", "chat_id", cred.ChatID, "updated_by_user_id", cred.UpdatedByUserID)
	return nil
}

func (s *sqlxStore) GetChatCredential(ctx context.Context, chatID string) (*ChatCredential, error) {
	if chatID == "" {
		return nil, fmt.Errorf("chat_id cannot be empty")
	}

	var cred ChatCredential
	query := `
        SELECT chat_id, api_key_encrypted, updated_by_user_id, created_at, updated_at
        FROM chat_configs
        WHERE chat_id = ?;
    `
	err := s.db.GetContext(ctx, &cred, query, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Error getting chat credential", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get chat credential (chat %s): %w", chatID, err)
	}
	return &cred, nil
}

func (s *sqlxStore) DeleteChatCredential(ctx context.Context, chatID string) (bool, error) {
	if chatID == "" {
		return false, fmt.Errorf("chat_id cannot be empty")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_configs WHERE chat_id = ?;`, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting chat credential", "chat_id", chatID, "error", err)
		return false, fmt.Errorf("failed to delete chat credential (chat %s): %w", chatID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not read affected rows after delete", "chat_id", chatID, "error", err)
		return false, nil
	}
	s.logger.DebugContext(ctx, "Chat credential delete executed", "chat_id", chatID, "deleted", affected > 0)
	return affected > 0, nil
}

// RunSQLMaintenance refreshes query planner statistics and compacts the file.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (optimize + VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		s.logger.WarnContext(ctx, "PRAGMA optimize failed", "error", err)
	}

	// VACUUM cannot run inside a transaction.
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "VACUUM failed", "error", err)
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
