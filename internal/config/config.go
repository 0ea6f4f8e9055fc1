// Package config manages application configuration from environment variables,
// an optional config file, and default values.
package config

import "time"

// Config defines the application configuration. Secrets come from the
// environment (TELEGRAM_BOT_TOKEN, ENCRYPTION_KEY); every other value can be set
// in config.yaml or through WALLU_<SECTION>_<KEY> variables.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Security  SecurityConfig  `mapstructure:"security"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Wallu     WalluConfig     `mapstructure:"wallu"`
	Setup     SetupConfig     `mapstructure:"setup"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the command menu.
type TelegramConfig struct {
	Token    string          `mapstructure:"token"    validate:"required"`
	Commands []CommandConfig `mapstructure:"commands" validate:"dive"`
}

// CommandConfig is one entry of the bot command menu.
type CommandConfig struct {
	Command     string `mapstructure:"command"     validate:"required"`
	Description string `mapstructure:"description" validate:"required"`
}

// SecurityConfig holds the process-wide secret used to encrypt API keys at rest.
type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key" validate:"required"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// WalluConfig configures the upstream Wallu API client.
type WalluConfig struct {
	BaseURL        string        `mapstructure:"base_url"        validate:"required,url"`
	Timeout        time.Duration `mapstructure:"timeout"         validate:"min=1s,max=5m"`
	AddonName      string        `mapstructure:"addon_name"      validate:"required"`
	AddonVersion   string        `mapstructure:"addon_version"   validate:"required"`
	EmojiType      string        `mapstructure:"emoji_type"      validate:"required"`
	IncludeSources bool          `mapstructure:"include_sources"`

	// BreakerFailures consecutive upstream failures open the circuit for BreakerCooldown.
	BreakerFailures int           `mapstructure:"breaker_failures" validate:"min=1"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" validate:"min=1s"`
}

// SetupConfig configures the interactive API key setup flow.
type SetupConfig struct {
	// SessionTTL bounds how long an unanswered setup prompt stays active.
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"min=1m"`
}

// SchedulerConfig lists scheduled tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule (seconds field included).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds every user-facing text. Fields ending in Fmt take one %s.
type MessagesConfig struct {
	Help                 string `mapstructure:"help"                     validate:"required"`
	PrivateChatName      string `mapstructure:"private_chat_name"        validate:"required"`
	ChannelNamePrefix    string `mapstructure:"channel_name_prefix"      validate:"required"`
	SetupAdminOnly       string `mapstructure:"setup_admin_only"         validate:"required"`
	SetupDeepLinkPrompt  string `mapstructure:"setup_deep_link_prompt"   validate:"required"`
	SetupDeepLinkButton  string `mapstructure:"setup_deep_link_button"   validate:"required"`
	SetupPromptFmt       string `mapstructure:"setup_prompt_fmt"         validate:"required"`
	SetupCancelButton    string `mapstructure:"setup_cancel_button"      validate:"required"`
	SetupCancelled       string `mapstructure:"setup_cancelled"          validate:"required"`
	SetupSuccessFmt      string `mapstructure:"setup_success_fmt"        validate:"required"`
	SetupFailed          string `mapstructure:"setup_failed"             validate:"required"`
	SetupTargetNotAdmin  string `mapstructure:"setup_target_not_admin"   validate:"required"`
	SetupStartFailed     string `mapstructure:"setup_start_failed"       validate:"required"`
	SetupInvalidLink     string `mapstructure:"setup_invalid_link"       validate:"required"`
	StatusAdminOnly      string `mapstructure:"status_admin_only"        validate:"required"`
	StatusActive         string `mapstructure:"status_active"            validate:"required"`
	StatusInvalid        string `mapstructure:"status_invalid"           validate:"required"`
	StatusNotConfigured  string `mapstructure:"status_not_configured"    validate:"required"`
	RemoveAdminOnly      string `mapstructure:"remove_admin_only"        validate:"required"`
	RemovePrompt         string `mapstructure:"remove_prompt"            validate:"required"`
	RemoveConfirmButton  string `mapstructure:"remove_confirm_button"    validate:"required"`
	RemoveCancelButton   string `mapstructure:"remove_cancel_button"     validate:"required"`
	RemoveSuccess        string `mapstructure:"remove_success"           validate:"required"`
	RemoveFailed         string `mapstructure:"remove_failed"            validate:"required"`
	RemoveCancelled      string `mapstructure:"remove_cancelled"         validate:"required"`
	RelayError           string `mapstructure:"relay_error"              validate:"required"`
	CredentialUnreadable string `mapstructure:"credential_unreadable"    validate:"required"`
}
