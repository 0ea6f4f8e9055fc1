package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every failure returned by LoadConfig.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix prefixes environment overrides for non-secret keys, e.g. WALLU_DATABASE_PATH.
const EnvPrefix = "WALLU"

// LoadConfig loads configuration in order of increasing precedence:
//  1. defaults
//  2. the YAML file at path (optional; a missing file is not an error)
//  3. WALLU_* environment variables
//  4. TELEGRAM_BOT_TOKEN and ENCRYPTION_KEY
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets keep the names operators already use.
	if err := v.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN", EnvPrefix+"_TELEGRAM_TOKEN"); err != nil {
		return nil, fmt.Errorf("%w: failed to bind token env: %v", ErrConfiguration, err)
	}
	if err := v.BindEnv("security.encryption_key", "ENCRYPTION_KEY", EnvPrefix+"_SECURITY_ENCRYPTION_KEY"); err != nil {
		return nil, fmt.Errorf("%w: failed to bind encryption key env: %v", ErrConfiguration, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if len(cfg.Telegram.Commands) == 0 {
		cfg.Telegram.Commands = DefaultCommands
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	// Registered so AutomaticEnv can resolve them during Unmarshal.
	v.SetDefault("telegram.token", "")
	v.SetDefault("security.encryption_key", "")

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("wallu.base_url", DefaultWalluBaseURL)
	v.SetDefault("wallu.timeout", DefaultWalluTimeout)
	v.SetDefault("wallu.addon_name", DefaultWalluAddonName)
	v.SetDefault("wallu.addon_version", DefaultWalluAddonVersion)
	v.SetDefault("wallu.emoji_type", DefaultWalluEmojiType)
	v.SetDefault("wallu.include_sources", false)
	v.SetDefault("wallu.breaker_failures", DefaultBreakerFailures)
	v.SetDefault("wallu.breaker_cooldown", DefaultBreakerCooldown)

	v.SetDefault("setup.session_ttl", DefaultSetupSessionTTL)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	m := DefaultMessages
	for key, text := range map[string]string{
		"help":                   m.Help,
		"private_chat_name":      m.PrivateChatName,
		"channel_name_prefix":    m.ChannelNamePrefix,
		"setup_admin_only":       m.SetupAdminOnly,
		"setup_deep_link_prompt": m.SetupDeepLinkPrompt,
		"setup_deep_link_button": m.SetupDeepLinkButton,
		"setup_prompt_fmt":       m.SetupPromptFmt,
		"setup_cancel_button":    m.SetupCancelButton,
		"setup_cancelled":        m.SetupCancelled,
		"setup_success_fmt":      m.SetupSuccessFmt,
		"setup_failed":           m.SetupFailed,
		"setup_target_not_admin": m.SetupTargetNotAdmin,
		"setup_start_failed":     m.SetupStartFailed,
		"setup_invalid_link":     m.SetupInvalidLink,
		"status_admin_only":      m.StatusAdminOnly,
		"status_active":          m.StatusActive,
		"status_invalid":         m.StatusInvalid,
		"status_not_configured":  m.StatusNotConfigured,
		"remove_admin_only":      m.RemoveAdminOnly,
		"remove_prompt":          m.RemovePrompt,
		"remove_confirm_button":  m.RemoveConfirmButton,
		"remove_cancel_button":   m.RemoveCancelButton,
		"remove_success":         m.RemoveSuccess,
		"remove_failed":          m.RemoveFailed,
		"remove_cancelled":       m.RemoveCancelled,
		"relay_error":            m.RelayError,
		"credential_unreadable":  m.CredentialUnreadable,
	} {
		v.SetDefault("messages."+key, text)
	}
}
