package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultDBPath = "data/wallu_telegram.db"

	DefaultWalluBaseURL      = "https://api.wallubot.com/v1"
	DefaultWalluTimeout      = 60 * time.Second
	DefaultWalluAddonName    = "wallu-telegram"
	DefaultWalluAddonVersion = "1.0.0"
	DefaultWalluEmojiType    = "unicode"

	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = 30 * time.Second

	DefaultSetupSessionTTL = 30 * time.Minute
)

// Scheduled task names.
const (
	TaskSQLMaintenance = "sql_maintenance"
	TaskSessionSweep   = "setup_session_sweep"
)

// DefaultMessages are the built-in user-facing texts.
var DefaultMessages = MessagesConfig{
	Help:                "👋 Hi! I'm Wallu, the chatbot for support. This is the telegram addon for Wallu.\n🌐 Website: https://wallubot.com\n\nHow to setup:\n1. Create a new API key here: https://panel.wallubot.com/addons\n2. Use /wallu_setup to configure the bot (admin only)",
	PrivateChatName:     "this private chat",
	ChannelNamePrefix:   "Telegram: ",
	SetupAdminOnly:      "Only administrators can configure the bot.",
	SetupDeepLinkPrompt: "Please click the button below to configure the bot in a private chat:",
	SetupDeepLinkButton: "Click to set Wallu API key (opens a private chat)",
	SetupPromptFmt:      "Please enter your Wallu API key to be used in %s.\nYou can create a new API key here: https://panel.wallubot.com/addons",
	SetupCancelButton:   "Cancel",
	SetupCancelled:      "Setup cancelled.",
	SetupSuccessFmt:     "Wallu has been successfully configured for %s! ✅",
	SetupFailed:         "Failed to save API key. Possibly invalid API key. Please try again.",
	SetupTargetNotAdmin: "You need to be an administrator in the target chat to configure the bot.",
	SetupStartFailed:    "Failed to start setup. Please make sure I am a member of the target chat and try again.",
	SetupInvalidLink:    "This setup link is not valid. Use /wallu_setup in the chat you want to configure.",
	StatusAdminOnly:     "Only administrators can check the status.",
	StatusActive:        "✅ Bot is configured and active for this chat.\n\nUse /wallu_setup to change configuration\nUse /wallu_remove to remove configuration",
	StatusInvalid:       "❌ Bot has invalid Wallu API Key.\n\nAdministrators can use /wallu_setup to set a new API key.",
	StatusNotConfigured: "❌ Bot is not configured.\n\nAdministrators can use /wallu_setup to configure the bot.",
	RemoveAdminOnly:     "Only administrators can remove the configuration.",
	RemovePrompt:        "Are you sure you want to remove the bot's configuration for this chat?",
	RemoveConfirmButton: "Yes, remove configuration",
	RemoveCancelButton:  "Cancel",
	RemoveSuccess:       "✅ Configuration has been removed successfully.",
	RemoveFailed:        "❌ Failed to remove configuration. Please try again later.",
	RemoveCancelled:     "Configuration removal has been cancelled.",
	RelayError:          "Error processing message. Please check the API key configuration.",
	CredentialUnreadable: "❌ The stored Wallu API key can no longer be read.\n\n" +
		"Administrators can use /wallu_setup to set it again.",
}

// DefaultCommands is the command menu registered with Telegram at startup.
var DefaultCommands = []CommandConfig{
	{Command: "wallu_help", Description: "Help for the bot"},
	{Command: "wallu_setup", Description: "Configure the bot (admin only)"},
	{Command: "wallu_status", Description: "Check bot status (admin only)"},
	{Command: "wallu_remove", Description: "Remove configuration (admin only)"},
}

// DefaultTasks are the scheduled tasks enabled out of the box.
var DefaultTasks = map[string]TaskConfig{
	TaskSQLMaintenance: {Enabled: true, Schedule: "0 0 4 * * *"},
	TaskSessionSweep:   {Enabled: true, Schedule: "0 */5 * * * *"},
}
