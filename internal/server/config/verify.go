package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yndnr/filegate/internal/core/domain"
)

// Verify validates the configuration. All problems are reported together
// as domain.ErrConfigInvalid.
func Verify(cfg *Config) error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	verifyTelegram(&cfg.Telegram, check)
	verifyBot(&cfg.Bot, check)

	check(cfg.Channels.DatabaseID != 0, "channels.database_id is required")
	check(cfg.Channels.ScratchChatID != 0, "channels.scratch_chat_id is required")
	check(cfg.Delivery.MaxBatch >= 1, "delivery.max_batch must be at least 1")

	verifyStorage(&cfg.Storage, check)

	check(cfg.Telegram.Mode != ModeWebhook || cfg.Server.HTTP.Addr != "",
		"server.http.addr is required in webhook mode")
	check((cfg.Server.HTTP.TLSCertFile == "") == (cfg.Server.HTTP.TLSKeyFile == ""),
		"server.http.tls_cert_file and server.http.tls_key_file must be set together")
	check(isLevel(cfg.Log.Level), "log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	check(cfg.Log.Format == "json" || cfg.Log.Format == "console",
		"log.format %q is not json or console", cfg.Log.Format)

	if len(problems) > 0 {
		return domain.ErrConfigInvalid.WithDetails(strings.Join(problems, "; "))
	}
	return nil
}

type checkFunc func(ok bool, format string, args ...any)

func verifyTelegram(cfg *TelegramSection, check checkFunc) {
	check(cfg.Token != "", "telegram.token is required")
	check(cfg.Workers >= 1, "telegram.workers must be at least 1")

	switch cfg.Mode {
	case ModePolling:
		check(cfg.PollTimeout >= 0, "telegram.poll_timeout must not be negative")
	case ModeWebhook:
		u, err := url.Parse(cfg.WebhookURL)
		check(err == nil && u.Scheme == "https" && u.Host != "",
			"telegram.webhook_url must be an https URL in webhook mode")
		check(strings.HasPrefix(cfg.WebhookPath, "/"), "telegram.webhook_path must start with /")
		check(cfg.WebhookSecret != "", "telegram.webhook_secret is required in webhook mode")
	default:
		check(false, "telegram.mode %q is not polling or webhook", cfg.Mode)
	}
}

func verifyBot(cfg *BotSection, check checkFunc) {
	check(cfg.TokenTTL > 0, "bot.token_ttl must be positive")
	if cfg.UnlockURL != "" {
		u, err := url.Parse(cfg.UnlockURL)
		check(err == nil && u.Scheme != "" && u.Host != "", "bot.unlock_url %q is not an absolute URL", cfg.UnlockURL)
	}
}

func verifyStorage(cfg *StorageSection, check checkFunc) {
	switch cfg.Driver {
	case DriverMemory:
	case DriverBadger:
		check(cfg.Badger.Dir != "", "storage.badger.dir is required")
	case DriverRedis:
		check(cfg.Redis.Addr != "", "storage.redis.addr is required")
	case DriverMongo:
		check(strings.HasPrefix(cfg.Mongo.URI, "mongodb://") || strings.HasPrefix(cfg.Mongo.URI, "mongodb+srv://"),
			"storage.mongo.uri must be a mongodb:// or mongodb+srv:// URI")
		check(cfg.Mongo.Database != "", "storage.mongo.database is required")
	default:
		check(false, "storage.driver %q is not one of memory, badger, redis, mongo", cfg.Driver)
	}
}

func isLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
