package config

import (
	"net/url"
	"strings"
)

// Sanitize returns a copy of the config with secrets masked, for logging.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	sanitized.Bot.Admins = append([]int64(nil), cfg.Bot.Admins...)
	sanitized.Server.HTTP.MetricsAllow = append([]string(nil), cfg.Server.HTTP.MetricsAllow...)

	sanitized.Telegram.Token = maskSecret(cfg.Telegram.Token)
	sanitized.Telegram.WebhookSecret = maskSecret(cfg.Telegram.WebhookSecret)
	sanitized.Storage.Redis.Password = maskSecret(cfg.Storage.Redis.Password)
	sanitized.Storage.Mongo.URI = redactURI(cfg.Storage.Mongo.URI)

	return &sanitized
}

// maskSecret keeps two characters at each end of longer secrets.
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 4:
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// redactURI hides the password of a connection URI.
func redactURI(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return maskSecret(s)
	}
	if u.User == nil {
		return s
	}
	return u.Redacted()
}
