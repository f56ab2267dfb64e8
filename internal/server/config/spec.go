package config

import "time"

// Config is the root configuration of the filegate bot.
type Config struct {
	Telegram  TelegramSection  `koanf:"telegram" yaml:"telegram"`
	Bot       BotSection       `koanf:"bot" yaml:"bot"`
	Channels  ChannelsSection  `koanf:"channels" yaml:"channels"`
	Delivery  DeliverySection  `koanf:"delivery" yaml:"delivery"`
	Broadcast BroadcastSection `koanf:"broadcast" yaml:"broadcast"`
	Storage   StorageSection   `koanf:"storage" yaml:"storage"`
	Server    ServerSection    `koanf:"server" yaml:"server"`
	Log       LogSection       `koanf:"log" yaml:"log"`
}

// Update modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// TelegramSection configures the Bot API connection.
type TelegramSection struct {
	Token       string `koanf:"token" yaml:"token"`
	APIEndpoint string `koanf:"api_endpoint" yaml:"api_endpoint"`

	// CAFile adds trusted roots for a self-hosted Bot API server.
	CAFile string `koanf:"ca_file" yaml:"ca_file"`

	// Mode is polling or webhook.
	Mode          string        `koanf:"mode" yaml:"mode"`
	PollTimeout   time.Duration `koanf:"poll_timeout" yaml:"poll_timeout"`
	WebhookURL    string        `koanf:"webhook_url" yaml:"webhook_url"`
	WebhookPath   string        `koanf:"webhook_path" yaml:"webhook_path"`
	WebhookSecret string        `koanf:"webhook_secret" yaml:"webhook_secret"`

	// Workers caps how many updates are handled at once.
	Workers int  `koanf:"workers" yaml:"workers"`
	Debug   bool `koanf:"debug" yaml:"debug"`
}

// BotSection configures the chat front-end.
type BotSection struct {
	Admins        []int64       `koanf:"admins" yaml:"admins"`
	TokenTTL      time.Duration `koanf:"token_ttl" yaml:"token_ttl"`
	UnlockURL     string        `koanf:"unlock_url" yaml:"unlock_url"`
	ReplyErrorTTL time.Duration `koanf:"reply_error_ttl" yaml:"reply_error_ttl"`

	// Templates may use {first} {last} {username} {mention} {id}.
	StartMessage string `koanf:"start_msg" yaml:"start_msg"`
	ForceMessage string `koanf:"force_msg" yaml:"force_msg"`
	AboutMessage string `koanf:"about_msg" yaml:"about_msg"`
}

// ChannelsSection names the channels the bot works with.
type ChannelsSection struct {
	// DatabaseID holds the content. Deep links are scaled by its magnitude.
	DatabaseID int64 `koanf:"database_id" yaml:"database_id"`

	// ForceSubID is the channel users must join. Zero disables the check.
	ForceSubID int64 `koanf:"force_sub_id" yaml:"force_sub_id"`

	// InviteLink is shown in the join prompt. Empty exports one at startup.
	InviteLink string `koanf:"invite_link" yaml:"invite_link"`

	// ScratchChatID receives the temporary forwards used to read channel
	// messages.
	ScratchChatID int64 `koanf:"scratch_chat_id" yaml:"scratch_chat_id"`
}

// DeliverySection configures content delivery.
type DeliverySection struct {
	CustomCaption string `koanf:"custom_caption" yaml:"custom_caption"`

	// DisableChannelButton, when true, copies the channel post's own
	// inline keyboard along with it. The name is kept from the legacy
	// bot's setting.
	DisableChannelButton bool          `koanf:"disable_channel_button" yaml:"disable_channel_button"`
	ProtectContent       bool          `koanf:"protect_content" yaml:"protect_content"`
	Interval             time.Duration `koanf:"interval" yaml:"interval"`
	MaxBatch             int           `koanf:"max_batch" yaml:"max_batch"`
}

// BroadcastSection configures admin broadcasts.
type BroadcastSection struct {
	Interval time.Duration `koanf:"interval" yaml:"interval"`
}

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

// StorageSection selects and configures the token and user store.
type StorageSection struct {
	Driver string        `koanf:"driver" yaml:"driver"`
	Badger BadgerSection `koanf:"badger" yaml:"badger"`
	Redis  RedisSection  `koanf:"redis" yaml:"redis"`
	Mongo  MongoSection  `koanf:"mongo" yaml:"mongo"`
}

// BadgerSection configures the embedded store.
type BadgerSection struct {
	Dir        string        `koanf:"dir" yaml:"dir"`
	GCInterval time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes" yaml:"sync_writes"`
}

// RedisSection configures the redis store.
type RedisSection struct {
	Addr      string `koanf:"addr" yaml:"addr"`
	Username  string `koanf:"username" yaml:"username"`
	Password  string `koanf:"password" yaml:"password"`
	DB        int    `koanf:"db" yaml:"db"`
	KeyPrefix string `koanf:"key_prefix" yaml:"key_prefix"`
}

// MongoSection configures the MongoDB store.
type MongoSection struct {
	URI      string `koanf:"uri" yaml:"uri"`
	Database string `koanf:"database" yaml:"database"`
}

// ServerSection configures the ops HTTP server.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http" yaml:"http"`
}

// HTTPConfig configures the HTTP server. An empty Addr disables it in
// polling mode.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MetricsAllow limits /metrics to these IPs or CIDR blocks. Empty
	// allows everyone.
	MetricsAllow []string `koanf:"metrics_allow" yaml:"metrics_allow"`

	// TLSCertFile and TLSKeyFile serve HTTPS. Both files are reloaded when
	// they change.
	TLSCertFile string `koanf:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" yaml:"tls_key_file"`

	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	TrustProxy bool `koanf:"trust_proxy" yaml:"trust_proxy"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
