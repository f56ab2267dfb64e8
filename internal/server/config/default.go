package config

import "time"

// Default configuration values.
const (
	DefaultMode        = ModePolling
	DefaultPollTimeout = 30 * time.Second
	DefaultWebhookPath = "/telegram/webhook"
	DefaultWorkers     = 16

	DefaultTokenTTL      = 24 * time.Hour
	DefaultReplyErrorTTL = 8 * time.Second

	DefaultDeliveryInterval  = 500 * time.Millisecond
	DefaultMaxBatch          = 200
	DefaultBroadcastInterval = 50 * time.Millisecond

	DefaultDriver          = DriverMongo
	DefaultBadgerDir       = "/var/lib/filegate/badger"
	DefaultBadgerGC        = 10 * time.Minute
	DefaultRedisAddr       = "127.0.0.1:6379"
	DefaultRedisKeyPrefix  = "filegate"
	DefaultMongoURI        = "mongodb://127.0.0.1:27017"
	DefaultMongoDatabase   = "filegate"
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default configuration. The bot token and the
// database channel have no default.
func Default() *Config {
	return &Config{
		Telegram: TelegramSection{
			Mode:        DefaultMode,
			PollTimeout: DefaultPollTimeout,
			WebhookPath: DefaultWebhookPath,
			Workers:     DefaultWorkers,
		},
		Bot: BotSection{
			TokenTTL:      DefaultTokenTTL,
			ReplyErrorTTL: DefaultReplyErrorTTL,
		},
		Delivery: DeliverySection{
			Interval: DefaultDeliveryInterval,
			MaxBatch: DefaultMaxBatch,
		},
		Broadcast: BroadcastSection{
			Interval: DefaultBroadcastInterval,
		},
		Storage: StorageSection{
			Driver: DefaultDriver,
			Badger: BadgerSection{
				Dir:        DefaultBadgerDir,
				GCInterval: DefaultBadgerGC,
				SyncWrites: true,
			},
			Redis: RedisSection{
				Addr:      DefaultRedisAddr,
				KeyPrefix: DefaultRedisKeyPrefix,
			},
			Mongo: MongoSection{
				URI:      DefaultMongoURI,
				Database: DefaultMongoDatabase,
			},
		},
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
