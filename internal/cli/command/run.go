package command

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/filegate/internal/bot"
	"github.com/yndnr/filegate/internal/core/service"
	"github.com/yndnr/filegate/internal/infra/buildinfo"
	"github.com/yndnr/filegate/internal/infra/confloader"
	"github.com/yndnr/filegate/internal/infra/shutdown"
	"github.com/yndnr/filegate/internal/infra/tlsroots"
	"github.com/yndnr/filegate/internal/server/config"
	"github.com/yndnr/filegate/internal/server/httpserver"
	"github.com/yndnr/filegate/internal/storage"
	"github.com/yndnr/filegate/internal/telegram"
	"github.com/yndnr/filegate/internal/telemetry/logger"
	"github.com/yndnr/filegate/internal/telemetry/metric"
	"github.com/yndnr/filegate/pkg/deeplink"
)

// RunCommand returns the command that starts the bot.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Start the bot",
		Action: runBot,
	}
}

// Platform is everything the bot needs from the chat platform.
type Platform interface {
	bot.Messenger
	service.MembershipChecker
	service.ContentFetcher
	service.MessageCopier
}

func runBot(c *cli.Context) error {
	loader, cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	info := buildinfo.Get()
	log.Info("starting filegate",
		"version", info.Version,
		"commit", info.Commit,
		"config", loader.FilePath(),
		"mode", cfg.Telegram.Mode,
		"storage", cfg.Storage.Driver,
	)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	sd := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)
	sd.SetLogger(log)
	ctx, stop := sd.Context(c.Context)
	defer stop()

	// Hooks run newest first: stop taking updates, drain the handlers,
	// then release the client and the store.
	reg := metric.NewRegistry()
	store, err := storage.Open(ctx, storageConfig(cfg), log, reg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	sd.OnClose("storage", store.Close)
	reg.Prometheus().MustRegister(metric.NewCollector(store.CountUsers))

	tcfg := telegram.Config{
		Token:         cfg.Telegram.Token,
		APIEndpoint:   cfg.Telegram.APIEndpoint,
		ScratchChatID: cfg.Channels.ScratchChatID,
		InviteLink:    cfg.Channels.InviteLink,
		PollTimeout:   cfg.Telegram.PollTimeout,
		Debug:         cfg.Telegram.Debug,
	}
	if cfg.Telegram.CAFile != "" {
		pool, err := tlsroots.NewPool(cfg.Telegram.CAFile)
		if err != nil {
			return abort(sd, err)
		}
		tcfg.RootCAs = pool.CertPool()
	}
	tg, err := telegram.New(tcfg, log)
	if err != nil {
		return abort(sd, err)
	}
	sd.OnShutdown("telegram", func(context.Context) error {
		tg.Close()
		return nil
	})

	b, err := buildBot(cfg, tg, store, reg, log)
	if err != nil {
		return abort(sd, err)
	}
	d := bot.NewDispatcher(b, cfg.Telegram.Workers, reg, log)
	sd.OnShutdown("dispatcher", d.Stop)

	// Handlers keep running past the signal until the dispatcher drains.
	work := context.WithoutCancel(ctx)
	handle := func(_ context.Context, u bot.Update) { d.Dispatch(work, u) }

	var webhook *webhookRoute
	if cfg.Telegram.Mode == config.ModeWebhook {
		if err := tg.SetWebhook(cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			return abort(sd, err)
		}
		webhook = &webhookRoute{
			path:    cfg.Telegram.WebhookPath,
			handler: tg.WebhookHandler(ctx, cfg.Telegram.WebhookSecret, handle),
		}
	}

	if err := startHTTP(cfg, sd, store, reg, webhook, stop, log); err != nil {
		return abort(sd, err)
	}

	if loader.FilePath() != "" {
		if err := watchConfig(loader, b, sd, log); err != nil {
			log.Warn("config hot reload disabled", "error", err)
		}
	}

	if cfg.Telegram.Mode == config.ModePolling {
		go func() {
			if err := tg.Poll(ctx, handle); err != nil {
				log.Error("polling failed", "error", err)
				stop()
			}
		}()
	}

	log.Info("filegate started", "bot", tg.Username())
	if err := sd.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("filegate stopped")
	return nil
}

// abort runs the hooks registered so far and returns err.
func abort(sd *shutdown.Handler, err error) error {
	if serr := sd.Shutdown(); serr != nil {
		logger.Default().Warn("cleanup after failed start", "error", serr)
	}
	return err
}

// buildBot wires the services and the bot on top of a platform and a store.
func buildBot(cfg *config.Config, p Platform, store storage.Store, reg *metric.Registry, log logger.Logger) (*bot.Bot, error) {
	codec, err := deeplink.NewCodec(cfg.Channels.DatabaseID, deeplink.WithMaxBatch(cfg.Delivery.MaxBatch))
	if err != nil {
		return nil, fmt.Errorf("deep link codec: %w", err)
	}

	tokens := service.NewTokenService(store, &service.TokenServiceConfig{TTL: cfg.Bot.TokenTTL})
	gate := service.NewGate(p, tokens, &service.GateConfig{
		ForceChannelID: cfg.Channels.ForceSubID,
		Admins:         cfg.Bot.Admins,
	})
	delivery := service.NewDeliveryService(codec, p, p, service.DeliveryConfig{
		ChannelID:     cfg.Channels.DatabaseID,
		CustomCaption: cfg.Delivery.CustomCaption,
		KeepButtons:   cfg.Delivery.DisableChannelButton,
		Protect:       cfg.Delivery.ProtectContent,
		Interval:      cfg.Delivery.Interval,
	})
	broadcast := service.NewBroadcastService(store, p, &service.BroadcastConfig{Interval: cfg.Broadcast.Interval})

	return bot.New(bot.Deps{
		Messenger: p,
		Tokens:    tokens,
		Users:     service.NewUserService(store),
		Gate:      gate,
		Delivery:  delivery,
		Broadcast: broadcast,
		Metrics:   reg,
		Logger:    log,
	}, bot.Config{
		UnlockURL:      cfg.Bot.UnlockURL,
		ForceChannelID: cfg.Channels.ForceSubID,
		Templates:      templates(cfg),
		ReplyErrorTTL:  cfg.Bot.ReplyErrorTTL,
	})
}

func templates(cfg *config.Config) bot.Templates {
	return bot.Templates{
		Start: cfg.Bot.StartMessage,
		Force: cfg.Bot.ForceMessage,
		About: cfg.Bot.AboutMessage,
	}
}

type webhookRoute struct {
	path    string
	handler http.Handler
}

// startHTTP serves the ops endpoints, and the webhook when set. An empty
// address disables the server.
func startHTTP(cfg *config.Config, sd *shutdown.Handler, store storage.Store, reg *metric.Registry,
	webhook *webhookRoute, stop context.CancelFunc, log logger.Logger) error {
	hc := cfg.Server.HTTP
	if hc.Addr == "" {
		return nil
	}

	rc := httpserver.RouterConfig{
		Ready:        store,
		Metrics:      reg.Handler(),
		MetricsAllow: hc.MetricsAllow,
		TrustProxy:   hc.TrustProxy,
		Logger:       log,
	}
	if webhook != nil {
		rc.Webhook = webhook.handler
		rc.WebhookPath = webhook.path
	}

	srv := httpserver.New(hc.Addr, httpserver.NewRouter(rc), log)
	if hc.TLSCertFile != "" {
		kp, err := tlsroots.LoadKeyPair(hc.TLSCertFile, hc.TLSKeyFile)
		if err != nil {
			return err
		}
		srv.SetTLSConfig(kp.ServerConfig())
		if err := watchKeyPair(kp, sd, log); err != nil {
			log.Warn("certificate hot reload disabled", "error", err)
		}
	}
	ln, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	go func() {
		if err := srv.Serve(ln); err != nil {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()
	sd.OnShutdown("http server", srv.Shutdown)
	return nil
}

// watchConfig reloads templates and the log level when the config file
// changes. Other settings need a restart.
func watchConfig(loader *confloader.Loader, b *bot.Bot, sd *shutdown.Handler, log logger.Logger) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	if err := w.Watch(loader.FilePath()); err != nil {
		_ = w.Stop()
		return err
	}
	w.OnChange(func(path string) {
		cfg := config.Default()
		if err := loader.Reload(cfg); err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if err := config.Verify(cfg); err != nil {
			log.Warn("reloaded config rejected", "path", path, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		b.SetTemplates(templates(cfg))
		log.Info("configuration reloaded", "path", path, "log_level", cfg.Log.Level)
	})
	w.StartAsync()
	sd.OnClose("config watcher", w.Stop)
	return nil
}

// watchKeyPair reloads the served certificate when its files change.
func watchKeyPair(kp *tlsroots.KeyPair, sd *shutdown.Handler, log logger.Logger) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	for _, f := range kp.Files() {
		if err := w.Watch(f); err != nil {
			_ = w.Stop()
			return err
		}
	}
	w.OnChange(func(path string) {
		if err := kp.Reload(); err != nil {
			log.Warn("certificate reload failed, keeping the previous one", "path", path, "error", err)
			return
		}
		log.Info("certificate reloaded", "path", path)
	})
	w.StartAsync()
	sd.OnClose("certificate watcher", w.Stop)
	return nil
}
