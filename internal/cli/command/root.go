package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/filegate/internal/cli/output"
	"github.com/yndnr/filegate/internal/infra/buildinfo"
	"github.com/yndnr/filegate/internal/infra/confloader"
	"github.com/yndnr/filegate/internal/server/config"
	"github.com/yndnr/filegate/internal/storage"
	"github.com/yndnr/filegate/internal/storage/mongo"
	"github.com/yndnr/filegate/internal/storage/redis"
	"github.com/yndnr/filegate/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "filegate",
		Usage:   "Telegram bot that hands out channel files behind deep links",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RunCommand(),
			LinkCommand(),
			TokensCommand(),
			UsersCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		HideVersion: true,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the configuration file",
			EnvVars: []string{"FILEGATE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
	}
}

// GlobalFlags holds the flags shared by every command.
type GlobalFlags struct {
	Config string
	Output output.Format
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config: c.String("config"),
		Output: output.Format(c.String("output")),
	}
}

// loadConfig applies the file named by --config and the environment on top
// of the defaults, then verifies the result.
func loadConfig(c *cli.Context) (*confloader.Loader, *config.Config, error) {
	loader, cfg, err := readConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, err
	}
	return loader, cfg, nil
}

// readConfig is loadConfig without verification.
func readConfig(c *cli.Context) (*confloader.Loader, *config.Config, error) {
	var opts []confloader.Option
	if path := ParseGlobalFlags(c).Config; path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return loader, cfg, nil
}

// newLogger builds the process logger and installs it as the default.
func newLogger(cfg *config.Config, w io.Writer) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: w,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	return log, nil
}

func storageConfig(cfg *config.Config) storage.Config {
	sc := cfg.Storage

	badgerCfg := storage.DefaultBadgerConfig(sc.Badger.Dir)
	if sc.Badger.GCInterval > 0 {
		badgerCfg.GCInterval = sc.Badger.GCInterval.String()
	}
	badgerCfg.SyncWrites = sc.Badger.SyncWrites

	redisCfg := redis.DefaultConfig()
	if sc.Redis.Addr != "" {
		redisCfg.Addr = sc.Redis.Addr
	}
	redisCfg.Username = sc.Redis.Username
	redisCfg.Password = sc.Redis.Password
	redisCfg.DB = sc.Redis.DB
	if sc.Redis.KeyPrefix != "" {
		redisCfg.KeyPrefix = sc.Redis.KeyPrefix
	}

	mongoCfg := mongo.DefaultConfig()
	if sc.Mongo.URI != "" {
		mongoCfg.URI = sc.Mongo.URI
	}
	if sc.Mongo.Database != "" {
		mongoCfg.Database = sc.Mongo.Database
	}

	return storage.Config{
		Driver: sc.Driver,
		Badger: badgerCfg,
		Redis:  redisCfg,
		Mongo:  mongoCfg,
	}
}

// withStore opens the configured store for the duration of fn. Commands
// other than run log to stderr at warn level so their output stays clean.
func withStore(c *cli.Context, fn func(ctx context.Context, cfg *config.Config, s storage.Store) error) error {
	_, cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Log.Level = "warn"
	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}

	ctx := c.Context
	s, err := storage.Open(ctx, storageConfig(cfg), log, nil)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("close storage", "error", err)
		}
	}()
	return fn(ctx, cfg, s)
}

// printResult writes data in the format selected by --output.
func printResult(c *cli.Context, data any) error {
	return output.NewFormatter(ParseGlobalFlags(c).Output, false).Format(c.App.Writer, data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
