package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Bot struct {
		TokenTTL  time.Duration `koanf:"token_ttl"`
		UnlockURL string        `koanf:"unlock_url"`
	} `koanf:"bot"`
	Telegram struct {
		Workers int  `koanf:"workers"`
		Debug   bool `koanf:"debug"`
	} `koanf:"telegram"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filegate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/filegate.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.FilePath() != "/etc/filegate.yaml" {
		t.Errorf("FilePath() = %q, want %q", l.FilePath(), "/etc/filegate.yaml")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
bot:
  token_ttl: 90s
  unlock_url: https://unlock.example
telegram:
  workers: 8
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.GetString("bot.unlock_url"); got != "https://unlock.example" {
		t.Errorf("bot.unlock_url = %q, want %q", got, "https://unlock.example")
	}
	if got := l.GetInt("telegram.workers"); got != 8 {
		t.Errorf("telegram.workers = %d, want 8", got)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v, want nil", err)
	}
	if err := l.LoadFile("/nonexistent/filegate.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
	if err := l.LoadFile(writeConfig(t, "bot: [unclosed")); err == nil {
		t.Error("LoadFile() should fail for invalid YAML")
	}
}

func TestLoader_EnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"FILEGATE_BOT__TOKEN_TTL", "bot.token_ttl"},
		{"FILEGATE_TELEGRAM__WEBHOOK_URL", "telegram.webhook_url"},
		{"FILEGATE_STORAGE__REDIS__ADDR", "storage.redis.addr"},
		{"FILEGATE_DEBUG", "debug"},
	}

	l := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.envKey(tt.name); got != tt.want {
				t.Errorf("envKey(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("FILEGATE_BOT__UNLOCK_URL", "https://env.example")
	t.Setenv("FILEGATE_TELEGRAM__DEBUG", "true")
	t.Setenv("OTHER_BOT__UNLOCK_URL", "ignored")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.GetString("bot.unlock_url"); got != "https://env.example" {
		t.Errorf("bot.unlock_url = %q, want %q", got, "https://env.example")
	}
	if !l.GetBool("telegram.debug") {
		t.Error("telegram.debug should be true")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
bot:
  token_ttl: 90s
  unlock_url: https://file.example
telegram:
  workers: 8
`)
	t.Setenv("FILEGATE_BOT__UNLOCK_URL", "https://env.example")
	t.Setenv("FILEGATE_TELEGRAM__WORKERS", "4")

	var cfg testConfig
	cfg.Telegram.Debug = true // default that no source overrides

	l := NewLoader(WithConfigFile(path), WithOverrides(map[string]any{"telegram.workers": 2}))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bot.TokenTTL != 90*time.Second {
		t.Errorf("TokenTTL = %v, want 90s", cfg.Bot.TokenTTL)
	}
	if cfg.Bot.UnlockURL != "https://env.example" {
		t.Errorf("UnlockURL = %q, want env value", cfg.Bot.UnlockURL)
	}
	if cfg.Telegram.Workers != 2 {
		t.Errorf("Workers = %d, want override 2", cfg.Telegram.Workers)
	}
	if !cfg.Telegram.Debug {
		t.Error("Debug default was lost")
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load()")
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "bot:\n  unlock_url: https://one.example\n")

	l := NewLoader(WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("telegram:\n  workers: 3\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	var next testConfig
	if err := l.Reload(&next); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if next.Bot.UnlockURL != "" {
		t.Errorf("UnlockURL = %q, stale value survived Reload", next.Bot.UnlockURL)
	}
	if next.Telegram.Workers != 3 {
		t.Errorf("Workers = %d, want 3", next.Telegram.Workers)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"bot.unlock_url": "https://map.example", "debug": true}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.GetString("bot.unlock_url"); got != "https://map.example" {
		t.Errorf("bot.unlock_url = %q", got)
	}
	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
	if len(l.Keys()) != 2 {
		t.Errorf("Keys() = %v, want 2 keys", l.Keys())
	}
}
