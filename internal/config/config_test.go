package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Store.Driver != StoreMemory {
		t.Errorf("expected memory store, got %s", cfg.Store.Driver)
	}
	if cfg.Redis.Enabled {
		t.Error("expected redis to be disabled by default")
	}
	if cfg.Queue.NotifyTimeout != 10*time.Second {
		t.Errorf("expected 10s notify timeout, got %v", cfg.Queue.NotifyTimeout)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9000"
store:
  driver: sqlite
  sqlite_path: /tmp/queue.db
whatsapp:
  phone_id: "12345"
  timeout: 3s
queue:
  pickup_message: "Order up"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "legacy-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("env should override file, got port %s", cfg.Server.Port)
	}
	if cfg.Store.Driver != StoreSQLite || cfg.Store.SQLitePath != "/tmp/queue.db" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.WhatsApp.PhoneID != "12345" || cfg.WhatsApp.Timeout != 3*time.Second {
		t.Errorf("unexpected whatsapp config: %+v", cfg.WhatsApp)
	}
	if cfg.WhatsApp.Token != "legacy-token" {
		t.Errorf("expected token from WHATSAPP_ACCESS_TOKEN, got %q", cfg.WhatsApp.Token)
	}
	if cfg.Queue.PickupMessage != "Order up" {
		t.Errorf("unexpected pickup message %q", cfg.Queue.PickupMessage)
	}

	t.Setenv("WHATSAPP_TOKEN", "primary-token")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WhatsApp.Token != "primary-token" {
		t.Errorf("WHATSAPP_TOKEN should win, got %q", cfg.WhatsApp.Token)
	}
}

func TestLoad_UnknownStoreDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestGetBoolEnv_InvalidFallsBack(t *testing.T) {
	t.Setenv("FLAG_UNDER_TEST", "not-a-bool")
	if !getBoolEnv("FLAG_UNDER_TEST", true) {
		t.Error("invalid bool should fall back to default")
	}
}
