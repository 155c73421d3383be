package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.Port != 3001 {
		t.Errorf("expected default port 3001, got %d", config.Server.Port)
	}
	if config.Providers.SearchLimit != 20 {
		t.Errorf("expected default search limit 20, got %d", config.Providers.SearchLimit)
	}
	if config.Providers.YouTubeTimeoutMS <= config.Providers.NeteaseTimeoutMS {
		t.Error("expected youtube budget larger than netease")
	}
	if config.Providers.MirrorRatePerSec <= 0 {
		t.Error("expected positive mirror rate")
	}
	if config.Library.DatabasePath == "" {
		t.Error("expected default database path")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		content := `
[server]
host = "0.0.0.0"
port = 8080

[relay]
backend_url = "https://backend.example"

[credentials.netease]
cookie = "MUSIC_U=test;"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.Server.Host != "0.0.0.0" || config.Server.Port != 8080 {
			t.Errorf("bad server config: %+v", config.Server)
		}
		if config.Relay.BackendURL != "https://backend.example" {
			t.Errorf("bad relay config: %+v", config.Relay)
		}
		if config.Credentials.Netease.Cookie != "MUSIC_U=test;" {
			t.Errorf("bad credential: %q", config.Credentials.Netease.Cookie)
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("Invalid TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		os.WriteFile(path, []byte("not [valid"), 0644)
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile failed: %v", err)
	}

	// The created file must parse back into the defaults.
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("created config does not parse: %v", err)
	}
	if config.Server.Port != DefaultConfig().Server.Port {
		t.Error("created config differs from defaults")
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("expected error when file exists")
	}
}
