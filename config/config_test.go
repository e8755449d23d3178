package config

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	m := NewManagerWithFs(afero.NewMemMapFs(), "/etc/watchlog/config.toml")

	settings, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.Listen != "127.0.0.1:8485" {
		t.Errorf("Listen = %q, want default", settings.Listen)
	}
	if settings.Storage.RetryAttempts != 3 || settings.Storage.RetryDelayMS != 100 {
		t.Errorf("unexpected storage defaults: %+v", settings.Storage)
	}
	if settings.DataDir == "" {
		t.Error("DataDir should default to a non-empty path")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManagerWithFs(fs, "/etc/watchlog/config.toml")

	settings := Default()
	settings.Listen = "0.0.0.0:9000"
	settings.Catalog.APIKey = "secret"
	settings.Catalog.Language = "de-DE"
	if err := m.Save(settings); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := NewManagerWithFs(fs, "/etc/watchlog/config.toml")
	loaded, err := fresh.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen = %q", loaded.Listen)
	}
	if loaded.Catalog.APIKey != "secret" || loaded.Catalog.Language != "de-DE" {
		t.Errorf("catalog settings lost: %+v", loaded.Catalog)
	}

	raw, err := afero.ReadFile(fs, "/etc/watchlog/config.toml")
	if err != nil {
		t.Fatalf("read config back: %v", err)
	}
	if !strings.Contains(string(raw), "listen = '0.0.0.0:9000'") {
		t.Errorf("unexpected encoding:\n%s", raw)
	}
}

func TestPartialFileKeepsDefaultsForRest(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "listen = \"localhost:7000\"\n\n[catalog]\napi_key = \"abc\"\n"
	if err := afero.WriteFile(fs, "/c.toml", []byte(content), 0644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	settings, err := NewManagerWithFs(fs, "/c.toml").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.Listen != "localhost:7000" {
		t.Errorf("Listen = %q", settings.Listen)
	}
	if settings.Catalog.APIKey != "abc" {
		t.Errorf("APIKey = %q", settings.Catalog.APIKey)
	}
	if settings.Storage.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want default 3", settings.Storage.RetryAttempts)
	}
}

func TestLoadCachesAcrossCalls(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManagerWithFs(fs, "/c.toml")

	first, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	first.Listen = "mutated"

	second, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if second.Listen == "mutated" {
		t.Error("Load should return copies, not the cached struct")
	}
}
