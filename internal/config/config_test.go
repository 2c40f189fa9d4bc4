package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"gamebooks/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "gamebooks", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}

	wantData := filepath.Join(tempHome, ".local", "share", "gamebooks")
	if cfg.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.DataDir, wantData)
	}
	if cfg.Catalog.Driver != "sqlite" {
		t.Fatalf("unexpected driver %q", cfg.Catalog.Driver)
	}
	if cfg.Catalog.DSN != filepath.Join(wantData, "gamebooks.db") {
		t.Fatalf("expected sqlite catalog under data dir, got %q", cfg.Catalog.DSN)
	}
	if cfg.SaveDelay() != 1500*time.Millisecond || cfg.ViewportDelay() != time.Second {
		t.Fatalf("unexpected delays %v %v", cfg.SaveDelay(), cfg.ViewportDelay())
	}
	if cfg.Revisions.Schedule != "@every 10m" || cfg.Revisions.Max != 40 {
		t.Fatalf("unexpected revisions %+v", cfg.Revisions)
	}
	if cfg.DraftDir() != filepath.Join(wantData, "drafts") {
		t.Fatalf("unexpected draft dir %q", cfg.DraftDir())
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gamebooks.toml")
	content := `
data_dir = "` + filepath.ToSlash(filepath.Join(dir, "data")) + `"

[persistence]
save_debounce_ms = 500

[catalog]
driver = "Postgres"
dsn = "postgres://gb:<password>@localhost/gamebooks"
keychain_account = "catalog"

[editor]
command = "  code --wait  "
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GAMEBOOKS_REVISIONS_MAX", "5")
	t.Setenv("GAMEBOOKS_VIEWPORT_DEBOUNCE_MS", "250")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be loaded, got %q exists=%v", path, resolved, exists)
	}
	if cfg.DataDir != filepath.Join(dir, "data") {
		t.Errorf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.Catalog.Driver != "postgres" {
		t.Errorf("driver should be lowercased, got %q", cfg.Catalog.Driver)
	}
	if !strings.Contains(cfg.Catalog.DSN, "<password>") {
		t.Errorf("dsn should keep the placeholder, got %q", cfg.Catalog.DSN)
	}
	if cfg.Persistence.SaveDebounceMS != 500 || cfg.Persistence.ViewportDebounceMS != 250 {
		t.Errorf("unexpected persistence %+v", cfg.Persistence)
	}
	if cfg.Revisions.Max != 5 {
		t.Errorf("env override not applied: %d", cfg.Revisions.Max)
	}
	if cfg.Editor.Command != "code --wait" {
		t.Errorf("unexpected editor %q", cfg.Editor.Command)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	if err := os.WriteFile(".env", []byte("GAMEBOOKS_SAVE_DEBOUNCE_MS=900\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("GAMEBOOKS_SAVE_DEBOUNCE_MS") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Persistence.SaveDebounceMS != 900 {
		t.Fatalf("expected .env value, got %d", cfg.Persistence.SaveDebounceMS)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cases := map[string]string{
		"GAMEBOOKS_CATALOG_DRIVER":   "oracle",
		"GAMEBOOKS_REVISIONS_MAX":    "0",
		"GAMEBOOKS_SAVE_DEBOUNCE_MS": "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, _, _, err := config.Load(""); err == nil {
				t.Fatalf("expected %s=%s to be rejected", key, value)
			}
		})
	}

	t.Run("remote driver without dsn", func(t *testing.T) {
		t.Setenv("GAMEBOOKS_CATALOG_DRIVER", "mongodb")
		if _, _, _, err := config.Load(""); err == nil {
			t.Fatal("expected missing dsn to be rejected")
		}
	})
}

func TestCreateSampleParsesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var sample config.Config
	if err := toml.Unmarshal(data, &sample); err != nil {
		t.Fatalf("sample does not parse: %v", err)
	}
	def := config.Default()
	if sample.Persistence != def.Persistence || sample.Revisions != def.Revisions {
		t.Errorf("sample %+v differs from defaults %+v", sample, def)
	}
	if sample.Catalog.Driver != def.Catalog.Driver || sample.DataDir != def.DataDir {
		t.Errorf("sample catalog/data dir differ: %+v", sample)
	}
}
