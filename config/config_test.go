package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultAppConfigIsValid(t *testing.T) {
	cfg := DefaultAppConfig()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Backend.DefaultScheme != "file" {
		t.Errorf("Expected default scheme file, got %q", cfg.Backend.DefaultScheme)
	}
}

func TestLoadConfigFromFileYAML(t *testing.T) {
	path := writeConfig(t, "hotfs.yaml", `
log:
  level: debug
backend:
  memory_enabled: true
  smb_mounts:
    fileserver/scans: /mnt/scans
hotfolders:
  - id: inbox
    folder: file:///srv/inbox/
    interval: 2s
    settle: 3
    glob: "*.pdf"
  - id: outbox
    folder: mem:///outbox/
    include: files
    recurse: all
    sort: modified
    order: desc
`)

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected default log format json, got %q", cfg.Log.Format)
	}
	if !cfg.Backend.MemoryEnabled {
		t.Error("Expected memory backend enabled")
	}
	if got := cfg.Backend.SMBMounts["fileserver/scans"]; got != "/mnt/scans" {
		t.Errorf("Expected smb mount /mnt/scans, got %q", got)
	}
	if len(cfg.Hotfolders) != 2 {
		t.Fatalf("Expected 2 hotfolders, got %d", len(cfg.Hotfolders))
	}

	inbox := cfg.Hotfolders[0]
	if inbox.Interval != 2*time.Second || inbox.Settle != 3 || inbox.Glob != "*.pdf" {
		t.Errorf("Unexpected inbox config: %+v", inbox)
	}
	if inbox.Include != "visible" || inbox.Recurse != "none" {
		t.Errorf("Expected filter defaults, got include=%q recurse=%q", inbox.Include, inbox.Recurse)
	}
	if inbox.StopTimeout != DefaultHotfolderStopTimeout {
		t.Errorf("Expected default stop timeout, got %v", inbox.StopTimeout)
	}

	outbox := cfg.Hotfolders[1]
	if outbox.Interval != DefaultHotfolderInterval || outbox.Settle != DefaultHotfolderSettle {
		t.Errorf("Expected interval/settle defaults, got %v/%d", outbox.Interval, outbox.Settle)
	}
	if outbox.Sort != "modified" || outbox.Order != "desc" {
		t.Errorf("Unexpected outbox sort: %q %q", outbox.Sort, outbox.Order)
	}
}

func TestLoadConfigFromFileJSON(t *testing.T) {
	path := writeConfig(t, "hotfs.json", `{"server": {"listen_addr": ":7000"}, "hotfolders": [{"id": "a", "folder": "/tmp/a"}]}`)

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}
	if cfg.Server.ListenAddr != ":7000" {
		t.Errorf("Expected listen addr :7000, got %q", cfg.Server.ListenAddr)
	}
	if len(cfg.Hotfolders) != 1 || cfg.Hotfolders[0].Folder != "/tmp/a" {
		t.Errorf("Unexpected hotfolders: %+v", cfg.Hotfolders)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "hotfs.yaml", "backend:\n  s3_region: us-west-2\n")
	t.Setenv("HOTFS_BACKEND_S3_REGION", "eu-central-1")
	t.Setenv("HOTFS_LOG_FORMAT", "console")

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}
	if cfg.Backend.S3Region != "eu-central-1" {
		t.Errorf("Expected env to override s3 region, got %q", cfg.Backend.S3Region)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("Expected env to override log format, got %q", cfg.Log.Format)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := HotfolderConfig{ID: "in", Folder: "/in", Interval: time.Second, Settle: 1, Include: "visible", Recurse: "none"}

	tests := []struct {
		name    string
		mutate  func(cfg *AppConfig)
		wantErr string
	}{
		{"valid", func(cfg *AppConfig) {}, ""},
		{"no listen addr", func(cfg *AppConfig) { cfg.Server.ListenAddr = "" }, "listen_addr"},
		{"no api keys", func(cfg *AppConfig) { cfg.Server.APIKeys = nil }, "api_keys"},
		{"no default scheme", func(cfg *AppConfig) { cfg.Backend.DefaultScheme = "" }, "default_scheme"},
		{"bad smb mount", func(cfg *AppConfig) { cfg.Backend.SMBMounts = map[string]string{"share": "/mnt"} }, "smb_mounts"},
		{"duplicate id", func(cfg *AppConfig) { cfg.Hotfolders = append(cfg.Hotfolders, valid) }, "duplicate"},
		{"empty folder", func(cfg *AppConfig) { cfg.Hotfolders[0].Folder = "" }, "folder is required"},
		{"negative interval", func(cfg *AppConfig) { cfg.Hotfolders[0].Interval = -time.Second }, "interval"},
		{"negative settle", func(cfg *AppConfig) { cfg.Hotfolders[0].Settle = -1 }, "settle"},
		{"unknown include", func(cfg *AppConfig) { cfg.Hotfolders[0].Include = "hidden" }, "include"},
		{"unknown recurse", func(cfg *AppConfig) { cfg.Hotfolders[0].Recurse = "some" }, "recurse"},
		{"unknown sort", func(cfg *AppConfig) { cfg.Hotfolders[0].Sort = "size" }, "sort key"},
		{"unknown order", func(cfg *AppConfig) { cfg.Hotfolders[0].Order = "up" }, "sort order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAppConfig()
			cfg.Hotfolders = []HotfolderConfig{valid}
			tt.mutate(&cfg)

			err := Validate(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"HOTFS_LOG_LEVEL":                "log.level",
		"HOTFS_BACKEND_LOCALFS_ROOT_PATH": "backend.localfs_root_path",
		"HOTFS_METRICS_LISTEN_ADDR":      "metrics.listen_addr",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
