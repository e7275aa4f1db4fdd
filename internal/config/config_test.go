package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileKeepsDefaults(t *testing.T) {
	saved := GlobalConfig
	t.Cleanup(func() { GlobalConfig = saved })

	if err := LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("missing config file should not error, got %v", err)
	}
	if GlobalConfig.Port != 8080 {
		t.Errorf("default port = %d, want 8080", GlobalConfig.Port)
	}
	if GlobalConfig.DirectURLTTL != 1800 {
		t.Errorf("default direct URL ttl = %d, want 1800", GlobalConfig.DirectURLTTL)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	saved := GlobalConfig
	t.Cleanup(func() { GlobalConfig = saved })

	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"port": 9000, "downloads_dir": "/tmp/dl", "history_limit": 10}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if GlobalConfig.Port != 9000 {
		t.Errorf("port = %d, want 9000", GlobalConfig.Port)
	}
	if GlobalConfig.DownloadsDir != "/tmp/dl" {
		t.Errorf("downloads dir = %q, want /tmp/dl", GlobalConfig.DownloadsDir)
	}
	if GlobalConfig.HistoryLimit != 10 {
		t.Errorf("history limit = %d, want 10", GlobalConfig.HistoryLimit)
	}
	// Fields absent from the file keep their defaults.
	if GlobalConfig.YtDlpPath != "yt-dlp" {
		t.Errorf("ytdlp path = %q, want yt-dlp", GlobalConfig.YtDlpPath)
	}
}

func TestLoadConfigRejectsMalformedJSON(t *testing.T) {
	saved := GlobalConfig
	t.Cleanup(func() { GlobalConfig = saved })

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadConfig(path); err == nil {
		t.Error("malformed config should error")
	}
}
