package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEngineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENGINE_CONFIG_FILE", "PORT", "PUBLIC_BASE_URL", "ASSETS_DIR", "ASSETS_CATALOG_PATH",
		"ASSETS_FILES_DIR", "IMAGE_PROVIDER", "BATCH_IMAGE_PROVIDER", "VIDEO_PROVIDER",
		"PROJECT_STORE", "DATABASE_URL", "GENERATION_MAX_POLLS", "GENERATION_POLL_INTERVAL_SECONDS",
		"CORS_ALLOWED_ORIGINS", "KIE_API_BASE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEngineEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Fatalf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if cfg.AssetsCatalogPath != "./assets/catalog/assets_catalog.json" {
		t.Fatalf("AssetsCatalogPath = %q", cfg.AssetsCatalogPath)
	}
	if cfg.AssetsFilesDir != "./assets/catalog_files" {
		t.Fatalf("AssetsFilesDir = %q", cfg.AssetsFilesDir)
	}
	if cfg.PollInterval != 5*time.Second || cfg.MaxPolls != 120 {
		t.Fatalf("polling = %v x %d", cfg.PollInterval, cfg.MaxPolls)
	}
	if cfg.KieNanoBananaModel != "google/nano-banana" || cfg.KieVeoModel != "veo3_fast" {
		t.Fatalf("kie models = %q, %q", cfg.KieNanoBananaModel, cfg.KieVeoModel)
	}
	if cfg.ProjectStore != ProjectStoreMemory {
		t.Fatalf("ProjectStore = %q", cfg.ProjectStore)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigInheritsPortInPublicBaseURL(t *testing.T) {
	clearEngineEnv(t)
	t.Setenv("PORT", "1919")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PublicBaseURL != "http://localhost:1919" {
		t.Fatalf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	clearEngineEnv(t)
	path := filepath.Join(t.TempDir(), "engine.yaml")
	body := "PUBLIC_BASE_URL: https://cdn.example.com/\nGENERATION_MAX_POLLS: 7\nVIDEO_PROVIDER: synthetic\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("ENGINE_CONFIG_FILE", path)
	t.Setenv("VIDEO_PROVIDER", "kie")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PublicBaseURL != "https://cdn.example.com" {
		t.Fatalf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if cfg.MaxPolls != 7 {
		t.Fatalf("MaxPolls = %d", cfg.MaxPolls)
	}
	if cfg.VideoProvider != "kie" {
		t.Fatalf("environment should win over file, VideoProvider = %q", cfg.VideoProvider)
	}
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown image provider": {"IMAGE_PROVIDER": "dalle"},
		"unknown video provider": {"VIDEO_PROVIDER": "sora"},
		"postgres without url":   {"PROJECT_STORE": "postgres"},
		"unknown store":          {"PROJECT_STORE": "redis"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEngineEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	clearEngineEnv(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("PORT: [unterminated"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("ENGINE_CONFIG_FILE", path)
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected parse error")
	}
}
