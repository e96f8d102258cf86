package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents application configuration loaded from environment
// variables, optionally layered over a YAML file named by ENGINE_CONFIG_FILE.
type Config struct {
	AppEnv        string
	Port          string
	PublicBaseURL string

	AssetsDir         string
	AssetsCatalogPath string
	AssetsFilesDir    string

	ImageProvider      string
	BatchImageProvider string
	VideoProvider      string

	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiImageModel string
	VeoModel         string

	KieAPIKey          string
	KieAPIBase         string
	KieNanoBananaModel string
	KieVeoModel        string

	PollInterval     time.Duration
	MaxPolls         int
	GenerationPerMin int
	DownloadTimeout  time.Duration

	ProjectStore string
	DatabaseURL  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

const (
	ProjectStoreMemory   = "memory"
	ProjectStorePostgres = "postgres"
)

var (
	imageProviders = []string{"gemini", "kie", "synthetic"}
	batchProviders = []string{"kie", "synthetic"}
	videoProviders = []string{"veo", "kie", "synthetic"}
)

// LoadConfig loads configuration and applies defaults where needed.
func LoadConfig() (*Config, error) {
	src, err := newSource(os.Getenv("ENGINE_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	port := src.get("PORT", "8080")
	assetsDir := src.get("ASSETS_DIR", "./assets")
	cfg := &Config{
		AppEnv:        src.get("APP_ENV", "development"),
		Port:          port,
		PublicBaseURL: strings.TrimRight(src.get("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),

		AssetsDir:         assetsDir,
		AssetsCatalogPath: src.get("ASSETS_CATALOG_PATH", joinPath(assetsDir, "catalog", "assets_catalog.json")),
		AssetsFilesDir:    src.get("ASSETS_FILES_DIR", joinPath(assetsDir, "catalog_files")),

		ImageProvider:      strings.ToLower(src.get("IMAGE_PROVIDER", "gemini")),
		BatchImageProvider: strings.ToLower(src.get("BATCH_IMAGE_PROVIDER", "kie")),
		VideoProvider:      strings.ToLower(src.get("VIDEO_PROVIDER", "veo")),

		GeminiAPIKey:     src.get("GEMINI_API_KEY", ""),
		GeminiBaseURL:    src.get("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiImageModel: src.get("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		VeoModel:         src.get("VEO_MODEL", "veo-3.1-generate-preview"),

		KieAPIKey:          src.get("KIE_API_KEY", ""),
		KieAPIBase:         strings.TrimRight(src.get("KIE_API_BASE", "https://api.kie.ai"), "/"),
		KieNanoBananaModel: src.get("KIE_NANO_BANANA_MODEL", "google/nano-banana"),
		KieVeoModel:        src.get("KIE_VEO_MODEL", "veo3_fast"),

		PollInterval:     time.Second * time.Duration(src.getInt("GENERATION_POLL_INTERVAL_SECONDS", 5)),
		MaxPolls:         src.getInt("GENERATION_MAX_POLLS", 120),
		GenerationPerMin: src.getInt("GENERATION_RATE_PER_MINUTE", 30),
		DownloadTimeout:  time.Second * time.Duration(src.getInt("DOWNLOAD_TIMEOUT_SECONDS", 30)),

		ProjectStore: strings.ToLower(src.get("PROJECT_STORE", ProjectStoreMemory)),
		DatabaseURL:  src.get("DATABASE_URL", ""),

		MinioEndpoint:  src.get("MINIO_ENDPOINT", ""),
		MinioAccessKey: src.get("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: src.get("MINIO_SECRET_KEY", ""),
		MinioBucket:    src.get("MINIO_BUCKET", "engine-assets"),
		MinioUseSSL:    src.getBool("MINIO_USE_SSL", false),

		CORSAllowedOrigins: splitList(src.get("CORS_ALLOWED_ORIGINS", "*")),
		HTTPReadTimeout:    time.Second * time.Duration(src.getInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(src.getInt("HTTP_WRITE_TIMEOUT_SECONDS", 900)),
		HTTPIdleTimeout:    time.Second * time.Duration(src.getInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    src.getInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if !oneOf(cfg.ImageProvider, imageProviders) {
		return nil, fmt.Errorf("IMAGE_PROVIDER %q is not supported", cfg.ImageProvider)
	}
	if !oneOf(cfg.BatchImageProvider, batchProviders) {
		return nil, fmt.Errorf("BATCH_IMAGE_PROVIDER %q is not supported", cfg.BatchImageProvider)
	}
	if !oneOf(cfg.VideoProvider, videoProviders) {
		return nil, fmt.Errorf("VIDEO_PROVIDER %q is not supported", cfg.VideoProvider)
	}
	switch cfg.ProjectStore {
	case ProjectStoreMemory:
	case ProjectStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when PROJECT_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("PROJECT_STORE %q is not supported", cfg.ProjectStore)
	}
	if cfg.MaxPolls <= 0 {
		return nil, fmt.Errorf("GENERATION_MAX_POLLS must be positive")
	}

	return cfg, nil
}

// MinioEnabled reports whether generated files are mirrored to object storage.
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

// source resolves keys from the environment first, then the YAML overlay.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return source{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read config file: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return source{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	file := make(map[string]string, len(values))
	for k, v := range values {
		if v == nil {
			continue
		}
		file[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return source{file: file}, nil
}

func (s source) get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v, ok := s.file[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (s source) getInt(key string, fallback int) int {
	if v := s.get(key, ""); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func (s source) getBool(key string, fallback bool) bool {
	if v := s.get(key, ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func joinPath(root string, elems ...string) string {
	return strings.TrimRight(root, "/") + "/" + strings.Join(elems, "/")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
