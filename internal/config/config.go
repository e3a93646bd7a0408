package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edugate/sitecms/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Editor    EditorConfig
	CDN       CDNConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
	// ReadHeaderTimeout bounds request headers only. ReadTimeout and
	// WriteTimeout cover whole bodies and stay 0 (none) unless set: uploads
	// have no size limit and /cdn streams.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// SiteConfig locates the static site and its persisted data.
type SiteConfig struct {
	Root              string
	ShellPage         string
	DataDir           string
	DefaultsDir       string
	UploadDir         string
	UploadURLPrefix   string
	ContentFile       string
	LegacyContentFile string
	NavbarFile        string
	SectionsDir       string
	Prerender         bool
	WatchFragments    bool
}

// ContentPath is the absolute path of the live content document.
func (s SiteConfig) ContentPath() string { return filepath.Join(s.DataDir, s.ContentFile) }

// NavbarPath is the absolute path of the navbar document.
func (s SiteConfig) NavbarPath() string { return filepath.Join(s.DataDir, s.NavbarFile) }

// StorageConfig selects where uploads go. An empty MinIOEndpoint keeps them on disk.
type StorageConfig struct {
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	MinIOBucket    string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// EditorConfig guards the write endpoints. Both fields empty means open access.
type EditorConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	OIDCIssuer   string
	OIDCClientID string
}

// Enabled reports whether write endpoints require a bearer token.
func (e EditorConfig) Enabled() bool { return e.JWTSecret != "" || e.OIDCIssuer != "" }

type CDNConfig struct {
	AllowedHosts []string
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "6985")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("READ_HEADER_TIMEOUT_SECONDS", 10)
	v.SetDefault("READ_TIMEOUT_SECONDS", 0)
	v.SetDefault("WRITE_TIMEOUT_SECONDS", 0)
	v.SetDefault("SITE_ROOT", ".")
	v.SetDefault("SHELL_PAGE", "index.html")
	v.SetDefault("CONTENT_FILE", "content5.json")
	v.SetDefault("LEGACY_CONTENT_FILE", "content4.json")
	v.SetDefault("NAVBAR_FILE", "navbar.json")
	v.SetDefault("UPLOAD_URL_PREFIX", "/assets/uploads")
	v.SetDefault("SITE_PRERENDER", false)
	v.SetDefault("WATCH_FRAGMENTS", true)
	v.SetDefault("MINIO_BUCKET", "sitecms")
	v.SetDefault("MONGODB_DATABASE", "sitecms")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("EDITOR_TOKEN_TTL", 720)

	root := v.GetString("SITE_ROOT")
	dataDir := v.GetString("DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join(root, "data")
	}
	defaultsDir := v.GetString("DEFAULTS_DIR")
	if defaultsDir == "" {
		defaultsDir = filepath.Join(root, "data-defaults")
	}
	uploadDir := v.GetString("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = filepath.Join(root, "assets", "uploads")
	}
	sectionsDir := v.GetString("SECTIONS_DIR")
	if sectionsDir == "" {
		sectionsDir = filepath.Join(root, "sections")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:              v.GetString("PORT"),
			Host:              v.GetString("HOST"),
			Environment:       v.GetString("ENVIRONMENT"),
			ReadHeaderTimeout: time.Duration(v.GetInt("READ_HEADER_TIMEOUT_SECONDS")) * time.Second,
			ReadTimeout:       time.Duration(v.GetInt("READ_TIMEOUT_SECONDS")) * time.Second,
			WriteTimeout:      time.Duration(v.GetInt("WRITE_TIMEOUT_SECONDS")) * time.Second,
		},
		Site: SiteConfig{
			Root:              root,
			ShellPage:         v.GetString("SHELL_PAGE"),
			DataDir:           dataDir,
			DefaultsDir:       defaultsDir,
			UploadDir:         uploadDir,
			UploadURLPrefix:   strings.TrimRight(v.GetString("UPLOAD_URL_PREFIX"), "/"),
			ContentFile:       v.GetString("CONTENT_FILE"),
			LegacyContentFile: v.GetString("LEGACY_CONTENT_FILE"),
			NavbarFile:        v.GetString("NAVBAR_FILE"),
			SectionsDir:       sectionsDir,
			Prerender:         v.GetBool("SITE_PRERENDER"),
			WatchFragments:    v.GetBool("WATCH_FRAGMENTS"),
		},
		Storage: StorageConfig{
			MinIOEndpoint:  v.GetString("MINIO_ENDPOINT"),
			MinIOAccessKey: v.GetString("MINIO_ACCESS_KEY"),
			MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
			MinIOUseSSL:    v.GetBool("MINIO_USE_SSL"),
			MinIOBucket:    v.GetString("MINIO_BUCKET"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Editor: EditorConfig{
			JWTSecret:    os.Getenv("EDITOR_JWT_SECRET"),
			TokenTTL:     time.Duration(v.GetInt("EDITOR_TOKEN_TTL")) * time.Hour,
			OIDCIssuer:   v.GetString("EDITOR_OIDC_ISSUER"),
			OIDCClientID: v.GetString("EDITOR_OIDC_CLIENT_ID"),
		},
		CDN: CDNConfig{
			AllowedHosts: splitList(v.GetString("CDN_ALLOWED_HOSTS")),
		},
	}

	if cfg.Editor.JWTSecret != "" && len(cfg.Editor.JWTSecret) < 32 {
		logger.Warnf("EDITOR_JWT_SECRET is shorter than 32 bytes; use a longer value in production")
	}
	if cfg.RateLimit.UseRedis && cfg.Redis.Host == "" {
		logger.Warnf("RATE_LIMIT_USE_REDIS set without REDIS_HOST; falling back to the in-memory limiter")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
