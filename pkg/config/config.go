package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Backend   BackendConfig
	Report    ReportConfig
	Generate  GenerateConfig
	Uploads   UploadsConfig
	Downloads DownloadsConfig
	Cache     CacheConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
}

// BackendConfig points the console at the student-data service.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ReportConfig holds the report view defaults.
type ReportConfig struct {
	PageSize  int
	SortBy    string
	SortOrder string
}

// GenerateConfig holds the generate panel defaults.
type GenerateConfig struct {
	DefaultRecordCount int
}

// UploadsConfig limits files accepted by the process/upload panels.
type UploadsConfig struct {
	MaxFileSizeBytes int64
}

// DownloadsConfig controls staged export downloads.
type DownloadsConfig struct {
	StorageDir      string
	SignedURLSecret string
	TTL             time.Duration
	CleanupInterval time.Duration
}

// CacheConfig toggles caching of lookup data (class list).
type CacheConfig struct {
	Enabled    bool
	ClassesTTL time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Backend = BackendConfig{
		BaseURL: strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("BACKEND_TIMEOUT"), 2*time.Minute),
	}

	pageSize := v.GetInt("REPORT_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 20
	}
	cfg.Report = ReportConfig{
		PageSize:  pageSize,
		SortBy:    v.GetString("REPORT_SORT_BY"),
		SortOrder: v.GetString("REPORT_SORT_ORDER"),
	}

	cfg.Generate = GenerateConfig{
		DefaultRecordCount: v.GetInt("GENERATE_DEFAULT_RECORDS"),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 100 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{MaxFileSizeBytes: maxUpload}

	cfg.Downloads = DownloadsConfig{
		StorageDir:      v.GetString("DOWNLOADS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("DOWNLOADS_SIGNED_URL_SECRET"),
		TTL:             parseDuration(v.GetString("DOWNLOADS_TTL"), 10*time.Minute),
		CleanupInterval: parseDuration(v.GetString("DOWNLOADS_CLEANUP_INTERVAL"), 5*time.Minute),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		ClassesTTL: parseDuration(v.GetString("CLASSES_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/console")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8083/api")
	v.SetDefault("BACKEND_TIMEOUT", "2m")

	v.SetDefault("REPORT_PAGE_SIZE", 20)
	v.SetDefault("REPORT_SORT_BY", "studentId")
	v.SetDefault("REPORT_SORT_ORDER", "asc")

	v.SetDefault("GENERATE_DEFAULT_RECORDS", 1000000)
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 100*1024*1024)

	v.SetDefault("DOWNLOADS_STORAGE_DIR", "./downloads")
	v.SetDefault("DOWNLOADS_SIGNED_URL_SECRET", "dev_downloads_secret")
	v.SetDefault("DOWNLOADS_TTL", "10m")
	v.SetDefault("DOWNLOADS_CLEANUP_INTERVAL", "5m")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CLASSES_CACHE_TTL", "10m")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
