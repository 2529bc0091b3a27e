package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig mirrors the supported environment variables. Empty values leave
// the current setting untouched.
type envConfig struct {
	Port        string `env:"PORT"`
	Environment string `env:"ENVIRONMENT"`
	LogLevel    string `env:"LOG_LEVEL"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBSchema    string `env:"DB_SCHEMA"`

	StorageURL         string `env:"STORAGE_URL"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION"`

	PublicPathPrefix string `env:"PUBLIC_PATH_PREFIX"`
	MaxUploadBytes   string `env:"MAX_UPLOAD_BYTES"`

	YouTubeAPIKey       string `env:"YOUTUBE_API_KEY"`
	YouTubeAPIURL       string `env:"YOUTUBE_API_URL"`
	SoundCloudOEmbedURL string `env:"SOUNDCLOUD_OEMBED_URL"`
	MetadataTimeout     string `env:"METADATA_TIMEOUT"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	EnableMetrics      string `env:"ENABLE_METRICS"`
}

// WithEnv applies environment variable overrides.
//
// Server:
//
//	PORT, ENVIRONMENT, LOG_LEVEL
//
// Database:
//
//	DATABASE_URL - "postgres://..." or "postgresql://..."; empty or "memory" uses the in-memory store
//	DB_SCHEMA    - Postgres schema (search_path)
//
// Storage:
//
//	STORAGE_URL - one of
//	              "memory://" (default)
//	              "file:///path/to/uploads"
//	              "s3://bucket/optional/prefix?region=us-east-1&endpoint=http://localhost:9000&path_style=true&create_bucket=true"
//	AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION - S3 credentials
//
// Assets and metadata:
//
//	PUBLIC_PATH_PREFIX, MAX_UPLOAD_BYTES, YOUTUBE_API_KEY, YOUTUBE_API_URL,
//	SOUNDCLOUD_OEMBED_URL, METADATA_TIMEOUT (Go duration or seconds)
//
// HTTP:
//
//	CORS_ALLOWED_ORIGINS (comma separated), ENABLE_METRICS
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var e envConfig
		if err := cleanenv.ReadEnv(&e); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return e.apply(c)
	}
}

func (e *envConfig) apply(c *ServerConfig) error {
	setString(&c.Port, e.Port)
	setString(&c.Environment, e.Environment)
	setString(&c.LogLevel, e.LogLevel)
	setString(&c.DBSchema, e.DBSchema)
	setString(&c.PublicPathPrefix, e.PublicPathPrefix)
	setString(&c.YouTubeAPIKey, e.YouTubeAPIKey)
	setString(&c.YouTubeAPIURL, e.YouTubeAPIURL)
	setString(&c.SoundCloudOEmbedURL, e.SoundCloudOEmbedURL)

	if err := applyDatabaseURL(e.DatabaseURL, c); err != nil {
		return err
	}

	if e.StorageURL != "" {
		storage, err := ParseStorageURL(e.StorageURL)
		if err != nil {
			return err
		}
		c.Storage = storage
	}
	if c.Storage.Type == "s3" {
		setString(&c.Storage.AccessKeyID, e.AWSAccessKeyID)
		setString(&c.Storage.SecretAccessKey, e.AWSSecretAccessKey)
		if c.Storage.Region == "" {
			setString(&c.Storage.Region, e.AWSRegion)
		}
	}

	if e.MaxUploadBytes != "" {
		n, err := strconv.ParseInt(e.MaxUploadBytes, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer for MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}

	if e.MetadataTimeout != "" {
		d, err := parseDuration(e.MetadataTimeout)
		if err != nil {
			return fmt.Errorf("invalid duration for METADATA_TIMEOUT: %w", err)
		}
		c.MetadataTimeout = d
	}

	if e.CORSAllowedOrigins != "" {
		c.CORSAllowedOrigins = splitList(e.CORSAllowedOrigins)
	}

	if e.EnableMetrics != "" {
		b, err := strconv.ParseBool(e.EnableMetrics)
		if err != nil {
			return fmt.Errorf("invalid boolean for ENABLE_METRICS: %w", err)
		}
		c.EnableMetrics = b
	}

	return nil
}

// applyDatabaseURL infers the database type from the URL scheme
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "":
		return nil
	case dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format (use 'memory' or 'postgres://...')")
	}
	return nil
}

// ParseStorageURL parses a STORAGE_URL value into a StorageConfig
func ParseStorageURL(raw string) (StorageConfig, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == "memory" || raw == "memory://":
		return StorageConfig{Type: "memory"}, nil

	case strings.HasPrefix(raw, "file://"):
		dir := strings.TrimPrefix(raw, "file://")
		if dir == "" {
			return StorageConfig{}, fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		return StorageConfig{Type: "fs", BaseDir: dir}, nil

	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return StorageConfig{}, fmt.Errorf("invalid STORAGE_URL: %w", err)
		}
		if u.Host == "" {
			return StorageConfig{}, fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
		}
		q := u.Query()
		cfg := StorageConfig{
			Type:      "s3",
			Bucket:    u.Host,
			KeyPrefix: strings.Trim(u.Path, "/"),
			Region:    q.Get("region"),
			Endpoint:  q.Get("endpoint"),
		}
		if cfg.UsePathStyle, err = queryBool(q, "path_style"); err != nil {
			return StorageConfig{}, err
		}
		if cfg.CreateBucketIfNotExist, err = queryBool(q, "create_bucket"); err != nil {
			return StorageConfig{}, err
		}
		return cfg, nil
	}

	return StorageConfig{}, fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
}

func queryBool(q url.Values, key string) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for STORAGE_URL %s: %w", key, err)
	}
	return b, nil
}

// parseDuration accepts Go durations ("750ms") and whole seconds ("5")
func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
