package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/portfolio-content/pkg/portfolio"
	"github.com/tendant/portfolio-content/pkg/portfolio/metadata"
	"github.com/tendant/portfolio-content/pkg/portfolio/metrics"
	"github.com/tendant/portfolio-content/pkg/portfolio/repo/memory"
	repopg "github.com/tendant/portfolio-content/pkg/portfolio/repo/postgres"
	fsstorage "github.com/tendant/portfolio-content/pkg/portfolio/storage/fs"
	memorystorage "github.com/tendant/portfolio-content/pkg/portfolio/storage/memory"
	s3storage "github.com/tendant/portfolio-content/pkg/portfolio/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		LogLevel:    "info",

		DatabaseType: "memory",
		DBSchema:     "public",

		Storage: StorageConfig{Type: "memory"},

		PublicPathPrefix: "/uploads",
		MaxUploadBytes:   200 << 20,

		SoundCloudOEmbedURL: metadata.DefaultSoundCloudOEmbedURL,
		YouTubeAPIURL:       metadata.DefaultYouTubeAPIURL,
		MetadataTimeout:     5 * time.Second,

		CORSAllowedOrigins: []string{"*"},
		EnableMetrics:      true,
	}
}

// ServerConfig represents configuration for the portfolio content server
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	LogLevel    string // debug, info, warn, error

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: public)

	// Storage configuration
	Storage StorageConfig

	// PublicPathPrefix is the URL path local assets are served under
	PublicPathPrefix string
	MaxUploadBytes   int64

	// Metadata lookups
	SoundCloudOEmbedURL string
	YouTubeAPIURL       string
	YouTubeAPIKey       string
	MetadataTimeout     time.Duration

	// HTTP options
	CORSAllowedOrigins []string
	EnableMetrics      bool
}

// StorageConfig describes the blob store backend
type StorageConfig struct {
	Type string // "memory", "fs", "s3"

	// fs
	BaseDir string

	// s3
	Bucket                 string
	KeyPrefix              string
	Region                 string
	Endpoint               string
	AccessKeyID            string
	SecretAccessKey        string
	UsePathStyle           bool
	CreateBucketIfNotExist bool
}

// IsDevelopment reports whether the server runs in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.Storage.Type {
	case "memory":
	case "fs":
		if c.Storage.BaseDir == "" {
			return errors.New("storage base directory is required for fs storage")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if !strings.HasPrefix(c.PublicPathPrefix, "/") || c.PublicPathPrefix == "/" {
		return fmt.Errorf("public_path_prefix must be an absolute path below /, got %q", c.PublicPathPrefix)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.MetadataTimeout <= 0 {
		return errors.New("metadata_timeout must be positive")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.LogLevel)
	}

	return nil
}

// SlogLevel maps LogLevel onto slog
func (c *ServerConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Runtime bundles the service with the handles it was built from
type Runtime struct {
	Service    portfolio.Service
	Repository portfolio.Repository
	BlobStore  portfolio.BlobStore
	Resolver   *metadata.Resolver
	Reconciler *portfolio.Reconciler

	// Pool is nil unless DatabaseType is postgres
	Pool *pgxpool.Pool

	// Warnings lists degraded but usable settings
	Warnings []string
}

// Close releases store handles
func (r *Runtime) Close() {
	if r.Pool != nil {
		r.Pool.Close()
	}
}

// BuildService creates the service and its stores. reg may be nil to skip
// metrics. Callers must Close the returned Runtime.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger, reg prometheus.Registerer) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}

	repo, pool, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	rt.Repository = repo
	rt.Pool = pool

	store, err := c.buildStorageBackend(ctx)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Type, err)
	}
	rt.BlobStore = store

	rt.Resolver = metadata.New(metadata.Config{
		SoundCloudOEmbedURL: c.SoundCloudOEmbedURL,
		YouTubeAPIURL:       c.YouTubeAPIURL,
		YouTubeAPIKey:       c.YouTubeAPIKey,
		Timeout:             c.MetadataTimeout,
		Logger:              logger,
	})
	if !rt.Resolver.HasYouTubeKey() {
		rt.Warnings = append(rt.Warnings, "YOUTUBE_API_KEY is not set; video detail lookups will fail")
	}

	sinks := portfolio.MultiEventSink{portfolio.NewLoggingEventSink(logger)}
	if c.EnableMetrics && reg != nil {
		sinks = append(sinks, metrics.NewEventSink(reg))
	}

	svc, err := portfolio.New(
		portfolio.WithRepository(repo),
		portfolio.WithBlobStore(c.Storage.Type, store),
		portfolio.WithMetadataResolver(rt.Resolver),
		portfolio.WithEventSink(sinks),
		portfolio.WithLogger(logger),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Service = svc
	rt.Reconciler = portfolio.NewReconciler(repo, store, sinks, logger)

	for _, w := range rt.Warnings {
		logger.Warn("Configuration warning", "warning", w)
	}
	return rt, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (portfolio.Repository, *pgxpool.Pool, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil, nil
	case "postgres":
		pool, err := OpenPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, nil, err
		}
		return repopg.NewWithPool(pool), pool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// OpenPool opens a pgx pool whose sessions use schema as search_path
func OpenPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		ident := pgx.Identifier{schema}.Sanitize()
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+ident)
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres with the configured schema.
func PingPostgres(ctx context.Context, databaseURL, schema string) error {
	pool, err := OpenPool(ctx, databaseURL, schema)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// MigratePostgres creates the schema if needed and applies the table definitions
func MigratePostgres(ctx context.Context, databaseURL, schema string) error {
	if schema != "" && schema != "public" {
		admin, err := OpenPool(ctx, databaseURL, "")
		if err != nil {
			return err
		}
		_, err = admin.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize())
		admin.Close()
		if err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}

	pool, err := OpenPool(ctx, databaseURL, schema)
	if err != nil {
		return err
	}
	defer pool.Close()
	return repopg.Migrate(ctx, pool)
}

// buildStorageBackend creates a BlobStore based on the storage configuration
func (c *ServerConfig) buildStorageBackend(ctx context.Context) (portfolio.BlobStore, error) {
	s := c.Storage
	switch s.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		store, err := fsstorage.New(fsstorage.Config{BaseDir: s.BaseDir})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "s3":
		store, err := s3storage.New(ctx, s3storage.Config{
			Region:                 s.Region,
			Bucket:                 s.Bucket,
			KeyPrefix:              s.KeyPrefix,
			AccessKeyID:            s.AccessKeyID,
			SecretAccessKey:        s.SecretAccessKey,
			Endpoint:               s.Endpoint,
			UsePathStyle:           s.UsePathStyle,
			CreateBucketIfNotExist: s.CreateBucketIfNotExist,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", s.Type)
	}
}
