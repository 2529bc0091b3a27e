package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithStorageURL configures the blob store from a STORAGE_URL style value
func WithStorageURL(raw string) Option {
	return func(c *ServerConfig) error {
		storage, err := ParseStorageURL(raw)
		if err != nil {
			return err
		}
		c.Storage = storage
		return nil
	}
}

// WithYouTubeAPIKey sets the YouTube Data API key
func WithYouTubeAPIKey(key string) Option {
	return func(c *ServerConfig) error {
		c.YouTubeAPIKey = key
		return nil
	}
}

// WithMetadataTimeout bounds every third-party lookup
func WithMetadataTimeout(d time.Duration) Option {
	return func(c *ServerConfig) error {
		if d <= 0 {
			return fmt.Errorf("metadata timeout must be positive")
		}
		c.MetadataTimeout = d
		return nil
	}
}

// WithPublicPathPrefix sets the path local assets are served under
func WithPublicPathPrefix(prefix string) Option {
	return func(c *ServerConfig) error {
		c.PublicPathPrefix = prefix
		return nil
	}
}

// WithMaxUploadBytes caps the size of a write request body
func WithMaxUploadBytes(n int64) Option {
	return func(c *ServerConfig) error {
		c.MaxUploadBytes = n
		return nil
	}
}

// WithMetrics toggles the Prometheus event sink
func WithMetrics(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = enabled
		return nil
	}
}
