// Package config defines the configuration structures of the PatentsView
// graph loader. No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// Neo4jConfig holds graph store connection parameters. Username and password
// are never read from here; they come from the credential file.
type Neo4jConfig struct {
	URI                     string        `mapstructure:"uri"`
	Database                string        `mapstructure:"database"`
	MaxConnectionPoolSize   int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout"`
	AcquisitionTimeout      time.Duration `mapstructure:"acquisition_timeout"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time"`
}

// LoadConfig holds the tunables of the load pipeline.
type LoadConfig struct {
	NodeBatchSize int `mapstructure:"node_batch_size"`
	EdgeBatchSize int `mapstructure:"edge_batch_size"`

	// ChannelDepth bounds the number of parsed rows buffered between the
	// reader and the writer goroutine of a table.
	ChannelDepth int `mapstructure:"channel_depth"`

	// IncludeAbstract stores the patent abstract text on Patent nodes.
	IncludeAbstract bool `mapstructure:"include_abstract"`

	// RequiredTables must be present in the data directory; any other known
	// table is optional and skipped with a warning when absent.
	RequiredTables []string `mapstructure:"required_tables"`

	// Tables restricts the run to a subset of tables. Empty means all.
	Tables []string `mapstructure:"tables"`

	// SkipEnrichment disables the application/claim/count enrichment stage.
	SkipEnrichment bool `mapstructure:"skip_enrichment"`
}

// SourceConfig configures the S3-compatible object store used when the data
// directory argument is an s3://bucket/prefix URL.
type SourceConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`

	// CacheDir receives the mirrored objects. Empty means a temporary
	// directory removed after the run.
	CacheDir string `mapstructure:"cache_dir"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// MetricsConfig controls the Prometheus textfile written at the end of a run.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// LockConfig enables the run lock. With an empty RedisAddr no lock is taken.
type LockConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TTL       time.Duration `mapstructure:"ttl"`

	// Wait is how long to retry when another run holds the lock. Zero fails
	// at once.
	Wait time.Duration `mapstructure:"wait"`
}

// Enabled reports whether a lock store is configured.
func (c LockConfig) Enabled() bool { return c.RedisAddr != "" }

// EventsConfig enables the run-completion event. With no brokers nothing is
// published.
type EventsConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Enabled reports whether events are published.
func (c EventsConfig) Enabled() bool { return len(c.Brokers) > 0 }

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure of the loader.
type Config struct {
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	Load    LoadConfig    `mapstructure:"load"`
	Source  SourceConfig  `mapstructure:"source"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Lock    LockConfig    `mapstructure:"lock"`
	Events  EventsConfig  `mapstructure:"events"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	// Neo4j
	if c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}
	if !hasAnyPrefix(c.Neo4j.URI, "bolt://", "bolt+s://", "bolt+ssc://", "neo4j://", "neo4j+s://", "neo4j+ssc://") {
		return fmt.Errorf("config: neo4j.uri %q has an unsupported scheme", c.Neo4j.URI)
	}
	if c.Neo4j.MaxConnectionPoolSize < 1 {
		return fmt.Errorf("config: neo4j.max_connection_pool_size must be ≥ 1, got %d", c.Neo4j.MaxConnectionPoolSize)
	}

	// Load
	if c.Load.NodeBatchSize < 1 {
		return fmt.Errorf("config: load.node_batch_size must be ≥ 1, got %d", c.Load.NodeBatchSize)
	}
	if c.Load.EdgeBatchSize < 1 {
		return fmt.Errorf("config: load.edge_batch_size must be ≥ 1, got %d", c.Load.EdgeBatchSize)
	}
	if c.Load.ChannelDepth < 0 {
		return fmt.Errorf("config: load.channel_depth must be ≥ 0, got %d", c.Load.ChannelDepth)
	}
	for _, t := range c.Load.RequiredTables {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("config: load.required_tables contains an empty name")
		}
	}

	// Lock
	if c.Lock.Enabled() && c.Lock.TTL < time.Second {
		return fmt.Errorf("config: lock.ttl must be at least 1s, got %s", c.Lock.TTL)
	}
	if c.Lock.Wait < 0 {
		return fmt.Errorf("config: lock.wait must be ≥ 0, got %s", c.Lock.Wait)
	}

	// Events
	if c.Events.Enabled() && strings.TrimSpace(c.Events.Topic) == "" {
		return fmt.Errorf("config: events.topic is required when events.brokers is set")
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
