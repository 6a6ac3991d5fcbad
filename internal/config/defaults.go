package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultNeo4jURI                = "bolt://localhost:7687"
	DefaultNeo4jPoolSize           = 50
	DefaultNeo4jConnectionTimeout  = 30 * time.Second
	DefaultNeo4jAcquisitionTimeout = 60 * time.Second
	DefaultNeo4jMaxRetryTime       = 30 * time.Second

	DefaultNodeBatchSize = 1000
	DefaultEdgeBatchSize = 1000
	DefaultChannelDepth  = 4096

	DefaultSourceEndpoint = "s3.amazonaws.com"

	DefaultLockTTL            = 30 * time.Second
	DefaultEventsTopic        = "patentsview.load.completed"
	DefaultEventsWriteTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// DefaultRequiredTables lists the tables whose absence aborts the run.
var DefaultRequiredTables = []string{"patent"}

// ApplyDefaults fills every zero-value field in cfg. Explicitly set values
// are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = DefaultNeo4jPoolSize
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = DefaultNeo4jConnectionTimeout
	}
	if cfg.Neo4j.AcquisitionTimeout == 0 {
		cfg.Neo4j.AcquisitionTimeout = DefaultNeo4jAcquisitionTimeout
	}
	if cfg.Neo4j.MaxTransactionRetryTime == 0 {
		cfg.Neo4j.MaxTransactionRetryTime = DefaultNeo4jMaxRetryTime
	}

	// ── Load ──────────────────────────────────────────────────────────────────
	if cfg.Load.NodeBatchSize == 0 {
		cfg.Load.NodeBatchSize = DefaultNodeBatchSize
	}
	if cfg.Load.EdgeBatchSize == 0 {
		cfg.Load.EdgeBatchSize = DefaultEdgeBatchSize
	}
	if cfg.Load.ChannelDepth == 0 {
		cfg.Load.ChannelDepth = DefaultChannelDepth
	}
	if cfg.Load.RequiredTables == nil {
		cfg.Load.RequiredTables = append([]string(nil), DefaultRequiredTables...)
	}

	// ── Source ────────────────────────────────────────────────────────────────
	if cfg.Source.Endpoint == "" {
		cfg.Source.Endpoint = DefaultSourceEndpoint
	}

	// ── Lock / Events ─────────────────────────────────────────────────────────
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = DefaultLockTTL
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = DefaultEventsTopic
	}
	if cfg.Events.WriteTimeout == 0 {
		cfg.Events.WriteTimeout = DefaultEventsWriteTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// registerKeys declares every key to viper so that PVGRAPH_* variables are
// picked up by Unmarshal even when no config file mentions them.
func registerKeys(v *viper.Viper) {
	v.SetDefault("neo4j.uri", DefaultNeo4jURI)
	v.SetDefault("neo4j.database", "")
	v.SetDefault("neo4j.max_connection_pool_size", DefaultNeo4jPoolSize)
	v.SetDefault("neo4j.connection_timeout", DefaultNeo4jConnectionTimeout)
	v.SetDefault("neo4j.acquisition_timeout", DefaultNeo4jAcquisitionTimeout)
	v.SetDefault("neo4j.max_transaction_retry_time", DefaultNeo4jMaxRetryTime)

	v.SetDefault("load.node_batch_size", DefaultNodeBatchSize)
	v.SetDefault("load.edge_batch_size", DefaultEdgeBatchSize)
	v.SetDefault("load.channel_depth", DefaultChannelDepth)
	v.SetDefault("load.include_abstract", false)
	v.SetDefault("load.required_tables", DefaultRequiredTables)
	v.SetDefault("load.tables", []string{})
	v.SetDefault("load.skip_enrichment", false)

	v.SetDefault("source.endpoint", DefaultSourceEndpoint)
	v.SetDefault("source.access_key", "")
	v.SetDefault("source.secret_key", "")
	v.SetDefault("source.region", "")
	v.SetDefault("source.use_ssl", true)
	v.SetDefault("source.cache_dir", "")

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("metrics.textfile_path", "")

	v.SetDefault("lock.redis_addr", "")
	v.SetDefault("lock.username", "")
	v.SetDefault("lock.password", "")
	v.SetDefault("lock.db", 0)
	v.SetDefault("lock.ttl", DefaultLockTTL)
	v.SetDefault("lock.wait", time.Duration(0))

	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", DefaultEventsTopic)
	v.SetDefault("events.write_timeout", DefaultEventsWriteTimeout)
}

//Personal.AI order the ending
