package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

const validConfigYAML = `
neo4j:
  uri: "bolt://graph.internal:7687"
  database: "patents"
  connection_timeout: 10s
load:
  node_batch_size: 500
  edge_batch_size: 2000
  include_abstract: true
  required_tables: ["patent", "uspatentcitation"]
log:
  level: debug
  format: json
metrics:
  textfile_path: /var/lib/node_exporter/patentsview.prom
lock:
  redis_addr: redis.internal:6379
  wait: 2m
events:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
`

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempFile(t, "config.yaml", validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bolt://graph.internal:7687", cfg.Neo4j.URI)
	assert.Equal(t, "patents", cfg.Neo4j.Database)
	assert.Equal(t, 10*time.Second, cfg.Neo4j.ConnectionTimeout)
	assert.Equal(t, DefaultNeo4jAcquisitionTimeout, cfg.Neo4j.AcquisitionTimeout)
	assert.Equal(t, 500, cfg.Load.NodeBatchSize)
	assert.Equal(t, 2000, cfg.Load.EdgeBatchSize)
	assert.True(t, cfg.Load.IncludeAbstract)
	assert.Equal(t, []string{"patent", "uspatentcitation"}, cfg.Load.RequiredTables)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/var/lib/node_exporter/patentsview.prom", cfg.Metrics.TextfilePath)
	assert.Equal(t, "redis.internal:6379", cfg.Lock.RedisAddr)
	assert.Equal(t, 2*time.Minute, cfg.Lock.Wait)
	assert.Equal(t, DefaultLockTTL, cfg.Lock.TTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, DefaultEventsTopic, cfg.Events.Topic)
}

func TestLoad_NoFile_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultNeo4jURI, cfg.Neo4j.URI)
	assert.Equal(t, []string{"patent"}, cfg.Load.RequiredTables)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := createTempFile(t, "config.yaml", "neo4j: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := createTempFile(t, "config.yaml", "load:\n  node_batch_size: -3\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempFile(t, "config.yaml", validConfigYAML)
	t.Setenv("PVGRAPH_LOAD_NODE_BATCH_SIZE", "42")
	t.Setenv("PVGRAPH_NEO4J_URI", "neo4j://cluster:7687")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Load.NodeBatchSize)
	assert.Equal(t, "neo4j://cluster:7687", cfg.Neo4j.URI)
}

func TestLoadFromEnv_SliceOverride(t *testing.T) {
	t.Setenv("PVGRAPH_LOAD_TABLES", "patent,assignee")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"patent", "assignee"}, cfg.Load.Tables)
}

// ─────────────────────────────────────────────────────────────────────────────
// Credentials
// ─────────────────────────────────────────────────────────────────────────────

func TestReadCredentials_TrimsWhitespace(t *testing.T) {
	path := createTempFile(t, "cred", "  alice \n\tsecret123  \nignored\n")
	user, pass, err := ReadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "secret123", pass)
}

func TestReadCredentials_Errors(t *testing.T) {
	cases := map[string]string{
		"single line":    "alice\n",
		"empty file":     "",
		"empty username": "\nsecret\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := createTempFile(t, "cred", content)
			_, _, err := ReadCredentials(path)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeCredentialFile))
			assert.Equal(t, pkgerrors.ExitConfig, pkgerrors.ExitCode(err))
		})
	}
}

func TestReadCredentials_MissingFile(t *testing.T) {
	_, _, err := ReadCredentials(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeCredentialFile))
}

func TestNewConnectionDescriptor(t *testing.T) {
	path := createTempFile(t, "cred", "alice\nsecret123\n")
	d, err := NewConnectionDescriptor(Neo4jConfig{URI: "bolt://localhost:7687"}, path)
	require.NoError(t, err)
	assert.Equal(t, "alice", d.Username)
	assert.Equal(t, "secret123", d.Password)
	assert.NotContains(t, d.String(), "secret123")
}

// ─────────────────────────────────────────────────────────────────────────────
// Data directory
// ─────────────────────────────────────────────────────────────────────────────

func TestResolveDataDir_Local(t *testing.T) {
	dir := t.TempDir()
	d, err := ResolveDataDir(dir)
	require.NoError(t, err)
	assert.False(t, d.IsRemote())
	assert.Equal(t, dir, d.Path)
}

func TestResolveDataDir_Errors(t *testing.T) {
	file := createTempFile(t, "patent.tsv", "id\n")
	for _, arg := range []string{"", filepath.Join(t.TempDir(), "missing"), file, "s3://"} {
		_, err := ResolveDataDir(arg)
		require.Error(t, err, arg)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDataDir), arg)
	}
}

func TestResolveDataDir_S3(t *testing.T) {
	d, err := ResolveDataDir("s3://patentsview/2023/legacy/")
	require.NoError(t, err)
	assert.True(t, d.IsRemote())
	assert.Equal(t, "patentsview", d.Bucket)
	assert.Equal(t, "2023/legacy", d.Prefix)
	assert.Equal(t, "s3://patentsview/2023/legacy", d.String())
}

//Personal.AI order the ending
