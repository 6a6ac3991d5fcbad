package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultNeo4jURI, cfg.Neo4j.URI)
	assert.Equal(t, DefaultNeo4jPoolSize, cfg.Neo4j.MaxConnectionPoolSize)
	assert.Equal(t, DefaultNodeBatchSize, cfg.Load.NodeBatchSize)
	assert.Equal(t, DefaultEdgeBatchSize, cfg.Load.EdgeBatchSize)
	assert.Equal(t, []string{"patent"}, cfg.Load.RequiredTables)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultLockTTL, cfg.Lock.TTL)
	assert.False(t, cfg.Lock.Enabled())
	assert.Equal(t, DefaultEventsTopic, cfg.Events.Topic)
	assert.False(t, cfg.Events.Enabled())
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Load.NodeBatchSize = 17
	cfg.Load.RequiredTables = []string{}
	ApplyDefaults(cfg)

	assert.Equal(t, 17, cfg.Load.NodeBatchSize)
	assert.Empty(t, cfg.Load.RequiredTables)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
