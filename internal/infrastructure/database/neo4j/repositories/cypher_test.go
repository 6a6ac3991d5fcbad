package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

func TestMergeNodesCypher(t *testing.T) {
	q, err := mergeNodesCypher(graph.InventorKind)
	require.NoError(t, err)
	assert.Equal(t, "UNWIND $rows AS row\nMERGE (n:Inventor {inventor_id: row.key})\nSET n += row.props", q)
}

func TestMergeEdgesCypher_MatchAndMerge(t *testing.T) {
	q, err := mergeEdgesCypher(graph.BatchKey{Type: graph.RelOwns, From: graph.AssigneeKind, To: graph.PatentKind})
	require.NoError(t, err)
	assert.Equal(t, "UNWIND $rows AS row\n"+
		"MATCH (a:Assignee {assignee_id: row.from})\n"+
		"MATCH (b:Patent {pid: row.to})\n"+
		"MERGE (a)-[r:OWNS]->(b)\n"+
		"SET r += row.props", q)

	q, err = mergeEdgesCypher(graph.BatchKey{Type: graph.RelLocatesAt, From: graph.InventorKind, To: graph.LocationKind, ToMode: graph.Merge})
	require.NoError(t, err)
	assert.Contains(t, q, "MERGE (b:Location {location_id: row.to})")
}

func TestNodeKeysCypher(t *testing.T) {
	q, err := nodeKeysCypher(graph.AssigneeKind)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n:Assignee)\nRETURN n.assignee_id AS key", q)
}

func TestConstraintCypher(t *testing.T) {
	q, err := constraintCypher(graph.Constraint{Name: "uniq_CpcGroup_code", Kind: graph.NodeKind{Label: graph.LabelCPCGroup, Key: graph.KeyClassification}})
	require.NoError(t, err)
	assert.Equal(t, "CREATE CONSTRAINT uniq_CpcGroup_code IF NOT EXISTS FOR (n:CpcGroup) REQUIRE n.code IS UNIQUE", q)
}

func TestIdentifiersAreValidated(t *testing.T) {
	bad := []graph.NodeKind{
		{Label: "Patent) DETACH DELETE n //", Key: "pid"},
		{Label: "Patent", Key: "1pid"},
		{Label: "", Key: "pid"},
	}
	for _, k := range bad {
		_, err := mergeNodesCypher(k)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation), "label %q key %q", k.Label, k.Key)
		_, err = setPropertiesCypher(k)
		assert.Error(t, err)
	}
	_, err := mergeEdgesCypher(graph.BatchKey{Type: "CITES-ALL", From: graph.PatentKind, To: graph.PatentKind})
	assert.Error(t, err)
}

//Personal.AI order the ending
