package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
	infraNeo4j "github.com/turtacn/patentsview-graph/internal/infrastructure/database/neo4j"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

type GraphWriterTestSuite struct {
	suite.Suite
	session *MockSession
	tx      *FakeTransaction
	writer  *GraphWriter
}

func (s *GraphWriterTestSuite) SetupTest() {
	s.session, s.tx = SetupMockSession(s.T())
	s.writer = NewGraphWriter(s.session, WriterOptions{NodeBatchSize: 2, EdgeBatchSize: 2}, logging.NewNopLogger())
}

func (s *GraphWriterTestSuite) TestMergeNodes_GroupsByKindAndChunks() {
	nodes := []graph.NodeRequest{
		{Kind: graph.PatentKind, Key: "P1", Props: graph.Props{"title": "one"}},
		{Kind: graph.AssigneeKind, Key: "A1", Props: graph.Props{}},
		{Kind: graph.PatentKind, Key: "P2", Props: graph.Props{}},
		{Kind: graph.PatentKind, Key: "P3", Props: graph.Props{}},
	}
	report, err := s.writer.MergeNodes(context.Background(), nodes)
	s.Require().NoError(err)

	s.Equal(4, report.Requested)
	s.Equal(4, report.Created)
	s.Empty(report.Failed)

	s.Require().Len(s.tx.Calls, 3)
	s.Contains(s.tx.Calls[0].Cypher, "MERGE (n:Patent {pid: row.key})")
	s.Len(s.tx.Calls[0].Rows, 2)
	s.Len(s.tx.Calls[1].Rows, 1)
	s.Contains(s.tx.Calls[2].Cypher, "MERGE (n:Assignee {assignee_id: row.key})")
}

func (s *GraphWriterTestSuite) TestMergeNodes_ConvertsDatesAndPoints() {
	d := time.Date(1976, 1, 6, 0, 0, 0, 0, time.UTC)
	_, err := s.writer.MergeNodes(context.Background(), []graph.NodeRequest{
		{Kind: graph.PatentKind, Key: "P1", Props: graph.Props{"date": d}},
		{Kind: graph.LocationKind, Key: "L1", Props: graph.Props{"gps": graph.WGS84(-97.75, 30.25)}},
	})
	s.Require().NoError(err)

	props := s.tx.Calls[0].Rows[0][fieldProps].(map[string]any)
	s.Equal(neo4j.DateOf(d), props["date"])

	props = s.tx.Calls[1].Rows[0][fieldProps].(map[string]any)
	s.Equal(neo4j.Point2D{X: -97.75, Y: 30.25, SpatialRefId: 4326}, props["gps"])
}

func (s *GraphWriterTestSuite) TestMergeNodes_RetriesRowsAfterBatchFailure() {
	s.tx.Reject = func(row map[string]any) error {
		if row[fieldKey] == "BAD" {
			return errors.New("Neo.ClientError.Statement.TypeError")
		}
		return nil
	}
	nodes := []graph.NodeRequest{
		{Kind: graph.AssigneeKind, Key: "A1"},
		{Kind: graph.PatentKind, Key: "P1"},
		{Kind: graph.PatentKind, Key: "BAD"},
	}
	report, err := s.writer.MergeNodes(context.Background(), nodes)
	s.Require().NoError(err)

	s.Equal(3, report.Requested)
	s.Equal(2, report.Written())
	s.Require().Len(report.Failed, 1)
	s.Equal(2, report.Failed[0].Index)
	s.True(pkgerrors.IsKind(report.Failed[0].Err, pkgerrors.KindWrite))
	s.Contains(report.Failed[0].Err.Error(), "Patent BAD")
}

func (s *GraphWriterTestSuite) TestMergeNodes_ConnectionLossIsFatal() {
	s.tx.Reject = func(map[string]any) error { return &neo4j.ConnectivityError{Inner: errors.New("broken pipe")} }

	_, err := s.writer.MergeNodes(context.Background(), []graph.NodeRequest{{Kind: graph.PatentKind, Key: "P1"}})
	s.Require().Error(err)
	s.True(pkgerrors.IsKind(err, pkgerrors.KindConnection))
}

func (s *GraphWriterTestSuite) TestMergeNodes_HealthCheckFailureIsFatal() {
	s.tx.Reject = func(map[string]any) error { return errors.New("timeout") }
	w := NewGraphWriter(s.session, WriterOptions{HealthCheck: func(context.Context) error { return errors.New("unreachable") }}, nil)

	_, err := w.MergeNodes(context.Background(), []graph.NodeRequest{{Kind: graph.PatentKind, Key: "P1"}})
	s.True(pkgerrors.IsKind(err, pkgerrors.KindConnection))
}

func (s *GraphWriterTestSuite) TestMergeEdges_GroupsByBatchKey() {
	edges := []graph.EdgeRequest{
		{Type: graph.RelCites, From: graph.PatentKind, FromKey: "P1", To: graph.PatentKind, ToKey: "P2", Props: graph.Props{"category": "cited by examiner"}},
		{Type: graph.RelLocatesAt, From: graph.AssigneeKind, FromKey: "A1", To: graph.LocationKind, ToKey: "L1", ToMode: graph.Merge},
		{Type: graph.RelCites, From: graph.PatentKind, FromKey: "P2", To: graph.PatentKind, ToKey: "P3"},
	}
	report, err := s.writer.MergeEdges(context.Background(), edges)
	s.Require().NoError(err)
	s.Equal(3, report.Created)

	s.Require().Len(s.tx.Calls, 2)
	s.Contains(s.tx.Calls[0].Cypher, "MATCH (b:Patent {pid: row.to})")
	s.Contains(s.tx.Calls[0].Cypher, "MERGE (a)-[r:CITES]->(b)")
	s.Equal("P1", s.tx.Calls[0].Rows[0][fieldFrom])
	s.Equal(map[string]any{"category": "cited by examiner"}, s.tx.Calls[0].Rows[0][fieldProps])
	s.Contains(s.tx.Calls[1].Cypher, "MERGE (b:Location {location_id: row.to})")
}

func (s *GraphWriterTestSuite) TestMergeEdges_FailureIndexesReferToInput() {
	s.tx.Reject = func(row map[string]any) error {
		if row[fieldTo] == "P9" {
			return errors.New("rejected")
		}
		return nil
	}
	edges := []graph.EdgeRequest{
		{Type: graph.RelOwns, From: graph.AssigneeKind, FromKey: "A1", To: graph.PatentKind, ToKey: "P1"},
		{Type: graph.RelCites, From: graph.PatentKind, FromKey: "P1", To: graph.PatentKind, ToKey: "P2"},
		{Type: graph.RelCites, From: graph.PatentKind, FromKey: "P1", To: graph.PatentKind, ToKey: "P9"},
	}
	report, err := s.writer.MergeEdges(context.Background(), edges)
	s.Require().NoError(err)
	s.Equal(map[int]bool{2: true}, report.FailedSet())
}

func (s *GraphWriterTestSuite) TestSetProperties() {
	report, err := s.writer.SetProperties(context.Background(), []graph.PropertyUpdate{
		{Kind: graph.PatentKind, Key: "P1", Props: graph.Props{"dependent": int64(3)}},
	})
	s.Require().NoError(err)
	s.Equal(1, report.PropertiesSet)
	s.Contains(s.tx.Calls[0].Cypher, "MATCH (n:Patent {pid: row.key})")
	s.NotContains(s.tx.Calls[0].Cypher, "MERGE")
}

func (s *GraphWriterTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.writer.MergeNodes(ctx, []graph.NodeRequest{{Kind: graph.PatentKind, Key: "P1"}})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCancelled))
	s.Empty(s.tx.Calls)
}

func TestGraphWriterTestSuite(t *testing.T) {
	suite.Run(t, new(GraphWriterTestSuite))
}

func TestNodeKeys_StreamsStoredKeys(t *testing.T) {
	tx := new(MockTransaction)
	tx.On("Run", mock.Anything, "MATCH (n:Patent)\nRETURN n.pid AS key", mock.Anything).Return(&MockResult{Records: []*neo4j.Record{
		{Keys: []string{"key"}, Values: []any{"P1"}},
		{Keys: []string{"key"}, Values: []any{nil}},
		{Keys: []string{"key"}, Values: []any{"P2"}},
	}}, nil)
	w := NewGraphWriter(&MockSession{Tx: tx}, WriterOptions{}, nil)

	var keys []string
	err := w.NodeKeys(context.Background(), graph.PatentKind, func(k string) { keys = append(keys, k) })
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, keys)
}

func TestNodeKeys_ConnectionFailure(t *testing.T) {
	tx := new(MockTransaction)
	tx.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &neo4j.Neo4jError{Code: "Neo.ClientError.Security.Unauthorized"})
	w := NewGraphWriter(&MockSession{Tx: tx}, WriterOptions{}, nil)

	err := w.NodeKeys(context.Background(), graph.PatentKind, func(string) {})
	assert.Equal(t, pkgerrors.ExitConnection, pkgerrors.ExitCode(err))
}

func TestEnsureSchema_CreatesEveryConstraint(t *testing.T) {
	tx := new(MockTransaction)
	tx.On("Run", mock.Anything, mock.MatchedBy(func(q string) bool {
		return len(q) > 0
	}), mock.Anything).Return(&MockResult{Counters: infraNeo4j.Counters{ConstraintsAdded: 1}}, nil)
	w := NewGraphWriter(&MockSession{Tx: tx}, WriterOptions{}, nil)

	added, err := w.EnsureSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(graph.Constraints()), added)
	tx.AssertCalled(t, "Run", mock.Anything,
		"CREATE CONSTRAINT uniq_Patent_pid IF NOT EXISTS FOR (n:Patent) REQUIRE n.pid IS UNIQUE", mock.Anything)
}

func TestEnsureSchema_AuthFailure(t *testing.T) {
	tx := new(MockTransaction)
	tx.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &neo4j.Neo4jError{Code: "Neo.ClientError.Security.Unauthorized"})
	w := NewGraphWriter(&MockSession{Tx: tx}, WriterOptions{}, nil)

	_, err := w.EnsureSchema(context.Background())
	assert.Equal(t, pkgerrors.ExitConnection, pkgerrors.ExitCode(err))
}

func TestEnsureSchema_OtherFailure(t *testing.T) {
	tx := new(MockTransaction)
	tx.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("equivalent index exists"))
	w := NewGraphWriter(&MockSession{Tx: tx}, WriterOptions{}, nil)

	_, err := w.EnsureSchema(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSchema))
	assert.True(t, pkgerrors.IsFatal(err))
}

//Personal.AI order the ending
