package neo4j

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentsview-graph/internal/config"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// MockDriver
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) VerifyConnectivity(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *MockDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) Session {
	return m.Called(ctx, config).Get(0).(Session)
}
func (m *MockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockSession runs work against Tx.
type MockSession struct {
	mock.Mock
	Tx Transaction
}

func (m *MockSession) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return work(m.Tx)
}
func (m *MockSession) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return work(m.Tx)
}
func (m *MockSession) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return m.Tx.Run(ctx, cypher, params)
}
func (m *MockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockTransaction
type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	args := m.Called(ctx, cypher, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Result), args.Error(1)
}

// MockResult yields Records in order.
type MockResult struct {
	Records []*neo4j.Record
	pos     int
	cur     *neo4j.Record
}

func (m *MockResult) Next(ctx context.Context) bool {
	if m.pos >= len(m.Records) {
		return false
	}
	m.cur = m.Records[m.pos]
	m.pos++
	return true
}
func (m *MockResult) Record() *neo4j.Record { return m.cur }
func (m *MockResult) Err() error            { return nil }
func (m *MockResult) Consume(ctx context.Context) (Counters, error) {
	return Counters{}, nil
}

var testDesc = config.ConnectionDescriptor{URI: "bolt://db:7687", Database: "neo4j", Username: "alice", Password: "secret123"}

func TestNewDriverFrom_VerifiesConnectivity(t *testing.T) {
	md := new(MockDriver)
	md.On("VerifyConnectivity", mock.Anything).Return(errors.New("dial tcp: connection refused"))

	_, err := NewDriverFrom(context.Background(), md, testDesc, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeConnection))
	assert.Equal(t, pkgerrors.ExitConnection, pkgerrors.ExitCode(err))
	assert.NotContains(t, err.Error(), "secret123")
}

func TestDriver_SessionsUseDatabase(t *testing.T) {
	md := new(MockDriver)
	md.On("VerifyConnectivity", mock.Anything).Return(nil)
	ms := new(MockSession)
	md.On("NewSession", mock.Anything, neo4j.SessionConfig{DatabaseName: "neo4j", AccessMode: neo4j.AccessModeWrite}).Return(ms)

	d, err := NewDriverFrom(context.Background(), md, testDesc, nil)
	require.NoError(t, err)
	assert.Same(t, ms, d.WriteSession(context.Background()))
	md.AssertExpectations(t)
}

func TestDriver_HealthCheck(t *testing.T) {
	md := new(MockDriver)
	md.On("VerifyConnectivity", mock.Anything).Return(nil)

	tx := new(MockTransaction)
	tx.On("Run", mock.Anything, "RETURN 1 AS health", mock.Anything).
		Return(&MockResult{Records: []*neo4j.Record{{Keys: []string{"health"}, Values: []any{int64(1)}}}}, nil)
	ms := &MockSession{Tx: tx}
	ms.On("Close", mock.Anything).Return(nil)
	md.On("NewSession", mock.Anything, mock.Anything).Return(ms)

	d, err := NewDriverFrom(context.Background(), md, testDesc, logging.NewNopLogger())
	require.NoError(t, err)
	assert.NoError(t, d.HealthCheck(context.Background()))
	ms.AssertCalled(t, "Close", mock.Anything)
}

func TestDriver_CloseOnce(t *testing.T) {
	md := new(MockDriver)
	md.On("VerifyConnectivity", mock.Anything).Return(nil)
	md.On("Close", mock.Anything).Return(nil).Once()

	d, err := NewDriverFrom(context.Background(), md, testDesc, nil)
	require.NoError(t, err)
	assert.NoError(t, d.Close(context.Background()))
	assert.NoError(t, d.Close(context.Background()))
	md.AssertNumberOfCalls(t, "Close", 1)
}

func TestIsConnectionFailure(t *testing.T) {
	assert.False(t, IsConnectionFailure(nil))
	assert.False(t, IsConnectionFailure(errors.New("constraint violation")))
	assert.True(t, IsConnectionFailure(&neo4j.ConnectivityError{}))
	assert.True(t, IsConnectionFailure(&neo4j.Neo4jError{Code: "Neo.ClientError.Security.Unauthorized"}))
	assert.False(t, IsConnectionFailure(&neo4j.Neo4jError{Code: "Neo.ClientError.Schema.ConstraintValidationFailed"}))
	assert.True(t, IsConnectionFailure(pkgerrors.ConnectionError(errors.New("x"), "lost")))
}

func TestCollectRecords(t *testing.T) {
	res := &MockResult{Records: []*neo4j.Record{
		{Keys: []string{"n"}, Values: []any{int64(1)}},
		{Keys: []string{"n"}, Values: []any{int64(2)}},
	}}
	got, err := CollectRecords(context.Background(), res, func(r *neo4j.Record) (int64, error) {
		return r.Values[0].(int64), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got)
}

//Personal.AI order the ending
