package repositories

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/mock"

	infraNeo4j "github.com/turtacn/patentsview-graph/internal/infrastructure/database/neo4j"
)

// MockSession implements infraNeo4j.Session by handing work to Tx.
type MockSession struct {
	mock.Mock
	Tx infraNeo4j.Transaction
}

func (m *MockSession) ExecuteRead(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	return work(m.Tx)
}

func (m *MockSession) ExecuteWrite(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	return work(m.Tx)
}

func (m *MockSession) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	return m.Tx.Run(ctx, cypher, params)
}

func (m *MockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockTransaction implements infraNeo4j.Transaction. Calls are recorded so
// tests can inspect the statements and parameters sent.
type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	args := m.Called(ctx, cypher, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(infraNeo4j.Result), args.Error(1)
}

// MockResult implements infraNeo4j.Result with fixed counters.
type MockResult struct {
	Records  []*neo4j.Record
	Counters infraNeo4j.Counters
	pos      int
}

func (m *MockResult) Next(ctx context.Context) bool {
	if m.pos < len(m.Records) {
		m.pos++
		return true
	}
	return false
}

func (m *MockResult) Record() *neo4j.Record {
	if m.pos == 0 || m.pos > len(m.Records) {
		return nil
	}
	return m.Records[m.pos-1]
}

func (m *MockResult) Err() error { return nil }

func (m *MockResult) Consume(ctx context.Context) (infraNeo4j.Counters, error) {
	return m.Counters, nil
}

// FakeTransaction accepts every row except those Reject returns an error
// for. Each call reports one created node, relationship and property per
// row.
type FakeTransaction struct {
	Reject func(row map[string]any) error
	Calls  []FakeCall
}

// FakeCall is one recorded statement.
type FakeCall struct {
	Cypher string
	Rows   []map[string]any
}

func (f *FakeTransaction) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	rows, _ := params[paramRows].([]map[string]any)
	f.Calls = append(f.Calls, FakeCall{Cypher: cypher, Rows: rows})
	if f.Reject != nil {
		for _, r := range rows {
			if err := f.Reject(r); err != nil {
				return nil, err
			}
		}
	}
	n := len(rows)
	return &MockResult{Counters: infraNeo4j.Counters{NodesCreated: n, RelationshipsCreated: n, PropertiesSet: n}}, nil
}

// SetupMockSession returns a session whose transactions are served by a
// FakeTransaction.
func SetupMockSession(t *testing.T) (*MockSession, *FakeTransaction) {
	t.Helper()
	tx := new(FakeTransaction)
	return &MockSession{Tx: tx}, tx
}

//Personal.AI order the ending
