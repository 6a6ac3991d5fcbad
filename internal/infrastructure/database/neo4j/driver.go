// Package neo4j wraps the Neo4j Go driver behind small interfaces so that the
// graph writer can be exercised with mocks. Sessions are explicit values
// owned by the caller and must be closed on every exit path.
package neo4j

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/patentsview-graph/internal/config"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

const verifyTimeout = 10 * time.Second

// Counters is the subset of a result summary the loader reports on.
type Counters struct {
	NodesCreated         int
	RelationshipsCreated int
	PropertiesSet        int
	ConstraintsAdded     int
}

// Add accumulates o into c.
func (c *Counters) Add(o Counters) {
	c.NodesCreated += o.NodesCreated
	c.RelationshipsCreated += o.RelationshipsCreated
	c.PropertiesSet += o.PropertiesSet
	c.ConstraintsAdded += o.ConstraintsAdded
}

// Result abstracts neo4j.ResultWithContext.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
	Consume(ctx context.Context) (Counters, error)
}

// Transaction abstracts neo4j.ManagedTransaction.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// TransactionWork is a unit of work retried by the driver on transient
// failures.
type TransactionWork func(tx Transaction) (any, error)

// Session abstracts neo4j.SessionWithContext.
type Session interface {
	ExecuteRead(ctx context.Context, work TransactionWork) (any, error)
	ExecuteWrite(ctx context.Context, work TransactionWork) (any, error)
	// Run executes cypher in an auto-commit transaction. Schema statements
	// must use it.
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
	Close(ctx context.Context) error
}

// DriverInterface abstracts neo4j.DriverWithContext.
type DriverInterface interface {
	VerifyConnectivity(ctx context.Context) error
	NewSession(ctx context.Context, config neo4j.SessionConfig) Session
	Close(ctx context.Context) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Adapters over the real driver
// ─────────────────────────────────────────────────────────────────────────────

type stdResult struct {
	res neo4j.ResultWithContext
}

func (r *stdResult) Next(ctx context.Context) bool { return r.res.Next(ctx) }
func (r *stdResult) Record() *neo4j.Record         { return r.res.Record() }
func (r *stdResult) Err() error                    { return r.res.Err() }

func (r *stdResult) Consume(ctx context.Context) (Counters, error) {
	summary, err := r.res.Consume(ctx)
	if err != nil {
		return Counters{}, err
	}
	c := summary.Counters()
	return Counters{
		NodesCreated:         c.NodesCreated(),
		RelationshipsCreated: c.RelationshipsCreated(),
		PropertiesSet:        c.PropertiesSet(),
		ConstraintsAdded:     c.ConstraintsAdded(),
	}, nil
}

type stdTransaction struct {
	tx neo4j.ManagedTransaction
}

func (t *stdTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return &stdResult{res: res}, nil
}

type stdSession struct {
	s neo4j.SessionWithContext
}

func (s *stdSession) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return s.s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&stdTransaction{tx: tx})
	})
}

func (s *stdSession) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return s.s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&stdTransaction{tx: tx})
	})
}

func (s *stdSession) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	res, err := s.s.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return &stdResult{res: res}, nil
}

func (s *stdSession) Close(ctx context.Context) error { return s.s.Close(ctx) }

type stdDriver struct {
	d neo4j.DriverWithContext
}

func (d *stdDriver) VerifyConnectivity(ctx context.Context) error { return d.d.VerifyConnectivity(ctx) }

func (d *stdDriver) NewSession(ctx context.Context, cfg neo4j.SessionConfig) Session {
	return &stdSession{s: d.d.NewSession(ctx, cfg)}
}

func (d *stdDriver) Close(ctx context.Context) error { return d.d.Close(ctx) }

// ─────────────────────────────────────────────────────────────────────────────
// Driver
// ─────────────────────────────────────────────────────────────────────────────

// Driver owns the connection pool of one load run.
type Driver struct {
	driver   DriverInterface
	database string
	uri      string
	logger   logging.Logger
	once     sync.Once
}

// Connect opens a pool to desc and verifies that the server accepts the
// credentials. Every failure is a ConnectionError.
func Connect(ctx context.Context, desc config.ConnectionDescriptor, cfg config.Neo4jConfig, log logging.Logger) (*Driver, error) {
	auth := neo4j.BasicAuth(desc.Username, desc.Password, "")

	d, err := neo4j.NewDriverWithContext(desc.URI, auth, func(c *neo4j.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		if cfg.ConnectionTimeout > 0 {
			c.SocketConnectTimeout = cfg.ConnectionTimeout
		}
		if cfg.AcquisitionTimeout > 0 {
			c.ConnectionAcquisitionTimeout = cfg.AcquisitionTimeout
		}
		if cfg.MaxTransactionRetryTime > 0 {
			c.MaxTransactionRetryTime = cfg.MaxTransactionRetryTime
		}
		c.MaxConnectionLifetime = 1 * time.Hour
	})
	if err != nil {
		return nil, pkgerrors.ConnectionError(err, "failed to create neo4j driver").WithDetail(desc.String())
	}

	drv, err := NewDriverFrom(ctx, &stdDriver{d: d}, desc, log)
	if err != nil {
		_ = d.Close(context.Background())
		return nil, err
	}
	return drv, nil
}

// NewDriverFrom wraps an existing DriverInterface and verifies
// connectivity.
func NewDriverFrom(ctx context.Context, d DriverInterface, desc config.ConnectionDescriptor, log logging.Logger) (*Driver, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	vctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	if err := d.VerifyConnectivity(vctx); err != nil {
		return nil, pkgerrors.ConnectionError(err, "failed to connect to neo4j").WithDetail(desc.String())
	}

	log.Info("Connected to Neo4j", logging.String("uri", desc.URI), logging.String("database", desc.Database), logging.String("user", desc.Username))

	return &Driver{driver: d, database: desc.Database, uri: desc.URI, logger: log}, nil
}

func (d *Driver) session(ctx context.Context, mode neo4j.AccessMode) Session {
	return d.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: d.database,
		AccessMode:   mode,
	})
}

// WriteSession opens a write session. The caller owns it and must close it.
func (d *Driver) WriteSession(ctx context.Context) Session {
	return d.session(ctx, neo4j.AccessModeWrite)
}

// ReadSession opens a read session. The caller owns it and must close it.
func (d *Driver) ReadSession(ctx context.Context) Session {
	return d.session(ctx, neo4j.AccessModeRead)
}

// HealthCheck verifies the server is reachable and answers a trivial query.
func (d *Driver) HealthCheck(ctx context.Context) error {
	if err := d.driver.VerifyConnectivity(ctx); err != nil {
		return pkgerrors.ConnectionError(err, "neo4j connectivity check failed")
	}

	s := d.ReadSession(ctx)
	defer s.Close(ctx)

	_, err := s.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		result, err := tx.Run(ctx, "RETURN 1 AS health", nil)
		if err != nil {
			return nil, err
		}
		if result.Next(ctx) {
			return result.Record().Values[0], nil
		}
		return nil, result.Err()
	})
	if err != nil {
		return pkgerrors.ConnectionError(err, "neo4j health query failed")
	}
	return nil
}

// Close releases the pool once; later calls are no-ops.
func (d *Driver) Close(ctx context.Context) error {
	var err error
	d.once.Do(func() {
		err = d.driver.Close(ctx)
		if err == nil {
			d.logger.Info("Closed Neo4j driver")
		} else {
			d.logger.Error("Failed to close Neo4j driver", logging.Err(err))
		}
	})
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Error classification
// ─────────────────────────────────────────────────────────────────────────────

// IsConnectionFailure reports whether err means the store cannot be used at
// all: the server is unreachable, the connection dropped or the credentials
// were rejected.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	if pkgerrors.IsCode(err, pkgerrors.ErrCodeConnection) {
		return true
	}
	if neo4j.IsConnectivityError(err) {
		return true
	}
	var ce *neo4j.ConnectivityError
	if errors.As(err, &ce) {
		return true
	}
	var ne *neo4j.Neo4jError
	if errors.As(err, &ne) {
		return strings.HasPrefix(ne.Code, "Neo.ClientError.Security.")
	}
	return false
}

// Helpers

// CollectRecords maps every remaining record of result.
func CollectRecords[T any](ctx context.Context, result Result, mapper func(*neo4j.Record) (T, error)) ([]T, error) {
	var items []T
	for result.Next(ctx) {
		item, err := mapper(result.Record())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

//Personal.AI order the ending
