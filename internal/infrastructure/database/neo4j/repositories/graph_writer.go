// Package repositories writes graph requests to Neo4j with batched,
// parameterised MERGE statements.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
	infraNeo4j "github.com/turtacn/patentsview-graph/internal/infrastructure/database/neo4j"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// Default batch sizes when WriterOptions leaves them zero.
const (
	DefaultNodeBatchSize = 1000
	DefaultEdgeBatchSize = 1000
)

// WriterOptions tunes the GraphWriter.
type WriterOptions struct {
	NodeBatchSize int
	EdgeBatchSize int
	// HealthCheck is called after a batch fails for a reason that does not look
	// like a connection failure. A non-nil error makes the failure fatal.
	HealthCheck func(ctx context.Context) error
}

// GraphWriter merges nodes and relationships through one write session it
// does not own.
type GraphWriter struct {
	session infraNeo4j.Session
	opts    WriterOptions
	log     logging.Logger
}

// NewGraphWriter binds a writer to session.
func NewGraphWriter(session infraNeo4j.Session, opts WriterOptions, log logging.Logger) *GraphWriter {
	if opts.NodeBatchSize <= 0 {
		opts.NodeBatchSize = DefaultNodeBatchSize
	}
	if opts.EdgeBatchSize <= 0 {
		opts.EdgeBatchSize = DefaultEdgeBatchSize
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &GraphWriter{session: session, opts: opts, log: log.Named("graph_writer")}
}

// EnsureSchema creates one uniqueness constraint per node kind. Existing
// constraints are left untouched.
func (w *GraphWriter) EnsureSchema(ctx context.Context) (int, error) {
	added := 0
	for _, c := range graph.Constraints() {
		stmt, err := constraintCypher(c)
		if err != nil {
			return added, err
		}
		res, err := w.session.Run(ctx, stmt, nil)
		if err == nil {
			var counters infraNeo4j.Counters
			counters, err = res.Consume(ctx)
			added += counters.ConstraintsAdded
		}
		if err != nil {
			if infraNeo4j.IsConnectionFailure(err) {
				return added, pkgerrors.ConnectionError(err, "lost connection while creating constraints")
			}
			return added, pkgerrors.Wrap(err, pkgerrors.ErrCodeSchema, "failed to create constraint").WithDetail(c.Name)
		}
		w.log.Debug("Constraint ensured", logging.String(logging.FieldLabel, string(c.Kind.Label)), logging.String("name", c.Name))
	}
	return added, nil
}

// MergeNodes writes nodes grouped by kind. Requests must be pre-compacted.
// The returned error is fatal; per-item rejections are in the report.
func (w *GraphWriter) MergeNodes(ctx context.Context, nodes []graph.NodeRequest) (graph.WriteReport, error) {
	var report graph.WriteReport
	for _, group := range groupBy(nodes, func(n graph.NodeRequest) graph.NodeKind { return n.Kind }) {
		stmt, err := mergeNodesCypher(group.key)
		if err != nil {
			return report, err
		}
		rows := make([]map[string]any, len(group.idx))
		for i, idx := range group.idx {
			rows[i] = map[string]any{fieldKey: nodes[idx].Key, fieldProps: toCypherProps(nodes[idx].Props)}
		}
		describe := func(i int) string { return fmt.Sprintf("%s %s", group.key.Label, nodes[group.idx[i]].Key) }

		sub, err := w.writeBatched(ctx, stmt, rows, w.opts.NodeBatchSize, describe, func(c infraNeo4j.Counters) int { return c.NodesCreated })
		report.Merge(remap(sub, group.idx), 0)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// MergeEdges writes relationships grouped by type and endpoint kinds.
func (w *GraphWriter) MergeEdges(ctx context.Context, edges []graph.EdgeRequest) (graph.WriteReport, error) {
	var report graph.WriteReport
	for _, group := range groupBy(edges, graph.EdgeRequest.BatchKey) {
		stmt, err := mergeEdgesCypher(group.key)
		if err != nil {
			return report, err
		}
		rows := make([]map[string]any, len(group.idx))
		for i, idx := range group.idx {
			e := edges[idx]
			rows[i] = map[string]any{fieldFrom: e.FromKey, fieldTo: e.ToKey, fieldProps: toCypherProps(e.Props)}
		}
		describe := func(i int) string {
			e := edges[group.idx[i]]
			return fmt.Sprintf("(%s)-[:%s]->(%s)", e.FromKey, e.Type, e.ToKey)
		}

		sub, err := w.writeBatched(ctx, stmt, rows, w.opts.EdgeBatchSize, describe, func(c infraNeo4j.Counters) int { return c.RelationshipsCreated })
		report.Merge(remap(sub, group.idx), 0)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// SetProperties updates existing nodes. Created counts properties set.
func (w *GraphWriter) SetProperties(ctx context.Context, updates []graph.PropertyUpdate) (graph.WriteReport, error) {
	var report graph.WriteReport
	for _, group := range groupBy(updates, func(u graph.PropertyUpdate) graph.NodeKind { return u.Kind }) {
		stmt, err := setPropertiesCypher(group.key)
		if err != nil {
			return report, err
		}
		rows := make([]map[string]any, len(group.idx))
		for i, idx := range group.idx {
			rows[i] = map[string]any{fieldKey: updates[idx].Key, fieldProps: toCypherProps(updates[idx].Props)}
		}
		describe := func(i int) string { return fmt.Sprintf("%s %s", group.key.Label, updates[group.idx[i]].Key) }

		sub, err := w.writeBatched(ctx, stmt, rows, w.opts.NodeBatchSize, describe, func(c infraNeo4j.Counters) int { return c.PropertiesSet })
		report.Merge(remap(sub, group.idx), 0)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// NodeKeys calls fn with the key of every stored node of kind. The read may
// be retried by the driver, so fn can see a key more than once.
func (w *GraphWriter) NodeKeys(ctx context.Context, kind graph.NodeKind, fn func(key string)) error {
	stmt, err := nodeKeysCypher(kind)
	if err != nil {
		return err
	}
	_, err = w.session.ExecuteRead(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		res, err := tx.Run(ctx, stmt, nil)
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			if rec == nil || len(rec.Values) == 0 {
				continue
			}
			if key, ok := rec.Values[0].(string); ok {
				fn(key)
			}
		}
		return nil, res.Err()
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return pkgerrors.Wrap(ctx.Err(), pkgerrors.ErrCodeCancelled, "key scan interrupted")
	}
	if infraNeo4j.IsConnectionFailure(err) {
		return pkgerrors.ConnectionError(err, "lost connection while reading node keys")
	}
	return pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "failed to read node keys").WithDetail(string(kind.Label))
}

// writeBatched runs stmt over rows in chunks of size. A failed chunk is
// retried row by row so that one bad row costs only itself.
func (w *GraphWriter) writeBatched(
	ctx context.Context,
	stmt string,
	rows []map[string]any,
	size int,
	describe func(int) string,
	created func(infraNeo4j.Counters) int,
) (graph.WriteReport, error) {
	report := graph.WriteReport{Requested: len(rows)}

	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		if err := ctx.Err(); err != nil {
			return report, pkgerrors.Wrap(err, pkgerrors.ErrCodeCancelled, "write interrupted")
		}

		counters, err := w.run(ctx, stmt, rows[start:end])
		if err == nil {
			report.Created += created(counters)
			report.PropertiesSet += counters.PropertiesSet
			continue
		}
		if fatal := w.fatal(ctx, err); fatal != nil {
			return report, fatal
		}

		w.log.Warn("Batch rejected, retrying rows individually",
			logging.Int("batch_size", end-start), logging.Err(err))

		for i := start; i < end; i++ {
			c, err := w.run(ctx, stmt, rows[i:i+1])
			if err == nil {
				report.Created += created(c)
				report.PropertiesSet += c.PropertiesSet
				continue
			}
			if fatal := w.fatal(ctx, err); fatal != nil {
				return report, fatal
			}
			werr := pkgerrors.WriteError(err, "store rejected write").WithDetail(describe(i))
			w.log.Warn("Write rejected", logging.String("item", describe(i)), logging.Err(err))
			report.Failed = append(report.Failed, graph.ItemFailure{Index: i, Err: werr})
		}
	}
	return report, nil
}

func (w *GraphWriter) run(ctx context.Context, stmt string, rows []map[string]any) (infraNeo4j.Counters, error) {
	params := map[string]any{paramRows: rows}
	out, err := w.session.ExecuteWrite(ctx, func(tx infraNeo4j.Transaction) (any, error) {
		res, err := tx.Run(ctx, stmt, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return infraNeo4j.Counters{}, err
	}
	counters, _ := out.(infraNeo4j.Counters)
	return counters, nil
}

// fatal returns a non-nil error when err must stop the run.
func (w *GraphWriter) fatal(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return pkgerrors.Wrap(ctx.Err(), pkgerrors.ErrCodeCancelled, "write interrupted")
	}
	if infraNeo4j.IsConnectionFailure(err) {
		return pkgerrors.ConnectionError(err, "lost connection to graph store")
	}
	if w.opts.HealthCheck != nil {
		if perr := w.opts.HealthCheck(ctx); perr != nil {
			return pkgerrors.ConnectionError(perr, "graph store unreachable after failed write")
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

type group[K comparable] struct {
	key K
	idx []int
}

// groupBy partitions items by key, keeping first-seen order.
func groupBy[T any, K comparable](items []T, keyOf func(T) K) []group[K] {
	pos := make(map[K]int)
	var out []group[K]
	for i, it := range items {
		k := keyOf(it)
		p, ok := pos[k]
		if !ok {
			p = len(out)
			pos[k] = p
			out = append(out, group[K]{key: k})
		}
		out[p].idx = append(out[p].idx, i)
	}
	return out
}

// remap rewrites failure indexes from group positions to caller positions.
func remap(r graph.WriteReport, idx []int) graph.WriteReport {
	for i := range r.Failed {
		r.Failed[i].Index = idx[r.Failed[i].Index]
	}
	return r
}

// toCypherProps converts domain values to driver values: dates become
// neo4j.Date and points become neo4j.Point2D.
func toCypherProps(p graph.Props) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			out[k] = neo4j.DateOf(t)
		case graph.Point:
			out[k] = neo4j.Point2D{X: t.X, Y: t.Y, SpatialRefId: t.SRID}
		default:
			out[k] = v
		}
	}
	return out
}

//Personal.AI order the ending
