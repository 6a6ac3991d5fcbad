package loader

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
	"github.com/turtacn/patentsview-graph/internal/domain/patentsview"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/storage/tablefile"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
	"github.com/turtacn/patentsview-graph/pkg/types/common"
)

// Skipped rows beyond this many per table and kind are logged at debug
// level only.
const maxSkipWarnings = 20

// loadTable streams f through a producer goroutine reading rows and a
// consumer goroutine mapping and writing them. Only the consumer touches
// the store.
func (l *Loader) loadTable(ctx context.Context, f tablefile.File, stage patentsview.Stage) error {
	ts := l.summary.Table(f.Table)
	log := l.log.With(logging.String(logging.FieldTable, string(f.Table)), logging.String(logging.FieldStage, stage.String()))
	sw := common.StartStopwatch()
	timer := prometheus.NewTimer(l.metrics.StageDuration.WithLabelValues(stage.String()))
	defer timer.ObserveDuration()

	log.Info("Loading table", logging.String(logging.FieldFile, f.Path))

	stream, err := l.reader.Open(f)
	if err != nil {
		return err
	}
	defer stream.Close()

	items := make(chan tablefile.Item, l.opts.ChannelDepth)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(items)
		for {
			it, err := stream.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case items <- it:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	c := &consumer{l: l, ts: ts, log: log}
	g.Go(func() error {
		if stage == patentsview.StageEnrich {
			return c.enrich(gctx, items)
		}
		return c.load(gctx, items)
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil && !pkgerrors.IsCode(err, pkgerrors.ErrCodeCancelled) {
			return pkgerrors.Wrap(ctx.Err(), pkgerrors.ErrCodeCancelled, "run cancelled").WithDetail(string(f.Table))
		}
		return err
	}

	ts.Status = TableLoaded
	ts.Duration = sw.Elapsed()
	log.Info("Table loaded",
		logging.Int64("rows", ts.RowsRead),
		logging.Int64("skipped", ts.TotalSkipped()),
		logging.Duration(logging.FieldDuration, ts.Duration))
	return nil
}

// consumer maps and writes the rows of one table.
type consumer struct {
	l   *Loader
	ts  *TableSummary
	log logging.Logger

	nodes []graph.NodeRequest
	edges []graph.EdgeRequest
}

func (c *consumer) load(ctx context.Context, items <-chan tablefile.Item) error {
	for it := range items {
		c.read()
		if it.IsSkipped() {
			c.skip(it.Reason())
			continue
		}
		m := c.l.mapper.Map(it.Value())
		if m.IsSkipped() {
			c.skip(m.Reason())
			continue
		}
		c.nodes = append(c.nodes, m.Value().Nodes...)
		c.edges = append(c.edges, m.Value().Edges...)

		if len(c.nodes) >= c.l.opts.NodeBatchSize || len(c.edges) >= c.l.opts.EdgeBatchSize {
			if err := c.flush(ctx); err != nil {
				return err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.flush(ctx)
}

// flush writes pending nodes, then the pending edges. Edges ending at a node
// whose write failed are dropped and counted as write skips.
func (c *consumer) flush(ctx context.Context) error {
	failedNodes := make(map[graph.NodeKind]map[string]bool)

	for _, group := range groupNodes(c.nodes) {
		report, err := c.l.store.MergeNodes(ctx, group)
		c.countNodes(group[0].Kind.Label, report)
		if err != nil {
			return err
		}
		failed := report.FailedSet()
		for i, n := range group {
			if !failed[i] {
				c.l.mapper.MarkWritten(n)
				continue
			}
			c.l.mapper.ForgetCode(n)
			if failedNodes[n.Kind] == nil {
				failedNodes[n.Kind] = make(map[string]bool)
			}
			failedNodes[n.Kind][n.Key] = true
		}
		c.skipRejected(report)
	}
	c.nodes = c.nodes[:0]

	edges := c.edges[:0]
	for _, e := range c.edges {
		if failedNodes[e.To][e.ToKey] || failedNodes[e.From][e.FromKey] {
			c.skip(pkgerrors.WriteError(nil, "endpoint write failed").WithDetail(string(e.Type) + " " + e.FromKey + "->" + e.ToKey))
			continue
		}
		edges = append(edges, e)
	}

	for _, group := range groupEdges(edges) {
		report, err := c.l.store.MergeEdges(ctx, group)
		c.countEdges(group[0].Type, report)
		if err != nil {
			return err
		}
		c.skipRejected(report)
	}
	c.edges = c.edges[:0]
	return nil
}

func (c *consumer) enrich(ctx context.Context, items <-chan tablefile.Item) error {
	enricher := c.l.mapper.NewEnricher()
	for it := range items {
		c.read()
		if it.IsSkipped() {
			c.skip(it.Reason())
			continue
		}
		if err := enricher.Add(it.Value()); err != nil {
			c.skip(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	updates := enricher.Updates()
	if len(updates) == 0 {
		return nil
	}
	report, err := c.l.store.SetProperties(ctx, updates)
	c.ts.PropertiesSet += int64(report.PropertiesSet)
	c.l.metrics.PropertiesSet.WithLabelValues(string(c.ts.Table)).Add(float64(report.PropertiesSet))
	if err != nil {
		return err
	}
	c.skipRejected(report)
	c.log.Info("Patents enriched", logging.Int("patents", report.Written()), logging.Int("properties", report.PropertiesSet))
	return nil
}

func (c *consumer) read() {
	c.ts.RowsRead++
	c.l.metrics.RowsRead.WithLabelValues(string(c.ts.Table)).Inc()
}

// skip counts a recoverable failure. Any other error kind is counted as
// internal so that it still shows in the summary.
func (c *consumer) skip(reason error) {
	kind := pkgerrors.KindInternal
	var ae *pkgerrors.AppError
	if errors.As(reason, &ae) {
		kind = ae.Kind()
	}
	c.ts.Skipped[kind]++
	c.l.metrics.RowsSkipped.WithLabelValues(string(c.ts.Table), skipReason(kind)).Inc()

	if c.ts.Skipped[kind] <= maxSkipWarnings {
		c.log.Warn("Skipped", logging.String("kind", string(kind)), logging.Err(reason))
		if c.ts.Skipped[kind] == maxSkipWarnings {
			c.log.Warn("Further skips of this kind are logged at debug level", logging.String("kind", string(kind)))
		}
		return
	}
	c.log.Debug("Skipped", logging.String("kind", string(kind)), logging.Err(reason))
}

// skipRejected counts every item the store rejected as a write skip,
// whatever error the store attached to it.
func (c *consumer) skipRejected(r graph.WriteReport) {
	for _, f := range r.Failed {
		err := f.Err
		if !pkgerrors.IsKind(err, pkgerrors.KindWrite) {
			err = pkgerrors.WriteError(err, "store rejected write")
		}
		c.skip(err)
	}
}

func (c *consumer) countNodes(label graph.Label, r graph.WriteReport) {
	n := c.l.summary.node(label)
	n.Requested += int64(r.Requested)
	n.Created += int64(r.Created)
	c.l.metrics.NodesMerged.WithLabelValues(string(label)).Add(float64(r.Written()))
	c.l.metrics.NodesCreated.WithLabelValues(string(label)).Add(float64(r.Created))
}

func (c *consumer) countEdges(t graph.RelType, r graph.WriteReport) {
	e := c.l.summary.edge(t)
	e.Requested += int64(r.Requested)
	e.Created += int64(r.Created)
	c.l.metrics.EdgesMerged.WithLabelValues(string(t)).Add(float64(r.Written()))
	c.l.metrics.EdgesCreated.WithLabelValues(string(t)).Add(float64(r.Created))
}

func skipReason(k pkgerrors.Kind) string {
	switch k {
	case pkgerrors.KindRowParse:
		return prometheus.ReasonParse
	case pkgerrors.KindReference:
		return prometheus.ReasonReference
	case pkgerrors.KindWrite:
		return prometheus.ReasonWrite
	default:
		return "other"
	}
}

// groupNodes splits nodes by kind, keeping first-seen order.
func groupNodes(nodes []graph.NodeRequest) [][]graph.NodeRequest {
	pos := make(map[graph.NodeKind]int)
	var out [][]graph.NodeRequest
	for _, n := range nodes {
		i, ok := pos[n.Kind]
		if !ok {
			i = len(out)
			pos[n.Kind] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], n)
	}
	return out
}

// groupEdges splits edges by relationship type, keeping first-seen order.
func groupEdges(edges []graph.EdgeRequest) [][]graph.EdgeRequest {
	pos := make(map[graph.RelType]int)
	var out [][]graph.EdgeRequest
	for _, e := range edges {
		i, ok := pos[e.Type]
		if !ok {
			i = len(out)
			pos[e.Type] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], e)
	}
	return out
}

//Personal.AI order the ending
