// Package loader runs the PatentsView to Neo4j load: it drives every table
// of a validated Plan through the reader, the mapper and the graph store in
// dependency order and collects a Summary.
package loader

import (
	"context"
	"time"

	"github.com/turtacn/patentsview-graph/internal/application/mapper"
	"github.com/turtacn/patentsview-graph/internal/domain/graph"
	"github.com/turtacn/patentsview-graph/internal/domain/patentsview"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/storage/tablefile"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
	"github.com/turtacn/patentsview-graph/pkg/types/common"
)

// Defaults applied when Options leaves a size zero.
const (
	DefaultNodeBatchSize = 1000
	DefaultEdgeBatchSize = 1000
	DefaultChannelDepth  = 4096
)

// Options tunes a run.
type Options struct {
	NodeBatchSize  int
	EdgeBatchSize  int
	ChannelDepth   int
	RequiredTables []string
	Tables         []string
	SkipEnrichment bool
}

func (o *Options) applyDefaults() {
	if o.NodeBatchSize <= 0 {
		o.NodeBatchSize = DefaultNodeBatchSize
	}
	if o.EdgeBatchSize <= 0 {
		o.EdgeBatchSize = DefaultEdgeBatchSize
	}
	if o.ChannelDepth <= 0 {
		o.ChannelDepth = DefaultChannelDepth
	}
}

// State is the position of a run in its lifecycle.
type State string

const (
	StateInit           State = "init"
	StateConnected      State = "connected"
	StateSchema         State = "schema"
	StateNodes          State = "nodes"
	StateEnrich         State = "enrich"
	StateEdges          State = "edges"
	StateClassification State = "classification"
	StateDisconnected   State = "disconnected"
	StateFailed         State = "failed"
)

var stageStates = map[patentsview.Stage]State{
	patentsview.StageNode:           StateNodes,
	patentsview.StageEnrich:         StateEnrich,
	patentsview.StageEdge:           StateEdges,
	patentsview.StageClassification: StateClassification,
}

// Loader executes one run. It is not reusable.
type Loader struct {
	reader  *tablefile.Reader
	mapper  *mapper.Mapper
	opts    Options
	metrics *prometheus.LoadMetrics
	log     logging.Logger
	runID   common.RunID

	store   Store
	summary *Summary
}

// New creates a Loader. metrics and log may be nil.
func New(reader *tablefile.Reader, opts Options, runID common.RunID, metrics *prometheus.LoadMetrics, log logging.Logger) *Loader {
	opts.applyDefaults()
	if metrics == nil {
		metrics = prometheus.NewNopLoadMetrics()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Loader{
		reader:  reader,
		mapper:  mapper.New(),
		opts:    opts,
		metrics: metrics,
		log:     log.Named("loader"),
		runID:   runID,
	}
}

// Run connects, ensures the schema, loads every table of plan and
// disconnects. The Summary is returned even when err is non-nil; err is
// fatal and carries the code that decides the exit status.
func (l *Loader) Run(ctx context.Context, plan *Plan, connect Connector) (summary *Summary, err error) {
	sw := common.StartStopwatch()
	l.summary = newSummary(l.runID, plan)
	summary = l.summary

	defer func() {
		if err != nil && ctx.Err() != nil && !pkgerrors.IsCode(err, pkgerrors.ErrCodeCancelled) {
			err = pkgerrors.Wrap(err, pkgerrors.ErrCodeCancelled, "run cancelled")
		}
		summary.Elapsed = sw.Elapsed()
		l.metrics.RecordRun(string(l.runID), err == nil, summary.Elapsed)
	}()

	store, closeStore, err := connect(ctx)
	if err != nil {
		l.transition(StateFailed)
		if !pkgerrors.IsKind(err, pkgerrors.KindConnection) {
			err = pkgerrors.ConnectionError(err, "failed to open graph store")
		}
		return summary, err
	}
	l.store = store
	l.transition(StateConnected)

	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if cerr := closeStore(cctx); cerr != nil {
			l.log.Warn("Failed to close graph store", logging.Err(cerr))
		}
		if err == nil {
			l.transition(StateDisconnected)
		}
	}()

	if err = l.ensureSchema(ctx); err != nil {
		l.transition(StateFailed)
		return summary, err
	}
	if err = l.loadExistingKeys(ctx, plan); err != nil {
		l.transition(StateFailed)
		return summary, err
	}

	for _, f := range plan.Files {
		t, _ := patentsview.Lookup(f.Table)
		if next := stageStates[t.Stage]; next != summary.State {
			l.transition(next)
		}
		if err = l.loadTable(ctx, f, t.Stage); err != nil {
			l.transition(StateFailed)
			if ts := summary.Table(f.Table); ts != nil {
				ts.Status = TableAborted
			}
			return summary, err
		}
	}
	return summary, nil
}

func (l *Loader) ensureSchema(ctx context.Context) error {
	l.transition(StateSchema)
	timer := prometheus.NewTimer(l.metrics.StageDuration.WithLabelValues(string(StateSchema)))
	added, err := l.store.EnsureSchema(ctx)
	timer.ObserveDuration()
	l.summary.ConstraintsAdded = added
	if err != nil {
		return err
	}
	l.log.Info("Schema ready", logging.Int("constraints_added", added))
	return nil
}

// entityTables maps each node table to the node kind it writes.
var entityTables = []struct {
	table patentsview.TableName
	kind  graph.NodeKind
}{
	{patentsview.TablePatent, graph.PatentKind},
	{patentsview.TableAssignee, graph.AssigneeKind},
	{patentsview.TableInventor, graph.InventorKind},
	{patentsview.TableLocation, graph.LocationKind},
}

// loadExistingKeys fills the mapper's key sets from the store for every
// entity whose node table the plan does not read, so that relation tables
// loaded on their own resolve against nodes from earlier runs.
func (l *Loader) loadExistingKeys(ctx context.Context, plan *Plan) error {
	reading := make(map[patentsview.TableName]bool, len(plan.Files))
	relations := false
	for _, f := range plan.Files {
		reading[f.Table] = true
		if t, _ := patentsview.Lookup(f.Table); t.Stage != patentsview.StageNode {
			relations = true
		}
	}
	if !relations {
		return nil
	}
	for _, e := range entityTables {
		if reading[e.table] {
			continue
		}
		set := l.mapper.Loaded(e.kind)
		if err := l.store.NodeKeys(ctx, e.kind, set.Add); err != nil {
			return err
		}
		l.log.Info("Existing node keys loaded",
			logging.String(logging.FieldLabel, string(e.kind.Label)), logging.Int("keys", set.Len()))
	}
	return nil
}

func (l *Loader) transition(next State) {
	l.log.Info("Run state", logging.String(logging.FieldStage, string(next)), logging.String("from", string(l.summary.State)))
	l.summary.State = next
}

//Personal.AI order the ending
