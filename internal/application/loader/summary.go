package loader

import (
	"sort"
	"time"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
	"github.com/turtacn/patentsview-graph/internal/domain/patentsview"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
	"github.com/turtacn/patentsview-graph/pkg/types/common"
)

// TableStatus is the outcome of one table in a run.
type TableStatus string

const (
	TableLoaded   TableStatus = "loaded"
	TableMissing  TableStatus = "missing"
	TableExcluded TableStatus = "excluded"
	TablePending  TableStatus = "pending"
	TableAborted  TableStatus = "aborted"
)

// TableSummary counts one table. Parse and reference skips count rows;
// write skips count rejected requests.
type TableSummary struct {
	Table    patentsview.TableName
	Stage    patentsview.Stage
	Status   TableStatus
	RowsRead int64
	Skipped  map[pkgerrors.Kind]int64
	// PropertiesSet is filled for enrichment tables.
	PropertiesSet int64
	Duration      time.Duration
}

// TotalSkipped sums every skip kind.
func (t *TableSummary) TotalSkipped() int64 {
	var n int64
	for _, v := range t.Skipped {
		n += v
	}
	return n
}

// Count is requested versus newly created graph elements.
type Count struct {
	Requested int64
	Created   int64
}

// Summary is the outcome of a run. It is filled in as the run progresses so
// that a failed run still reports what it did.
type Summary struct {
	RunID            common.RunID
	State            State
	Tables           []*TableSummary
	Nodes            map[graph.Label]*Count
	Edges            map[graph.RelType]*Count
	ConstraintsAdded int
	Elapsed          time.Duration
}

func newSummary(runID common.RunID, plan *Plan) *Summary {
	s := &Summary{
		RunID: runID,
		State: StateInit,
		Nodes: make(map[graph.Label]*Count),
		Edges: make(map[graph.RelType]*Count),
	}
	for _, f := range plan.Files {
		t, _ := patentsview.Lookup(f.Table)
		s.Tables = append(s.Tables, &TableSummary{Table: f.Table, Stage: t.Stage, Status: TablePending, Skipped: map[pkgerrors.Kind]int64{}})
	}
	for _, name := range plan.Missing {
		t, _ := patentsview.Lookup(name)
		s.Tables = append(s.Tables, &TableSummary{Table: name, Stage: t.Stage, Status: TableMissing, Skipped: map[pkgerrors.Kind]int64{}})
	}
	for _, name := range plan.Excluded {
		t, _ := patentsview.Lookup(name)
		s.Tables = append(s.Tables, &TableSummary{Table: name, Stage: t.Stage, Status: TableExcluded, Skipped: map[pkgerrors.Kind]int64{}})
	}
	return s
}

// Table returns the summary of name, nil when the table is not part of the
// run.
func (s *Summary) Table(name patentsview.TableName) *TableSummary {
	for _, t := range s.Tables {
		if t.Table == name {
			return t
		}
	}
	return nil
}

func (s *Summary) node(l graph.Label) *Count {
	c := s.Nodes[l]
	if c == nil {
		c = &Count{}
		s.Nodes[l] = c
	}
	return c
}

func (s *Summary) edge(t graph.RelType) *Count {
	c := s.Edges[t]
	if c == nil {
		c = &Count{}
		s.Edges[t] = c
	}
	return c
}

// SkippedByKind totals skips across tables.
func (s *Summary) SkippedByKind() map[pkgerrors.Kind]int64 {
	out := make(map[pkgerrors.Kind]int64)
	for _, t := range s.Tables {
		for k, v := range t.Skipped {
			out[k] += v
		}
	}
	return out
}

// NodeLabels returns the labels with counts, sorted.
func (s *Summary) NodeLabels() []graph.Label {
	out := make([]graph.Label, 0, len(s.Nodes))
	for l := range s.Nodes {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EdgeTypes returns the relationship types with counts, sorted.
func (s *Summary) EdgeTypes() []graph.RelType {
	out := make([]graph.RelType, 0, len(s.Edges))
	for t := range s.Edges {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

//Personal.AI order the ending
