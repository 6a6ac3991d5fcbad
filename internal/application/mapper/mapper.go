// Package mapper translates typed PatentsView records into graph node and
// edge requests. It owns the sets of keys loaded in this run, which decide
// whether a relation row refers to known nodes.
package mapper

import (
	"fmt"
	"time"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
	"github.com/turtacn/patentsview-graph/internal/domain/patentsview"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
	"github.com/turtacn/patentsview-graph/pkg/types/common"
)

// Mapping is everything one record contributes to the graph. Nodes must be
// written before Edges.
type Mapping struct {
	Nodes []graph.NodeRequest
	Edges []graph.EdgeRequest
}

// Mapper is not safe for concurrent use; the loader drives it from the
// single writer goroutine.
type Mapper struct {
	Patents   *IDSet
	Assignees *IDSet
	Inventors *IDSet
	Locations *IDSet

	codes map[graph.Label]*IDSet
}

// New creates a Mapper with empty key sets.
func New() *Mapper {
	return &Mapper{
		Patents:   NewIDSet(),
		Assignees: NewIDSet(),
		Inventors: NewIDSet(),
		Locations: NewIDSet(),
		codes:     make(map[graph.Label]*IDSet),
	}
}

// Loaded returns the key set of kind, nil for classification kinds.
func (m *Mapper) Loaded(kind graph.NodeKind) *IDSet {
	switch kind {
	case graph.PatentKind:
		return m.Patents
	case graph.AssigneeKind:
		return m.Assignees
	case graph.InventorKind:
		return m.Inventors
	case graph.LocationKind:
		return m.Locations
	}
	return nil
}

// MarkWritten records that node now exists in the store.
func (m *Mapper) MarkWritten(node graph.NodeRequest) {
	if set := m.Loaded(node.Kind); set != nil {
		set.Add(node.Key)
	}
}

// Map translates rec. Relation rows whose endpoints are not loaded yield
// Skipped with a ReferenceError, exactly once per record.
func (m *Mapper) Map(rec patentsview.Record) common.Result[Mapping] {
	switch r := rec.(type) {
	case patentsview.PatentRow:
		return nodeOnly(PatentNode(r))
	case patentsview.AssigneeRow:
		return nodeOnly(AssigneeNode(r))
	case patentsview.InventorRow:
		return nodeOnly(InventorNode(r))
	case patentsview.LocationRow:
		return nodeOnly(LocationNode(r))

	case patentsview.CitationRow:
		if err := m.require(graph.PatentKind, r.PatentID, "citing patent"); err != nil {
			return common.Skipped[Mapping](err)
		}
		if err := m.require(graph.PatentKind, r.CitationID, "cited patent"); err != nil {
			return common.Skipped[Mapping](err)
		}
		return edgeOnly(graph.EdgeRequest{
			Type: graph.RelCites,
			From: graph.PatentKind, FromKey: r.PatentID,
			To: graph.PatentKind, ToKey: r.CitationID,
			Props: graph.Props{"category": optString(r.Category), "sequence": optInt(r.Sequence)},
		})

	case patentsview.PatentAssigneeRow:
		if err := m.require(graph.AssigneeKind, r.AssigneeID, "assignee"); err != nil {
			return common.Skipped[Mapping](err)
		}
		if err := m.require(graph.PatentKind, r.PatentID, "patent"); err != nil {
			return common.Skipped[Mapping](err)
		}
		return edgeOnly(graph.EdgeRequest{
			Type: graph.RelOwns,
			From: graph.AssigneeKind, FromKey: r.AssigneeID,
			To: graph.PatentKind, ToKey: r.PatentID,
		})

	case patentsview.PatentInventorRow:
		if err := m.require(graph.InventorKind, r.InventorID, "inventor"); err != nil {
			return common.Skipped[Mapping](err)
		}
		if err := m.require(graph.PatentKind, r.PatentID, "patent"); err != nil {
			return common.Skipped[Mapping](err)
		}
		return edgeOnly(graph.EdgeRequest{
			Type: graph.RelInvents,
			From: graph.InventorKind, FromKey: r.InventorID,
			To: graph.PatentKind, ToKey: r.PatentID,
		})

	case patentsview.LocationAssigneeRow:
		if err := m.require(graph.AssigneeKind, r.AssigneeID, "assignee"); err != nil {
			return common.Skipped[Mapping](err)
		}
		return edgeOnly(locatesAt(graph.AssigneeKind, r.AssigneeID, r.LocationID))

	case patentsview.LocationInventorRow:
		if err := m.require(graph.InventorKind, r.InventorID, "inventor"); err != nil {
			return common.Skipped[Mapping](err)
		}
		return edgeOnly(locatesAt(graph.InventorKind, r.InventorID, r.LocationID))

	case patentsview.ClassificationRow:
		return m.mapClassification(r)
	}
	return common.Skipped[Mapping](pkgerrors.Newf(pkgerrors.ErrCodeInternal, "no mapping for table %s", rec.Table()))
}

// mapClassification requests each code node the first time it is seen and
// one BELONGS_TO edge per level.
func (m *Mapper) mapClassification(r patentsview.ClassificationRow) common.Result[Mapping] {
	if err := m.require(graph.PatentKind, r.PatentID, "patent"); err != nil {
		return common.Skipped[Mapping](err)
	}
	var out Mapping
	for _, c := range r.Codes {
		kind, ok := graph.TaxonomyKind(c.Level)
		if !ok {
			return common.Skipped[Mapping](pkgerrors.Newf(pkgerrors.ErrCodeInternal, "unknown taxonomy level %s", c.Level))
		}
		seen := m.codes[kind.Label]
		if seen == nil {
			seen = NewIDSet()
			m.codes[kind.Label] = seen
		}
		if !seen.Has(c.Code) {
			seen.Add(c.Code)
			out.Nodes = append(out.Nodes, graph.NodeRequest{Kind: kind, Key: c.Code})
		}
		out.Edges = append(out.Edges, graph.EdgeRequest{
			Type: graph.RelBelongsTo,
			From: graph.PatentKind, FromKey: r.PatentID,
			To: kind, ToKey: c.Code,
		})
	}
	return common.Ok(out)
}

// ForgetCode drops a code whose node write failed so a later row retries it.
func (m *Mapper) ForgetCode(node graph.NodeRequest) {
	if seen := m.codes[node.Kind.Label]; seen != nil {
		delete(seen.ids, node.Key)
	}
}

func (m *Mapper) require(kind graph.NodeKind, key, role string) error {
	set := m.Loaded(kind)
	if set == nil || !set.Has(key) {
		return pkgerrors.ReferenceError(fmt.Sprintf("%s %s not loaded", role, key))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Entity nodes
// ─────────────────────────────────────────────────────────────────────────────

func PatentNode(r patentsview.PatentRow) graph.NodeRequest {
	return graph.NodeRequest{
		Kind: graph.PatentKind,
		Key:  r.ID,
		Props: graph.Props{
			"type":       optString(r.Type),
			"number":     optString(r.Number),
			"country":    optString(r.Country),
			"date":       optDate(r.Date),
			"title":      optString(r.Title),
			"kind":       optString(r.Kind),
			"num_claims": optInt(r.NumClaims),
			"withdrawn":  optBool(r.Withdrawn),
			"abstract":   optString(r.Abstract),
		},
	}
}

func AssigneeNode(r patentsview.AssigneeRow) graph.NodeRequest {
	return graph.NodeRequest{
		Kind: graph.AssigneeKind,
		Key:  r.ID,
		Props: graph.Props{
			"assignee_name": optString(r.DisplayName()),
			"assignee_type": optString(r.Type),
			"name_first":    optString(r.NameFirst),
			"name_last":     optString(r.NameLast),
			"organization":  optString(r.Organization),
		},
	}
}

func InventorNode(r patentsview.InventorRow) graph.NodeRequest {
	return graph.NodeRequest{
		Kind: graph.InventorKind,
		Key:  r.ID,
		Props: graph.Props{
			"inventor_name": optString(r.DisplayName()),
			"name_first":    optString(r.NameFirst),
			"name_last":     optString(r.NameLast),
		},
	}
}

func LocationNode(r patentsview.LocationRow) graph.NodeRequest {
	props := graph.Props{
		"city":        optString(r.City),
		"state":       optString(r.State),
		"country":     optString(r.Country),
		"county":      optString(r.County),
		"state_fips":  optString(r.StateFIPS),
		"county_fips": optString(r.CountyFIPS),
	}
	if r.HasPoint() {
		props["gps"] = graph.WGS84(*r.Longitude, *r.Latitude)
	}
	return graph.NodeRequest{Kind: graph.LocationKind, Key: r.ID, Props: props}
}

func locatesAt(from graph.NodeKind, fromKey, locationID string) graph.EdgeRequest {
	return graph.EdgeRequest{
		Type: graph.RelLocatesAt,
		From: from, FromKey: fromKey,
		To: graph.LocationKind, ToKey: locationID, ToMode: graph.Merge,
	}
}

func nodeOnly(n graph.NodeRequest) common.Result[Mapping] {
	n.Props = n.Props.Compact()
	return common.Ok(Mapping{Nodes: []graph.NodeRequest{n}})
}

func edgeOnly(e graph.EdgeRequest) common.Result[Mapping] {
	e.Props = e.Props.Compact()
	return common.Ok(Mapping{Edges: []graph.EdgeRequest{e}})
}

// ─────────────────────────────────────────────────────────────────────────────
// Optional values. Absent values map to an untyped nil so Props.Compact drops
// them.
// ─────────────────────────────────────────────────────────────────────────────

func optString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func optInt(n *int64) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func optBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}

func optDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

//Personal.AI order the ending
