package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
)

// EdgeKey identifies one relationship in a MemGraph. Like a Cypher MERGE on
// an untyped pattern, a pair of nodes holds at most one edge per type.
type EdgeKey struct {
	Type    graph.RelType
	From    graph.NodeKind
	FromKey string
	To      graph.NodeKind
	ToKey   string
}

// MemGraph is an in-memory graph store with the write semantics of the
// Neo4j writer: nodes merge by key, edges match their source and match or
// merge their target, property updates only touch existing nodes.
type MemGraph struct {
	mu sync.Mutex

	nodes       map[graph.NodeKind]map[string]graph.Props
	edges       map[EdgeKey]graph.Props
	constraints map[string]bool

	// Reject, when set, is called with every NodeRequest, EdgeRequest and
	// PropertyUpdate. A non-nil result rejects that request only.
	Reject func(req interface{}) error
	// Fail, when set, is returned by every write call.
	Fail error

	Calls  int
	Closed bool
}

// NewMemGraph returns an empty store.
func NewMemGraph() *MemGraph {
	return &MemGraph{
		nodes:       make(map[graph.NodeKind]map[string]graph.Props),
		edges:       make(map[EdgeKey]graph.Props),
		constraints: make(map[string]bool),
	}
}

func (g *MemGraph) EnsureSchema(ctx context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check(ctx); err != nil {
		return 0, err
	}
	added := 0
	for _, c := range graph.Constraints() {
		if !g.constraints[c.Name] {
			g.constraints[c.Name] = true
			added++
		}
	}
	return added, nil
}

func (g *MemGraph) MergeNodes(ctx context.Context, nodes []graph.NodeRequest) (graph.WriteReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	report := graph.WriteReport{Requested: len(nodes)}
	if err := g.check(ctx); err != nil {
		return graph.WriteReport{}, err
	}
	for i, n := range nodes {
		if g.rejected(&report, i, n) {
			continue
		}
		if g.ensureNode(n.Kind, n.Key) {
			report.Created++
		}
		report.PropertiesSet += g.set(g.nodes[n.Kind][n.Key], n.Props)
	}
	return report, nil
}

func (g *MemGraph) MergeEdges(ctx context.Context, edges []graph.EdgeRequest) (graph.WriteReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	report := graph.WriteReport{Requested: len(edges)}
	if err := g.check(ctx); err != nil {
		return graph.WriteReport{}, err
	}
	for i, e := range edges {
		if g.rejected(&report, i, e) {
			continue
		}
		if !g.hasNode(e.From, e.FromKey) {
			continue
		}
		if !g.hasNode(e.To, e.ToKey) {
			if e.ToMode != graph.Merge {
				continue
			}
			g.ensureNode(e.To, e.ToKey)
		}
		k := EdgeKey{Type: e.Type, From: e.From, FromKey: e.FromKey, To: e.To, ToKey: e.ToKey}
		props, ok := g.edges[k]
		if !ok {
			props = graph.Props{}
			g.edges[k] = props
			report.Created++
		}
		report.PropertiesSet += g.set(props, e.Props)
	}
	return report, nil
}

func (g *MemGraph) SetProperties(ctx context.Context, updates []graph.PropertyUpdate) (graph.WriteReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	report := graph.WriteReport{Requested: len(updates)}
	if err := g.check(ctx); err != nil {
		return graph.WriteReport{}, err
	}
	for i, u := range updates {
		if g.rejected(&report, i, u) {
			continue
		}
		if !g.hasNode(u.Kind, u.Key) {
			continue
		}
		report.PropertiesSet += g.set(g.nodes[u.Kind][u.Key], u.Props)
	}
	report.Created = report.PropertiesSet
	return report, nil
}

// NodeKeys calls fn with the key of every node of kind.
func (g *MemGraph) NodeKeys(ctx context.Context, kind graph.NodeKind, fn func(key string)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	for key := range g.nodes[kind] {
		fn(key)
	}
	return nil
}

// Close marks the store closed. It matches the close function of a
// loader connector.
func (g *MemGraph) Close(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Closed = true
	return nil
}

// Node returns the properties of one node.
func (g *MemGraph) Node(kind graph.NodeKind, key string) (graph.Props, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.nodes[kind][key]
	return p, ok
}

// NodeCount counts the nodes with label.
func (g *MemGraph) NodeCount(label graph.Label) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k, m := range g.nodes {
		if k.Label == label {
			n += len(m)
		}
	}
	return n
}

// EdgeCount counts the relationships of type t.
func (g *MemGraph) EdgeCount(t graph.RelType) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k := range g.edges {
		if k.Type == t {
			n++
		}
	}
	return n
}

// HasEdge reports whether the relationship exists.
func (g *MemGraph) HasEdge(k EdgeKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.edges[k]
	return ok
}

func (g *MemGraph) check(ctx context.Context) error {
	g.Calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.Fail
}

func (g *MemGraph) rejected(r *graph.WriteReport, i int, req interface{}) bool {
	if g.Reject == nil {
		return false
	}
	if err := g.Reject(req); err != nil {
		r.Failed = append(r.Failed, graph.ItemFailure{Index: i, Err: err})
		return true
	}
	return false
}

func (g *MemGraph) hasNode(kind graph.NodeKind, key string) bool {
	_, ok := g.nodes[kind][key]
	return ok
}

// ensureNode reports whether the node was created.
func (g *MemGraph) ensureNode(kind graph.NodeKind, key string) bool {
	m := g.nodes[kind]
	if m == nil {
		m = make(map[string]graph.Props)
		g.nodes[kind] = m
	}
	if _, ok := m[key]; ok {
		return false
	}
	m[key] = graph.Props{kind.Key: key}
	return true
}

func (g *MemGraph) set(dst, src graph.Props) int {
	n := 0
	for k, v := range src {
		if v == nil {
			continue
		}
		dst[k] = v
		n++
	}
	return n
}

//Personal.AI order the ending
