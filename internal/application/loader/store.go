package loader

import (
	"context"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
)

// Store applies graph requests. Returned errors are fatal for the run;
// per-request rejections are reported in graph.WriteReport.
type Store interface {
	EnsureSchema(ctx context.Context) (int, error)
	MergeNodes(ctx context.Context, nodes []graph.NodeRequest) (graph.WriteReport, error)
	MergeEdges(ctx context.Context, edges []graph.EdgeRequest) (graph.WriteReport, error)
	SetProperties(ctx context.Context, updates []graph.PropertyUpdate) (graph.WriteReport, error)
	// NodeKeys calls fn with the key of every stored node of kind.
	NodeKeys(ctx context.Context, kind graph.NodeKind, fn func(key string)) error
}

// Connector opens the store for one run. The returned close function
// releases the session and the connection pool and is called on every exit
// path.
type Connector func(ctx context.Context) (Store, func(context.Context) error, error)

//Personal.AI order the ending
