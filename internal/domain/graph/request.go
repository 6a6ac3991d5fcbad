package graph

// Props is a property map. Nil values are dropped before writing so that
// absent attributes never overwrite existing ones.
type Props map[string]interface{}

// Compact returns a copy without nil values.
func (p Props) Compact() Props {
	out := make(Props, len(p))
	for k, v := range p {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// SRIDWGS84 is the spatial reference id of WGS-84 longitude/latitude.
const SRIDWGS84 = 4326

// Point is a 2D spatial value. X is longitude and Y latitude for WGS-84.
type Point struct {
	X, Y float64
	SRID uint32
}

// WGS84 builds a longitude/latitude point.
func WGS84(lon, lat float64) Point {
	return Point{X: lon, Y: lat, SRID: SRIDWGS84}
}

// NodeRequest asks the writer to merge one node by key and set Props.
type NodeRequest struct {
	Kind  NodeKind
	Key   string
	Props Props
}

// EndpointMode selects how the writer resolves an edge endpoint.
type EndpointMode int

const (
	// Match requires the node to exist already.
	Match EndpointMode = iota
	// Merge creates the endpoint by key when it is absent.
	Merge
)

// EdgeRequest asks the writer to merge one relationship between two nodes.
// Both endpoints are matched by their merge keys.
type EdgeRequest struct {
	Type RelType

	From    NodeKind
	FromKey string

	To     NodeKind
	ToKey  string
	ToMode EndpointMode

	Props Props
}

// BatchKey groups requests that can share one parameterised statement.
type BatchKey struct {
	Type   RelType
	From   NodeKind
	To     NodeKind
	ToMode EndpointMode
}

func (e EdgeRequest) BatchKey() BatchKey {
	return BatchKey{Type: e.Type, From: e.From, To: e.To, ToMode: e.ToMode}
}

// PropertyUpdate asks the writer to set Props on an existing node only.
type PropertyUpdate struct {
	Kind  NodeKind
	Key   string
	Props Props
}

// ItemFailure is one request the store rejected. Index refers to the slice
// handed to the writer.
type ItemFailure struct {
	Index int
	Err   error
}

// WriteReport summarises one writer call.
type WriteReport struct {
	Requested     int
	Created       int
	PropertiesSet int
	Failed        []ItemFailure
}

// Written is the number of requests the store accepted.
func (r WriteReport) Written() int { return r.Requested - len(r.Failed) }

// FailedSet returns the indexes of rejected requests.
func (r WriteReport) FailedSet() map[int]bool {
	out := make(map[int]bool, len(r.Failed))
	for _, f := range r.Failed {
		out[f.Index] = true
	}
	return out
}

// Merge adds o to r, shifting o's indexes by offset.
func (r *WriteReport) Merge(o WriteReport, offset int) {
	r.Requested += o.Requested
	r.Created += o.Created
	r.PropertiesSet += o.PropertiesSet
	for _, f := range o.Failed {
		r.Failed = append(r.Failed, ItemFailure{Index: f.Index + offset, Err: f.Err})
	}
}

//Personal.AI order the ending
