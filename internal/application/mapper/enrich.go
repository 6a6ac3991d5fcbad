package mapper

import (
	"sort"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
	"github.com/turtacn/patentsview-graph/internal/domain/patentsview"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// Patent properties set by the enrichment tables.
const (
	PropApplicationID       = "application_id"
	PropApplicationDate     = "application_date"
	PropSeriesCode          = "series_code"
	PropDependentClaims     = "dependent"
	PropIndependentClaims   = "independent"
	PropForeignCitations    = "foreigncitation"
	PropOtherReferences     = "otherreference"
	PropApplicationCitation = "applicationcitation"
)

var countProps = map[patentsview.TableName]string{
	patentsview.TableForeignCitation: PropForeignCitations,
	patentsview.TableOtherReference:  PropOtherReferences,
	patentsview.TableUSAppCitation:   PropApplicationCitation,
}

// Enricher aggregates one enrichment table into per-patent property
// updates. Rows for patents outside the loaded set are rejected.
type Enricher struct {
	patents *IDSet
	props   map[string]graph.Props
}

// NewEnricher aggregates against the loaded patent keys.
func (m *Mapper) NewEnricher() *Enricher {
	return &Enricher{patents: m.Patents, props: make(map[string]graph.Props)}
}

// Add folds rec into the aggregate. The returned error is a ReferenceError
// for unknown patents and an internal error for non-enrichment records.
func (e *Enricher) Add(rec patentsview.Record) error {
	var pid string
	switch r := rec.(type) {
	case patentsview.ApplicationRow:
		pid = r.PatentID
	case patentsview.ClaimRow:
		pid = r.PatentID
	case patentsview.CountRow:
		pid = r.PatentID
	default:
		return pkgerrors.Newf(pkgerrors.ErrCodeInternal, "table %s does not enrich patents", rec.Table())
	}
	if !e.patents.Has(pid) {
		return pkgerrors.ReferenceError("patent " + pid + " not loaded")
	}

	p := e.props[pid]
	if p == nil {
		p = graph.Props{}
		e.props[pid] = p
	}

	switch r := rec.(type) {
	case patentsview.ApplicationRow:
		p[PropApplicationID] = optString(r.ApplicationID)
		p[PropSeriesCode] = optString(r.SeriesCode)
		p[PropApplicationDate] = optDate(r.Date)
	case patentsview.ClaimRow:
		if _, ok := p[PropDependentClaims]; !ok {
			p[PropDependentClaims] = int64(0)
			p[PropIndependentClaims] = int64(0)
		}
		if r.Independent {
			p[PropIndependentClaims] = p[PropIndependentClaims].(int64) + 1
		} else {
			p[PropDependentClaims] = p[PropDependentClaims].(int64) + 1
		}
	case patentsview.CountRow:
		key := countProps[r.Source]
		n, _ := p[key].(int64)
		p[key] = n + 1
	}
	return nil
}

// Len is the number of patents touched so far.
func (e *Enricher) Len() int { return len(e.props) }

// Updates returns the aggregated updates ordered by patent key and resets
// the aggregate.
func (e *Enricher) Updates() []graph.PropertyUpdate {
	keys := make([]string, 0, len(e.props))
	for k := range e.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]graph.PropertyUpdate, 0, len(keys))
	for _, k := range keys {
		out = append(out, graph.PropertyUpdate{Kind: graph.PatentKind, Key: k, Props: e.props[k].Compact()})
	}
	e.props = make(map[string]graph.Props)
	return out
}

//Personal.AI order the ending
