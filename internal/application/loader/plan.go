package loader

import (
	"sort"
	"strings"

	"github.com/turtacn/patentsview-graph/internal/domain/patentsview"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/storage/tablefile"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// Plan is the validated list of table files a run will load.
type Plan struct {
	// Files holds the selected, present tables grouped by stage in load
	// order: nodes, enrichment, edges, classification.
	Files []tablefile.File
	// Missing lists selected optional tables absent from the data directory.
	Missing []patentsview.TableName
	// Excluded lists present tables left out by the table filter.
	Excluded []patentsview.TableName
}

// stageOrder is the order in which table stages run.
var stageOrder = []patentsview.Stage{
	patentsview.StageNode,
	patentsview.StageEnrich,
	patentsview.StageEdge,
	patentsview.StageClassification,
}

// Prepare validates catalog against opts before anything is written:
// required tables must exist, the table filter must name known tables and
// every selected present table must have a readable header with all
// required columns. Every failure is a ConfigError.
func Prepare(catalog *tablefile.Catalog, reader *tablefile.Reader, opts Options, log logging.Logger) (*Plan, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if err := catalog.CheckRequired(opts.RequiredTables); err != nil {
		return nil, err
	}

	selected, err := selection(opts.Tables)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	for _, stage := range stageOrder {
		if stage == patentsview.StageEnrich && opts.SkipEnrichment {
			continue
		}
		for _, t := range patentsview.TablesForStage(stage) {
			f, present := catalog.File(t.Name)
			if selected != nil && !selected[t.Name] {
				if present {
					plan.Excluded = append(plan.Excluded, t.Name)
				}
				continue
			}
			if !present {
				plan.Missing = append(plan.Missing, t.Name)
				continue
			}
			if err := reader.CheckHeader(f); err != nil {
				return nil, err
			}
			plan.Files = append(plan.Files, f)
		}
	}

	for _, m := range plan.Missing {
		log.Warn("Optional table not found, skipping", logging.String(logging.FieldTable, string(m)))
	}
	return plan, nil
}

// selection parses the table filter. nil means every table.
func selection(tables []string) (map[patentsview.TableName]bool, error) {
	if len(tables) == 0 {
		return nil, nil
	}
	out := make(map[patentsview.TableName]bool, len(tables))
	var unknown []string
	for _, raw := range tables {
		name := patentsview.TableName(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if _, ok := patentsview.Lookup(name); !ok {
			unknown = append(unknown, string(name))
			continue
		}
		out[name] = true
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, pkgerrors.New(pkgerrors.ErrCodeConfig, "unknown table in table filter").
			WithDetail(strings.Join(unknown, ", "))
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

//Personal.AI order the ending
