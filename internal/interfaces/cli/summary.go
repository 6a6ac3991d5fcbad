package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/turtacn/patentsview-graph/internal/application/loader"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// PrintSummary writes the per-table, per-label and per-type counts of a run.
func PrintSummary(w io.Writer, s *loader.Summary) {
	if s == nil {
		return
	}
	fmt.Fprintf(w, "Run %s: %s in %s, %d constraints added\n\n",
		s.RunID.Short(), s.State, s.Elapsed.Round(time.Millisecond), s.ConstraintsAdded)

	rows := make([][]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		rows = append(rows, []string{
			string(t.Table),
			t.Stage.String(),
			string(t.Status),
			itoa(t.RowsRead),
			itoa(t.Skipped[pkgerrors.KindRowParse]),
			itoa(t.Skipped[pkgerrors.KindReference]),
			itoa(t.Skipped[pkgerrors.KindWrite]),
			itoa(t.PropertiesSet),
			t.Duration.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprint(w, FormatTable(
		[]string{"TABLE", "STAGE", "STATUS", "ROWS", "PARSE ERR", "REF SKIP", "WRITE ERR", "PROPS", "TIME"}, rows))

	if len(s.Nodes) > 0 {
		rows = rows[:0]
		for _, l := range s.NodeLabels() {
			c := s.Nodes[l]
			rows = append(rows, []string{string(l), itoa(c.Requested), itoa(c.Created)})
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, FormatTable([]string{"LABEL", "REQUESTED", "CREATED"}, rows))
	}

	if len(s.Edges) > 0 {
		rows = rows[:0]
		for _, t := range s.EdgeTypes() {
			c := s.Edges[t]
			rows = append(rows, []string{string(t), itoa(c.Requested), itoa(c.Created)})
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, FormatTable([]string{"RELATIONSHIP", "REQUESTED", "CREATED"}, rows))
	}

	totals := s.SkippedByKind()
	fmt.Fprintf(w, "\nSkipped: %d malformed rows, %d unresolved references, %d rejected writes\n",
		totals[pkgerrors.KindRowParse], totals[pkgerrors.KindReference], totals[pkgerrors.KindWrite])
}

func logSummary(log logging.Logger, s *loader.Summary, err error) {
	if s == nil {
		return
	}
	totals := s.SkippedByKind()
	fields := []logging.Field{
		logging.String("state", string(s.State)),
		logging.Duration(logging.FieldDuration, s.Elapsed),
		logging.Int64("malformed", totals[pkgerrors.KindRowParse]),
		logging.Int64("unresolved", totals[pkgerrors.KindReference]),
		logging.Int64("rejected", totals[pkgerrors.KindWrite]),
	}
	if err != nil {
		log.WithError(err).Error("Load failed", fields...)
		return
	}
	log.Info("Load complete", fields...)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

//Personal.AI order the ending
