package repositories

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/turtacn/patentsview-graph/internal/domain/graph"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// Labels, relationship types and property keys cannot be parameterised, so
// they are interpolated only after passing this check.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func checkIdentifiers(ids ...string) error {
	for _, id := range ids {
		if !identifierPattern.MatchString(id) {
			return pkgerrors.Newf(pkgerrors.ErrCodeValidation, "invalid cypher identifier %q", id)
		}
	}
	return nil
}

// Row parameter fields shared by every batched statement.
const (
	paramRows  = "rows"
	fieldKey   = "key"
	fieldFrom  = "from"
	fieldTo    = "to"
	fieldProps = "props"
)

// mergeNodesCypher merges each row by key and sets its properties.
func mergeNodesCypher(kind graph.NodeKind) (string, error) {
	if err := checkIdentifiers(string(kind.Label), kind.Key); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"UNWIND $%s AS row\nMERGE (n:%s {%s: row.%s})\nSET n += row.%s",
		paramRows, kind.Label, kind.Key, fieldKey, fieldProps,
	), nil
}

// mergeEdgesCypher matches the start node, matches or merges the end node and
// merges one relationship of the given type between them.
func mergeEdgesCypher(k graph.BatchKey) (string, error) {
	if err := checkIdentifiers(string(k.Type), string(k.From.Label), k.From.Key, string(k.To.Label), k.To.Key); err != nil {
		return "", err
	}
	endClause := "MATCH"
	if k.ToMode == graph.Merge {
		endClause = "MERGE"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UNWIND $%s AS row\n", paramRows)
	fmt.Fprintf(&b, "MATCH (a:%s {%s: row.%s})\n", k.From.Label, k.From.Key, fieldFrom)
	fmt.Fprintf(&b, "%s (b:%s {%s: row.%s})\n", endClause, k.To.Label, k.To.Key, fieldTo)
	fmt.Fprintf(&b, "MERGE (a)-[r:%s]->(b)\n", k.Type)
	fmt.Fprintf(&b, "SET r += row.%s", fieldProps)
	return b.String(), nil
}

// setPropertiesCypher updates existing nodes only; unknown keys match
// nothing.
func setPropertiesCypher(kind graph.NodeKind) (string, error) {
	if err := checkIdentifiers(string(kind.Label), kind.Key); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"UNWIND $%s AS row\nMATCH (n:%s {%s: row.%s})\nSET n += row.%s",
		paramRows, kind.Label, kind.Key, fieldKey, fieldProps,
	), nil
}

// nodeKeysCypher returns the key of every node of kind.
func nodeKeysCypher(kind graph.NodeKind) (string, error) {
	if err := checkIdentifiers(string(kind.Label), kind.Key); err != nil {
		return "", err
	}
	return fmt.Sprintf("MATCH (n:%s)\nRETURN n.%s AS %s", kind.Label, kind.Key, fieldKey), nil
}

// constraintCypher creates a named uniqueness constraint unless it exists.
func constraintCypher(c graph.Constraint) (string, error) {
	if err := checkIdentifiers(c.Name, string(c.Kind.Label), c.Kind.Key); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		c.Name, c.Kind.Label, c.Kind.Key,
	), nil
}

//Personal.AI order the ending
