// Package graph defines the property-graph schema the PatentsView tables are
// mapped onto: node labels with their merge keys, relationship types and the
// request values handed to the graph writer.
package graph

import "github.com/turtacn/patentsview-graph/internal/domain/patentsview"

// Label is a node label.
type Label string

const (
	LabelPatent   Label = "Patent"
	LabelAssignee Label = "Assignee"
	LabelInventor Label = "Inventor"
	LabelLocation Label = "Location"

	LabelCPCSection    Label = "CpcSection"
	LabelCPCSubsection Label = "CpcSubsection"
	LabelCPCGroup      Label = "CpcGroup"
	LabelCPCSubgroup   Label = "CpcSubgroup"

	LabelIPCRSection   Label = "IpcrSection"
	LabelIPCRClass     Label = "IpcrClass"
	LabelIPCRSubclass  Label = "IpcrSubclass"
	LabelIPCRMainGroup Label = "IpcrMainGroup"
	LabelIPCRSubgroup  Label = "IpcrSubgroup"

	LabelNBERCategory    Label = "NberCategory"
	LabelNBERSubcategory Label = "NberSubcategory"

	LabelUSPCMainclass Label = "UspcMainclass"
	LabelUSPCSubclass  Label = "UspcSubclass"
)

// RelType is a relationship type.
type RelType string

const (
	RelCites     RelType = "CITES"
	RelOwns      RelType = "OWNS"
	RelInvents   RelType = "INVENTS"
	RelBelongsTo RelType = "BELONGS_TO"
	RelLocatesAt RelType = "LOCATES_AT"
)

// Merge keys.
const (
	KeyPatent         = "pid"
	KeyAssignee       = "assignee_id"
	KeyInventor       = "inventor_id"
	KeyLocation       = "location_id"
	KeyClassification = "code"
)

// NodeKind pairs a label with the property it is merged on.
type NodeKind struct {
	Label Label
	Key   string
}

var (
	PatentKind   = NodeKind{LabelPatent, KeyPatent}
	AssigneeKind = NodeKind{LabelAssignee, KeyAssignee}
	InventorKind = NodeKind{LabelInventor, KeyInventor}
	LocationKind = NodeKind{LabelLocation, KeyLocation}
)

var taxonomyLabels = map[patentsview.TaxonomyLevel]Label{
	patentsview.LevelCPCSection:      LabelCPCSection,
	patentsview.LevelCPCSubsection:   LabelCPCSubsection,
	patentsview.LevelCPCGroup:        LabelCPCGroup,
	patentsview.LevelCPCSubgroup:     LabelCPCSubgroup,
	patentsview.LevelIPCRSection:     LabelIPCRSection,
	patentsview.LevelIPCRClass:       LabelIPCRClass,
	patentsview.LevelIPCRSubclass:    LabelIPCRSubclass,
	patentsview.LevelIPCRMainGroup:   LabelIPCRMainGroup,
	patentsview.LevelIPCRSubgroup:    LabelIPCRSubgroup,
	patentsview.LevelNBERCategory:    LabelNBERCategory,
	patentsview.LevelNBERSubcategory: LabelNBERSubcategory,
	patentsview.LevelUSPCMainclass:   LabelUSPCMainclass,
	patentsview.LevelUSPCSubclass:    LabelUSPCSubclass,
}

// TaxonomyKind returns the node kind of a classification level.
func TaxonomyKind(level patentsview.TaxonomyLevel) (NodeKind, bool) {
	l, ok := taxonomyLabels[level]
	if !ok {
		return NodeKind{}, false
	}
	return NodeKind{Label: l, Key: KeyClassification}, true
}

// AllKinds lists every node kind that receives a uniqueness constraint, in
// creation order.
func AllKinds() []NodeKind {
	kinds := []NodeKind{PatentKind, AssigneeKind, InventorKind, LocationKind}
	for _, l := range []Label{
		LabelCPCSection, LabelCPCSubsection, LabelCPCGroup, LabelCPCSubgroup,
		LabelIPCRSection, LabelIPCRClass, LabelIPCRSubclass, LabelIPCRMainGroup, LabelIPCRSubgroup,
		LabelNBERCategory, LabelNBERSubcategory,
		LabelUSPCMainclass, LabelUSPCSubclass,
	} {
		kinds = append(kinds, NodeKind{Label: l, Key: KeyClassification})
	}
	return kinds
}

// Constraint is a uniqueness constraint on one label's merge key.
type Constraint struct {
	Name string
	Kind NodeKind
}

// Constraints returns one constraint per node kind. Names are stable so that
// re-runs find the existing constraints.
func Constraints() []Constraint {
	kinds := AllKinds()
	out := make([]Constraint, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, Constraint{Name: "uniq_" + string(k.Label) + "_" + k.Key, Kind: k})
	}
	return out
}

//Personal.AI order the ending
