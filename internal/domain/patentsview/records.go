package patentsview

import (
	"strings"
	"time"
)

// Record is one parsed source row. The concrete type identifies the table.
type Record interface {
	Table() TableName
}

// PatentRow is a row of patent.tsv.
type PatentRow struct {
	ID        string
	Type      string
	Number    string
	Country   string
	Date      *time.Time
	Abstract  string
	Title     string
	Kind      string
	NumClaims *int64
	Withdrawn *bool
}

func (PatentRow) Table() TableName { return TablePatent }

// AssigneeRow is a row of assignee.tsv.
type AssigneeRow struct {
	ID           string
	Type         string
	NameFirst    string
	NameLast     string
	Organization string
}

func (AssigneeRow) Table() TableName { return TableAssignee }

// DisplayName joins first name, last name and organization, skipping empty
// parts. Individual assignees carry names, organizations carry only the
// organization.
func (a AssigneeRow) DisplayName() string {
	return joinNonEmpty(a.NameFirst, a.NameLast, a.Organization)
}

// InventorRow is a row of inventor.tsv.
type InventorRow struct {
	ID        string
	NameFirst string
	NameLast  string
}

func (InventorRow) Table() TableName { return TableInventor }

func (i InventorRow) DisplayName() string {
	return joinNonEmpty(i.NameFirst, i.NameLast)
}

// LocationRow is a row of location.tsv. Latitude and Longitude are nil when
// absent or unparseable.
type LocationRow struct {
	ID         string
	City       string
	State      string
	Country    string
	County     string
	StateFIPS  string
	CountyFIPS string
	Latitude   *float64
	Longitude  *float64
}

func (LocationRow) Table() TableName { return TableLocation }

// HasPoint reports whether both coordinates are usable.
func (l LocationRow) HasPoint() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// CitationRow is a row of uspatentcitation.tsv: PatentID cites CitationID.
type CitationRow struct {
	PatentID   string
	CitationID string
	Category   string
	Sequence   *int64
}

func (CitationRow) Table() TableName { return TableCitation }

type PatentAssigneeRow struct {
	PatentID   string
	AssigneeID string
}

func (PatentAssigneeRow) Table() TableName { return TablePatentAssignee }

type PatentInventorRow struct {
	PatentID   string
	InventorID string
}

func (PatentInventorRow) Table() TableName { return TablePatentInventor }

type LocationAssigneeRow struct {
	LocationID string
	AssigneeID string
}

func (LocationAssigneeRow) Table() TableName { return TableLocationAssignee }

type LocationInventorRow struct {
	LocationID string
	InventorID string
}

func (LocationInventorRow) Table() TableName { return TableLocationInventor }

// TaxonomyLevel names one level of a classification scheme.
type TaxonomyLevel string

const (
	LevelCPCSection      TaxonomyLevel = "cpc_section"
	LevelCPCSubsection   TaxonomyLevel = "cpc_subsection"
	LevelCPCGroup        TaxonomyLevel = "cpc_group"
	LevelCPCSubgroup     TaxonomyLevel = "cpc_subgroup"
	LevelIPCRSection     TaxonomyLevel = "ipcr_section"
	LevelIPCRClass       TaxonomyLevel = "ipcr_class"
	LevelIPCRSubclass    TaxonomyLevel = "ipcr_subclass"
	LevelIPCRMainGroup   TaxonomyLevel = "ipcr_maingroup"
	LevelIPCRSubgroup    TaxonomyLevel = "ipcr_subgroup"
	LevelNBERCategory    TaxonomyLevel = "nber_category"
	LevelNBERSubcategory TaxonomyLevel = "nber_subcategory"
	LevelUSPCMainclass   TaxonomyLevel = "uspc_mainclass"
	LevelUSPCSubclass    TaxonomyLevel = "uspc_subclass"
)

// Classification is one (level, code) pair a patent belongs to.
type Classification struct {
	Level TaxonomyLevel
	Code  string
}

// ClassificationRow is a row of cpc_current, ipcr, nber or uspc_current
// reduced to the classifications it assigns to PatentID, coarsest first.
type ClassificationRow struct {
	Source   TableName
	PatentID string
	Codes    []Classification
}

func (c ClassificationRow) Table() TableName { return c.Source }

// ApplicationRow is a row of application.tsv.
type ApplicationRow struct {
	ApplicationID string
	PatentID      string
	SeriesCode    string
	Date          *time.Time
}

func (ApplicationRow) Table() TableName { return TableApplication }

// ClaimRow is a row of claim.tsv. Independent claims carry dependent = -1.
type ClaimRow struct {
	PatentID    string
	Independent bool
}

func (ClaimRow) Table() TableName { return TableClaim }

// CountRow is a row of a table that only contributes a per-patent count:
// foreigncitation, otherreference and usapplicationcitation.
type CountRow struct {
	Source   TableName
	PatentID string
}

func (c CountRow) Table() TableName { return c.Source }

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

//Personal.AI order the ending
