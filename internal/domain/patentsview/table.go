// Package patentsview models the PatentsView legacy bulk-download tables as
// typed records. Each table has a fixed set of required columns and a parse
// function that turns one header-mapped row into a Record or a row error.
package patentsview

import "sort"

// TableName is the base file name of a PatentsView extract without
// extension, e.g. "patent" for patent.tsv.bz2.
type TableName string

const (
	TablePatent           TableName = "patent"
	TableAssignee         TableName = "assignee"
	TableInventor         TableName = "inventor"
	TableLocation         TableName = "location"
	TableCitation         TableName = "uspatentcitation"
	TablePatentAssignee   TableName = "patent_assignee"
	TablePatentInventor   TableName = "patent_inventor"
	TableLocationAssignee TableName = "location_assignee"
	TableLocationInventor TableName = "location_inventor"
	TableCPCCurrent       TableName = "cpc_current"
	TableIPCR             TableName = "ipcr"
	TableNBER             TableName = "nber"
	TableUSPCCurrent      TableName = "uspc_current"
	TableApplication      TableName = "application"
	TableClaim            TableName = "claim"
	TableForeignCitation  TableName = "foreigncitation"
	TableOtherReference   TableName = "otherreference"
	TableUSAppCitation    TableName = "usapplicationcitation"
)

// Stage is the pipeline stage that consumes a table.
type Stage int

const (
	// StageNode tables produce entity nodes.
	StageNode Stage = iota
	// StageClassification tables produce taxonomy nodes and BELONGS_TO edges.
	StageClassification
	// StageEnrich tables add attributes to already loaded patents.
	StageEnrich
	// StageEdge tables produce relationships between entity nodes.
	StageEdge
)

func (s Stage) String() string {
	switch s {
	case StageNode:
		return "nodes"
	case StageClassification:
		return "classification"
	case StageEnrich:
		return "enrich"
	case StageEdge:
		return "edges"
	default:
		return "unknown"
	}
}

// Table describes one source extract.
type Table struct {
	Name  TableName
	Stage Stage

	// Columns must all be present in the header row.
	Columns []string

	parse func(r Row, opts ParseOptions) (Record, error)
}

// Parse turns a header-mapped row into a typed Record.
func (t Table) Parse(r Row, opts ParseOptions) (Record, error) {
	return t.parse(r, opts)
}

// MissingColumns returns the required columns absent from header.
func (t Table) MissingColumns(header []string) []string {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}
	var missing []string
	for _, c := range t.Columns {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// ParseOptions tunes attribute extraction.
type ParseOptions struct {
	IncludeAbstract bool
}

// catalog lists every table in load order within its stage.
var catalog = []Table{
	{Name: TablePatent, Stage: StageNode, Columns: []string{"id", "type", "number", "country", "date", "title", "kind", "num_claims"}, parse: parsePatent},
	{Name: TableAssignee, Stage: StageNode, Columns: []string{"id", "type", "name_first", "name_last", "organization"}, parse: parseAssignee},
	{Name: TableInventor, Stage: StageNode, Columns: []string{"id", "name_first", "name_last"}, parse: parseInventor},
	{Name: TableLocation, Stage: StageNode, Columns: []string{"id", "city", "state", "country", "latitude", "longitude"}, parse: parseLocation},

	{Name: TableCPCCurrent, Stage: StageClassification, Columns: []string{"patent_id", "section_id", "subsection_id", "group_id", "subgroup_id"}, parse: parseCPC},
	{Name: TableIPCR, Stage: StageClassification, Columns: []string{"patent_id", "section", "ipc_class", "subclass", "main_group", "subgroup"}, parse: parseIPCR},
	{Name: TableNBER, Stage: StageClassification, Columns: []string{"patent_id", "category_id", "subcategory_id"}, parse: parseNBER},
	{Name: TableUSPCCurrent, Stage: StageClassification, Columns: []string{"patent_id", "mainclass_id", "subclass_id"}, parse: parseUSPC},

	{Name: TableApplication, Stage: StageEnrich, Columns: []string{"id", "patent_id", "series_code", "date"}, parse: parseApplication},
	{Name: TableClaim, Stage: StageEnrich, Columns: []string{"patent_id", "dependent"}, parse: parseClaim},
	{Name: TableForeignCitation, Stage: StageEnrich, Columns: []string{"patent_id"}, parse: countParser(TableForeignCitation)},
	{Name: TableOtherReference, Stage: StageEnrich, Columns: []string{"patent_id"}, parse: countParser(TableOtherReference)},
	{Name: TableUSAppCitation, Stage: StageEnrich, Columns: []string{"patent_id"}, parse: countParser(TableUSAppCitation)},

	{Name: TableCitation, Stage: StageEdge, Columns: []string{"patent_id", "citation_id"}, parse: parseCitation},
	{Name: TablePatentAssignee, Stage: StageEdge, Columns: []string{"patent_id", "assignee_id"}, parse: parsePatentAssignee},
	{Name: TablePatentInventor, Stage: StageEdge, Columns: []string{"patent_id", "inventor_id"}, parse: parsePatentInventor},
	{Name: TableLocationAssignee, Stage: StageEdge, Columns: []string{"location_id", "assignee_id"}, parse: parseLocationAssignee},
	{Name: TableLocationInventor, Stage: StageEdge, Columns: []string{"location_id", "inventor_id"}, parse: parseLocationInventor},
}

// Tables returns the full catalog in load order.
func Tables() []Table {
	out := make([]Table, len(catalog))
	copy(out, catalog)
	return out
}

// TablesForStage returns the catalog entries of stage s in load order.
func TablesForStage(s Stage) []Table {
	var out []Table
	for _, t := range catalog {
		if t.Stage == s {
			out = append(out, t)
		}
	}
	return out
}

// Lookup finds a table by name.
func Lookup(name TableName) (Table, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// KnownTableNames returns every catalog name sorted alphabetically.
func KnownTableNames() []string {
	names := make([]string, 0, len(catalog))
	for _, t := range catalog {
		names = append(names, string(t.Name))
	}
	sort.Strings(names)
	return names
}

//Personal.AI order the ending
