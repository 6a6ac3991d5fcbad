package patentsview

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// DateLayout is the PatentsView date format.
const DateLayout = "2006-01-02"

// uspcRetired marks USPC rows without a current classification.
const uspcRetired = "No longer published"

// Row is one data line of a source file, addressable by header name.
type Row struct {
	File   string
	Line   int64
	Fields []string
	Index  map[string]int
}

// NewIndex maps header names to positions. Header names are trimmed.
func NewIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// Get returns the trimmed value of col. Missing columns and the MySQL null
// markers NULL and \N read as empty.
func (r Row) Get(col string) string {
	i, ok := r.Index[col]
	if !ok || i >= len(r.Fields) {
		return ""
	}
	v := strings.TrimSpace(r.Fields[i])
	if v == "NULL" || v == `\N` {
		return ""
	}
	return v
}

// Location renders "file:line" for diagnostics.
func (r Row) Location() string {
	return fmt.Sprintf("%s:%d", r.File, r.Line)
}

// require returns the values of cols or a row error naming the first empty
// one.
func (r Row) require(cols ...string) ([]string, error) {
	vals := make([]string, len(cols))
	for i, c := range cols {
		v := r.Get(c)
		if v == "" {
			return nil, pkgerrors.RowParseError(fmt.Sprintf("required field %q is empty", c))
		}
		vals[i] = v
	}
	return vals, nil
}

// ParseDate parses a PatentsView date. Invalid dates such as 1968-05-00
// yield nil rather than an error.
func ParseDate(s string) *time.Time {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func parseOptionalInt(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		n = int64(f)
	}
	return &n
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseOptionalBool(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

// ─────────────────────────────────────────────────────────────────────────────
// Per-table parsers
// ─────────────────────────────────────────────────────────────────────────────

func parsePatent(r Row, opts ParseOptions) (Record, error) {
	v, err := r.require("id")
	if err != nil {
		return nil, err
	}
	p := PatentRow{
		ID:        v[0],
		Type:      r.Get("type"),
		Number:    r.Get("number"),
		Country:   r.Get("country"),
		Date:      ParseDate(r.Get("date")),
		Title:     r.Get("title"),
		Kind:      r.Get("kind"),
		NumClaims: parseOptionalInt(r.Get("num_claims")),
		Withdrawn: parseOptionalBool(r.Get("withdrawn")),
	}
	if opts.IncludeAbstract {
		p.Abstract = r.Get("abstract")
	}
	return p, nil
}

func parseAssignee(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("id")
	if err != nil {
		return nil, err
	}
	return AssigneeRow{
		ID:           v[0],
		Type:         r.Get("type"),
		NameFirst:    r.Get("name_first"),
		NameLast:     r.Get("name_last"),
		Organization: r.Get("organization"),
	}, nil
}

func parseInventor(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("id")
	if err != nil {
		return nil, err
	}
	return InventorRow{ID: v[0], NameFirst: r.Get("name_first"), NameLast: r.Get("name_last")}, nil
}

func parseLocation(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("id")
	if err != nil {
		return nil, err
	}
	return LocationRow{
		ID:         v[0],
		City:       r.Get("city"),
		State:      r.Get("state"),
		Country:    r.Get("country"),
		County:     r.Get("county"),
		StateFIPS:  r.Get("state_fips"),
		CountyFIPS: r.Get("county_fips"),
		Latitude:   parseOptionalFloat(r.Get("latitude")),
		Longitude:  parseOptionalFloat(r.Get("longitude")),
	}, nil
}

func parseCitation(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("patent_id", "citation_id")
	if err != nil {
		return nil, err
	}
	return CitationRow{
		PatentID:   v[0],
		CitationID: v[1],
		Category:   r.Get("category"),
		Sequence:   parseOptionalInt(r.Get("sequence")),
	}, nil
}

func parsePatentAssignee(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("patent_id", "assignee_id")
	if err != nil {
		return nil, err
	}
	return PatentAssigneeRow{PatentID: v[0], AssigneeID: v[1]}, nil
}

func parsePatentInventor(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("patent_id", "inventor_id")
	if err != nil {
		return nil, err
	}
	return PatentInventorRow{PatentID: v[0], InventorID: v[1]}, nil
}

func parseLocationAssignee(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("location_id", "assignee_id")
	if err != nil {
		return nil, err
	}
	return LocationAssigneeRow{LocationID: v[0], AssigneeID: v[1]}, nil
}

func parseLocationInventor(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("location_id", "inventor_id")
	if err != nil {
		return nil, err
	}
	return LocationInventorRow{LocationID: v[0], InventorID: v[1]}, nil
}

func parseCPC(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("patent_id", "section_id", "subsection_id", "group_id", "subgroup_id")
	if err != nil {
		return nil, err
	}
	return ClassificationRow{
		Source:   TableCPCCurrent,
		PatentID: v[0],
		Codes: []Classification{
			{Level: LevelCPCSection, Code: v[1]},
			{Level: LevelCPCSubsection, Code: v[2]},
			{Level: LevelCPCGroup, Code: v[3]},
			{Level: LevelCPCSubgroup, Code: v[4]},
		},
	}, nil
}

// parseIPCR composes the hierarchical IPC symbol level by level, e.g.
// A, A61, A61K, A61K31, A61K31/00, so that codes of different sections never
// collide.
func parseIPCR(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("patent_id", "section", "ipc_class", "subclass", "main_group", "subgroup")
	if err != nil {
		return nil, err
	}
	section := v[1]
	class := section + v[2]
	subclass := class + v[3]
	mainGroup := subclass + v[4]
	subgroup := mainGroup + "/" + v[5]
	return ClassificationRow{
		Source:   TableIPCR,
		PatentID: v[0],
		Codes: []Classification{
			{Level: LevelIPCRSection, Code: section},
			{Level: LevelIPCRClass, Code: class},
			{Level: LevelIPCRSubclass, Code: subclass},
			{Level: LevelIPCRMainGroup, Code: mainGroup},
			{Level: LevelIPCRSubgroup, Code: subgroup},
		},
	}, nil
}

func parseNBER(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("patent_id", "category_id", "subcategory_id")
	if err != nil {
		return nil, err
	}
	return ClassificationRow{
		Source:   TableNBER,
		PatentID: v[0],
		Codes: []Classification{
			{Level: LevelNBERCategory, Code: v[1]},
			{Level: LevelNBERSubcategory, Code: v[2]},
		},
	}, nil
}

func parseUSPC(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("patent_id", "mainclass_id", "subclass_id")
	if err != nil {
		return nil, err
	}
	if v[1] == uspcRetired || v[2] == uspcRetired {
		return nil, pkgerrors.RowParseError("uspc classification no longer published")
	}
	return ClassificationRow{
		Source:   TableUSPCCurrent,
		PatentID: v[0],
		Codes: []Classification{
			{Level: LevelUSPCMainclass, Code: v[1]},
			{Level: LevelUSPCSubclass, Code: v[2]},
		},
	}, nil
}

func parseApplication(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("patent_id")
	if err != nil {
		return nil, err
	}
	return ApplicationRow{
		ApplicationID: r.Get("id"),
		PatentID:      v[0],
		SeriesCode:    r.Get("series_code"),
		Date:          ParseDate(r.Get("date")),
	}, nil
}

func parseClaim(r Row, _ ParseOptions) (Record, error) {
	v, err := r.require("patent_id", "dependent")
	if err != nil {
		return nil, err
	}
	return ClaimRow{PatentID: v[0], Independent: v[1] == "-1"}, nil
}

func countParser(table TableName) func(Row, ParseOptions) (Record, error) {
	return func(r Row, _ ParseOptions) (Record, error) {
		v, err := r.require("patent_id")
		if err != nil {
			return nil, err
		}
		return CountRow{Source: table, PatentID: v[0]}, nil
	}
}

//Personal.AI order the ending
