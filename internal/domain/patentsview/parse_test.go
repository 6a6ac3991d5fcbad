package patentsview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

func row(header []string, fields ...string) Row {
	return Row{File: "t.tsv", Line: 2, Fields: fields, Index: NewIndex(header)}
}

func mustTable(t *testing.T, name TableName) Table {
	t.Helper()
	tbl, ok := Lookup(name)
	require.True(t, ok, string(name))
	return tbl
}

func TestRow_Get(t *testing.T) {
	r := row([]string{" id ", "title", "kind"}, " P1 ", "NULL", `\N`)
	assert.Equal(t, "P1", r.Get("id"))
	assert.Equal(t, "", r.Get("title"))
	assert.Equal(t, "", r.Get("kind"))
	assert.Equal(t, "", r.Get("missing"))
	assert.Equal(t, "t.tsv:2", r.Location())
}

func TestParseDate(t *testing.T) {
	d := ParseDate("1976-01-06")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(1976, 1, 6, 0, 0, 0, 0, time.UTC), *d)

	assert.NotNil(t, ParseDate("2001-02-03 00:00:00"))
	assert.Nil(t, ParseDate("1968-05-00"))
	assert.Nil(t, ParseDate(""))
}

func TestParsePatent(t *testing.T) {
	header := []string{"id", "type", "number", "country", "date", "abstract", "title", "kind", "num_claims", "filename", "withdrawn"}
	r := row(header, "3930271", "utility", "3930271", "US", "1976-01-06", "A golf glove...", "Golf glove", "A", "4", "pftaps19760106_wk01.zip", "0")

	rec, err := mustTable(t, TablePatent).Parse(r, ParseOptions{})
	require.NoError(t, err)
	p := rec.(PatentRow)
	assert.Equal(t, "3930271", p.ID)
	assert.Equal(t, "Golf glove", p.Title)
	assert.Empty(t, p.Abstract)
	require.NotNil(t, p.NumClaims)
	assert.Equal(t, int64(4), *p.NumClaims)
	require.NotNil(t, p.Withdrawn)
	assert.False(t, *p.Withdrawn)

	rec, err = mustTable(t, TablePatent).Parse(r, ParseOptions{IncludeAbstract: true})
	require.NoError(t, err)
	assert.Equal(t, "A golf glove...", rec.(PatentRow).Abstract)
}

func TestParsePatent_EmptyIDIsRowError(t *testing.T) {
	header := []string{"id", "type", "number", "country", "date", "title", "kind", "num_claims"}
	_, err := mustTable(t, TablePatent).Parse(row(header, "", "utility", "1", "US", "", "", "", ""), ParseOptions{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsKind(err, pkgerrors.KindRowParse))
}

func TestParsePatent_InvalidOptionalValuesBecomeNil(t *testing.T) {
	header := []string{"id", "date", "num_claims", "withdrawn"}
	rec, err := mustTable(t, TablePatent).Parse(row(header, "P1", "1968-05-00", "many", "maybe"), ParseOptions{})
	require.NoError(t, err)
	p := rec.(PatentRow)
	assert.Nil(t, p.Date)
	assert.Nil(t, p.NumClaims)
	assert.Nil(t, p.Withdrawn)
}

func TestAssigneeAndInventorNames(t *testing.T) {
	a := AssigneeRow{NameFirst: "Ada", NameLast: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", a.DisplayName())
	assert.Equal(t, "Acme Corp", AssigneeRow{Organization: "Acme Corp"}.DisplayName())
	assert.Equal(t, "Grace", InventorRow{NameFirst: "Grace", NameLast: " "}.DisplayName())
}

func TestParseLocation(t *testing.T) {
	header := []string{"id", "city", "state", "country", "latitude", "longitude", "county", "state_fips", "county_fips"}
	rec, err := mustTable(t, TableLocation).Parse(row(header, "L1", "Austin", "TX", "US", "30.2672", "-97.7431", "Travis", "48", "453"), ParseOptions{})
	require.NoError(t, err)
	l := rec.(LocationRow)
	assert.True(t, l.HasPoint())
	assert.InDelta(t, -97.7431, *l.Longitude, 1e-9)
	assert.Equal(t, "453", l.CountyFIPS)

	rec, err = mustTable(t, TableLocation).Parse(row(header, "L2", "", "", "", "", "bad", "", "", ""), ParseOptions{})
	require.NoError(t, err)
	assert.False(t, rec.(LocationRow).HasPoint())
}

func TestParseCitation(t *testing.T) {
	header := []string{"uuid", "patent_id", "citation_id", "date", "name", "kind", "country", "category", "sequence"}
	rec, err := mustTable(t, TableCitation).Parse(row(header, "u1", "P1", "P2", "1970-01-01", "Smith", "A", "US", "cited by examiner", "3"), ParseOptions{})
	require.NoError(t, err)
	c := rec.(CitationRow)
	assert.Equal(t, "P1", c.PatentID)
	assert.Equal(t, "P2", c.CitationID)
	assert.Equal(t, int64(3), *c.Sequence)

	_, err = mustTable(t, TableCitation).Parse(row(header, "u2", "P1", "", "", "", "", "", "", ""), ParseOptions{})
	assert.True(t, pkgerrors.IsKind(err, pkgerrors.KindRowParse))
}

func TestParseIPCR_ComposesHierarchy(t *testing.T) {
	header := []string{"uuid", "patent_id", "section", "ipc_class", "subclass", "main_group", "subgroup"}
	rec, err := mustTable(t, TableIPCR).Parse(row(header, "u", "P1", "A", "61", "K", "31", "00"), ParseOptions{})
	require.NoError(t, err)
	c := rec.(ClassificationRow)
	assert.Equal(t, TableIPCR, c.Table())
	assert.Equal(t, []Classification{
		{LevelIPCRSection, "A"},
		{LevelIPCRClass, "A61"},
		{LevelIPCRSubclass, "A61K"},
		{LevelIPCRMainGroup, "A61K31"},
		{LevelIPCRSubgroup, "A61K31/00"},
	}, c.Codes)
}

func TestParseCPC(t *testing.T) {
	header := []string{"uuid", "patent_id", "section_id", "subsection_id", "group_id", "subgroup_id", "category", "sequence"}
	rec, err := mustTable(t, TableCPCCurrent).Parse(row(header, "u", "P1", "A", "A61", "A61K", "A61K31/00", "inventional", "0"), ParseOptions{})
	require.NoError(t, err)
	c := rec.(ClassificationRow)
	require.Len(t, c.Codes, 4)
	assert.Equal(t, Classification{LevelCPCSubgroup, "A61K31/00"}, c.Codes[3])
}

func TestParseUSPC_RetiredIsRowError(t *testing.T) {
	header := []string{"uuid", "patent_id", "mainclass_id", "subclass_id", "sequence"}
	_, err := mustTable(t, TableUSPCCurrent).Parse(row(header, "u", "P1", "No longer published", "No longer published", "0"), ParseOptions{})
	assert.True(t, pkgerrors.IsKind(err, pkgerrors.KindRowParse))

	rec, err := mustTable(t, TableUSPCCurrent).Parse(row(header, "u", "P1", "473", "473/205", "0"), ParseOptions{})
	require.NoError(t, err)
	assert.Len(t, rec.(ClassificationRow).Codes, 2)
}

func TestParseNBER(t *testing.T) {
	header := []string{"uuid", "patent_id", "category_id", "subcategory_id"}
	rec, err := mustTable(t, TableNBER).Parse(row(header, "u", "P1", "6", "63"), ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, TableNBER, rec.Table())
}

func TestParseClaimAndApplication(t *testing.T) {
	claimHeader := []string{"uuid", "patent_id", "text", "dependent", "sequence", "exemplary"}
	rec, err := mustTable(t, TableClaim).Parse(row(claimHeader, "u", "P1", "1. A glove", "-1", "1", "1"), ParseOptions{})
	require.NoError(t, err)
	assert.True(t, rec.(ClaimRow).Independent)

	rec, err = mustTable(t, TableClaim).Parse(row(claimHeader, "u", "P1", "2. The glove", "claim 1", "2", "0"), ParseOptions{})
	require.NoError(t, err)
	assert.False(t, rec.(ClaimRow).Independent)

	appHeader := []string{"id", "patent_id", "series_code", "number", "country", "date"}
	rec, err = mustTable(t, TableApplication).Parse(row(appHeader, "05/123456", "P1", "05", "123456", "US", "1974-00-12"), ParseOptions{})
	require.NoError(t, err)
	a := rec.(ApplicationRow)
	assert.Equal(t, "05/123456", a.ApplicationID)
	assert.Nil(t, a.Date)
}

func TestCountTables(t *testing.T) {
	for _, name := range []TableName{TableForeignCitation, TableOtherReference, TableUSAppCitation} {
		rec, err := mustTable(t, name).Parse(row([]string{"uuid", "patent_id"}, "u", "P7"), ParseOptions{})
		require.NoError(t, err)
		assert.Equal(t, CountRow{Source: name, PatentID: "P7"}, rec)
	}
}

func TestTable_MissingColumns(t *testing.T) {
	tbl := mustTable(t, TablePatentAssignee)
	assert.Empty(t, tbl.MissingColumns([]string{"patent_id", "assignee_id", "location_id"}))
	assert.Equal(t, []string{"assignee_id"}, tbl.MissingColumns([]string{"patent_id"}))
}

func TestCatalogOrder(t *testing.T) {
	nodes := TablesForStage(StageNode)
	require.Len(t, nodes, 4)
	assert.Equal(t, TablePatent, nodes[0].Name)

	edges := TablesForStage(StageEdge)
	assert.Equal(t, TableCitation, edges[0].Name)
	assert.Len(t, Tables(), 18)
	assert.Contains(t, KnownTableNames(), "uspc_current")

	_, ok := Lookup("g_patent")
	assert.False(t, ok)
	assert.Equal(t, "classification", StageClassification.String())
}

//Personal.AI order the ending
