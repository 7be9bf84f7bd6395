package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeTemplate builds a minimal report template the way the real one is
// laid out: a Technical SEO tab with metric labels and a Title Tags tab
// with a header row.
func writeTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", SheetTechnicalSEO))
	require.NoError(t, f.SetCellValue(SheetTechnicalSEO, "A1", "Metric"))
	require.NoError(t, f.SetCellValue(SheetTechnicalSEO, "B1", "Occurrences"))
	require.NoError(t, f.SetCellValue(SheetTechnicalSEO, "A3", "Broken Links"))
	require.NoError(t, f.SetCellValue(SheetTechnicalSEO, "A4", "Missing Alt Text"))

	_, err := f.NewSheet(SheetTitleTags)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(SheetTitleTags, "A1", "URL"))
	require.NoError(t, f.SetCellValue(SheetTitleTags, "B1", "Keywords"))
	require.NoError(t, f.SetCellValue(SheetTitleTags, "C1", "Current Title"))
	require.NoError(t, f.SetCellValue(SheetTitleTags, "D1", "Proposed Title"))
	require.NoError(t, f.SetCellValue(SheetTitleTags, "E1", "Length"))

	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func openBuilder(t *testing.T) (*Builder, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "report.xlsx")
	b := NewBuilder(writeTemplate(t), out)
	require.NoError(t, b.Load())
	t.Cleanup(func() { b.Close() })
	return b, out
}

// reload saves the builder's workbook and reopens it for assertions.
func reload(t *testing.T, b *Builder, out string) *excelize.File {
	t.Helper()
	require.NoError(t, b.Save())
	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestLoadMissingTemplate(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "absent.xlsx"), filepath.Join(t.TempDir(), "out.xlsx"))
	require.NoError(t, b.Load(), "a missing template falls back to a blank workbook")
	require.NoError(t, b.Close())
}

func TestUpdateTechnicalSEO(t *testing.T) {
	b, out := openBuilder(t)

	require.NoError(t, b.UpdateTechnicalSEO(map[string]int{
		"Broken Links":     7,
		"Missing Alt Text": 12,
	}))

	f := reload(t, b, out)
	broken, err := f.GetCellValue(SheetTechnicalSEO, "B3")
	require.NoError(t, err)
	assert.Equal(t, "7", broken)
	alt, err := f.GetCellValue(SheetTechnicalSEO, "B4")
	require.NoError(t, err)
	assert.Equal(t, "12", alt)

	// Untouched template content survives.
	header, err := f.GetCellValue(SheetTechnicalSEO, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Occurrences", header)
}

func TestUpdateTechnicalSEOMissingLabels(t *testing.T) {
	b, _ := openBuilder(t)
	// Labels not present in the template: a warning, not an error.
	assert.NoError(t, b.UpdateTechnicalSEO(map[string]int{"Nonexistent Metric": 3}))
}

func TestWriteDetailedAudit(t *testing.T) {
	b, out := openBuilder(t)

	findings := []Finding{
		{IssueType: "404 Error", PageURL: "https://a.com/page", Details: "Linked to: https://a.com/dead", SuggestedFix: "Update link or remove"},
		{IssueType: "Missing H1", PageURL: "https://a.com/about", SuggestedFix: "Add H1 heading"},
	}
	require.NoError(t, b.WriteDetailedAudit(findings))

	f := reload(t, b, out)
	rows, err := f.GetRows(SheetDetailedAudit)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Issue Type", "Page URL", "Element/Details", "Suggested Fix"}, rows[0])
	assert.Equal(t, "404 Error", rows[1][0])
	assert.Equal(t, "https://a.com/about", rows[2][1])
}

func TestWriteDetailedAuditReplacesExisting(t *testing.T) {
	b, out := openBuilder(t)

	require.NoError(t, b.WriteDetailedAudit([]Finding{{IssueType: "Old Run", PageURL: "https://stale.com"}}))
	require.NoError(t, b.WriteDetailedAudit([]Finding{{IssueType: "Missing Meta Description", PageURL: "https://a.com"}}))

	f := reload(t, b, out)
	rows, err := f.GetRows(SheetDetailedAudit)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Missing Meta Description", rows[1][0])
}

func TestAppendOnPageRecommendations(t *testing.T) {
	b, out := openBuilder(t)

	recs := []OnPageRecommendation{
		{
			URL:          "https://a.com/",
			Keyword:      "apartments in dallas",
			OriginalCopy: "H1: Welcome Home\nDesc: Come live with us",
			ProposedCopy: "H1: Luxury Apartments in Dallas\nIntro: Discover elevated living.",
		},
		{
			URL:     "https://a.com/amenities",
			Keyword: "apartments in dallas",
		},
	}
	require.NoError(t, b.AppendOnPageRecommendations(recs))

	f := reload(t, b, out)
	label, err := f.GetCellValue(SheetOnPageRecs, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Web Page:", label)
	url, err := f.GetCellValue(SheetOnPageRecs, "B1")
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/", url)

	// Second block starts after the blank separator row.
	second, err := f.GetCellValue(SheetOnPageRecs, "B6")
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/amenities", second)
}

func TestAppendMetadataToTitleTagsTab(t *testing.T) {
	b, out := openBuilder(t)

	recs := []MetadataRecommendation{
		{
			URL:           "https://a.com/",
			Keywords:      "apartments in dallas, luxury apartments dallas",
			CurrentTitle:  "Home",
			ProposedTitle: "Luxury Dallas Apartments | Example",
		},
		{
			URL:           "https://a.com/es/",
			Keywords:      "apartamentos dallas",
			CurrentTitle:  "Inicio",
			ProposedTitle: "Apartamentos de Lujo en Dallas | Año 2026",
		},
	}
	require.NoError(t, b.AppendMetadata(recs))

	f := reload(t, b, out)
	rows, err := f.GetRows(SheetTitleTags)
	require.NoError(t, err)
	require.Len(t, rows, 3, "rows append directly after the header, no blank row")

	first := rows[1]
	assert.Equal(t, "https://a.com/", first[0])
	assert.Equal(t, "Luxury Dallas Apartments | Example", first[3])
	assert.Equal(t, "34", first[4], "length column holds the proposed title length")

	// Lengths count characters, not bytes: "Año" has a multi-byte rune.
	second := rows[2]
	assert.Equal(t, "41", second[4])
}

func TestAppendMetadataCreatesSheetWithoutTemplateTab(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xlsx")
	b := NewBuilder(filepath.Join(t.TempDir(), "absent.xlsx"), out)
	require.NoError(t, b.Load())
	t.Cleanup(func() { b.Close() })

	recs := []MetadataRecommendation{
		{
			URL:                 "https://a.com/",
			CurrentTitle:        "Home",
			ProposedTitle:       "New Title",
			CurrentDescription:  "Old desc",
			ProposedDescription: "New desc",
		},
	}
	require.NoError(t, b.AppendMetadata(recs))

	f := reload(t, b, out)
	rows, err := f.GetRows(SheetMetadata)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 8)
	assert.Equal(t, "New desc", rows[1][6])
}

func TestWriteDomainOverview(t *testing.T) {
	b, out := openBuilder(t)

	summary := DomainSummary{
		Domain:          "example-apartments.com",
		OrganicKeywords: 1234,
		OrganicTraffic:  5678,
		OrganicCost:     910.5,
	}
	keywords := []KeywordRow{
		{Keyword: "apartments in dallas", Volume: 14800, Difficulty: 78.2},
		{Keyword: "studio apartments dallas", Volume: 1900, Difficulty: 55},
	}
	require.NoError(t, b.WriteDomainOverview(summary, keywords))

	f := reload(t, b, out)
	domain, err := f.GetCellValue(SheetDomainOverview, "B1")
	require.NoError(t, err)
	assert.Equal(t, "example-apartments.com", domain)

	kw, err := f.GetCellValue(SheetDomainOverview, "A7")
	require.NoError(t, err)
	assert.Equal(t, "apartments in dallas", kw)
	vol, err := f.GetCellValue(SheetDomainOverview, "B7")
	require.NoError(t, err)
	assert.Equal(t, "14800", vol)
}
