// Package report populates the pre-formatted Excel audit template. Writes
// are positional cell updates so the template's styling survives; new
// sheets are only created when the template lacks them.
package report

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"
)

// Sheet names expected in the report template.
const (
	SheetTechnicalSEO   = "Technical SEO"
	SheetDetailedAudit  = "Detailed Audit Logs"
	SheetOnPageRecs     = "On-Page Recommendations"
	SheetTitleTags      = "Title Tags"
	SheetMetadata       = "Metadata Optimization"
	SheetDomainOverview = "Domain Overview"
)

// Label-scan bounds for the Technical SEO tab. Labels live somewhere in the
// top-left block of the template.
const (
	labelScanRows = 50
	labelScanCols = 10
)

// Finding is one row on the Detailed Audit Logs tab.
type Finding struct {
	IssueType    string
	PageURL      string
	Details      string
	SuggestedFix string
}

// OnPageRecommendation is one proposed H1/intro rewrite block.
type OnPageRecommendation struct {
	URL          string
	Keyword      string
	OriginalCopy string
	ProposedCopy string
}

// MetadataRecommendation is one proposed title/description pair.
type MetadataRecommendation struct {
	URL                 string
	Keywords            string
	CurrentTitle        string
	ProposedTitle       string
	CurrentDescription  string
	ProposedDescription string
}

// KeywordRow is one line of the keyword metrics table on the Domain
// Overview tab.
type KeywordRow struct {
	Keyword    string
	Volume     int
	Difficulty float64
}

// DomainSummary is the Semrush domain data written to the Domain Overview
// tab.
type DomainSummary struct {
	Domain          string
	OrganicKeywords int
	OrganicTraffic  int
	OrganicCost     float64
}

// Builder loads the report template, fills the tabs, and saves the result.
type Builder struct {
	templatePath string
	outputPath   string
	f            *excelize.File
}

// NewBuilder creates a Builder writing to outputPath from templatePath.
func NewBuilder(templatePath, outputPath string) *Builder {
	return &Builder{templatePath: templatePath, outputPath: outputPath}
}

// Load opens the template workbook. A missing template falls back to a
// blank workbook so development runs still produce output.
func (b *Builder) Load() error {
	if _, err := os.Stat(b.templatePath); err != nil {
		log.Warn("Report template not found, starting from a blank workbook",
			"template", b.templatePath)
		b.f = excelize.NewFile()
		return nil
	}

	f, err := excelize.OpenFile(b.templatePath)
	if err != nil {
		return fmt.Errorf("failed to open template %s: %w", b.templatePath, err)
	}
	b.f = f
	return nil
}

// Save writes the workbook to the output path.
func (b *Builder) Save() error {
	if err := b.f.SaveAs(b.outputPath); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", b.outputPath, err)
	}
	log.Info("Report saved", "path", b.outputPath)
	return nil
}

// Close releases the workbook.
func (b *Builder) Close() error {
	if b.f == nil {
		return nil
	}
	return b.f.Close()
}

// UpdateTechnicalSEO writes occurrence counts next to their metric labels
// on the Technical SEO tab. counts maps the label text as it appears in
// the template ("Broken Links", "Missing Alt Text") to the count.
func (b *Builder) UpdateTechnicalSEO(counts map[string]int) error {
	sheet, err := b.findSheet(SheetTechnicalSEO, "Technical")
	if err != nil {
		return err
	}

	updated := 0
	for row := 1; row <= labelScanRows; row++ {
		for col := 1; col <= labelScanCols; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return err
			}
			value, err := b.f.GetCellValue(sheet, cell)
			if err != nil {
				return fmt.Errorf("failed to read %s!%s: %w", sheet, cell, err)
			}

			count, ok := counts[value]
			if !ok {
				continue
			}

			// Occurrences column sits immediately right of the label.
			target, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := b.f.SetCellValue(sheet, target, count); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, target, err)
			}
			updated++
		}
	}

	if updated == 0 {
		log.Warn("No metric labels found on Technical SEO tab",
			"expected", len(counts))
	}
	return nil
}

// WriteDetailedAudit recreates the Detailed Audit Logs tab with one row per
// finding under a bold header.
func (b *Builder) WriteDetailedAudit(findings []Finding) error {
	idx, err := b.f.GetSheetIndex(SheetDetailedAudit)
	if err != nil {
		return err
	}
	if idx != -1 {
		if err := b.f.DeleteSheet(SheetDetailedAudit); err != nil {
			return fmt.Errorf("failed to reset %s: %w", SheetDetailedAudit, err)
		}
	}
	if _, err := b.f.NewSheet(SheetDetailedAudit); err != nil {
		return fmt.Errorf("failed to create %s: %w", SheetDetailedAudit, err)
	}

	header := []interface{}{"Issue Type", "Page URL", "Element/Details", "Suggested Fix"}
	if err := b.f.SetSheetRow(SheetDetailedAudit, "A1", &header); err != nil {
		return err
	}

	bold, err := b.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := b.f.SetCellStyle(SheetDetailedAudit, "A1", "D1", bold); err != nil {
		return err
	}

	for i, finding := range findings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{finding.IssueType, finding.PageURL, finding.Details, finding.SuggestedFix}
		if err := b.f.SetSheetRow(SheetDetailedAudit, cell, &row); err != nil {
			return fmt.Errorf("failed to write finding row %d: %w", i+2, err)
		}
	}

	log.Info("Detailed audit tab written", "findings", len(findings))
	return nil
}

// AppendOnPageRecommendations appends five-row blocks (page, keyword,
// original, proposed, blank) to the On-Page Recommendations tab.
func (b *Builder) AppendOnPageRecommendations(recs []OnPageRecommendation) error {
	idx, err := b.f.GetSheetIndex(SheetOnPageRecs)
	if err != nil {
		return err
	}
	if idx == -1 {
		if _, err := b.f.NewSheet(SheetOnPageRecs); err != nil {
			return fmt.Errorf("failed to create %s: %w", SheetOnPageRecs, err)
		}
	}

	bold, err := b.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	wrapped, err := b.f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}

	row, err := b.nextFreeRow(SheetOnPageRecs, true)
	if err != nil {
		return err
	}

	for _, rec := range recs {
		lines := [][2]string{
			{"Web Page:", rec.URL},
			{"Targeted Keyword:", rec.Keyword},
			{"Original Copy:", rec.OriginalCopy},
			{"Proposed Copy:", rec.ProposedCopy},
		}
		for i, line := range lines {
			labelCell, err := excelize.CoordinatesToCellName(1, row+i)
			if err != nil {
				return err
			}
			valueCell, err := excelize.CoordinatesToCellName(2, row+i)
			if err != nil {
				return err
			}
			if err := b.f.SetCellValue(SheetOnPageRecs, labelCell, line[0]); err != nil {
				return err
			}
			if err := b.f.SetCellValue(SheetOnPageRecs, valueCell, line[1]); err != nil {
				return err
			}
			if err := b.f.SetCellStyle(SheetOnPageRecs, labelCell, labelCell, bold); err != nil {
				return err
			}
			if err := b.f.SetCellStyle(SheetOnPageRecs, valueCell, valueCell, wrapped); err != nil {
				return err
			}
		}
		row += 5
	}

	return nil
}

// AppendMetadata appends title/description proposals. When the template
// carries a Title Tags tab the five-column layout is appended there;
// otherwise a Metadata Optimization sheet with the full eight columns is
// created.
func (b *Builder) AppendMetadata(recs []MetadataRecommendation) error {
	idx, err := b.f.GetSheetIndex(SheetTitleTags)
	if err != nil {
		return err
	}

	if idx != -1 {
		row, err := b.nextFreeRow(SheetTitleTags, false)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []interface{}{rec.URL, rec.Keywords, rec.CurrentTitle, rec.ProposedTitle, utf8.RuneCountInString(rec.ProposedTitle)}
			if err := b.f.SetSheetRow(SheetTitleTags, cell, &values); err != nil {
				return fmt.Errorf("failed to append title tag row: %w", err)
			}
			row++
		}
		return nil
	}

	if _, err := b.f.NewSheet(SheetMetadata); err != nil {
		return fmt.Errorf("failed to create %s: %w", SheetMetadata, err)
	}
	header := []interface{}{
		"URL", "Keywords", "Current Title", "Proposed Title", "Length",
		"Current Desc", "Proposed Desc", "Length",
	}
	if err := b.f.SetSheetRow(SheetMetadata, "A1", &header); err != nil {
		return err
	}
	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			rec.URL, rec.Keywords, rec.CurrentTitle, rec.ProposedTitle, utf8.RuneCountInString(rec.ProposedTitle),
			rec.CurrentDescription, rec.ProposedDescription, utf8.RuneCountInString(rec.ProposedDescription),
		}
		if err := b.f.SetSheetRow(SheetMetadata, cell, &values); err != nil {
			return fmt.Errorf("failed to append metadata row: %w", err)
		}
	}
	return nil
}

// WriteDomainOverview records the Semrush domain metrics and keyword table.
func (b *Builder) WriteDomainOverview(summary DomainSummary, keywords []KeywordRow) error {
	idx, err := b.f.GetSheetIndex(SheetDomainOverview)
	if err != nil {
		return err
	}
	if idx == -1 {
		if _, err := b.f.NewSheet(SheetDomainOverview); err != nil {
			return fmt.Errorf("failed to create %s: %w", SheetDomainOverview, err)
		}
	}

	bold, err := b.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	metrics := [][2]interface{}{
		{"Domain", summary.Domain},
		{"Organic Keywords", summary.OrganicKeywords},
		{"Organic Traffic", summary.OrganicTraffic},
		{"Organic Cost", summary.OrganicCost},
	}
	for i, m := range metrics {
		labelCell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		valueCell, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return err
		}
		if err := b.f.SetCellValue(SheetDomainOverview, labelCell, m[0]); err != nil {
			return err
		}
		if err := b.f.SetCellValue(SheetDomainOverview, valueCell, m[1]); err != nil {
			return err
		}
		if err := b.f.SetCellStyle(SheetDomainOverview, labelCell, labelCell, bold); err != nil {
			return err
		}
	}

	headerRow := len(metrics) + 2
	cell, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return err
	}
	header := []interface{}{"Keyword", "Search Volume", "Keyword Difficulty"}
	if err := b.f.SetSheetRow(SheetDomainOverview, cell, &header); err != nil {
		return err
	}
	endHeader, err := excelize.CoordinatesToCellName(3, headerRow)
	if err != nil {
		return err
	}
	if err := b.f.SetCellStyle(SheetDomainOverview, cell, endHeader, bold); err != nil {
		return err
	}

	for i, kw := range keywords {
		cell, err := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err != nil {
			return err
		}
		values := []interface{}{kw.Keyword, kw.Volume, kw.Difficulty}
		if err := b.f.SetSheetRow(SheetDomainOverview, cell, &values); err != nil {
			return fmt.Errorf("failed to write keyword row: %w", err)
		}
	}

	return nil
}

// findSheet returns the first existing sheet among the given names,
// creating the primary name when none exist.
func (b *Builder) findSheet(names ...string) (string, error) {
	for _, name := range names {
		idx, err := b.f.GetSheetIndex(name)
		if err != nil {
			return "", err
		}
		if idx != -1 {
			return name, nil
		}
	}

	log.Warn("Sheet not found in template, creating it", "sheet", names[0])
	if _, err := b.f.NewSheet(names[0]); err != nil {
		return "", fmt.Errorf("failed to create sheet %s: %w", names[0], err)
	}
	return names[0], nil
}

// nextFreeRow returns the first row after existing content. With separator
// set, one blank row is left when the sheet already has data.
func (b *Builder) nextFreeRow(sheet string, separator bool) (int, error) {
	rows, err := b.f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read rows of %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return 1, nil
	}
	if separator {
		return len(rows) + 2, nil
	}
	return len(rows) + 1, nil
}
