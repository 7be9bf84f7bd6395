// Package crawlcsv reads the CSV exports produced by the Screaming Frog
// spider. Column names drift between spider versions, so lookups fall back
// to a substring match when the exact header is absent.
package crawlcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// Export CSV filenames as written by the spider CLI.
const (
	FileInternalAll       = "internal_all.csv"
	FileClientError4xx    = "response_codes_client_error_(4xx).csv"
	FileRedirection3xx    = "response_codes_redirection_(3xx).csv"
	FileMissingAltText    = "images_missing_alt_text.csv"
	FileMissingAltAttr    = "images_missing_alt_attribute.csv"
	FileTitlesMissing     = "page_titles_missing.csv"
	FileTitlesShort       = "page_titles_below_30_characters.csv"
	FileMetaDescMissing   = "meta_description_missing.csv"
	FileH1Missing         = "h1_missing.csv"
	FileH1Multiple        = "h1_multiple.csv"
	FileH2Multiple        = "h2_multiple.csv"
	FileCanonicalsMissing = "canonicals_missing.csv"
	FileMissingHSTS       = "security_missing_hsts.csv"
	FileMissingXFrame     = "security_missing_x-frame-options_header.csv"
	FileMissingXContent   = "security_missing_x-content-type-options_header.csv"
	FileMissingReferrer   = "security_missing_secure_referrer-policy_header.csv"
	FileMissingCSP        = "security_missing_content-security-policy_header.csv"
	FileURLParameters     = "url_parameters.csv"
	FileExternalLinks     = "links_external.csv"
)

// Table is a header-indexed view over one export CSV.
type Table struct {
	headers []string
	index   map[string]int
	rows    [][]string
}

// Row is a single data row with header-keyed access.
type Row struct {
	table  *Table
	fields []string
}

// ReadFile parses the export CSV at path. A missing file yields an empty
// table rather than an error since the spider skips empty tabs.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("Export file absent, treating as empty", "path", path)
			return &Table{index: map[string]int{}}, nil
		}
		return nil, fmt.Errorf("failed to open export %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return &Table{index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	t := &Table{
		headers: header,
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		t.index[strings.TrimSpace(h)] = i
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed rows are skipped, not fatal.
			log.Debug("Skipping malformed row", "path", path, "error", err)
			continue
		}
		t.rows = append(t.rows, record)
	}

	return t, nil
}

// ReadExport is a convenience for ReadFile(filepath.Join(dir, name)).
func ReadExport(dir, name string) (*Table, error) {
	return ReadFile(filepath.Join(dir, name))
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns header-keyed views over all data rows.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	for i, fields := range t.rows {
		rows[i] = Row{table: t, fields: fields}
	}
	return rows
}

// Column returns the index of the named column, trying an exact match first
// and then the first header containing name. Returns -1 when not found.
func (t *Table) Column(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	for i, h := range t.headers {
		if strings.Contains(h, name) {
			return i
		}
	}
	return -1
}

// Get returns the value of the named column, or "" when the column is
// unknown or the row is short.
func (r Row) Get(name string) string {
	i := r.table.Column(name)
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// CandidatePage is a page eligible for AI optimization, pulled from the
// Internal:All export.
type CandidatePage struct {
	Address         string
	Title           string
	H1              string
	MetaDescription string
}

// CandidatePages selects up to limit indexable HTML pages (status 200,
// content type text/html) from the Internal:All table, preserving export
// order. Rows without a usable status code are skipped.
func CandidatePages(t *Table, limit int) []CandidatePage {
	var pages []CandidatePage
	for _, row := range t.Rows() {
		if len(pages) >= limit {
			break
		}

		status, err := strconv.Atoi(row.Get("Status Code"))
		if err != nil || status != 200 {
			continue
		}
		if !strings.Contains(strings.ToLower(row.Get("Content Type")), "text/html") {
			continue
		}

		pages = append(pages, CandidatePage{
			Address:         row.Get("Address"),
			Title:           row.Get("Title 1"),
			H1:              row.Get("H1-1"),
			MetaDescription: row.Get("Meta Description 1"),
		})
	}
	return pages
}
