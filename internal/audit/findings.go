package audit

import (
	"fmt"
	"strings"

	"github.com/go-scripts/seoaudit/internal/crawlcsv"
	"github.com/go-scripts/seoaudit/internal/report"
)

// issueExport maps one export CSV to a detailed-audit issue row. detail may
// be nil when the row has no element context beyond its URL.
type issueExport struct {
	file    string
	issue   string
	fix     string
	pageURL func(crawlcsv.Row) string
	detail  func(crawlcsv.Row) string
}

func address(r crawlcsv.Row) string { return r.Get("Address") }

// sourceOrAddress prefers the linking page over the linked resource, which
// is how image and link exports attribute issues.
func sourceOrAddress(r crawlcsv.Row) string {
	if s := r.Get("Source"); s != "" {
		return s
	}
	return r.Get("Address")
}

var issueExports = []issueExport{
	{
		file:  crawlcsv.FileClientError4xx,
		issue: "404 Error",
		fix:   "Update link or remove",
		pageURL: func(r crawlcsv.Row) string {
			if s := r.Get("Source"); s != "" {
				return s
			}
			return "See Inlinks Report"
		},
		detail: func(r crawlcsv.Row) string { return "Linked to: " + r.Get("Address") },
	},
	{
		file:    crawlcsv.FileRedirection3xx,
		issue:   "Redirect (3xx)",
		fix:     "Check if permanent/necessary",
		pageURL: address,
		detail:  func(r crawlcsv.Row) string { return "Redirects to: " + r.Get("Redirect URI") },
	},
	{
		file:    crawlcsv.FileMissingAltText,
		issue:   "Missing Alt Text",
		fix:     "Add descriptive alt text",
		pageURL: sourceOrAddress,
		detail:  func(r crawlcsv.Row) string { return "Image: " + r.Get("Address") },
	},
	{
		file:    crawlcsv.FileMissingAltAttr,
		issue:   "Missing Alt Attribute",
		fix:     "Add alt attribute",
		pageURL: sourceOrAddress,
		detail:  func(r crawlcsv.Row) string { return "Image: " + r.Get("Address") },
	},
	{
		file:    crawlcsv.FileH1Missing,
		issue:   "Missing H1",
		fix:     "Add H1 heading",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileH1Multiple,
		issue:   "Multiple H1",
		fix:     "Use only one H1 per page",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileH2Multiple,
		issue:   "Multiple H2",
		fix:     "Review H2 hierarchy",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileTitlesMissing,
		issue:   "Missing Page Title",
		fix:     "Add unique page title",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileTitlesShort,
		issue:   "Short Page Title",
		fix:     "Expand title (30-60 chars)",
		pageURL: address,
		detail:  func(r crawlcsv.Row) string { return "Title: " + r.Get("Title 1") },
	},
	{
		file:    crawlcsv.FileMetaDescMissing,
		issue:   "Missing Meta Description",
		fix:     "Add meta description (150-160 chars)",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileCanonicalsMissing,
		issue:   "Missing Canonical",
		fix:     "Add self-referencing canonical",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileMissingHSTS,
		issue:   "Missing HSTS",
		fix:     "Add security header",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileMissingXFrame,
		issue:   "Missing X-Frame-Options",
		fix:     "Add security header",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileMissingXContent,
		issue:   "Missing X-Content-Type-Options",
		fix:     "Add security header",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileMissingReferrer,
		issue:   "Missing Referrer-Policy",
		fix:     "Add security header",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileMissingCSP,
		issue:   "Missing CSP",
		fix:     "Add security header",
		pageURL: address,
	},
	{
		file:    crawlcsv.FileURLParameters,
		issue:   "URL Parameters",
		fix:     "Check for duplicate content",
		pageURL: address,
	},
}

// CollectFindings turns every issue export in dir into detailed-audit rows.
// Absent exports contribute nothing.
func CollectFindings(dir string) ([]report.Finding, error) {
	var findings []report.Finding

	for _, spec := range issueExports {
		table, err := crawlcsv.ReadExport(dir, spec.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", spec.file, err)
		}
		for _, row := range table.Rows() {
			f := report.Finding{
				IssueType:    spec.issue,
				PageURL:      spec.pageURL(row),
				SuggestedFix: spec.fix,
			}
			if spec.detail != nil {
				f.Details = spec.detail(row)
			}
			findings = append(findings, f)
		}
	}

	nofollow, err := collectExternalNofollow(dir)
	if err != nil {
		return nil, err
	}
	findings = append(findings, nofollow...)

	return findings, nil
}

// collectExternalNofollow flags external links explicitly marked nofollow.
func collectExternalNofollow(dir string) ([]report.Finding, error) {
	table, err := crawlcsv.ReadExport(dir, crawlcsv.FileExternalLinks)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", crawlcsv.FileExternalLinks, err)
	}

	var findings []report.Finding
	for _, row := range table.Rows() {
		if !strings.EqualFold(row.Get("Follow"), "false") {
			continue
		}
		dest := row.Get("Destination")
		if dest == "" {
			dest = row.Get("Address")
		}
		findings = append(findings, report.Finding{
			IssueType:    "External Nofollow",
			PageURL:      row.Get("Source"),
			Details:      "Link to: " + dest,
			SuggestedFix: "Verify nofollow is intended",
		})
	}
	return findings, nil
}
