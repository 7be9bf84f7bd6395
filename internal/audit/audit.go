// Package audit orchestrates the full report run: crawl, market data, copy
// generation, and workbook population.
package audit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/seoaudit/internal/copywriter"
	"github.com/go-scripts/seoaudit/internal/crawlcsv"
	"github.com/go-scripts/seoaudit/internal/pagefetch"
	"github.com/go-scripts/seoaudit/internal/report"
	"github.com/go-scripts/seoaudit/internal/semrush"
)

// Crawler runs the external spider.
type Crawler interface {
	Run(ctx context.Context, url, outputDir string) error
	VerifyOutput(outputDir string) []string
}

// MarketData fetches domain and keyword metrics.
type MarketData interface {
	GetDomainOverview(ctx context.Context, domain string) (*semrush.DomainOverview, error)
	GetKeywordMetrics(ctx context.Context, keywords []string, progress semrush.ProgressFunc) (map[string]semrush.KeywordMetrics, error)
}

// CopyWriter generates metadata and on-page suggestions.
type CopyWriter interface {
	OptimizeMetadata(ctx context.Context, page copywriter.Page, keywords []string) (*copywriter.MetadataSuggestion, error)
	OptimizeOnPage(ctx context.Context, page copywriter.Page, targetKeyword string) (*copywriter.OnPageSuggestion, error)
}

// PageFetcher pulls rendered copy from candidate pages. Optional; a nil
// fetcher falls back to the crawl-export columns.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*pagefetch.Content, error)
}

// Options control a single audit run.
type Options struct {
	SiteURL      string
	City         string
	TemplatePath string
	OutputPath   string
	TempDir      string
	MaxPages     int
	SkipCrawl    bool
}

// Stats summarizes what a run produced.
type Stats struct {
	MissingExports int
	Candidates     int
	Optimized      int
	Findings       int
	Elapsed        time.Duration
}

// Pipeline wires the external systems together.
type Pipeline struct {
	crawler Crawler
	market  MarketData
	writer  CopyWriter
	fetcher PageFetcher

	// showProgress enables spinners on long-running steps.
	showProgress bool
}

// New creates a Pipeline over the given collaborators. fetcher may be nil.
func New(crawler Crawler, market MarketData, writer CopyWriter, fetcher PageFetcher) *Pipeline {
	return &Pipeline{
		crawler:      crawler,
		market:       market,
		writer:       writer,
		fetcher:      fetcher,
		showProgress: true,
	}
}

// SetShowProgress toggles terminal spinners; off keeps log output clean in
// verbose mode.
func (p *Pipeline) SetShowProgress(on bool) { p.showProgress = on }

// TargetKeywords derives the keyword set for a city, mirroring how the
// report targets multifamily searches.
func TargetKeywords(city string) []string {
	return []string{
		fmt.Sprintf("apartments in %s", city),
		fmt.Sprintf("pet friendly apartments %s", city),
		fmt.Sprintf("luxury apartments %s", city),
		fmt.Sprintf("studio apartments %s", city),
	}
}

// DeriveDomain extracts the bare host from a site URL for the Semrush
// domain report.
func DeriveDomain(siteURL string) string {
	s := siteURL
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		// Last resort: strip scheme and path by hand.
		s = strings.TrimPrefix(strings.TrimPrefix(siteURL, "https://"), "http://")
		if i := strings.IndexByte(s, '/'); i >= 0 {
			s = s[:i]
		}
		return s
	}
	return u.Hostname()
}

// Run executes the audit and writes the report workbook. A failed crawl
// aborts the run; Semrush or copywriter failures degrade to empty values so
// the report still renders.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}
	keywords := TargetKeywords(opts.City)
	domain := DeriveDomain(opts.SiteURL)

	// Step 1: crawl.
	if opts.SkipCrawl {
		log.Info("Skipping crawl, reusing existing exports", "dir", opts.TempDir)
	} else {
		stop := p.spin(fmt.Sprintf("Crawling %s", opts.SiteURL))
		err := p.crawler.Run(ctx, opts.SiteURL, opts.TempDir)
		stop()
		if err != nil {
			return stats, fmt.Errorf("crawl failed: %w", err)
		}
	}
	stats.MissingExports = len(p.crawler.VerifyOutput(opts.TempDir))

	// Step 2: market data. Failures degrade to zero values.
	overview, metrics := p.fetchMarketData(ctx, domain, keywords)

	// Step 3: candidate selection.
	internal, err := crawlcsv.ReadExport(opts.TempDir, crawlcsv.FileInternalAll)
	if err != nil {
		return stats, fmt.Errorf("failed to read internal pages export: %w", err)
	}
	candidates := crawlcsv.CandidatePages(internal, opts.MaxPages)
	stats.Candidates = len(candidates)
	log.Info("Selected candidate pages", "count", len(candidates))

	// Step 4: copy generation.
	onpage, metadata := p.optimizePages(ctx, candidates, keywords)
	stats.Optimized = len(metadata)

	// Step 5: findings.
	findings, err := CollectFindings(opts.TempDir)
	if err != nil {
		return stats, err
	}
	stats.Findings = len(findings)

	// Step 6: workbook.
	if err := p.buildReport(opts, overview, keywords, metrics, findings, onpage, metadata); err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	log.Info("Audit complete",
		"candidates", stats.Candidates,
		"optimized", stats.Optimized,
		"findings", stats.Findings,
		"elapsed", stats.Elapsed.Round(time.Millisecond),
	)
	return stats, nil
}

// fetchMarketData pulls the Semrush domain overview and keyword metrics,
// logging and zero-filling on failure.
func (p *Pipeline) fetchMarketData(ctx context.Context, domain string, keywords []string) (*semrush.DomainOverview, map[string]semrush.KeywordMetrics) {
	stop := p.spin(fmt.Sprintf("Fetching market data for %s", domain))
	defer stop()

	overview, err := p.market.GetDomainOverview(ctx, domain)
	if err != nil {
		log.Error("Domain overview failed, continuing without it", "domain", domain, "error", err)
		overview = &semrush.DomainOverview{Domain: domain}
	}

	metrics, err := p.market.GetKeywordMetrics(ctx, keywords, func(done, total int) {
		log.Debug("Keyword batch complete", "done", done, "total", total)
	})
	if err != nil {
		log.Error("Keyword metrics failed, continuing without them", "error", err)
		metrics = make(map[string]semrush.KeywordMetrics)
	}

	return overview, metrics
}

// optimizePages runs the copywriter over each candidate page. Individual
// failures are logged and skipped.
func (p *Pipeline) optimizePages(ctx context.Context, candidates []crawlcsv.CandidatePage, keywords []string) ([]report.OnPageRecommendation, []report.MetadataRecommendation) {
	var onpage []report.OnPageRecommendation
	var metadata []report.MetadataRecommendation
	if len(candidates) == 0 {
		return onpage, metadata
	}

	primaryKeyword := keywords[0]
	stop := p.spin(fmt.Sprintf("Generating copy for %d pages", len(candidates)))
	defer stop()

	for _, candidate := range candidates {
		content := p.fetchContent(ctx, candidate)
		page := copywriter.Page{
			URL:          candidate.Address,
			Title:        content.Title,
			H1:           content.H1,
			IntroContent: content.Intro,
		}

		meta, err := p.writer.OptimizeMetadata(ctx, page, keywords)
		if err != nil {
			log.Error("Metadata optimization failed, skipping page", "url", candidate.Address, "error", err)
			continue
		}
		metadata = append(metadata, report.MetadataRecommendation{
			URL:                 candidate.Address,
			Keywords:            strings.Join(keywords, ", "),
			CurrentTitle:        content.Title,
			ProposedTitle:       meta.Title,
			CurrentDescription:  candidate.MetaDescription,
			ProposedDescription: meta.MetaDescription,
		})

		rewrite, err := p.writer.OptimizeOnPage(ctx, page, primaryKeyword)
		if err != nil {
			log.Error("On-page optimization failed, skipping rewrite", "url", candidate.Address, "error", err)
			continue
		}
		onpage = append(onpage, report.OnPageRecommendation{
			URL:          candidate.Address,
			Keyword:      primaryKeyword,
			OriginalCopy: fmt.Sprintf("H1: %s\nIntro: %s", content.H1, content.Intro),
			ProposedCopy: fmt.Sprintf("H1: %s\nIntro: %s", rewrite.H1, rewrite.Content),
		})
	}

	return onpage, metadata
}

// fetchContent loads the rendered page when a fetcher is wired, falling
// back to the crawl-export columns.
func (p *Pipeline) fetchContent(ctx context.Context, candidate crawlcsv.CandidatePage) pagefetch.Content {
	var fetched *pagefetch.Content
	if p.fetcher != nil {
		var err error
		fetched, err = p.fetcher.Fetch(ctx, candidate.Address)
		if err != nil {
			log.Warn("Page fetch failed, using crawl export fields", "url", candidate.Address, "error", err)
		}
	}
	return pagefetch.Merge(fetched, candidate.Title, candidate.H1, candidate.MetaDescription)
}

// buildReport fills and saves the workbook.
func (p *Pipeline) buildReport(
	opts Options,
	overview *semrush.DomainOverview,
	keywords []string,
	metrics map[string]semrush.KeywordMetrics,
	findings []report.Finding,
	onpage []report.OnPageRecommendation,
	metadata []report.MetadataRecommendation,
) error {
	builder := report.NewBuilder(opts.TemplatePath, opts.OutputPath)
	if err := builder.Load(); err != nil {
		return err
	}
	defer builder.Close()

	counts, err := technicalCounts(opts.TempDir)
	if err != nil {
		return err
	}
	if err := builder.UpdateTechnicalSEO(counts); err != nil {
		return err
	}
	if err := builder.WriteDetailedAudit(findings); err != nil {
		return err
	}
	if err := builder.AppendOnPageRecommendations(onpage); err != nil {
		return err
	}
	if err := builder.AppendMetadata(metadata); err != nil {
		return err
	}

	summary := report.DomainSummary{
		Domain:          overview.Domain,
		OrganicKeywords: overview.OrganicKeywords,
		OrganicTraffic:  overview.OrganicTraffic,
		OrganicCost:     overview.OrganicCost,
	}
	rows := make([]report.KeywordRow, 0, len(keywords))
	for _, kw := range keywords {
		m := metrics[kw]
		rows = append(rows, report.KeywordRow{Keyword: kw, Volume: m.Volume, Difficulty: m.Difficulty})
	}
	if err := builder.WriteDomainOverview(summary, rows); err != nil {
		return err
	}

	return builder.Save()
}

// technicalCounts tallies the occurrence metrics shown on the Technical SEO
// tab.
func technicalCounts(dir string) (map[string]int, error) {
	broken, err := crawlcsv.ReadExport(dir, crawlcsv.FileClientError4xx)
	if err != nil {
		return nil, err
	}
	missingAlt, err := crawlcsv.ReadExport(dir, crawlcsv.FileMissingAltText)
	if err != nil {
		return nil, err
	}
	return map[string]int{
		"Broken Links":     broken.Len(),
		"Missing Alt Text": missingAlt.Len(),
	}, nil
}

// spin starts a spinner labelled with msg and returns its stop function.
// A no-op when progress display is off.
func (p *Pipeline) spin(msg string) func() {
	log.Info(msg)
	if !p.showProgress {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
