// Command seoaudit generates a multifamily SEO audit workbook for a client
// website: it crawls the site with the Screaming Frog CLI, pulls Semrush
// market data, generates optimized copy through the Anthropic API, and
// fills the report template.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/seoaudit/internal/audit"
	"github.com/go-scripts/seoaudit/internal/config"
	"github.com/go-scripts/seoaudit/internal/copywriter"
	"github.com/go-scripts/seoaudit/internal/frog"
	"github.com/go-scripts/seoaudit/internal/pagefetch"
	"github.com/go-scripts/seoaudit/internal/semrush"
)

// CLI flags structure
type CLI struct {
	URL       string `arg:"" help:"Client website URL (e.g. https://www.example-apartments.com)"`
	City      string `help:"Target city for keyword analysis (e.g. Dallas)" required:"" short:"c"`
	Output    string `help:"Output report filename" default:"SEO_Report_Generated.xlsx" short:"o"`
	Template  string `help:"Report template workbook" default:"SCD - Kahuina SEO Report.xlsx"`
	TempDir   string `help:"Directory for crawl exports" default:"temp_crawl_data"`
	MaxPages  int    `help:"Maximum pages to optimize" default:"5"`
	SkipCrawl bool   `help:"Reuse crawl exports already in the temp directory"`
	NoFetch   bool   `help:"Skip the headless-browser page content fetch"`
	Verbose   bool   `help:"Enable debug logging" short:"v"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("seoaudit"),
		kong.Description("Multifamily SEO report generator"),
	)

	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration error", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fetcher audit.PageFetcher
	if !cli.NoFetch {
		pf := pagefetch.New(30 * time.Second)
		defer pf.Close()
		fetcher = pf
	}

	pipeline := audit.New(
		frog.New(cfg.ScreamingFrogPath),
		semrush.NewClient(cfg.SemrushAPIKey, cfg.SemrushDatabase),
		copywriter.New(cfg.AnthropicAPIKey, cfg.Model),
		fetcher,
	)
	// Spinners and debug logging fight over the terminal.
	pipeline.SetShowProgress(!cli.Verbose)

	log.Info("Starting SEO report generation", "url", cli.URL, "city", cli.City)

	stats, err := pipeline.Run(ctx, audit.Options{
		SiteURL:      cli.URL,
		City:         cli.City,
		TemplatePath: cli.Template,
		OutputPath:   cli.Output,
		TempDir:      cli.TempDir,
		MaxPages:     cli.MaxPages,
		SkipCrawl:    cli.SkipCrawl,
	})
	if err != nil {
		log.Fatal("Audit failed", "error", err)
	}

	log.Info("Done",
		"report", cli.Output,
		"candidates", stats.Candidates,
		"optimized", stats.Optimized,
		"findings", stats.Findings,
	)
}
