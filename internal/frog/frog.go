// Package frog wraps the Screaming Frog SEO Spider CLI. The spider does all
// of the actual crawling; this package only builds the headless invocation,
// runs it, and checks that the expected export CSVs landed on disk.
package frog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// exportTabs is the fixed set of report tabs requested from the spider.
// Each tab becomes one CSV in the output folder.
const exportTabs = "Internal:All," +
	"Response Codes:Client Error (4xx)," +
	"Response Codes:Redirection (3xx)," +
	"Images:Missing Alt Text," +
	"Images:Missing Alt Attribute," +
	"Page Titles:Missing," +
	"Page Titles:Below X Characters," +
	"Meta Description:Missing," +
	"H1:Missing," +
	"H1:Multiple," +
	"H2:Multiple," +
	"Canonicals:Missing," +
	"Security:Missing HSTS Header," +
	"Security:Missing X-Frame-Options Header," +
	"Security:Missing X-Content-Type-Options Header," +
	"Security:Missing Secure Referrer-Policy Header," +
	"Security:Missing Content-Security-Policy Header"

// ExpectedExports are the CSV files a successful crawl should produce.
// VerifyOutput reports the subset that is missing.
var ExpectedExports = []string{
	"internal_all.csv",
	"response_codes_client_error_(4xx).csv",
	"response_codes_redirection_(3xx).csv",
	"images_missing_alt_text.csv",
	"page_titles_missing.csv",
	"h1_missing.csv",
}

// Crawler runs the external spider binary.
type Crawler struct {
	binPath string
}

// New returns a Crawler that invokes the given executable.
func New(binPath string) *Crawler {
	return &Crawler{binPath: binPath}
}

// Run crawls the given URL headlessly and exports the issue CSVs into
// outputDir. Any regular files already in outputDir are removed first so
// stale exports from a previous run cannot leak into the report.
func (c *Crawler) Run(ctx context.Context, url, outputDir string) error {
	if err := cleanOutputDir(outputDir); err != nil {
		return err
	}

	args := []string{
		"--crawl", url,
		"--headless",
		"--save-crawl",
		"--output-folder", outputDir,
		"--export-tabs", exportTabs,
	}

	log.Info("Starting crawl", "url", url, "output_dir", outputDir)
	log.Debug("Spider command", "bin", c.binPath, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// A PATH lookup miss and a missing absolute path surface as
		// different errors; both mean the binary is not there.
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("screaming frog executable not found at %q, check SCREAMING_FROG_PATH: %w", c.binPath, err)
		}
		return fmt.Errorf("screaming frog crawl failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	log.Info("Crawl completed", "url", url)
	log.Debug("Spider output", "output", strings.TrimSpace(string(out)))
	return nil
}

// VerifyOutput returns the expected export files missing from outputDir.
// Missing exports are a data-quality warning, not a failure: the spider
// omits a CSV when a tab has no rows on some versions.
func (c *Crawler) VerifyOutput(outputDir string) []string {
	var missing []string
	for _, name := range ExpectedExports {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		log.Warn("Expected export files not found", "files", strings.Join(missing, ", "))
	}
	return missing
}

// cleanOutputDir creates outputDir if needed and removes any regular files
// inside it. Subdirectories are left alone.
func cleanOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read output directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Error("Failed to remove stale export", "path", path, "error", err)
		}
	}

	return nil
}
